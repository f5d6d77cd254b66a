// Package cli is the command-line front end of both applications. Every
// command is a screen of the application: it is first opened through the
// route guard, then run against the screen controller.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/app"
	"github.com/iurnickita/scpclient/internal/auth"
	"github.com/iurnickita/scpclient/internal/gateway"
	"github.com/iurnickita/scpclient/internal/logger"
	"github.com/iurnickita/scpclient/internal/route"
	"github.com/iurnickita/scpclient/internal/screen"
	"github.com/iurnickita/scpclient/internal/service"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("wrong arguments")
	ErrLoginRequired  = errors.New("login required")
	ErrWrongApp       = errors.New("not available in this application")
)

type handlerFunc func(ctx context.Context, args []string) error

type command struct {
	usage string
	// screen, который команда открывает; NotFound: без навигации
	kind route.Kind
	// params извлекает параметры маршрута из аргументов
	params func(args []string) ([]string, error)
	run    handlerFunc
}

type CLI struct {
	app    *app.App
	in     io.Reader
	out    io.Writer
	zaplog *zap.Logger

	commands map[string]command
}

func New(a *app.App, in io.Reader, out io.Writer, zaplog *zap.Logger) *CLI {
	c := &CLI{app: a, in: in, out: out, zaplog: zaplog}
	c.commands = c.newRouter()
	return c
}

// Notices печатает уведомления экранов.
func Notices(w io.Writer) screen.Notifier {
	return screen.NotifierFunc(func(message string) {
		fmt.Fprintln(w, "!", message)
	})
}

func (c *CLI) newRouter() map[string]command {
	return map[string]command{
		"login":    {usage: "login <email> <password>", kind: route.Login, run: c.login},
		"register": {usage: "register <email> <password> <name...>", kind: route.Register, run: c.register},
		"logout":   {usage: "logout", run: c.logout},
		"whoami":   {usage: "whoami", run: c.whoami},
		"open":     {usage: "open <path>", run: c.open},

		"suppliers": {usage: "suppliers", kind: route.Home, run: c.suppliers},
		"connect":   {usage: "connect <supplierID>", kind: route.Home, run: c.connect},
		"links":     {usage: "links", kind: route.MySuppliers, run: c.links},
		"catalog":   {usage: "catalog <supplierID>", kind: route.SupplierCatalog, params: idArg, run: c.catalog},
		"order":     {usage: "order <supplierID> <productID>[=qty]...", kind: route.SupplierCatalog, params: idArg, run: c.order},

		"orders":       {usage: "orders", kind: route.Orders, run: c.orders},
		"order-show":   {usage: "order-show <id>", kind: route.OrderDetails, params: idArg, run: c.orderShow},
		"order-status": {usage: "order-status <id> confirmed|rejected", kind: route.OrderDetails, params: idArg, run: c.orderStatus},

		"chat": {usage: "chat [userID]", run: c.chat},
		"send": {usage: "send <userID> <text...>", run: c.send},

		"dashboard":      {usage: "dashboard", kind: route.Dashboard, run: c.dashboard},
		"link-status":    {usage: "link-status <id> accepted|rejected", kind: route.Dashboard, run: c.linkStatus},
		"products":       {usage: "products [filter]", kind: route.Products, run: c.products},
		"product-add":    {usage: "product-add <name> <price> <quantity> <unit>", kind: route.Products, run: c.productAdd},
		"product-edit":   {usage: "product-edit <id> <name> <price> <quantity> <unit>", kind: route.Products, run: c.productEdit},
		"discount":       {usage: "discount <id> <percent>", kind: route.Products, run: c.discount},
		"product-remove": {usage: "product-remove <id>", kind: route.Products, run: c.productRemove},
		"profile":        {usage: "profile [about <text...>]", kind: route.Profile, run: c.profile},
		"visibility":     {usage: "visibility show|hide", kind: route.Profile, run: c.visibility},
	}
}

// idArg: первый аргумент, числовой идентификатор
func idArg(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, ErrUsage
	}
	if _, err := parseID(args[0]); err != nil {
		return nil, err
	}
	return args[:1], nil
}

// Run выполняет одну команду.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" {
		c.usage()
		return nil
	}
	name, rest := args[0], args[1:]
	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	h := logger.CommandLogMdlw(name, c.navigate(cmd), c.zaplog)
	err := h(ctx, rest)
	if err != nil {
		if errors.Is(err, ErrUsage) {
			return fmt.Errorf("%w, usage: %s", err, cmd.usage)
		}
		return describe(err)
	}
	return nil
}

// navigate открывает экран команды через guard и только потом выполняет ее.
func (c *CLI) navigate(cmd command) handlerFunc {
	return func(ctx context.Context, args []string) error {
		if cmd.kind == route.NotFound {
			return cmd.run(ctx, args)
		}

		var params []string
		if cmd.params != nil {
			p, err := cmd.params(args)
			if err != nil {
				return err
			}
			params = p
		}
		proceed, err := c.enter(cmd.kind, params...)
		if err != nil || !proceed {
			return err
		}
		return cmd.run(ctx, args)
	}
}

// enter переходит на экран kind. false без ошибки: guard увел на домашний
// экран (вход и регистрация для уже вошедшего пользователя).
func (c *CLI) enter(kind route.Kind, params ...string) (bool, error) {
	path, ok := c.app.Table.Path(kind, params...)
	if !ok {
		return false, ErrWrongApp
	}

	decision := c.app.Open(path)
	switch decision.Action {
	case route.Wait:
		return false, ErrLoginRequired
	case route.Redirect:
		if decision.Target == c.app.Table.Login() {
			return false, ErrLoginRequired
		}
		fmt.Fprintln(c.out, "already logged in as user", c.app.Session.Session().UserID)
		return false, nil
	}
	return true, nil
}

// describe переводит ошибки слоев в сообщение для пользователя
func describe(err error) error {
	var reqErr *gateway.RequestError
	switch {
	case errors.Is(err, auth.ErrAuthenticationFailed),
		errors.Is(err, auth.ErrRegistrationFailed),
		errors.Is(err, auth.ErrInsufficientData),
		errors.Is(err, screen.ErrInvalidInput):
		return err
	case errors.Is(err, service.ErrAccessDenied):
		return service.ErrAccessDenied
	case errors.Is(err, service.ErrNotFound):
		return service.ErrNotFound
	case errors.As(err, &reqErr):
		if reqErr.Detail != "" {
			return fmt.Errorf("%w: %s", gateway.ErrRequestFailed, reqErr.Detail)
		}
		return fmt.Errorf("%w: status %d", gateway.ErrRequestFailed, reqErr.StatusCode)
	default:
		return err
	}
}

func (c *CLI) usage() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(c.out, "scpclient (%s) commands:\n", c.app.Name)
	for _, name := range names {
		cmd := c.commands[name]
		if cmd.kind != route.NotFound {
			if _, ok := c.app.Table.Path(cmd.kind, placeholder(cmd)...); !ok {
				continue
			}
		}
		fmt.Fprintln(c.out, "  "+cmd.usage)
	}
}

func placeholder(cmd command) []string {
	if cmd.params == nil {
		return nil
	}
	return []string{"0"}
}

// lines читает непустые строки из in до EOF или отмены контекста.
func lines(ctx context.Context, in io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
