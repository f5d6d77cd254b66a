package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/route"
	"github.com/iurnickita/scpclient/internal/token"
)

const timeLayout = "2006-01-02 15:04"

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", ErrUsage, s)
	}
	return id, nil
}

func (c *CLI) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *CLI) need(args []string, n int) error {
	if len(args) < n {
		return ErrUsage
	}
	return nil
}

// Сессия

func (c *CLI) login(ctx context.Context, args []string) error {
	if err := c.need(args, 2); err != nil {
		return err
	}
	if err := c.app.Auth.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	session := c.app.Session.Session()
	fmt.Fprintf(c.out, "logged in as user %s (%s)\n", session.UserID, session.Role)
	return nil
}

func (c *CLI) register(ctx context.Context, args []string) error {
	if err := c.need(args, 3); err != nil {
		return err
	}
	name := strings.Join(args[2:], " ")
	if err := c.app.Auth.Register(ctx, args[0], args[1], name); err != nil {
		return err
	}
	if c.app.Session.Session().Authenticated() {
		fmt.Fprintf(c.out, "registered and logged in as user %s\n", c.app.Session.Session().UserID)
	}
	return nil
}

func (c *CLI) logout(ctx context.Context, _ []string) error {
	if err := c.app.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "logged out")
	return nil
}

func (c *CLI) whoami(_ context.Context, _ []string) error {
	session := c.app.Session.Session()
	if !session.Authenticated() {
		fmt.Fprintln(c.out, "anonymous")
		return nil
	}
	fmt.Fprintf(c.out, "user %s (%s)", session.UserID, session.Role)
	if session.Subject != "" {
		fmt.Fprintf(c.out, " %s", session.Subject)
	}
	if claims, err := token.GetClaims(session.Token); err == nil && !claims.ExpiresAt.IsZero() {
		if claims.Expired(time.Now()) {
			fmt.Fprintf(c.out, ", token expired %s", claims.ExpiresAt.Local().Format(timeLayout))
		} else {
			fmt.Fprintf(c.out, ", token expires %s", claims.ExpiresAt.Local().Format(timeLayout))
		}
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *CLI) open(_ context.Context, args []string) error {
	if err := c.need(args, 1); err != nil {
		return err
	}
	decision := c.app.Open(args[0])
	current := c.app.Navigator.Current()
	switch decision.Action {
	case route.Wait:
		fmt.Fprintf(c.out, "%s: waiting for session\n", args[0])
	case route.Redirect:
		fmt.Fprintf(c.out, "%s: redirected to %s (%s)\n", args[0], current.Path, current.Kind)
	default:
		fmt.Fprintf(c.out, "%s: %s\n", current.Path, current.Kind)
	}
	return nil
}

// Потребитель

func (c *CLI) suppliers(ctx context.Context, _ []string) error {
	entries, err := c.app.Discovery.Load(ctx)
	if err != nil {
		return err
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tNAME\tVERIFIED\tLINK")
	for _, e := range entries {
		status := e.LinkStatus
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", e.ID, e.Name, e.VerificationStatus, status)
	}
	return w.Flush()
}

func (c *CLI) connect(ctx context.Context, args []string) error {
	if err := c.need(args, 1); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return c.app.Discovery.RequestLink(ctx, id)
}

func (c *CLI) links(ctx context.Context, _ []string) error {
	links, err := c.app.Suppliers.Load(ctx)
	if err != nil {
		return err
	}
	w := c.table()
	fmt.Fprintln(w, "SUPPLIER\tNAME\tSTATUS\tSINCE")
	for _, l := range links {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.SupplierID, l.SupplierName, l.Status, l.CreatedAt.Local().Format(timeLayout))
	}
	return w.Flush()
}

func (c *CLI) catalog(ctx context.Context, args []string) error {
	id, _ := parseID(args[0])
	products, err := c.app.Catalog.Load(ctx, id)
	if err != nil {
		return err
	}
	c.printProducts(products)
	return nil
}

func (c *CLI) order(ctx context.Context, args []string) error {
	if err := c.need(args, 2); err != nil {
		return err
	}
	supplierID, _ := parseID(args[0])
	if _, err := c.app.Catalog.Load(ctx, supplierID); err != nil {
		return err
	}

	cart := c.app.Catalog.Cart()
	cart.Clear()
	for _, item := range args[1:] {
		productID, qty, err := parseItem(item)
		if err != nil {
			return err
		}
		cart.Set(productID, cart.Quantity(productID)+qty)
	}

	units := cart.TotalItems()
	order, err := c.app.Catalog.PlaceOrder(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %d: %d item(s), %d unit(s), total %.2f, %s\n", order.ID, len(order.Items), units, order.TotalAmount.Float64(), order.Status)
	return nil
}

// parseItem разбирает "productID" или "productID=qty".
func parseItem(item string) (int64, int, error) {
	idPart, qtyPart, hasQty := strings.Cut(item, "=")
	productID, err := parseID(idPart)
	if err != nil {
		return 0, 0, err
	}
	if !hasQty {
		return productID, 1, nil
	}
	qty, err := strconv.Atoi(qtyPart)
	if err != nil || qty <= 0 {
		return 0, 0, fmt.Errorf("%w: bad quantity %q", ErrUsage, qtyPart)
	}
	return productID, qty, nil
}

// Заказы

func (c *CLI) orders(ctx context.Context, _ []string) error {
	entries, err := c.app.Orders.Load(ctx)
	if err != nil {
		return err
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tWITH\tTOTAL\tSTATUS\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%s\n", e.ID, e.Counterparty, e.TotalAmount.Float64(), e.Status, e.CreatedAt.Local().Format(timeLayout))
	}
	return w.Flush()
}

func (c *CLI) orderShow(ctx context.Context, args []string) error {
	id, _ := parseID(args[0])
	order, err := c.app.Orders.Details(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "order %d from %s, %s, created %s\n", order.ID, order.Counterparty, order.Status, order.CreatedAt.Local().Format(timeLayout))
	w := c.table()
	fmt.Fprintln(w, "PRODUCT\tQTY")
	for _, item := range order.Items {
		fmt.Fprintf(w, "%d\t%d\n", item.ProductID, item.Quantity)
	}
	fmt.Fprintf(w, "total\t%.2f\n", order.TotalAmount.Float64())
	return w.Flush()
}

func (c *CLI) orderStatus(ctx context.Context, args []string) error {
	if err := c.need(args, 2); err != nil {
		return err
	}
	id, _ := parseID(args[0])
	switch args[1] {
	case model.OrderStatusConfirmed:
		return c.app.Orders.Accept(ctx, id)
	case model.OrderStatusRejected:
		return c.app.Orders.Reject(ctx, id)
	default:
		return ErrUsage
	}
}

// Чат

// chatScreen открывает экран чата профиля: у потребителя он привязан к
// собеседнику, у поставщика это общий список.
func (c *CLI) chatScreen(id string) (bool, error) {
	if c.app.IsWeb() {
		return c.enter(route.Chat)
	}
	return c.enter(route.ChatWith, id)
}

func (c *CLI) chat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		if !c.app.IsWeb() {
			return ErrUsage
		}
		if proceed, err := c.enter(route.Chat); err != nil || !proceed {
			return err
		}
		return c.conversations(ctx)
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if proceed, err := c.chatScreen(args[0]); err != nil || !proceed {
		return err
	}
	return c.talk(ctx, id)
}

func (c *CLI) conversations(ctx context.Context) error {
	convos, err := c.app.Chat.Conversations(ctx)
	if err != nil {
		return err
	}
	w := c.table()
	fmt.Fprintln(w, "USER\tNAME")
	for _, conv := range convos {
		fmt.Fprintf(w, "%d\t%s\n", conv.ID, conv.Name)
	}
	return w.Flush()
}

// talk печатает переписку по мере опроса и отправляет строки из in.
func (c *CLI) talk(ctx context.Context, id int64) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	printed := 0
	unsubscribe := c.app.Chat.Subscribe(func(messages []model.ChatMessage) {
		mu.Lock()
		defer mu.Unlock()
		if len(messages) < printed {
			printed = 0
		}
		for _, m := range messages[printed:] {
			c.printMessage(m)
		}
		printed = len(messages)
	})
	defer unsubscribe()

	c.app.Chat.Open(ctx, id)
	defer c.app.Chat.Close()

	input := lines(ctx, c.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-input:
			if !ok {
				return nil
			}
			if err := c.app.Chat.Send(ctx, line); err != nil {
				return err
			}
		}
	}
}

func (c *CLI) printMessage(m model.ChatMessage) {
	who := "them"
	if strconv.FormatInt(m.SenderID, 10) == c.app.Session.Session().UserID {
		who = "me"
	}
	fmt.Fprintf(c.out, "[%s] %s: %s\n", m.Timestamp.Local().Format(time.Kitchen), who, m.Content)
}

func (c *CLI) send(ctx context.Context, args []string) error {
	if err := c.need(args, 2); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if proceed, err := c.chatScreen(args[0]); err != nil || !proceed {
		return err
	}

	c.app.Chat.Open(ctx, id)
	defer c.app.Chat.Close()
	if err := c.app.Chat.Send(ctx, strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "sent")
	return nil
}

// Поставщик

func (c *CLI) dashboard(ctx context.Context, _ []string) error {
	s, err := c.app.Dashboard.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "orders today: %d\npending orders: %d\nconnected customers: %d\npending requests: %d\n",
		s.OrdersToday, s.PendingOrders, s.ConnectedCustomers, s.PendingLinks)

	w := c.table()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "REQUEST\tCUSTOMER\tSTATUS\tCREATED")
	for _, l := range s.Links {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.ID, l.ConsumerName, l.Status, l.CreatedAt.Local().Format(timeLayout))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "RECENT ORDER\tTOTAL\tSTATUS\t")
	for _, o := range s.RecentOrders {
		fmt.Fprintf(w, "%d\t%.2f\t%s\t\n", o.ID, o.TotalAmount.Float64(), o.Status)
	}
	return w.Flush()
}

func (c *CLI) linkStatus(ctx context.Context, args []string) error {
	if err := c.need(args, 2); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	switch args[1] {
	case model.LinkStatusAccepted:
		_, err = c.app.Dashboard.Approve(ctx, id)
	case model.LinkStatusRejected:
		_, err = c.app.Dashboard.Reject(ctx, id)
	default:
		return ErrUsage
	}
	return err
}

func (c *CLI) products(ctx context.Context, args []string) error {
	if _, err := c.app.Products.Load(ctx); err != nil {
		return err
	}
	c.printProducts(c.app.Products.Filter(strings.Join(args, " ")))
	return nil
}

func (c *CLI) printProducts(products []model.Product) {
	w := c.table()
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK\t")
	for _, p := range products {
		price := fmt.Sprintf("%.2f", p.DisplayPrice())
		if p.Discounted() {
			price += fmt.Sprintf(" (was %.2f, -%d%%)", p.StruckPrice(), p.DiscountPercent)
		}
		stock := fmt.Sprintf("%d %s", p.Quantity, p.Unit)
		var note string
		switch {
		case !p.InStock():
			note = "out of stock"
		case p.LowStock():
			note = "low stock"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, price, stock, note)
	}
	w.Flush()
}

// productInput разбирает "<name> <price> <quantity> <unit>".
func productInput(args []string) (model.ProductInput, error) {
	if len(args) < 4 {
		return model.ProductInput{}, ErrUsage
	}
	price, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return model.ProductInput{}, fmt.Errorf("%w: bad price %q", ErrUsage, args[1])
	}
	qty, err := strconv.Atoi(args[2])
	if err != nil {
		return model.ProductInput{}, fmt.Errorf("%w: bad quantity %q", ErrUsage, args[2])
	}
	return model.ProductInput{Name: args[0], Price: price, Quantity: qty, Unit: args[3]}, nil
}

func (c *CLI) productAdd(ctx context.Context, args []string) error {
	input, err := productInput(args)
	if err != nil {
		return err
	}
	return c.app.Products.Add(ctx, input)
}

func (c *CLI) productEdit(ctx context.Context, args []string) error {
	if err := c.need(args, 1); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	input, err := productInput(args[1:])
	if err != nil {
		return err
	}
	return c.app.Products.Edit(ctx, id, input)
}

func (c *CLI) discount(ctx context.Context, args []string) error {
	if err := c.need(args, 2); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	percent, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%w: bad percent %q", ErrUsage, args[1])
	}
	return c.app.Products.Discount(ctx, id, percent)
}

func (c *CLI) productRemove(ctx context.Context, args []string) error {
	if err := c.need(args, 1); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return c.app.Products.Remove(ctx, id)
}

func (c *CLI) profile(ctx context.Context, args []string) error {
	if len(args) > 0 {
		if args[0] != "about" || len(args) < 2 {
			return ErrUsage
		}
		if err := c.app.Profile.SaveAbout(ctx, strings.Join(args[1:], " ")); err != nil {
			return err
		}
	}
	about, visible, err := c.app.Profile.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "about: %s\nvisible: %t\n", about, visible)
	return nil
}

func (c *CLI) visibility(ctx context.Context, args []string) error {
	if err := c.need(args, 1); err != nil {
		return err
	}
	switch args[0] {
	case "show":
		return c.app.Profile.SetVisible(ctx, true)
	case "hide":
		return c.app.Profile.SetVisible(ctx, false)
	default:
		return ErrUsage
	}
}
