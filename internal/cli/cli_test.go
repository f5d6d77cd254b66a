package cli

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/app"
	"github.com/iurnickita/scpclient/internal/backendtest"
	"github.com/iurnickita/scpclient/internal/config"
	gatewayConfig "github.com/iurnickita/scpclient/internal/gateway/config"
	"github.com/iurnickita/scpclient/internal/model"
	pollerConfig "github.com/iurnickita/scpclient/internal/poller/config"
	"github.com/iurnickita/scpclient/internal/route"
	"github.com/iurnickita/scpclient/internal/screen"
	"github.com/iurnickita/scpclient/internal/service"
	"github.com/iurnickita/scpclient/internal/storage"
)

type fixture struct {
	backend    *backendtest.Backend
	consumerID int64
	ownerID    int64
	supplierID int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := backendtest.New()
	t.Cleanup(backend.Close)
	f := fixture{backend: backend}
	f.consumerID = backend.AddUser("buyer@local.com", "pass", "Local Buyer", model.RoleConsumer)
	f.ownerID = backend.AddUser("supplier@local.com", "pass", "Fresh Farm", model.RoleSupplierAdmin)
	f.supplierID = backend.SupplierOf(f.ownerID)
	return f
}

type client struct {
	cli     *CLI
	app     *app.App
	out     *bytes.Buffer
	notices *bytes.Buffer
}

func newClient(t *testing.T, f fixture, profile string, in io.Reader) *client {
	t.Helper()
	cfg := config.Config{
		App:     profile,
		Gateway: gatewayConfig.Config{BaseURL: f.backend.URL, Timeout: 5 * time.Second},
		Poller:  pollerConfig.Config{Interval: time.Hour},
	}
	notices := &bytes.Buffer{}
	a := app.NewWithStorage(cfg, storage.NewMemory(), Notices(notices), zap.NewNop())
	t.Cleanup(func() { a.Close() })
	require.NoError(t, a.Start(context.Background()))

	out := &bytes.Buffer{}
	return &client{cli: New(a, in, out, zap.NewNop()), app: a, out: out, notices: notices}
}

func (c *client) run(t *testing.T, args ...string) string {
	t.Helper()
	c.out.Reset()
	require.NoError(t, c.cli.Run(context.Background(), args))
	return c.out.String()
}

func (c *client) fail(t *testing.T, args ...string) error {
	t.Helper()
	err := c.cli.Run(context.Background(), args)
	require.Error(t, err)
	return err
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestLoginRequired(t *testing.T) {
	f := newFixture(t)
	c := newClient(t, f, config.AppMobile, nil)

	require.ErrorIs(t, c.fail(t, "orders"), ErrLoginRequired)
	require.ErrorIs(t, c.fail(t, "catalog", id(f.supplierID)), ErrLoginRequired)
	require.Equal(t, route.Login, c.app.Navigator.Current().Kind)
	require.Zero(t, f.backend.Hits("GET", "/orders"))

	require.Equal(t, "anonymous\n", c.run(t, "whoami"))
}

func TestWhoamiExpiredToken(t *testing.T) {
	f := newFixture(t)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "buyer@local.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("other-key"))
	require.NoError(t, err)

	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Set(ctx, "auth_token", expired))
	require.NoError(t, store.Set(ctx, "user_id", id(f.consumerID)))
	require.NoError(t, store.Set(ctx, "user_role", model.RoleConsumer))

	cfg := config.Config{
		App:     config.AppMobile,
		Gateway: gatewayConfig.Config{BaseURL: f.backend.URL, Timeout: 5 * time.Second},
		Poller:  pollerConfig.Config{Interval: time.Hour},
	}
	a := app.NewWithStorage(cfg, store, Notices(io.Discard), zap.NewNop())
	t.Cleanup(func() { a.Close() })
	require.NoError(t, a.Start(ctx))

	out := &bytes.Buffer{}
	require.NoError(t, New(a, nil, out, zap.NewNop()).Run(ctx, []string{"whoami"}))
	require.Contains(t, out.String(), "buyer@local.com, token expired")
}

func TestCommandErrors(t *testing.T) {
	f := newFixture(t)
	c := newClient(t, f, config.AppMobile, nil)
	c.run(t, "login", "buyer@local.com", "pass")

	require.ErrorIs(t, c.fail(t, "teleport"), ErrUnknownCommand)
	err := c.fail(t, "catalog", "abc")
	require.ErrorIs(t, err, ErrUsage)
	require.Contains(t, err.Error(), "usage: catalog <supplierID>")
	require.ErrorIs(t, c.fail(t, "dashboard"), ErrWrongApp)
	require.ErrorIs(t, c.fail(t, "order-show", "1"), ErrWrongApp)

	help := c.run(t, "help")
	require.Contains(t, help, "catalog <supplierID>")
	require.NotContains(t, help, "dashboard")
}

func TestConsumerFlow(t *testing.T) {
	f := newFixture(t)
	apples := f.backend.AddProduct(f.supplierID, "Apples", 120, 50, "kg")
	c := newClient(t, f, config.AppMobile, nil)

	out := c.run(t, "login", "buyer@local.com", "pass")
	require.Equal(t, "logged in as user "+id(f.consumerID)+" (consumer)\n", out)
	require.Contains(t, c.run(t, "login", "buyer@local.com", "pass"), "already logged in")
	require.Contains(t, c.run(t, "whoami"), "buyer@local.com")

	out = c.run(t, "suppliers")
	require.Contains(t, out, "Fresh Farm")

	c.run(t, "connect", id(f.supplierID))
	require.Contains(t, c.notices.String(), "! Request sent!")

	// запрос еще не принят
	require.ErrorIs(t, c.fail(t, "catalog", id(f.supplierID)), service.ErrAccessDenied)
	require.Equal(t, route.MySuppliers, c.app.Navigator.Current().Kind)

	links, err := c.app.Service.MyLinks(context.Background())
	require.NoError(t, err)
	require.Len(t, links, 1)
	f.backend.SetLinkStatus(links[0].ID, model.LinkStatusAccepted)

	require.Contains(t, c.run(t, "links"), "accepted")
	require.Contains(t, c.run(t, "catalog", id(f.supplierID)), "Apples")

	out = c.run(t, "order", id(f.supplierID), id(apples)+"=2")
	require.Contains(t, out, "2 unit(s), total 240.00")
	require.Equal(t, route.Orders, c.app.Navigator.Current().Kind)
	require.Equal(t, 1, f.backend.OrderCount())

	err = c.fail(t, "order", id(f.supplierID), id(apples)+"=zero")
	require.ErrorIs(t, err, ErrUsage)

	out = c.run(t, "orders")
	require.Contains(t, out, "Supplier #"+id(f.supplierID))
	require.Contains(t, out, "240.00")

	c.run(t, "logout")
	require.ErrorIs(t, c.fail(t, "orders"), ErrLoginRequired)
}

func TestSupplierFlow(t *testing.T) {
	f := newFixture(t)
	linkID := f.backend.AddLink(f.consumerID, f.supplierID, model.LinkStatusPending)
	orderID := f.backend.AddOrder(f.consumerID, f.supplierID, 75, model.OrderStatusPending, time.Now())
	c := newClient(t, f, config.AppWeb, nil)

	c.run(t, "login", "supplier@local.com", "pass")
	require.Equal(t, route.Dashboard, c.app.Navigator.Current().Kind)
	require.ErrorIs(t, c.fail(t, "catalog", id(f.supplierID)), ErrWrongApp)

	out := c.run(t, "dashboard")
	require.Contains(t, out, "pending requests: 1")
	require.Contains(t, out, "Customer #"+id(f.consumerID))

	c.run(t, "link-status", id(linkID), "accepted")
	require.Equal(t, model.LinkStatusAccepted, f.backend.LinkStatus(f.consumerID, f.supplierID))
	require.ErrorIs(t, c.fail(t, "link-status", id(linkID), "maybe"), ErrUsage)

	require.Contains(t, c.run(t, "chat"), "Customer #"+id(f.consumerID))

	c.run(t, "product-add", "Milk", "100", "40", "l")
	c.run(t, "product-add", "Cheese", "540", "3", "kg")
	out = c.run(t, "products", "milk")
	require.Contains(t, out, "Milk")
	require.NotContains(t, out, "Cheese")
	require.Contains(t, c.run(t, "products"), "low stock")

	milk := c.app.Products.Filter("milk")[0]
	c.run(t, "discount", id(milk.ID), "10")
	require.Contains(t, c.run(t, "products", "milk"), "90.00 (was 100.00, -10%)")
	require.ErrorIs(t, c.fail(t, "discount", id(milk.ID), "150"), screen.ErrInvalidInput)
	c.run(t, "product-edit", id(milk.ID), "GoatMilk", "110", "40", "l")
	require.Contains(t, c.run(t, "products", "goat"), "110.00")
	c.run(t, "product-remove", id(milk.ID))
	require.False(t, f.backend.ProductExists(milk.ID))

	out = c.run(t, "order-show", id(orderID))
	require.Contains(t, out, "order "+id(orderID)+" from Customer #"+id(f.consumerID))
	c.run(t, "order-status", id(orderID), "confirmed")
	require.Equal(t, model.OrderStatusConfirmed, f.backend.OrderStatus(orderID))

	out = c.run(t, "profile", "about", "Family", "farm")
	require.Contains(t, out, "about: Family farm")
	c.run(t, "visibility", "show")
	about, visible := f.backend.Profile(f.supplierID)
	require.Equal(t, "Family farm", about)
	require.True(t, visible)
}

func TestChatSession(t *testing.T) {
	f := newFixture(t)
	f.backend.AddLink(f.consumerID, f.supplierID, model.LinkStatusAccepted)
	f.backend.AddMessage(f.consumerID, f.ownerID, "any milk today?")

	c := newClient(t, f, config.AppWeb, strings.NewReader("yes\n\nuntil noon\n"))
	c.run(t, "login", "supplier@local.com", "pass")

	out := c.run(t, "chat", id(f.consumerID))
	require.Contains(t, out, "them: any milk today?")
	require.Contains(t, out, "me: yes")
	require.Contains(t, out, "me: until noon")
	require.Equal(t, 2, f.backend.Hits("POST", "/chat"))

	c.run(t, "send", id(f.consumerID), "see", "you")
	require.Equal(t, 3, f.backend.Hits("POST", "/chat"))
	_, active := c.app.Chat.Active()
	require.False(t, active)
}
