// Package app wires one client application (the consumer "mobile" profile or
// the supplier "web" profile) from configuration.
package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/auth"
	authConfig "github.com/iurnickita/scpclient/internal/auth/config"
	"github.com/iurnickita/scpclient/internal/config"
	"github.com/iurnickita/scpclient/internal/dashboard"
	"github.com/iurnickita/scpclient/internal/gateway"
	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/nav"
	"github.com/iurnickita/scpclient/internal/poller"
	"github.com/iurnickita/scpclient/internal/route"
	"github.com/iurnickita/scpclient/internal/screen"
	"github.com/iurnickita/scpclient/internal/service"
	"github.com/iurnickita/scpclient/internal/storage"
)

type App struct {
	Name      string
	Storage   storage.Storage
	Session   auth.Auth
	Service   service.Service
	Table     *route.Table
	Navigator *nav.Navigator

	Auth      *screen.AuthScreen
	Orders    *screen.Orders
	Chat      *screen.Chat
	Discovery *screen.Discovery   // mobile
	Suppliers *screen.MySuppliers // mobile
	Catalog   *screen.Catalog     // mobile
	Products  *screen.Products    // web
	Profile   *screen.Profile     // web
	Dashboard dashboard.Dashboard // web

	zaplog *zap.Logger
}

// Keys returns the durable storage keys of the profile.
func Keys(name string) authConfig.Config {
	if name == config.AppWeb {
		return authConfig.Config{TokenKey: "token", UserIDKey: "user_id", RoleKey: "user_role", RegisterRole: model.RoleSupplierAdmin}
	}
	return authConfig.Config{TokenKey: "auth_token", UserIDKey: "user_id", RoleKey: "user_role", RegisterRole: model.RoleConsumer}
}

// New opens the profile's storage and builds its controllers. The session is
// still loading until Start is called.
func New(cfg config.Config, notifier screen.Notifier, zaplog *zap.Logger, opts ...poller.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return NewWithStorage(cfg, store, notifier, zaplog, opts...), nil
}

func NewWithStorage(cfg config.Config, store storage.Storage, notifier screen.Notifier, zaplog *zap.Logger, opts ...poller.Option) *App {
	zaplog = zaplog.With(zap.String("app", cfg.App))
	web := cfg.App == config.AppWeb

	// токен на /auth не нужен
	public := gateway.New(cfg.Gateway, nil, zaplog)
	session := auth.NewAuth(Keys(cfg.App), store, service.NewAuthClient(public), zaplog)
	svc := service.NewService(gateway.New(cfg.Gateway, session, zaplog))

	table := route.Mobile()
	if web {
		table = route.Web()
	}
	navigator := nav.New(route.NewGuard(table), session, zaplog)

	a := &App{
		Name:      cfg.App,
		Storage:   store,
		Session:   session,
		Service:   svc,
		Table:     table,
		Navigator: navigator,
		Auth:      screen.NewAuthScreen(session, navigator, table, notifier, !web, zaplog),
		Orders:    screen.NewOrders(svc, notifier, web),
		Chat:      screen.NewChat(svc, cfg.Poller, notifier, zaplog, opts...),
		zaplog:    zaplog,
	}
	if web {
		a.Products = screen.NewProducts(svc, notifier)
		a.Profile = screen.NewProfile(svc, store, notifier, zaplog)
		a.Dashboard = dashboard.NewDashboard(svc, notifier, nil)
	} else {
		a.Discovery = screen.NewDiscovery(svc, notifier)
		a.Suppliers = screen.NewMySuppliers(svc, navigator, table, notifier)
		a.Catalog = screen.NewCatalog(svc, navigator, table, notifier, zaplog)
	}
	return a
}

// Start restores the persisted session. A storage failure is logged and
// leaves the application anonymous.
func (a *App) Start(ctx context.Context) error {
	session, err := a.Session.Restore(ctx)
	if err != nil {
		a.zaplog.Warn("session not restored", zap.Error(err))
		return nil
	}
	if session.Authenticated() {
		a.zaplog.Debug("session restored", zap.String("user_id", session.UserID))
	}
	return nil
}

// Open navigates to path through the route guard.
func (a *App) Open(path string) route.Decision {
	return a.Navigator.Navigate(path)
}

func (a *App) Close() error {
	a.Chat.Close()
	a.Navigator.Close()
	return a.Storage.Close()
}

// IsWeb reports whether this is the supplier application.
func (a *App) IsWeb() bool {
	return a.Name == config.AppWeb
}
