package screen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/auth"
	authConfig "github.com/iurnickita/scpclient/internal/auth/config"
	"github.com/iurnickita/scpclient/internal/backendtest"
	"github.com/iurnickita/scpclient/internal/gateway"
	gatewayConfig "github.com/iurnickita/scpclient/internal/gateway/config"
	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/nav"
	"github.com/iurnickita/scpclient/internal/route"
	"github.com/iurnickita/scpclient/internal/service"
	"github.com/iurnickita/scpclient/internal/storage"
)

type notices struct {
	mu   sync.Mutex
	list []string
}

func (n *notices) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, message)
}

func (n *notices) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.list) == 0 {
		return ""
	}
	return n.list[len(n.list)-1]
}

type env struct {
	backend   *backendtest.Backend
	storage   storage.Storage
	session   auth.Auth
	svc       service.Service
	table     *route.Table
	navigator *nav.Navigator
	notices   *notices
}

func newEnv(t *testing.T, backend *backendtest.Backend, table *route.Table, keys authConfig.Config) *env {
	t.Helper()
	cfg := gatewayConfig.Config{BaseURL: backend.URL, Timeout: 5 * time.Second}
	store := storage.NewMemory()

	session := auth.NewAuth(keys, store, service.NewAuthClient(gateway.New(cfg, nil, zap.NewNop())), zap.NewNop())
	navigator := nav.New(route.NewGuard(table), session, zap.NewNop())
	t.Cleanup(navigator.Close)
	_, err := session.Restore(context.Background())
	require.NoError(t, err)

	return &env{
		backend:   backend,
		storage:   store,
		session:   session,
		svc:       service.NewService(gateway.New(cfg, session, zap.NewNop())),
		table:     table,
		navigator: navigator,
		notices:   &notices{},
	}
}

var (
	mobileKeys = authConfig.Config{TokenKey: "auth_token", UserIDKey: "user_id", RoleKey: "user_role", RegisterRole: model.RoleConsumer}
	webKeys    = authConfig.Config{TokenKey: "token", UserIDKey: "user_id", RoleKey: "user_role", RegisterRole: model.RoleSupplierAdmin}
)

func newMobile(t *testing.T, backend *backendtest.Backend) *env {
	return newEnv(t, backend, route.Mobile(), mobileKeys)
}

func newWeb(t *testing.T, backend *backendtest.Backend) *env {
	return newEnv(t, backend, route.Web(), webKeys)
}

func (e *env) login(t *testing.T, email string) {
	t.Helper()
	_, err := e.session.Login(context.Background(), email, "pass")
	require.NoError(t, err)
}

type marketplace struct {
	backend    *backendtest.Backend
	consumerID int64
	ownerID    int64
	supplierID int64
}

func newMarketplace(t *testing.T) marketplace {
	t.Helper()
	backend := backendtest.New()
	t.Cleanup(backend.Close)
	m := marketplace{backend: backend}
	m.consumerID = backend.AddUser("buyer@local.com", "pass", "Local Buyer", model.RoleConsumer)
	m.ownerID = backend.AddUser("supplier@local.com", "pass", "Fresh Farm", model.RoleSupplierAdmin)
	m.supplierID = backend.SupplierOf(m.ownerID)
	return m
}
