package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iurnickita/scpclient/internal/auth"
)

func TestResolveMobile(t *testing.T) {
	table := Mobile()
	tests := []struct {
		path   string
		kind   Kind
		access Access
		params map[string]string
	}{
		{"/auth/login", Login, AuthOnly, nil},
		{"/auth/register", Register, AuthOnly, nil},
		{"/", Home, Protected, nil},
		{"", Home, Protected, nil},
		{"/mysuppliers/", MySuppliers, Protected, nil},
		{"/orders?tab=all", Orders, Protected, nil},
		{"/supplier/12", SupplierCatalog, Protected, map[string]string{"id": "12"}},
		{"/chat/4", ChatWith, Protected, map[string]string{"id": "4"}},
		// без сопоставления по префиксу
		{"/supplier", NotFound, AuthOnly, nil},
		{"/supplier/12/extra", NotFound, AuthOnly, nil},
		{"/authx/login", NotFound, AuthOnly, nil},
		{"/dashboard", NotFound, AuthOnly, nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := table.Resolve(tt.path)
			assert.Equal(t, tt.kind, r.Kind)
			assert.Equal(t, tt.access, r.Access)
			assert.Equal(t, tt.params, r.Params)
		})
	}
}

func TestResolveWeb(t *testing.T) {
	table := Web()
	tests := []struct {
		path   string
		kind   Kind
		access Access
	}{
		{"/", Login, AuthOnly},
		{"/register", Register, AuthOnly},
		{"/about", About, Public},
		{"/dashboard", Dashboard, Protected},
		{"/products", Products, Protected},
		{"/orders", Orders, Protected},
		{"/orders/9", OrderDetails, Protected},
		{"/chat", Chat, Protected},
		{"/profile", Profile, Protected},
		{"/chat/9", NotFound, AuthOnly},
		{"/mysuppliers", NotFound, AuthOnly},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := table.Resolve(tt.path)
			assert.Equal(t, tt.kind, r.Kind)
			assert.Equal(t, tt.access, r.Access)
		})
	}

	id, ok := table.Resolve("/orders/9").ParamInt64("id")
	require.True(t, ok)
	require.Equal(t, int64(9), id)
	_, ok = table.Resolve("/orders/abc").ParamInt64("id")
	require.False(t, ok)
}

func TestPath(t *testing.T) {
	path, ok := Mobile().Path(SupplierCatalog, "3")
	require.True(t, ok)
	require.Equal(t, "/supplier/3", path)

	path, ok = Web().Path(Dashboard)
	require.True(t, ok)
	require.Equal(t, "/dashboard", path)

	path, ok = Web().Path(Login)
	require.True(t, ok)
	require.Equal(t, "/", path)

	_, ok = Mobile().Path(ChatWith)
	require.False(t, ok)
	_, ok = Mobile().Path(Dashboard)
	require.False(t, ok)
}

func TestGuard(t *testing.T) {
	for _, table := range []*Table{Mobile(), Web()} {
		guard := NewGuard(table)
		for _, e := range table.entries {
			path, ok := table.Path(e.Kind, "1")
			require.True(t, ok)

			// анонимный пользователь
			d := guard.Evaluate(auth.StatusAnonymous, path)
			if e.Access == Protected {
				assert.Equal(t, Redirect, d.Action, path)
				assert.Equal(t, table.Login(), d.Target, path)
			} else {
				assert.Equal(t, Allow, d.Action, path)
				assert.Equal(t, path, d.Target, path)
			}

			// авторизованный пользователь
			d = guard.Evaluate(auth.StatusAuthenticated, path)
			if e.Access == AuthOnly {
				assert.Equal(t, Redirect, d.Action, path)
				assert.Equal(t, table.Home(), d.Target, path)
			} else {
				assert.Equal(t, Allow, d.Action, path)
			}

			// восстановление сессии
			d = guard.Evaluate(auth.StatusLoading, path)
			assert.Equal(t, Wait, d.Action, path)
		}
	}
}

func TestGuardLoginAndHome(t *testing.T) {
	mobile := NewGuard(Mobile())
	require.Equal(t, Decision{Action: Redirect, Target: "/", Route: Mobile().Resolve("/auth/login")},
		mobile.Evaluate(auth.StatusAuthenticated, "/auth/login"))
	require.Equal(t, "/auth/login", mobile.Evaluate(auth.StatusAnonymous, "/orders").Target)

	web := NewGuard(Web())
	require.Equal(t, "/dashboard", web.Evaluate(auth.StatusAuthenticated, "/").Target)
	require.Equal(t, "/", web.Evaluate(auth.StatusAnonymous, "/profile").Target)
	require.Equal(t, Allow, web.Evaluate(auth.StatusAuthenticated, "/about").Action)

	// неизвестный путь ведет себя как экран входа
	require.Equal(t, Allow, web.Evaluate(auth.StatusAnonymous, "/nowhere").Action)
	require.Equal(t, "/dashboard", web.Evaluate(auth.StatusAuthenticated, "/nowhere").Target)
}
