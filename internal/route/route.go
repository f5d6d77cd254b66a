// Package route classifies navigation destinations into an explicit set of
// route kinds and decides, per session status, whether a navigation passes.
package route

import (
	"strconv"
	"strings"
)

type Kind int

const (
	NotFound Kind = iota
	Login
	Register
	About
	Home
	MySuppliers
	Orders
	OrderDetails
	SupplierCatalog
	Chat
	ChatWith
	Dashboard
	Products
	Profile
)

var kindNames = map[Kind]string{
	NotFound:        "not-found",
	Login:           "login",
	Register:        "register",
	About:           "about",
	Home:            "home",
	MySuppliers:     "my-suppliers",
	Orders:          "orders",
	OrderDetails:    "order-details",
	SupplierCatalog: "supplier-catalog",
	Chat:            "chat",
	ChatWith:        "chat-with",
	Dashboard:       "dashboard",
	Products:        "products",
	Profile:         "profile",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Access is the protection class of a route.
type Access int

const (
	// Public открыт всем
	Public Access = iota
	// AuthOnly только для анонимных (вход, регистрация)
	AuthOnly
	// Protected только для авторизованных
	Protected
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case AuthOnly:
		return "auth-only"
	case Protected:
		return "protected"
	default:
		return "unknown"
	}
}

type Route struct {
	Kind   Kind
	Access Access
	Path   string
	Params map[string]string
}

func (r Route) Param(name string) string {
	return r.Params[name]
}

// ParamInt64 returns a numeric path parameter, ok=false when absent or malformed.
func (r Route) ParamInt64(name string) (int64, bool) {
	v, err := strconv.ParseInt(r.Params[name], 10, 64)
	return v, err == nil
}

// Entry binds a path pattern to a kind. Pattern segments in braces are
// parameters: "/supplier/{id}".
type Entry struct {
	Pattern string
	Kind    Kind
	Access  Access
}

type Table struct {
	entries []Entry
	login   string
	home    string
}

func NewTable(login string, home string, entries ...Entry) *Table {
	return &Table{entries: entries, login: login, home: home}
}

// Login is the destination anonymous users are sent to.
func (t *Table) Login() string { return t.login }

// Home is the default destination of an authenticated user.
func (t *Table) Home() string { return t.home }

// Resolve classifies path. Paths matching no pattern resolve to NotFound,
// which shows the login screen and is guarded like it.
func (t *Table) Resolve(path string) Route {
	clean := normalize(path)
	segments := split(clean)
	for _, e := range t.entries {
		if params, ok := match(split(e.Pattern), segments); ok {
			return Route{Kind: e.Kind, Access: e.Access, Path: clean, Params: params}
		}
	}
	return Route{Kind: NotFound, Access: AuthOnly, Path: clean}
}

// Path builds the path of the first entry of kind, substituting params in
// pattern order.
func (t *Table) Path(kind Kind, params ...string) (string, bool) {
	for _, e := range t.entries {
		if e.Kind != kind {
			continue
		}
		segments := split(e.Pattern)
		next := 0
		for i, seg := range segments {
			if isParam(seg) {
				if next >= len(params) {
					return "", false
				}
				segments[i] = params[next]
				next++
			}
		}
		return "/" + strings.Join(segments, "/"), true
	}
	return "", false
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

func split(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "/")
}

func isParam(segment string) bool {
	return len(segment) > 2 && segment[0] == '{' && segment[len(segment)-1] == '}'
}

// match сравнивает сегменты целиком, без префиксов
func match(pattern []string, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	var params map[string]string
	for i, p := range pattern {
		if isParam(p) {
			if segments[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:len(p)-1]] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// Mobile is the consumer application table.
func Mobile() *Table {
	return NewTable("/auth/login", "/",
		Entry{Pattern: "/auth/login", Kind: Login, Access: AuthOnly},
		Entry{Pattern: "/auth/register", Kind: Register, Access: AuthOnly},
		Entry{Pattern: "/", Kind: Home, Access: Protected},
		Entry{Pattern: "/mysuppliers", Kind: MySuppliers, Access: Protected},
		Entry{Pattern: "/orders", Kind: Orders, Access: Protected},
		Entry{Pattern: "/supplier/{id}", Kind: SupplierCatalog, Access: Protected},
		Entry{Pattern: "/chat/{id}", Kind: ChatWith, Access: Protected},
	)
}

// Web is the supplier application table.
func Web() *Table {
	return NewTable("/", "/dashboard",
		Entry{Pattern: "/", Kind: Login, Access: AuthOnly},
		Entry{Pattern: "/register", Kind: Register, Access: AuthOnly},
		Entry{Pattern: "/about", Kind: About, Access: Public},
		Entry{Pattern: "/dashboard", Kind: Dashboard, Access: Protected},
		Entry{Pattern: "/products", Kind: Products, Access: Protected},
		Entry{Pattern: "/orders", Kind: Orders, Access: Protected},
		Entry{Pattern: "/orders/{id}", Kind: OrderDetails, Access: Protected},
		Entry{Pattern: "/chat", Kind: Chat, Access: Protected},
		Entry{Pattern: "/profile", Kind: Profile, Access: Protected},
	)
}
