// Package backendtest runs an in-process stand-in for the marketplace REST
// backend. Tests point the client at Backend.URL.
package backendtest

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
)

const (
	headerUserID = "X-Backend-User"
	tokenLife    = 30 * time.Minute
	naiveLayout  = "2006-01-02T15:04:05.000000"
)

var errUnauthorized = errors.New("Could not validate credentials")

type user struct {
	id       int64
	email    string
	password string
	name     string
	role     string
}

type supplier struct {
	id       int64
	ownerID  int64
	name     string
	verified bool
	visible  bool
	about    string
}

type link struct {
	id         int64
	consumerID int64
	supplierID int64
	status     string
	createdAt  time.Time
}

type product struct {
	id            int64
	supplierID    int64
	name          string
	price         float64
	originalPrice float64
	discount      int
	quantity      int
	unit          string
}

type orderItem struct {
	productID int64
	quantity  int
}

type order struct {
	id         int64
	consumerID int64
	supplierID int64
	items      []orderItem
	total      float64
	status     string
	createdAt  time.Time
}

type message struct {
	id          int64
	senderID    int64
	recipientID int64
	content     string
	sentAt      time.Time
}

// Backend is the fake server. All state lives in memory.
type Backend struct {
	*httptest.Server

	secret []byte

	mu        sync.Mutex
	seq       int64
	users     map[int64]*user
	suppliers map[int64]*supplier
	links     map[int64]*link
	products  map[int64]*product
	orders    map[int64]*order
	messages  []*message
	hits      map[string]int
	failures  map[string]int
	revoked   map[string]bool
}

func New() *Backend {
	b := &Backend{
		secret:    []byte("backendtest-secret"),
		users:     make(map[int64]*user),
		suppliers: make(map[int64]*supplier),
		links:     make(map[int64]*link),
		products:  make(map[int64]*product),
		orders:    make(map[int64]*order),
		hits:      make(map[string]int),
		failures:  make(map[string]int),
		revoked:   make(map[string]bool),
	}
	b.Server = httptest.NewServer(b.newRouter())
	return b
}

func (b *Backend) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(b.countMdlw)

	r.HandleFunc("/auth/token", b.issueToken).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", b.register).Methods(http.MethodPost)
	r.HandleFunc("/suppliers", b.listSuppliers).Methods(http.MethodGet)

	r.HandleFunc("/links", b.middleware(b.requestLink)).Methods(http.MethodPost)
	r.HandleFunc("/links/my-requests", b.middleware(b.myLinks)).Methods(http.MethodGet)
	r.HandleFunc("/supplier/links", b.middleware(b.incomingLinks)).Methods(http.MethodGet)
	r.HandleFunc("/supplier/links/{id:[0-9]+}", b.middleware(b.respondLink)).Methods(http.MethodPut)
	r.HandleFunc("/supplier/profile", b.middleware(b.updateProfile)).Methods(http.MethodPut)
	r.HandleFunc("/supplier/visibility/{mode:show|hide}", b.middleware(b.setVisibility)).Methods(http.MethodPost)

	r.HandleFunc("/products", b.middleware(b.addProduct)).Methods(http.MethodPost)
	r.HandleFunc("/products/my-catalog", b.middleware(b.myCatalog)).Methods(http.MethodGet)
	r.HandleFunc("/products/supplier/{id:[0-9]+}", b.middleware(b.supplierCatalog)).Methods(http.MethodGet)
	r.HandleFunc("/products/delete/{id:[0-9]+}", b.middleware(b.deleteProduct)).Methods(http.MethodPost)
	r.HandleFunc("/products/{id:[0-9]+}", b.middleware(b.updateProduct)).Methods(http.MethodPut)
	r.HandleFunc("/products/{id:[0-9]+}/discount", b.middleware(b.setDiscount)).Methods(http.MethodPut)

	r.HandleFunc("/orders", b.middleware(b.listOrders)).Methods(http.MethodGet)
	r.HandleFunc("/orders", b.middleware(b.placeOrder)).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/status", b.middleware(b.updateOrderStatus)).Methods(http.MethodPut)

	r.HandleFunc("/chat/{id:[0-9]+}", b.middleware(b.chatHistory)).Methods(http.MethodGet)
	r.HandleFunc("/chat", b.middleware(b.sendMessage)).Methods(http.MethodPost)

	return r
}

// countMdlw считает запросы и отдает заранее заданные ошибки
func (b *Backend) countMdlw(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.hits[key]++
		status, fail := b.failures[key]
		b.mu.Unlock()

		if fail {
			writeDetail(w, status, "injected failure")
			return
		}
		h.ServeHTTP(w, r)
	})
}

// middleware проверяет bearer-токен и передает id пользователя хендлеру
func (b *Backend) middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := b.authenticate(r)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, err.Error())
			return
		}
		r.Header.Set(headerUserID, strconv.FormatInt(u.id, 10))
		h.ServeHTTP(w, r)
	}
}

func (b *Backend) authenticate(r *http.Request) (*user, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return nil, errUnauthorized
	}
	tokenString := header[len(prefix):]

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnauthorized
		}
		return b.secret, nil
	})
	if err != nil {
		return nil, errUnauthorized
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revoked[tokenString] {
		return nil, errUnauthorized
	}
	for _, u := range b.users {
		if u.email == claims.Subject {
			return u, nil
		}
	}
	return nil, errUnauthorized
}

func (b *Backend) signToken(email string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLife)),
	}).SignedString(b.secret)
}

func (b *Backend) nextID() int64 {
	b.seq++
	return b.seq
}

// Тестовые помощники

// AddUser creates an account the way /auth/register does and returns its id.
func (b *Backend) AddUser(email, password, name, role string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUser(email, password, name, role).id
}

func (b *Backend) addUser(email, password, name, role string) *user {
	u := &user{id: b.nextID(), email: email, password: password, name: name, role: role}
	b.users[u.id] = u
	if role == "supplier_admin" {
		s := &supplier{id: b.nextID(), ownerID: u.id, name: name, visible: true}
		b.suppliers[s.id] = s
	}
	return u
}

// SupplierOf returns the supplier id owned by the given user, or 0.
func (b *Backend) SupplierOf(userID int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s := b.supplierOwnedBy(userID); s != nil {
		return s.id
	}
	return 0
}

func (b *Backend) supplierOwnedBy(userID int64) *supplier {
	for _, s := range b.suppliers {
		if s.ownerID == userID {
			return s
		}
	}
	return nil
}

func (b *Backend) AddProduct(supplierID int64, name string, price float64, quantity int, unit string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &product{id: b.nextID(), supplierID: supplierID, name: name, price: price, quantity: quantity, unit: unit}
	b.products[p.id] = p
	return p.id
}

func (b *Backend) AddLink(consumerID, supplierID int64, status string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := &link{id: b.nextID(), consumerID: consumerID, supplierID: supplierID, status: status, createdAt: time.Now().UTC()}
	b.links[l.id] = l
	return l.id
}

func (b *Backend) AddOrder(consumerID, supplierID int64, total float64, status string, createdAt time.Time) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	o := &order{id: b.nextID(), consumerID: consumerID, supplierID: supplierID, total: total, status: status, createdAt: createdAt.UTC()}
	b.orders[o.id] = o
	return o.id
}

func (b *Backend) AddMessage(senderID, recipientID int64, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, &message{id: b.nextID(), senderID: senderID, recipientID: recipientID, content: content, sentAt: time.Now().UTC()})
}

// LinkStatus returns the status of the link between the parties, "" if none.
func (b *Backend) LinkStatus(consumerID, supplierID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l := b.findLink(consumerID, supplierID); l != nil {
		return l.status
	}
	return ""
}

func (b *Backend) findLink(consumerID, supplierID int64) *link {
	for _, l := range b.links {
		if l.consumerID == consumerID && l.supplierID == supplierID {
			return l
		}
	}
	return nil
}

func (b *Backend) SetLinkStatus(linkID int64, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.links[linkID]; ok {
		l.status = status
	}
}

// OrderStatus returns the status of an order, "" if unknown.
func (b *Backend) OrderStatus(orderID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o, ok := b.orders[orderID]; ok {
		return o.status
	}
	return ""
}

func (b *Backend) OrderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}

func (b *Backend) ProductExists(productID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.products[productID]
	return ok
}

func (b *Backend) Profile(supplierID int64) (about string, visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.suppliers[supplierID]; ok {
		return s.about, s.visible
	}
	return "", false
}

// Hits returns how many requests hit "METHOD /path".
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

// Fail makes every request to "METHOD /path" answer with status until Recover.
func (b *Backend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = status
}

func (b *Backend) Recover(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, method+" "+path)
}

// Revoke makes the backend reject a token it issued earlier.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
