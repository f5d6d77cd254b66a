package backendtest

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// JSON ответы в форме настоящего бэкенда: decimal строкой, время без зоны

type tokenJSON struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
}

type userJSON struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type supplierJSON struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	VerificationStatus bool   `json:"verification_status"`
}

type linkJSON struct {
	ID           int64  `json:"id"`
	ConsumerID   int64  `json:"consumer_id"`
	SupplierID   int64  `json:"supplier_id"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	SupplierName string `json:"supplier_name,omitempty"`
}

type productJSON struct {
	ID              int64   `json:"id"`
	SupplierID      int64   `json:"supplier_id"`
	Name            string  `json:"name"`
	Price           string  `json:"price"`
	OriginalPrice   *string `json:"original_price,omitempty"`
	DiscountPercent int     `json:"discountPercent,omitempty"`
	Quantity        int     `json:"quantity"`
	Unit            string  `json:"unit"`
}

type orderItemJSON struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type orderJSON struct {
	ID          int64           `json:"id"`
	ConsumerID  int64           `json:"consumer_id"`
	SupplierID  int64           `json:"supplier_id"`
	Items       []orderItemJSON `json:"items,omitempty"`
	TotalAmount float64         `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
}

type messageJSON struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"sender_id"`
	RecipientID int64  `json:"recipient_id"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(responseJSON)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func naive(t time.Time) string {
	return t.UTC().Format(naiveLayout)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

// currentUser вызывается под b.mu
func (b *Backend) currentUser(r *http.Request) *user {
	id, _ := strconv.ParseInt(r.Header.Get(headerUserID), 10, 64)
	return b.users[id]
}

func (b *Backend) linkToJSON(l *link, withName bool) linkJSON {
	out := linkJSON{
		ID:         l.id,
		ConsumerID: l.consumerID,
		SupplierID: l.supplierID,
		Status:     l.status,
		CreatedAt:  naive(l.createdAt),
	}
	if s, ok := b.suppliers[l.supplierID]; ok && withName {
		out.SupplierName = s.name
	}
	return out
}

func productToJSON(p *product) productJSON {
	out := productJSON{
		ID:         p.id,
		SupplierID: p.supplierID,
		Name:       p.name,
		Price:      decimal(p.price),
		Quantity:   p.quantity,
		Unit:       p.unit,
	}
	if p.discount > 0 {
		orig := decimal(p.originalPrice)
		out.OriginalPrice = &orig
		out.DiscountPercent = p.discount
	}
	return out
}

func orderToJSON(o *order) orderJSON {
	out := orderJSON{
		ID:          o.id,
		ConsumerID:  o.consumerID,
		SupplierID:  o.supplierID,
		TotalAmount: o.total,
		Status:      o.status,
		CreatedAt:   naive(o.createdAt),
	}
	for _, it := range o.items {
		out.Items = append(out.Items, orderItemJSON{ProductID: it.productID, Quantity: it.quantity})
	}
	return out
}

func messageToJSON(m *message) messageJSON {
	return messageJSON{ID: m.id, SenderID: m.senderID, RecipientID: m.recipientID, Content: m.content, Timestamp: naive(m.sentAt)}
}

// Авторизация

func (b *Backend) issueToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	b.mu.Lock()
	var found *user
	for _, u := range b.users {
		if u.email == username && u.password == password {
			found = u
			break
		}
	}
	b.mu.Unlock()

	if found == nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	signed, err := b.signToken(found.email)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tokenJSON{AccessToken: signed, TokenType: "bearer", UserID: found.id, Role: found.role})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email, password, name, role := q.Get("email"), q.Get("password"), q.Get("name"), q.Get("role")
	if email == "" || password == "" || name == "" || role == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "field required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.email == email {
			writeDetail(w, http.StatusBadRequest, "Email exists")
			return
		}
	}
	u := b.addUser(email, password, name, role)
	writeJSON(w, http.StatusOK, userJSON{ID: u.id, Email: u.email, Name: u.name, Role: u.role})
}

// Поставщики и связи

func (b *Backend) listSuppliers(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []supplierJSON{}
	for _, s := range b.suppliers {
		if !s.visible {
			continue
		}
		out = append(out, supplierJSON{ID: s.id, Name: s.name, VerificationStatus: s.verified})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) requestLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SupplierID int64 `json:"supplier_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.currentUser(r)
	if u.role != "consumer" {
		writeDetail(w, http.StatusForbidden, "Consumers only")
		return
	}
	if _, ok := b.suppliers[req.SupplierID]; !ok {
		writeDetail(w, http.StatusNotFound, "Supplier not found")
		return
	}
	if b.findLink(u.id, req.SupplierID) != nil {
		writeDetail(w, http.StatusBadRequest, "Request already exists")
		return
	}
	l := &link{id: b.nextID(), consumerID: u.id, supplierID: req.SupplierID, status: "pending", createdAt: time.Now().UTC()}
	b.links[l.id] = l
	writeJSON(w, http.StatusOK, b.linkToJSON(l, false))
}

func (b *Backend) myLinks(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.currentUser(r)
	out := []linkJSON{}
	for _, l := range b.links {
		if l.consumerID == u.id {
			out = append(out, b.linkToJSON(l, true))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) incomingLinks(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []linkJSON{}
	s := b.supplierOwnedBy(b.currentUser(r).id)
	if s == nil {
		writeJSON(w, http.StatusOK, out)
		return
	}
	for _, l := range b.links {
		if l.supplierID == s.id {
			out = append(out, b.linkToJSON(l, false))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) respondLink(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	var update struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.links[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	l.status = update.Status
	writeJSON(w, http.StatusOK, b.linkToJSON(l, false))
}

func (b *Backend) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update struct {
		About string `json:"about"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.supplierOwnedBy(b.currentUser(r).id)
	if s == nil {
		writeDetail(w, http.StatusForbidden, "Suppliers only")
		return
	}
	s.about = update.About
	writeJSON(w, http.StatusOK, map[string]string{"about": s.about})
}

func (b *Backend) setVisibility(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.supplierOwnedBy(b.currentUser(r).id)
	if s == nil {
		writeDetail(w, http.StatusForbidden, "Suppliers only")
		return
	}
	s.visible = mux.Vars(r)["mode"] == "show"
	writeJSON(w, http.StatusOK, map[string]bool{"visible": s.visible})
}

// Каталог

type productInput struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Unit     string  `json:"unit"`
}

func (b *Backend) addProduct(w http.ResponseWriter, r *http.Request) {
	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.supplierOwnedBy(b.currentUser(r).id)
	if s == nil {
		writeDetail(w, http.StatusForbidden, "Suppliers only")
		return
	}
	p := &product{id: b.nextID(), supplierID: s.id, name: in.Name, price: in.Price, quantity: in.Quantity, unit: in.Unit}
	b.products[p.id] = p
	writeJSON(w, http.StatusOK, productToJSON(p))
}

func (b *Backend) catalogOf(supplierID int64) []productJSON {
	out := []productJSON{}
	for _, p := range b.products {
		if p.supplierID == supplierID {
			out = append(out, productToJSON(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) myCatalog(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.supplierOwnedBy(b.currentUser(r).id)
	if s == nil {
		writeJSON(w, http.StatusOK, []productJSON{})
		return
	}
	writeJSON(w, http.StatusOK, b.catalogOf(s.id))
}

// supplierCatalog открыт потребителю только при принятой связи
func (b *Backend) supplierCatalog(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.currentUser(r)
	if u.role == "consumer" {
		l := b.findLink(u.id, id)
		if l == nil || l.status != "accepted" {
			writeDetail(w, http.StatusForbidden, "Not linked to this supplier")
			return
		}
	}
	writeJSON(w, http.StatusOK, b.catalogOf(id))
}

// ownProduct вызывается под b.mu
func (b *Backend) ownProduct(w http.ResponseWriter, r *http.Request) *product {
	id, _ := pathID(r)
	p, ok := b.products[id]
	s := b.supplierOwnedBy(b.currentUser(r).id)
	if !ok || s == nil || p.supplierID != s.id {
		writeDetail(w, http.StatusNotFound, "Product not found")
		return nil
	}
	return p
}

func (b *Backend) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.ownProduct(w, r)
	if p == nil {
		return
	}
	p.name, p.price, p.quantity, p.unit = in.Name, in.Price, in.Quantity, in.Unit
	p.discount, p.originalPrice = 0, 0
	writeJSON(w, http.StatusOK, productToJSON(p))
}

func (b *Backend) setDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Percent int `json:"percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Percent < 0 || req.Percent > 100 {
		writeDetail(w, http.StatusUnprocessableEntity, "percent must be 0-100")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.ownProduct(w, r)
	if p == nil {
		return
	}
	base := p.price
	if p.discount > 0 {
		base = p.originalPrice
	}
	if req.Percent == 0 {
		p.price, p.originalPrice, p.discount = base, 0, 0
	} else {
		p.originalPrice = base
		p.price = roundCents(base * (1 - float64(req.Percent)/100))
		p.discount = req.Percent
	}
	writeJSON(w, http.StatusOK, productToJSON(p))
}

func (b *Backend) deleteProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.ownProduct(w, r)
	if p == nil {
		return
	}
	delete(b.products, p.id)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Заказы

func (b *Backend) listOrders(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.currentUser(r)
	s := b.supplierOwnedBy(u.id)

	out := []orderJSON{}
	for _, o := range b.orders {
		if o.consumerID == u.id || (s != nil && o.supplierID == s.id) {
			out = append(out, orderToJSON(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SupplierID int64           `json:"supplier_id"`
		Items      []orderItemJSON `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Items) == 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "items required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.currentUser(r)
	l := b.findLink(u.id, req.SupplierID)
	if l == nil || l.status != "accepted" {
		writeDetail(w, http.StatusForbidden, "Not linked to this supplier")
		return
	}

	o := &order{id: b.nextID(), consumerID: u.id, supplierID: req.SupplierID, status: "pending", createdAt: time.Now().UTC()}
	for _, it := range req.Items {
		if p, ok := b.products[it.ProductID]; ok {
			o.total += p.price * float64(it.Quantity)
		}
		o.items = append(o.items, orderItem{productID: it.ProductID, quantity: it.Quantity})
	}
	o.total = math.Round(o.total*100) / 100
	b.orders[o.id] = o
	writeJSON(w, http.StatusOK, orderToJSON(o))
}

func (b *Backend) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	var update struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	s := b.supplierOwnedBy(b.currentUser(r).id)
	if !ok || s == nil || o.supplierID != s.id {
		writeDetail(w, http.StatusNotFound, "Order not found")
		return
	}
	o.status = update.Status
	writeJSON(w, http.StatusOK, orderToJSON(o))
}

// Чат

func (b *Backend) chatHistory(w http.ResponseWriter, r *http.Request) {
	other, _ := pathID(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	me := b.currentUser(r).id
	out := []messageJSON{}
	for _, m := range b.messages {
		if (m.senderID == me && m.recipientID == other) || (m.senderID == other && m.recipientID == me) {
			out = append(out, messageToJSON(m))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientID int64  `json:"recipient_id"`
		Content     string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	m := &message{id: b.nextID(), senderID: b.currentUser(r).id, recipientID: req.RecipientID, content: req.Content, sentAt: time.Now().UTC()}
	b.messages = append(b.messages, m)
	writeJSON(w, http.StatusOK, messageToJSON(m))
}
