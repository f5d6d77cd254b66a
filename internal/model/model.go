package model

import "time"

// Сессия

type Session struct {
	Token     string
	UserID    string
	Role      string
	Subject   string
	ExpiresAt time.Time
}

func (s Session) Authenticated() bool {
	return s.Token != "" && s.UserID != ""
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
}

const (
	RoleConsumer      = "consumer"
	RoleSupplierAdmin = "supplier_admin"
)

type Registration struct {
	Email    string
	Password string
	Name     string
	Role     string
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Поставщики и связи

type Supplier struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	VerificationStatus bool   `json:"verification_status"`
}

type Link struct {
	ID           int64  `json:"id"`
	ConsumerID   int64  `json:"consumer_id"`
	SupplierID   int64  `json:"supplier_id"`
	Status       string `json:"status"`
	CreatedAt    Time   `json:"created_at"`
	SupplierName string `json:"supplier_name,omitempty"`
}

const (
	LinkStatusPending  = "pending"
	LinkStatusAccepted = "accepted"
	LinkStatusRejected = "rejected"
)

type LinkRequest struct {
	SupplierID int64 `json:"supplier_id"`
}

type StatusUpdate struct {
	Status string `json:"status"`
}

// Каталог

type Product struct {
	ID              int64   `json:"id"`
	SupplierID      int64   `json:"supplier_id"`
	Name            string  `json:"name"`
	Price           Amount  `json:"price"`
	OriginalPrice   *Amount `json:"original_price,omitempty"`
	DiscountPercent int     `json:"discountPercent,omitempty"`
	Quantity        int     `json:"quantity"`
	Unit            string  `json:"unit"`
}

const LowStockThreshold = 10

type ProductInput struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Unit     string  `json:"unit"`
}

type DiscountRequest struct {
	Percent int `json:"percent"`
}

// Заказы

type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderRequest struct {
	SupplierID int64       `json:"supplier_id"`
	Items      []OrderItem `json:"items"`
}

type Order struct {
	ID          int64       `json:"id"`
	ConsumerID  int64       `json:"consumer_id"`
	SupplierID  int64       `json:"supplier_id"`
	Items       []OrderItem `json:"items,omitempty"`
	TotalAmount Amount      `json:"total_amount"`
	Status      string      `json:"status"`
	CreatedAt   Time        `json:"created_at"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusRejected  = "rejected"
)

// Чат

type ChatMessage struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"sender_id"`
	RecipientID int64  `json:"recipient_id"`
	Content     string `json:"content"`
	Timestamp   Time   `json:"timestamp"`
}

type MessageRequest struct {
	RecipientID int64  `json:"recipient_id"`
	Content     string `json:"content"`
}

// Профиль поставщика

type ProfileUpdate struct {
	About string `json:"about"`
}
