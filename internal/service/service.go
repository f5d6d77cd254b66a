package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/iurnickita/scpclient/internal/gateway"
	"github.com/iurnickita/scpclient/internal/model"
)

// Service is the typed surface of the backend REST contract.
type Service interface {
	// поставщики и связи
	Suppliers(ctx context.Context) ([]model.Supplier, error)
	RequestLink(ctx context.Context, supplierID int64) (model.Link, error)
	MyLinks(ctx context.Context) ([]model.Link, error)
	SupplierLinks(ctx context.Context) ([]model.Link, error)
	UpdateLinkStatus(ctx context.Context, linkID int64, status string) (model.Link, error)

	// каталог
	SupplierCatalog(ctx context.Context, supplierID int64) ([]model.Product, error)
	MyCatalog(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, input model.ProductInput) (model.Product, error)
	UpdateProduct(ctx context.Context, productID int64, input model.ProductInput) (model.Product, error)
	SetDiscount(ctx context.Context, productID int64, percent int) error
	DeleteProduct(ctx context.Context, productID int64) error

	// заказы
	Orders(ctx context.Context) ([]model.Order, error)
	Order(ctx context.Context, orderID int64) (model.Order, error)
	PlaceOrder(ctx context.Context, order model.OrderRequest) (model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error

	// чат
	ChatHistory(ctx context.Context, otherUserID int64) ([]model.ChatMessage, error)
	SendMessage(ctx context.Context, recipientID int64, content string) (model.ChatMessage, error)

	// профиль поставщика
	UpdateProfile(ctx context.Context, about string) error
	SetVisibility(ctx context.Context, visible bool) error
}

// Doer sends one backend request; implemented by *gateway.Gateway.
type Doer interface {
	Do(ctx context.Context, request gateway.Request, result interface{}) error
}

var (
	ErrAccessDenied     = errors.New("access denied")
	ErrNotFound         = errors.New("not found")
	ErrInsufficientData = errors.New("insufficient data")
)

type service struct {
	client Doer
}

func NewService(client Doer) Service {
	return &service{client: client}
}

func (s *service) get(ctx context.Context, path string, result interface{}) error {
	return s.client.Do(ctx, gateway.Request{Method: http.MethodGet, Path: path}, result)
}

func (s *service) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return s.client.Do(ctx, gateway.Request{Method: http.MethodPost, Path: path, Body: body}, result)
}

func (s *service) put(ctx context.Context, path string, body interface{}, result interface{}) error {
	return s.client.Do(ctx, gateway.Request{Method: http.MethodPut, Path: path, Body: body}, result)
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func (s *service) Suppliers(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := s.get(ctx, "/suppliers", &suppliers)
	return suppliers, err
}

func (s *service) RequestLink(ctx context.Context, supplierID int64) (model.Link, error) {
	if supplierID == 0 {
		return model.Link{}, ErrInsufficientData
	}
	var link model.Link
	err := s.post(ctx, "/links", model.LinkRequest{SupplierID: supplierID}, &link)
	return link, err
}

func (s *service) MyLinks(ctx context.Context) ([]model.Link, error) {
	var links []model.Link
	err := s.get(ctx, "/links/my-requests", &links)
	return links, err
}

func (s *service) SupplierLinks(ctx context.Context) ([]model.Link, error) {
	var links []model.Link
	err := s.get(ctx, "/supplier/links", &links)
	return links, err
}

func (s *service) UpdateLinkStatus(ctx context.Context, linkID int64, status string) (model.Link, error) {
	switch status {
	case model.LinkStatusAccepted, model.LinkStatusRejected:
	default:
		return model.Link{}, ErrInsufficientData
	}
	var link model.Link
	err := s.put(ctx, "/supplier/links/"+id(linkID), model.StatusUpdate{Status: status}, &link)
	return link, err
}

// SupplierCatalog is refused for consumers without an accepted link; any
// failure is reported as ErrAccessDenied.
func (s *service) SupplierCatalog(ctx context.Context, supplierID int64) ([]model.Product, error) {
	var products []model.Product
	if err := s.get(ctx, "/products/supplier/"+id(supplierID), &products); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return products, nil
}

func (s *service) MyCatalog(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := s.get(ctx, "/products/my-catalog", &products)
	return products, err
}

func (s *service) CreateProduct(ctx context.Context, input model.ProductInput) (model.Product, error) {
	if input.Name == "" || input.Price == 0 {
		return model.Product{}, ErrInsufficientData
	}
	var product model.Product
	err := s.post(ctx, "/products", input, &product)
	return product, err
}

func (s *service) UpdateProduct(ctx context.Context, productID int64, input model.ProductInput) (model.Product, error) {
	if input.Name == "" {
		return model.Product{}, ErrInsufficientData
	}
	var product model.Product
	err := s.put(ctx, "/products/"+id(productID), input, &product)
	return product, err
}

func (s *service) SetDiscount(ctx context.Context, productID int64, percent int) error {
	if percent < 0 || percent > 100 {
		return ErrInsufficientData
	}
	return s.put(ctx, "/products/"+id(productID)+"/discount", model.DiscountRequest{Percent: percent}, nil)
}

func (s *service) DeleteProduct(ctx context.Context, productID int64) error {
	return s.post(ctx, "/products/delete/"+id(productID), struct{}{}, nil)
}

func (s *service) Orders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.get(ctx, "/orders", &orders)
	return orders, err
}

// Order ищет заказ в общем списке: отдельного эндпоинта нет
func (s *service) Order(ctx context.Context, orderID int64) (model.Order, error) {
	orders, err := s.Orders(ctx)
	if err != nil {
		return model.Order{}, err
	}
	for _, o := range orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return model.Order{}, ErrNotFound
}

func (s *service) PlaceOrder(ctx context.Context, order model.OrderRequest) (model.Order, error) {
	if order.SupplierID == 0 || len(order.Items) == 0 {
		return model.Order{}, ErrInsufficientData
	}
	var placed model.Order
	err := s.post(ctx, "/orders", order, &placed)
	return placed, err
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	switch status {
	case model.OrderStatusConfirmed, model.OrderStatusRejected:
	default:
		return ErrInsufficientData
	}
	return s.put(ctx, "/orders/"+id(orderID)+"/status", model.StatusUpdate{Status: status}, nil)
}

func (s *service) ChatHistory(ctx context.Context, otherUserID int64) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := s.get(ctx, "/chat/"+id(otherUserID), &messages)
	return messages, err
}

func (s *service) SendMessage(ctx context.Context, recipientID int64, content string) (model.ChatMessage, error) {
	if content == "" {
		return model.ChatMessage{}, ErrInsufficientData
	}
	var message model.ChatMessage
	err := s.post(ctx, "/chat", model.MessageRequest{RecipientID: recipientID, Content: content}, &message)
	return message, err
}

func (s *service) UpdateProfile(ctx context.Context, about string) error {
	return s.put(ctx, "/supplier/profile", model.ProfileUpdate{About: about}, nil)
}

func (s *service) SetVisibility(ctx context.Context, visible bool) error {
	path := "/supplier/visibility/hide"
	if visible {
		path = "/supplier/visibility/show"
	}
	return s.client.Do(ctx, gateway.Request{Method: http.MethodPost, Path: path}, nil)
}
