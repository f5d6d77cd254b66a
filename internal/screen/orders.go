package screen

import (
	"context"
	"sync"

	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/service"
)

// OrderEntry is an order with the name of the other party.
type OrderEntry struct {
	model.Order
	Counterparty string
}

// Orders lists orders of the current user. The supplier side also accepts
// and rejects them.
type Orders struct {
	svc      service.Service
	notifier Notifier
	// supplierSide: подписи по покупателю, доступны подтверждение и отказ
	supplierSide bool

	mu     sync.Mutex
	orders []OrderEntry
}

func NewOrders(svc service.Service, notifier Notifier, supplierSide bool) *Orders {
	return &Orders{svc: svc, notifier: notifier, supplierSide: supplierSide}
}

func (o *Orders) entry(order model.Order) OrderEntry {
	if o.supplierSide {
		return OrderEntry{Order: order, Counterparty: CustomerName(order.ConsumerID)}
	}
	return OrderEntry{Order: order, Counterparty: SupplierName(order.SupplierID)}
}

func (o *Orders) Load(ctx context.Context) ([]OrderEntry, error) {
	orders, err := o.svc.Orders(ctx)
	if err != nil {
		o.notifier.Notify("Failed to load orders")
		return nil, err
	}
	entries := make([]OrderEntry, 0, len(orders))
	for _, order := range orders {
		entries = append(entries, o.entry(order))
	}

	o.mu.Lock()
	o.orders = entries
	o.mu.Unlock()
	return entries, nil
}

func (o *Orders) Entries() []OrderEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.orders
}

func (o *Orders) Details(ctx context.Context, orderID int64) (OrderEntry, error) {
	order, err := o.svc.Order(ctx, orderID)
	if err != nil {
		o.notifier.Notify("Order not found")
		return OrderEntry{}, err
	}
	return o.entry(order), nil
}

func (o *Orders) Accept(ctx context.Context, orderID int64) error {
	return o.setStatus(ctx, orderID, model.OrderStatusConfirmed)
}

func (o *Orders) Reject(ctx context.Context, orderID int64) error {
	return o.setStatus(ctx, orderID, model.OrderStatusRejected)
}

func (o *Orders) setStatus(ctx context.Context, orderID int64, status string) error {
	if !o.supplierSide {
		return service.ErrAccessDenied
	}
	if err := o.svc.UpdateOrderStatus(ctx, orderID, status); err != nil {
		o.notifier.Notify("Failed")
		return err
	}

	// локально обновляем статус без перезагрузки
	o.mu.Lock()
	for i := range o.orders {
		if o.orders[i].ID == orderID {
			o.orders[i].Status = status
		}
	}
	o.mu.Unlock()
	return nil
}
