package screen

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/cart"
	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/route"
	"github.com/iurnickita/scpclient/internal/service"
)

const msgNotConnected = "You must be connected to this supplier to view their catalog."

// Catalog is a supplier's product list with the consumer's cart.
type Catalog struct {
	svc       service.Service
	navigator Navigator
	table     *route.Table
	notifier  Notifier
	zaplog    *zap.Logger

	cart *cart.Cart

	mu         sync.Mutex
	supplierID int64
	products   []model.Product
}

func NewCatalog(svc service.Service, navigator Navigator, table *route.Table, notifier Notifier, zaplog *zap.Logger) *Catalog {
	return &Catalog{
		svc:       svc,
		navigator: navigator,
		table:     table,
		notifier:  notifier,
		zaplog:    zaplog,
		cart:      cart.New(),
	}
}

// Load opens the catalog of supplierID. Without an accepted link the backend
// refuses and the screen goes back to the supplier list.
func (c *Catalog) Load(ctx context.Context, supplierID int64) ([]model.Product, error) {
	c.mu.Lock()
	if c.supplierID != supplierID {
		c.cart.Clear()
	}
	c.supplierID = supplierID
	c.mu.Unlock()

	products, err := c.svc.SupplierCatalog(ctx, supplierID)
	if err != nil {
		c.notifier.Notify(msgNotConnected)
		navigateTo(c.navigator, c.table, route.MySuppliers)
		return nil, err
	}

	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	return products, nil
}

func (c *Catalog) Products() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products
}

func (c *Catalog) Cart() *cart.Cart {
	return c.cart
}

func (c *Catalog) AddToCart(productID int64) int {
	return c.cart.Add(productID)
}

func (c *Catalog) RemoveFromCart(productID int64) int {
	return c.cart.Remove(productID)
}

// PlaceOrder submits the whole cart once. An empty cart is a no-op; on
// failure the cart stays as it was.
func (c *Catalog) PlaceOrder(ctx context.Context) (model.Order, error) {
	if c.cart.Empty() {
		return model.Order{}, nil
	}

	c.mu.Lock()
	supplierID := c.supplierID
	c.mu.Unlock()

	units := c.cart.TotalItems()
	order, err := c.svc.PlaceOrder(ctx, model.OrderRequest{SupplierID: supplierID, Items: c.cart.Items()})
	if err != nil {
		c.zaplog.Info("order not placed", zap.Int64("supplier_id", supplierID), zap.Int("units", units), zap.Error(err))
		c.notifier.Notify("Failed to place order")
		return model.Order{}, err
	}

	c.zaplog.Info("order placed", zap.Int64("order_id", order.ID), zap.Int("units", units))
	c.cart.Clear()
	c.notifier.Notify("Order placed successfully!")
	navigateTo(c.navigator, c.table, route.Orders)
	return order, nil
}
