// Package cart holds the order being assembled on a supplier catalog screen.
package cart

import (
	"sort"
	"sync"

	"github.com/iurnickita/scpclient/internal/model"
)

// Cart maps product id to a positive quantity. A product with quantity zero
// is absent.
type Cart struct {
	mu    sync.Mutex
	items map[int64]int
}

func New() *Cart {
	return &Cart{items: make(map[int64]int)}
}

func (c *Cart) Add(productID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[productID]++
	return c.items[productID]
}

// Remove decrements and drops the product at zero; never goes negative.
func (c *Cart) Remove(productID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	qty, ok := c.items[productID]
	if !ok {
		return 0
	}
	if qty <= 1 {
		delete(c.items, productID)
		return 0
	}
	c.items[productID] = qty - 1
	return qty - 1
}

// Set replaces the quantity; zero or less removes the product.
func (c *Cart) Set(productID int64, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if qty <= 0 {
		delete(c.items, productID)
		return
	}
	c.items[productID] = qty
}

func (c *Cart) Quantity(productID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[productID]
}

// Items returns the order lines sorted by product id.
func (c *Cart) Items() []model.OrderItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]model.OrderItem, 0, len(c.items))
	for id, qty := range c.items {
		items = append(items, model.OrderItem{ProductID: id, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, qty := range c.items {
		total += qty
	}
	return total
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) Empty() bool {
	return c.Len() == 0
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[int64]int)
}
