package screen

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/service"
)

// Products is the supplier's own catalog editor.
type Products struct {
	svc      service.Service
	notifier Notifier

	mu       sync.Mutex
	products []model.Product
}

func NewProducts(svc service.Service, notifier Notifier) *Products {
	return &Products{svc: svc, notifier: notifier}
}

func (p *Products) Load(ctx context.Context) ([]model.Product, error) {
	products, err := p.svc.MyCatalog(ctx)
	if err != nil {
		p.notifier.Notify("Failed to load products")
		return nil, err
	}
	p.mu.Lock()
	p.products = products
	p.mu.Unlock()
	return products, nil
}

// Filter returns loaded products whose name contains query, ignoring case.
func (p *Products) Filter(query string) []model.Product {
	query = strings.ToLower(strings.TrimSpace(query))

	p.mu.Lock()
	defer p.mu.Unlock()
	if query == "" {
		return p.products
	}
	var out []model.Product
	for _, product := range p.products {
		if strings.Contains(strings.ToLower(product.Name), query) {
			out = append(out, product)
		}
	}
	return out
}

func (p *Products) Add(ctx context.Context, input model.ProductInput) error {
	input.Name, input.Unit = strings.TrimSpace(input.Name), strings.TrimSpace(input.Unit)
	if input.Name == "" || input.Price == 0 {
		p.notifier.Notify("Fill all fields.")
		return ErrInvalidInput
	}
	if _, err := p.svc.CreateProduct(ctx, input); err != nil {
		p.notifier.Notify("Failed to add product")
		return err
	}
	_, err := p.Load(ctx)
	return err
}

func (p *Products) Edit(ctx context.Context, productID int64, input model.ProductInput) error {
	input.Name, input.Unit = strings.TrimSpace(input.Name), strings.TrimSpace(input.Unit)
	if input.Name == "" || math.IsNaN(input.Price) {
		p.notifier.Notify("Fill all fields correctly.")
		return ErrInvalidInput
	}
	if _, err := p.svc.UpdateProduct(ctx, productID, input); err != nil {
		p.notifier.Notify("Failed to update product")
		return err
	}
	_, err := p.Load(ctx)
	return err
}

// Discount applies a percent in 0..100, rounded to a whole number.
func (p *Products) Discount(ctx context.Context, productID int64, percent float64) error {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		p.notifier.Notify("Enter valid percent (0–100).")
		return ErrInvalidInput
	}
	if err := p.svc.SetDiscount(ctx, productID, int(math.Round(percent))); err != nil {
		p.notifier.Notify("Failed to apply discount")
		return err
	}
	_, err := p.Load(ctx)
	return err
}

func (p *Products) Remove(ctx context.Context, productID int64) error {
	if err := p.svc.DeleteProduct(ctx, productID); err != nil {
		p.notifier.Notify("Failed to delete product")
		return err
	}
	_, err := p.Load(ctx)
	return err
}
