package screen

import (
	"context"
	"strconv"
	"sync"

	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/route"
	"github.com/iurnickita/scpclient/internal/service"
)

// SupplierEntry is one row of the discovery list.
type SupplierEntry struct {
	model.Supplier
	// LinkStatus is empty when no request was sent yet.
	LinkStatus string
}

func (e SupplierEntry) Linked() bool {
	return e.LinkStatus != ""
}

// Discovery lists every supplier with the consumer's link state.
type Discovery struct {
	svc      service.Service
	notifier Notifier

	mu      sync.Mutex
	entries []SupplierEntry
}

func NewDiscovery(svc service.Service, notifier Notifier) *Discovery {
	return &Discovery{svc: svc, notifier: notifier}
}

func (d *Discovery) Load(ctx context.Context) ([]SupplierEntry, error) {
	suppliers, err := d.svc.Suppliers(ctx)
	if err != nil {
		d.notifier.Notify("Failed to load suppliers")
		return nil, err
	}
	links, err := d.svc.MyLinks(ctx)
	if err != nil {
		d.notifier.Notify("Failed to load suppliers")
		return nil, err
	}

	status := make(map[int64]string, len(links))
	for _, l := range links {
		status[l.SupplierID] = l.Status
	}
	entries := make([]SupplierEntry, 0, len(suppliers))
	for _, s := range suppliers {
		entries = append(entries, SupplierEntry{Supplier: s, LinkStatus: status[s.ID]})
	}

	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()
	return entries, nil
}

func (d *Discovery) Entries() []SupplierEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries
}

// RequestLink sends a connection request and reloads the list.
func (d *Discovery) RequestLink(ctx context.Context, supplierID int64) error {
	if _, err := d.svc.RequestLink(ctx, supplierID); err != nil {
		d.notifier.Notify("Error: " + reason(err, "Failed"))
		return err
	}
	d.notifier.Notify("Request sent!")
	_, err := d.Load(ctx)
	return err
}

// MySuppliers lists the consumer's connection requests.
type MySuppliers struct {
	svc       service.Service
	navigator Navigator
	table     *route.Table
	notifier  Notifier

	mu    sync.Mutex
	links []model.Link
}

func NewMySuppliers(svc service.Service, navigator Navigator, table *route.Table, notifier Notifier) *MySuppliers {
	return &MySuppliers{svc: svc, navigator: navigator, table: table, notifier: notifier}
}

func (m *MySuppliers) Load(ctx context.Context) ([]model.Link, error) {
	links, err := m.svc.MyLinks(ctx)
	if err != nil {
		m.notifier.Notify("Failed to load connections")
		return nil, err
	}
	m.mu.Lock()
	m.links = links
	m.mu.Unlock()
	return links, nil
}

func (m *MySuppliers) Links() []model.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links
}

// OpenCatalog and OpenChat are only offered for accepted connections.
func (m *MySuppliers) OpenCatalog(link model.Link) error {
	if link.Status != model.LinkStatusAccepted {
		return service.ErrAccessDenied
	}
	navigateTo(m.navigator, m.table, route.SupplierCatalog, strconv.FormatInt(link.SupplierID, 10))
	return nil
}

func (m *MySuppliers) OpenChat(link model.Link) error {
	if link.Status != model.LinkStatusAccepted {
		return service.ErrAccessDenied
	}
	navigateTo(m.navigator, m.table, route.ChatWith, strconv.FormatInt(link.SupplierID, 10))
	return nil
}
