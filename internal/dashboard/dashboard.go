// Package dashboard aggregates the supplier's incoming connection requests
// and orders into the overview screen.
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/screen"
	"github.com/iurnickita/scpclient/internal/service"
)

const recentOrders = 3

type Dashboard interface {
	Load(ctx context.Context) (Summary, error)
	Approve(ctx context.Context, linkID int64) (Summary, error)
	Reject(ctx context.Context, linkID int64) (Summary, error)
}

type LinkRequest struct {
	ID           int64
	ConsumerID   int64
	ConsumerName string
	CreatedAt    time.Time
	Status       string
}

type Summary struct {
	OrdersToday        int
	PendingOrders      int
	ConnectedCustomers int
	PendingLinks       int
	Links              []LinkRequest
	RecentOrders       []model.Order
}

type dashboard struct {
	svc      service.Service
	notifier screen.Notifier
	now      func() time.Time
}

func NewDashboard(svc service.Service, notifier screen.Notifier, now func() time.Time) Dashboard {
	if now == nil {
		now = time.Now
	}
	return &dashboard{svc: svc, notifier: notifier, now: now}
}

func (d *dashboard) Load(ctx context.Context) (Summary, error) {
	links, err := d.svc.SupplierLinks(ctx)
	if err != nil {
		d.notifier.Notify("Failed to load dashboard")
		return Summary{}, err
	}
	orders, err := d.svc.Orders(ctx)
	if err != nil {
		d.notifier.Notify("Failed to load dashboard")
		return Summary{}, err
	}
	return Summarize(links, orders, d.now()), nil
}

func (d *dashboard) Approve(ctx context.Context, linkID int64) (Summary, error) {
	return d.updateLink(ctx, linkID, model.LinkStatusAccepted)
}

func (d *dashboard) Reject(ctx context.Context, linkID int64) (Summary, error) {
	return d.updateLink(ctx, linkID, model.LinkStatusRejected)
}

func (d *dashboard) updateLink(ctx context.Context, linkID int64, status string) (Summary, error) {
	if _, err := d.svc.UpdateLinkStatus(ctx, linkID, status); err != nil {
		d.notifier.Notify("Failed to update status")
		return Summary{}, err
	}
	return d.Load(ctx)
}

// Summarize computes the overview counters. "Today" is the calendar day of
// now in now's location.
func Summarize(links []model.Link, orders []model.Order, now time.Time) Summary {
	var s Summary

	for _, l := range links {
		s.Links = append(s.Links, LinkRequest{
			ID:           l.ID,
			ConsumerID:   l.ConsumerID,
			ConsumerName: screen.CustomerName(l.ConsumerID),
			CreatedAt:    l.CreatedAt.Time,
			Status:       l.Status,
		})
		switch l.Status {
		case model.LinkStatusPending:
			s.PendingLinks++
		case model.LinkStatusAccepted:
			s.ConnectedCustomers++
		}
	}

	y, m, day := now.Date()
	for _, o := range orders {
		if o.Status == model.OrderStatusPending {
			s.PendingOrders++
		}
		oy, om, oday := o.CreatedAt.In(now.Location()).Date()
		if oy == y && om == m && oday == day {
			s.OrdersToday++
		}
	}

	recent := make([]model.Order, len(orders))
	copy(recent, orders)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt.Time)
	})
	if len(recent) > recentOrders {
		recent = recent[:recentOrders]
	}
	s.RecentOrders = recent
	return s
}
