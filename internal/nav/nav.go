// Package nav keeps the current location of one application and runs every
// location change through the route guard.
package nav

import (
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/auth"
	"github.com/iurnickita/scpclient/internal/route"
)

// StatusSource is the part of the session store the navigator follows.
type StatusSource interface {
	Status() auth.Status
	Subscribe(listener func(auth.Status)) (unsubscribe func())
}

type Navigator struct {
	guard   *route.Guard
	session StatusSource
	zaplog  *zap.Logger

	mu        sync.Mutex
	current   route.Route
	pending   string
	parked    bool
	listeners map[int]func(route.Route)
	nextID    int

	unsubscribe func()
}

func New(guard *route.Guard, session StatusSource, zaplog *zap.Logger) *Navigator {
	n := &Navigator{
		guard:     guard,
		session:   session,
		zaplog:    zaplog,
		listeners: make(map[int]func(route.Route)),
	}
	n.unsubscribe = session.Subscribe(n.onStatus)
	return n
}

// Close stops following the session store.
func (n *Navigator) Close() {
	n.unsubscribe()
}

// Navigate asks to move to path. While the session is still loading the
// request is parked and resolved once the status is known.
func (n *Navigator) Navigate(path string) route.Decision {
	return n.apply(n.session.Status(), path)
}

// Current is the location after the last applied decision.
func (n *Navigator) Current() route.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Pending reports a navigation parked while the session loads.
func (n *Navigator) Pending() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pending, n.parked
}

func (n *Navigator) Subscribe(listener func(route.Route)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = listener
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

func (n *Navigator) apply(status auth.Status, path string) route.Decision {
	d := n.guard.Evaluate(status, path)

	n.mu.Lock()
	switch d.Action {
	case route.Wait:
		n.pending, n.parked = path, true
		n.mu.Unlock()
		n.zaplog.Debug("navigation parked", zap.String("path", path))
		return d
	case route.Redirect:
		n.current = n.guard.Table().Resolve(d.Target)
		n.zaplog.Debug("navigation redirected",
			zap.String("path", path),
			zap.String("target", d.Target),
			zap.String("status", status.String()),
		)
	default:
		n.current = d.Route
	}
	n.pending, n.parked = "", false
	current := n.current
	listeners := make([]func(route.Route), 0, len(n.listeners))
	for _, l := range n.listeners {
		listeners = append(listeners, l)
	}
	n.mu.Unlock()

	for _, l := range listeners {
		l(current)
	}
	return d
}

// onStatus переоценивает текущее место (или отложенный переход) при каждой смене сессии
func (n *Navigator) onStatus(status auth.Status) {
	if status == auth.StatusLoading {
		return
	}

	n.mu.Lock()
	path, parked := n.pending, n.parked
	if !parked {
		path = n.current.Path
	}
	n.mu.Unlock()

	if !parked && path == "" {
		return
	}
	n.apply(status, path)
}
