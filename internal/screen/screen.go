// Package screen holds the per-screen controllers of both applications.
// Controllers fetch through the service, keep local view state and report
// failures to a Notifier; nothing is retried.
package screen

import (
	"errors"
	"strconv"

	"github.com/iurnickita/scpclient/internal/gateway"
	"github.com/iurnickita/scpclient/internal/route"
)

// Notifier shows a user-facing notice.
type Notifier interface {
	Notify(message string)
}

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) {
	f(message)
}

// Navigator moves the application to a path through the route guard.
type Navigator interface {
	Navigate(path string) route.Decision
}

var ErrInvalidInput = errors.New("invalid input")

// reason is the backend's explanation of err when it gave one.
func reason(err error, fallback string) string {
	if detail := gateway.Detail(err); detail != "" {
		return detail
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}

// CustomerName is how a consumer is shown to a supplier; the backend exposes
// only ids.
func CustomerName(id int64) string {
	return "Customer #" + strconv.FormatInt(id, 10)
}

func SupplierName(id int64) string {
	return "Supplier #" + strconv.FormatInt(id, 10)
}

func navigateTo(navigator Navigator, table *route.Table, kind route.Kind, params ...string) {
	if path, ok := table.Path(kind, params...); ok {
		navigator.Navigate(path)
	}
}
