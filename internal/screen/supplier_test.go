package screen

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/poller"
	pollerConfig "github.com/iurnickita/scpclient/internal/poller/config"
	"github.com/iurnickita/scpclient/internal/service"
)

var testPollerConfig = pollerConfig.Config{Interval: time.Hour}

func TestOrdersSupplierSide(t *testing.T) {
	m := newMarketplace(t)
	orderID := m.backend.AddOrder(m.consumerID, m.supplierID, 250, model.OrderStatusPending, time.Now())

	e := newWeb(t, m.backend)
	e.login(t, "supplier@local.com")
	o := NewOrders(e.svc, e.notices, true)
	ctx := context.Background()

	entries, err := o.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, CustomerName(m.consumerID), entries[0].Counterparty)
	require.Equal(t, 250.0, entries[0].TotalAmount.Float64())

	details, err := o.Details(ctx, orderID)
	require.NoError(t, err)
	require.Equal(t, orderID, details.ID)

	_, err = o.Details(ctx, orderID+1000)
	require.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, o.Accept(ctx, orderID))
	require.Equal(t, model.OrderStatusConfirmed, o.Entries()[0].Status)
	require.Equal(t, model.OrderStatusConfirmed, m.backend.OrderStatus(orderID))

	require.NoError(t, o.Reject(ctx, orderID))
	require.Equal(t, model.OrderStatusRejected, m.backend.OrderStatus(orderID))
}

func TestOrdersConsumerSide(t *testing.T) {
	m := newMarketplace(t)
	orderID := m.backend.AddOrder(m.consumerID, m.supplierID, 99.5, model.OrderStatusPending, time.Now())

	e := newMobile(t, m.backend)
	e.login(t, "buyer@local.com")
	o := NewOrders(e.svc, e.notices, false)

	entries, err := o.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, SupplierName(m.supplierID), entries[0].Counterparty)

	require.ErrorIs(t, o.Accept(context.Background(), orderID), service.ErrAccessDenied)
	require.Equal(t, model.OrderStatusPending, m.backend.OrderStatus(orderID))
}

func TestProducts(t *testing.T) {
	m := newMarketplace(t)
	e := newWeb(t, m.backend)
	e.login(t, "supplier@local.com")
	p := NewProducts(e.svc, e.notices)
	ctx := context.Background()

	require.ErrorIs(t, p.Add(ctx, model.ProductInput{Name: "  ", Price: 10}), ErrInvalidInput)
	require.Equal(t, "Fill all fields.", e.notices.last())
	require.ErrorIs(t, p.Add(ctx, model.ProductInput{Name: "Milk"}), ErrInvalidInput)

	require.NoError(t, p.Add(ctx, model.ProductInput{Name: "Milk", Price: 100, Quantity: 40, Unit: "l"}))
	require.NoError(t, p.Add(ctx, model.ProductInput{Name: "Goat Cheese", Price: 540, Quantity: 3, Unit: "kg"}))

	require.Len(t, p.Filter(""), 2)
	filtered := p.Filter("CHEESE")
	require.Len(t, filtered, 1)
	cheese := filtered[0]
	require.True(t, cheese.LowStock())
	milk := p.Filter("milk")[0]

	require.ErrorIs(t, p.Edit(ctx, milk.ID, model.ProductInput{Name: "Milk", Price: math.NaN()}), ErrInvalidInput)
	require.Equal(t, "Fill all fields correctly.", e.notices.last())
	require.NoError(t, p.Edit(ctx, milk.ID, model.ProductInput{Name: "Whole Milk", Price: 110, Quantity: 40, Unit: "l"}))
	require.Len(t, p.Filter("whole"), 1)

	require.ErrorIs(t, p.Discount(ctx, milk.ID, 120), ErrInvalidInput)
	require.Equal(t, "Enter valid percent (0–100).", e.notices.last())
	require.NoError(t, p.Discount(ctx, milk.ID, 9.6))
	discounted := p.Filter("whole")[0]
	require.Equal(t, 10, discounted.DiscountPercent)
	require.Equal(t, 99.0, discounted.DisplayPrice())
	require.Equal(t, 110.0, discounted.StruckPrice())

	require.NoError(t, p.Remove(ctx, cheese.ID))
	require.False(t, m.backend.ProductExists(cheese.ID))
	require.Len(t, p.Filter(""), 1)

	m.backend.Fail(http.MethodPost, "/products", http.StatusInternalServerError)
	require.Error(t, p.Add(ctx, model.ProductInput{Name: "Butter", Price: 300}))
	require.Equal(t, "Failed to add product", e.notices.last())
}

type manualTicker struct {
	ch chan time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

func TestChatPollingAndSend(t *testing.T) {
	m := newMarketplace(t)
	m.backend.AddMessage(m.consumerID, m.ownerID, "is there milk today?")

	e := newWeb(t, m.backend)
	e.login(t, "supplier@local.com")

	ticker := &manualTicker{ch: make(chan time.Time)}
	chat := NewChat(e.svc, testPollerConfig, e.notices, zap.NewNop(),
		poller.WithTicker(func(time.Duration) poller.Ticker { return ticker }))
	defer chat.Close()
	ctx := context.Background()

	var mu sync.Mutex
	var updates int
	unsubscribe := chat.Subscribe(func([]model.ChatMessage) {
		mu.Lock()
		updates++
		mu.Unlock()
	})
	defer unsubscribe()

	// открытие: немедленная загрузка
	chat.Open(ctx, m.consumerID)
	require.Len(t, chat.Messages(), 1)
	require.Equal(t, 1, m.backend.Hits(http.MethodGet, "/chat/"+strconv.FormatInt(m.consumerID, 10)))

	// сообщение от собеседника приходит со следующим тиком
	m.backend.AddMessage(m.consumerID, m.ownerID, "and eggs?")
	ticker.ch <- time.Now()
	require.Eventually(t, func() bool { return len(chat.Messages()) == 2 }, time.Second, time.Millisecond)

	// пустое сообщение не отправляется
	require.NoError(t, chat.Send(ctx, "   "))
	require.Zero(t, m.backend.Hits(http.MethodPost, "/chat"))

	// отправка обновляет список сразу, не дожидаясь тика
	require.NoError(t, chat.Send(ctx, "yes, both"))
	require.Len(t, chat.Messages(), 3)
	require.Equal(t, "yes, both", chat.Messages()[2].Content)

	chat.Close()
	hits := m.backend.Hits(http.MethodGet, "/chat/"+strconv.FormatInt(m.consumerID, 10))
	require.Equal(t, 3, hits)
	mu.Lock()
	require.Equal(t, 3, updates)
	mu.Unlock()

	// после закрытия отправка не делает ничего
	require.NoError(t, chat.Send(ctx, "bye"))
	require.Equal(t, 1, m.backend.Hits(http.MethodPost, "/chat"))
}

// slowHistory задерживает загрузку истории одного собеседника
type slowHistory struct {
	service.Service
	slowID  int64
	armed   chan struct{}
	started chan struct{}
	release chan struct{}
}

func (s *slowHistory) ChatHistory(ctx context.Context, otherUserID int64) ([]model.ChatMessage, error) {
	messages, err := s.Service.ChatHistory(ctx, otherUserID)
	select {
	case <-s.armed:
		if otherUserID == s.slowID {
			close(s.started)
			<-s.release
		}
	default:
	}
	return messages, err
}

func TestChatDropsLateHistory(t *testing.T) {
	m := newMarketplace(t)
	other := m.backend.AddUser("cafe@local.com", "pass", "Cafe", model.RoleConsumer)
	m.backend.AddMessage(m.consumerID, m.ownerID, "from first")
	m.backend.AddMessage(other, m.ownerID, "from second")

	e := newWeb(t, m.backend)
	e.login(t, "supplier@local.com")
	svc := &slowHistory{
		Service: e.svc,
		slowID:  m.consumerID,
		armed:   make(chan struct{}),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	chat := NewChat(svc, testPollerConfig, e.notices, zap.NewNop())
	defer chat.Close()
	ctx := context.Background()

	chat.Open(ctx, m.consumerID)
	close(svc.armed)

	sent := make(chan error, 1)
	go func() { sent <- chat.Send(ctx, "hello") }()
	<-svc.started

	chat.Open(ctx, other)
	close(svc.release)
	require.NoError(t, <-sent)

	active, ok := chat.Active()
	require.True(t, ok)
	require.Equal(t, other, active)
	messages := chat.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, "from second", messages[0].Content)
}

type failingService struct {
	service.Service
}

var errBackendDown = errors.New("backend down")

func (failingService) UpdateProfile(context.Context, string) error { return errBackendDown }
func (failingService) SetVisibility(context.Context, bool) error   { return errBackendDown }

func TestProfile(t *testing.T) {
	m := newMarketplace(t)
	e := newWeb(t, m.backend)
	e.login(t, "supplier@local.com")
	p := NewProfile(e.svc, e.storage, e.notices, zap.NewNop())
	ctx := context.Background()

	about, visible, err := p.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, about)
	require.False(t, visible)

	require.NoError(t, p.SaveAbout(ctx, "Family farm"))
	visible, err = p.Toggle(ctx)
	require.NoError(t, err)
	require.True(t, visible)

	backendAbout, backendVisible := m.backend.Profile(m.supplierID)
	require.Equal(t, "Family farm", backendAbout)
	require.True(t, backendVisible)

	// кэш профиля переживает выход
	require.NoError(t, e.session.Logout(ctx))
	about, visible, err = p.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Family farm", about)
	require.True(t, visible)
}

func TestProfileKeepsLocalValueOnBackendFailure(t *testing.T) {
	m := newMarketplace(t)
	e := newWeb(t, m.backend)
	p := NewProfile(failingService{}, e.storage, e.notices, zap.NewNop())
	ctx := context.Background()

	require.ErrorIs(t, p.SaveAbout(ctx, "Offline text"), errBackendDown)
	require.Equal(t, "Failed to save profile (Backend err)", e.notices.last())
	require.ErrorIs(t, p.SetVisible(ctx, true), errBackendDown)

	about, visible, err := p.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Offline text", about)
	require.True(t, visible)
}
