// Package poller re-fetches a conversation on a fixed interval while its
// view is open. Each fetch replaces the whole displayed list.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/poller/config"
)

const DefaultInterval = 3 * time.Second

// FetchFunc loads the full history for key.
type FetchFunc func(ctx context.Context, key int64) error

// Ticker is the subset of *time.Ticker the loop needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{ticker: time.NewTicker(d)}
}

type Poller struct {
	fetch     FetchFunc
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	zaplog    *zap.Logger

	mu      sync.Mutex
	key     int64
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type Option func(*Poller)

// WithTicker replaces the wall-clock ticker.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(p *Poller) {
		p.newTicker = newTicker
	}
}

func New(cfg config.Config, fetch FetchFunc, zaplog *zap.Logger, opts ...Option) *Poller {
	p := &Poller{
		fetch:     fetch,
		interval:  cfg.Interval,
		newTicker: newTimeTicker,
		zaplog:    zaplog,
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start cancels the loop of the previous key, fetches key immediately and
// then once per interval until Stop or the next Start.
func (p *Poller) Start(ctx context.Context, key int64) {
	p.Stop()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ticker := p.newTicker(p.interval)

	p.mu.Lock()
	p.key = key
	p.running = true
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	p.poll(loopCtx, key)

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C():
				p.poll(loopCtx, key)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit. No fetch for the old key
// starts after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.running = false
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh fetches the active key out of band.
func (p *Poller) Refresh(ctx context.Context) {
	key, ok := p.Key()
	if !ok {
		return
	}
	p.poll(ctx, key)
}

// Key returns the active conversation key.
func (p *Poller) Key() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key, p.running
}

func (p *Poller) poll(ctx context.Context, key int64) {
	if ctx.Err() != nil {
		return
	}
	// неудачный опрос пропускаем до следующего тика
	if err := p.fetch(ctx, key); err != nil {
		p.zaplog.Debug("poll failed", zap.Int64("key", key), zap.Error(err))
	}
}
