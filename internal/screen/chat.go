package screen

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/poller"
	"github.com/iurnickita/scpclient/internal/poller/config"
	"github.com/iurnickita/scpclient/internal/service"
)

// Conversation is one entry of the supplier's chat list.
type Conversation struct {
	ID   int64
	Name string
}

// Chat shows one conversation at a time, kept fresh by a poller.
type Chat struct {
	svc      service.Service
	notifier Notifier
	zaplog   *zap.Logger
	poller   *poller.Poller

	mu        sync.Mutex
	messages  []model.ChatMessage
	listeners map[int]func([]model.ChatMessage)
	nextID    int
}

func NewChat(svc service.Service, cfg config.Config, notifier Notifier, zaplog *zap.Logger, opts ...poller.Option) *Chat {
	c := &Chat{
		svc:       svc,
		notifier:  notifier,
		zaplog:    zaplog,
		listeners: make(map[int]func([]model.ChatMessage)),
	}
	c.poller = poller.New(cfg, c.fetch, zaplog, opts...)
	return c
}

// Conversations lists customers with an accepted connection.
func (c *Chat) Conversations(ctx context.Context) ([]Conversation, error) {
	links, err := c.svc.SupplierLinks(ctx)
	if err != nil {
		c.notifier.Notify("Failed to load conversations")
		return nil, err
	}
	var out []Conversation
	for _, l := range links {
		if l.Status == model.LinkStatusAccepted {
			out = append(out, Conversation{ID: l.ConsumerID, Name: CustomerName(l.ConsumerID)})
		}
	}
	return out, nil
}

// Open switches to the conversation with otherUserID. The previous
// conversation stops polling first.
func (c *Chat) Open(ctx context.Context, otherUserID int64) {
	c.poller.Stop()
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()
	c.poller.Start(ctx, otherUserID)
}

// Close stops polling; no fetch happens after it returns.
func (c *Chat) Close() {
	c.poller.Stop()
}

func (c *Chat) Active() (int64, bool) {
	return c.poller.Key()
}

func (c *Chat) Messages() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages
}

// Subscribe registers a listener called with the full list after every fetch.
func (c *Chat) Subscribe(listener func([]model.ChatMessage)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Send posts text to the active conversation and refreshes right away.
// Blank text is ignored.
func (c *Chat) Send(ctx context.Context, text string) error {
	to, ok := c.Active()
	if strings.TrimSpace(text) == "" || !ok {
		return nil
	}
	if _, err := c.svc.SendMessage(ctx, to, text); err != nil {
		c.notifier.Notify("Failed to send")
		return err
	}
	c.poller.Refresh(ctx)
	return nil
}

// fetch заменяет весь список сообщений; ответ по уже закрытому диалогу отбрасывается
func (c *Chat) fetch(ctx context.Context, otherUserID int64) error {
	messages, err := c.svc.ChatHistory(ctx, otherUserID)
	if err != nil {
		return err
	}
	if active, ok := c.poller.Key(); !ok || active != otherUserID {
		return nil
	}

	c.mu.Lock()
	c.messages = messages
	listeners := make([]func([]model.ChatMessage), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(messages)
	}
	return nil
}
