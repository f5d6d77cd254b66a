package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/auth/config"
	"github.com/iurnickita/scpclient/internal/model"
	"github.com/iurnickita/scpclient/internal/storage"
	"github.com/iurnickita/scpclient/internal/token"
)

// Auth is the client-side session store: the single active session of one
// application, held in memory and mirrored to durable storage.
type Auth interface {
	Login(ctx context.Context, identifier string, secret string) (model.Session, error)
	Register(ctx context.Context, identifier string, secret string, displayName string) error
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (model.Session, error)
	Invalidate(ctx context.Context) error

	Session() model.Session
	Status() Status
	Token() string
	Subscribe(listener func(Status)) (unsubscribe func())
}

// Backend is the part of the REST contract the session store talks to.
type Backend interface {
	IssueToken(ctx context.Context, username string, password string) (model.TokenResponse, error)
	Register(ctx context.Context, registration model.Registration) (model.User, error)
}

type Status int

const (
	StatusLoading Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed")
	ErrInsufficientData     = errors.New("insufficient data")
)

type auth struct {
	cfg     config.Config
	storage storage.Storage
	backend Backend
	zaplog  *zap.Logger

	mu        sync.RWMutex
	session   model.Session
	status    Status
	listeners map[int]func(Status)
	nextID    int
}

func NewAuth(cfg config.Config, storage storage.Storage, backend Backend, zaplog *zap.Logger) Auth {
	return &auth{
		cfg:       cfg,
		storage:   storage,
		backend:   backend,
		zaplog:    zaplog,
		status:    StatusLoading,
		listeners: make(map[int]func(Status)),
	}
}

func (a *auth) Login(ctx context.Context, identifier string, secret string) (model.Session, error) {
	if identifier == "" || secret == "" {
		return model.Session{}, ErrInsufficientData
	}

	resp, err := a.backend.IssueToken(ctx, identifier, secret)
	if err != nil {
		a.zaplog.Info("login rejected", zap.String("identifier", identifier), zap.Error(err))
		return model.Session{}, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	if resp.AccessToken == "" {
		return model.Session{}, fmt.Errorf("%w: empty access token", ErrAuthenticationFailed)
	}

	session := model.Session{
		Token:  resp.AccessToken,
		UserID: strconv.FormatInt(resp.UserID, 10),
		Role:   resp.Role,
	}
	// идентичность из claims токена, если это JWT
	if claims, err := token.GetClaims(session.Token); err == nil {
		session.Subject = claims.Subject
		session.ExpiresAt = claims.ExpiresAt
	}

	// сначала постоянное хранилище, затем память
	if err := a.persist(ctx, session); err != nil {
		a.rollback(ctx)
		return model.Session{}, err
	}

	a.mu.Lock()
	a.session = session
	a.status = StatusAuthenticated
	a.mu.Unlock()

	a.zaplog.Info("session established", zap.String("user_id", session.UserID), zap.String("role", session.Role))
	a.notify(StatusAuthenticated)
	return session, nil
}

func (a *auth) Register(ctx context.Context, identifier string, secret string, displayName string) error {
	if identifier == "" || secret == "" || displayName == "" {
		return ErrInsufficientData
	}

	_, err := a.backend.Register(ctx, model.Registration{
		Email:    identifier,
		Password: secret,
		Name:     displayName,
		Role:     a.cfg.RegisterRole,
	})
	if err != nil {
		a.zaplog.Info("registration rejected", zap.String("identifier", identifier), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}
	return nil
}

func (a *auth) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.session = model.Session{}
	a.status = StatusAnonymous
	a.mu.Unlock()

	a.notify(StatusAnonymous)

	if err := a.storage.Delete(ctx, a.keys()...); err != nil {
		a.zaplog.Warn("session storage not cleared", zap.Error(err))
		return err
	}
	return nil
}

func (a *auth) Invalidate(ctx context.Context) error {
	a.zaplog.Info("session invalidated by backend")
	return a.Logout(ctx)
}

func (a *auth) Restore(ctx context.Context) (model.Session, error) {
	session, err := a.load(ctx)

	a.mu.Lock()
	a.session = session
	if session.Authenticated() {
		a.status = StatusAuthenticated
	} else {
		a.status = StatusAnonymous
	}
	status := a.status
	a.mu.Unlock()

	a.notify(status)
	return session, err
}

func (a *auth) Session() model.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *auth) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

func (a *auth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.Token
}

func (a *auth) Subscribe(listener func(Status)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = listener
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *auth) notify(status Status) {
	a.mu.RLock()
	listeners := make([]func(Status), 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.RUnlock()

	for _, l := range listeners {
		l(status)
	}
}

func (a *auth) keys() []string {
	return []string{a.cfg.TokenKey, a.cfg.UserIDKey, a.cfg.RoleKey}
}

func (a *auth) persist(ctx context.Context, session model.Session) error {
	if err := a.storage.Set(ctx, a.cfg.TokenKey, session.Token); err != nil {
		return err
	}
	if err := a.storage.Set(ctx, a.cfg.UserIDKey, session.UserID); err != nil {
		return err
	}
	return a.storage.Set(ctx, a.cfg.RoleKey, session.Role)
}

// rollback возвращает хранилище к сессии, которая сейчас в памяти
func (a *auth) rollback(ctx context.Context) {
	prev := a.Session()
	var err error
	if prev.Authenticated() {
		err = a.persist(ctx, prev)
	} else {
		err = a.storage.Delete(ctx, a.keys()...)
	}
	if err != nil {
		a.zaplog.Warn("session storage rollback failed", zap.Error(err))
	}
}

func (a *auth) load(ctx context.Context) (model.Session, error) {
	tok, err := a.get(ctx, a.cfg.TokenKey)
	if err != nil {
		return model.Session{}, err
	}
	userID, err := a.get(ctx, a.cfg.UserIDKey)
	if err != nil {
		return model.Session{}, err
	}
	if tok == "" || userID == "" {
		return model.Session{}, nil
	}
	role, err := a.get(ctx, a.cfg.RoleKey)
	if err != nil {
		return model.Session{}, err
	}

	session := model.Session{Token: tok, UserID: userID, Role: role}
	if claims, err := token.GetClaims(tok); err == nil {
		session.Subject = claims.Subject
		session.ExpiresAt = claims.ExpiresAt
	}
	return session, nil
}

func (a *auth) get(ctx context.Context, key string) (string, error) {
	value, err := a.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}
