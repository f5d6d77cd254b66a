package screen

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/auth"
	"github.com/iurnickita/scpclient/internal/route"
)

const msgAccountCreated = "Account successfully created! Please log in."

// AuthScreen drives login, registration and logout.
type AuthScreen struct {
	session   auth.Auth
	navigator Navigator
	table     *route.Table
	notifier  Notifier
	zaplog    *zap.Logger
	// autoLogin: после регистрации сразу входим (мобильное приложение)
	autoLogin bool
}

func NewAuthScreen(session auth.Auth, navigator Navigator, table *route.Table, notifier Notifier, autoLogin bool, zaplog *zap.Logger) *AuthScreen {
	return &AuthScreen{
		session:   session,
		navigator: navigator,
		table:     table,
		notifier:  notifier,
		zaplog:    zaplog,
		autoLogin: autoLogin,
	}
}

func (s *AuthScreen) Login(ctx context.Context, identifier string, secret string) error {
	_, err := s.session.Login(ctx, strings.TrimSpace(identifier), secret)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInsufficientData):
			s.notifier.Notify("Please fill all fields.")
		default:
			s.notifier.Notify("Login failed: " + reason(err, "invalid credentials"))
		}
		return err
	}
	s.navigator.Navigate(s.table.Home())
	return nil
}

func (s *AuthScreen) Register(ctx context.Context, identifier string, secret string, displayName string) error {
	identifier, displayName = strings.TrimSpace(identifier), strings.TrimSpace(displayName)
	if identifier == "" || strings.TrimSpace(secret) == "" || displayName == "" {
		s.notifier.Notify("Please fill all fields.")
		return auth.ErrInsufficientData
	}

	if err := s.session.Register(ctx, identifier, secret, displayName); err != nil {
		s.notifier.Notify("Registration failed: " + reason(err, ""))
		return err
	}
	s.zaplog.Info("account registered", zap.String("identifier", identifier), zap.Bool("auto_login", s.autoLogin))

	if s.autoLogin {
		return s.Login(ctx, identifier, secret)
	}
	s.notifier.Notify(msgAccountCreated)
	s.navigator.Navigate(s.table.Login())
	return nil
}

func (s *AuthScreen) Logout(ctx context.Context) error {
	err := s.session.Logout(ctx)
	s.navigator.Navigate(s.table.Login())
	return err
}
