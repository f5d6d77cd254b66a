package screen

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/iurnickita/scpclient/internal/service"
	"github.com/iurnickita/scpclient/internal/storage"
)

// Ключи кэша профиля. Не входят в сессию и переживают выход.
const (
	KeyAbout   = "supplierAbout"
	KeyVisible = "supplierVisible"
)

// Profile edits the supplier's about text and discovery visibility. Values
// are cached locally and kept even when the backend rejects them.
type Profile struct {
	svc      service.Service
	storage  storage.Storage
	notifier Notifier
	zaplog   *zap.Logger
}

func NewProfile(svc service.Service, storage storage.Storage, notifier Notifier, zaplog *zap.Logger) *Profile {
	return &Profile{svc: svc, storage: storage, notifier: notifier, zaplog: zaplog}
}

func (p *Profile) Load(ctx context.Context) (about string, visible bool, err error) {
	about, err = p.get(ctx, KeyAbout)
	if err != nil {
		return "", false, err
	}
	raw, err := p.get(ctx, KeyVisible)
	if err != nil {
		return "", false, err
	}
	visible, _ = strconv.ParseBool(raw)
	return about, visible, nil
}

func (p *Profile) SaveAbout(ctx context.Context, about string) error {
	backendErr := p.svc.UpdateProfile(ctx, about)
	if backendErr != nil {
		p.zaplog.Info("profile not saved on backend", zap.Error(backendErr))
		p.notifier.Notify("Failed to save profile (Backend err)")
	}
	// локальное значение сохраняем в любом случае
	if err := p.storage.Set(ctx, KeyAbout, about); err != nil {
		return err
	}
	return backendErr
}

func (p *Profile) SetVisible(ctx context.Context, visible bool) error {
	backendErr := p.svc.SetVisibility(ctx, visible)
	if backendErr != nil {
		p.zaplog.Info("visibility not saved on backend", zap.Error(backendErr))
		p.notifier.Notify("Failed to change visibility")
	}
	if err := p.storage.Set(ctx, KeyVisible, strconv.FormatBool(visible)); err != nil {
		return err
	}
	return backendErr
}

// Toggle flips the cached visibility.
func (p *Profile) Toggle(ctx context.Context) (bool, error) {
	_, visible, err := p.Load(ctx)
	if err != nil {
		return false, err
	}
	return !visible, p.SetVisible(ctx, !visible)
}

func (p *Profile) get(ctx context.Context, key string) (string, error) {
	value, err := p.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	return value, err
}
