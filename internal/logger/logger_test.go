package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iurnickita/scpclient/internal/logger/config"
)

func TestNewZapLog(t *testing.T) {
	zl, err := NewZapLog(config.Config{LogLevel: "warn"})
	require.NoError(t, err)
	require.False(t, zl.Core().Enabled(zapcore.InfoLevel))
	require.True(t, zl.Core().Enabled(zapcore.WarnLevel))

	_, err = NewZapLog(config.Config{LogLevel: "loud"})
	require.Error(t, err)
}

func TestCommandLogMdlw(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	errFailed := errors.New("failed")

	ok := CommandLogMdlw("orders", func(context.Context, []string) error { return nil }, zap.New(core))
	require.NoError(t, ok(context.Background(), []string{"a"}))
	require.Equal(t, 2, logs.FilterMessage("got command").Len()+logs.FilterMessage("command done").Len())

	bad := CommandLogMdlw("orders", func(context.Context, []string) error { return errFailed }, zap.New(core))
	require.ErrorIs(t, bad(context.Background(), nil), errFailed)
	require.Equal(t, 1, logs.FilterMessage("command failed").Len())
}
