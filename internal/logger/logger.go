package logger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iurnickita/scpclient/internal/logger/config"
)

// NewZapLog строит JSON-логер уровня cfg.LogLevel. Логи идут в stderr,
// stdout остается под вывод команд.
func NewZapLog(cfg config.Config) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}

	zapcfg := zap.NewProductionConfig()
	zapcfg.Level = lvl
	zapcfg.OutputPaths = []string{"stderr"}
	zapcfg.ErrorOutputPaths = []string{"stderr"}
	zapcfg.DisableStacktrace = true
	zapcfg.EncoderConfig.TimeKey = "time"
	zapcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapcfg.Build(zap.Fields(zap.String("component", "scpclient")))
}

// логер исходящих HTTP-запросов шлюза.
// Тело запроса не пишем: в нем бывают пароли.
func RequestLogHooks(client *resty.Client, zaplog *zap.Logger) {
	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		zaplog.Debug("send outgoing HTTP request",
			zap.String("method", r.Method),
			zap.String("url", r.URL),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Bool("authorized", r.Header.Get("Authorization") != ""),
		)
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		zaplog.Info("got HTTP response",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.String("code", strconv.Itoa(resp.StatusCode())),
			zap.String("length", strconv.Itoa(len(resp.Body()))),
			zap.String("duration", resp.Time().String()),
		)
		return nil
	})

	client.OnError(func(r *resty.Request, err error) {
		zaplog.Warn("outgoing HTTP request failed",
			zap.String("method", r.Method),
			zap.String("url", r.URL),
			zap.Error(err),
		)
	})
}

// middleware-логер для команд клиента.
func CommandLogMdlw(name string, h func(ctx context.Context, args []string) error, zaplog *zap.Logger) func(ctx context.Context, args []string) error {
	return func(ctx context.Context, args []string) error {
		zaplog.Debug("got command",
			zap.String("command", name),
			zap.Int("argc", len(args)),
		)

		start := time.Now()
		err := h(ctx, args)
		duration := time.Since(start)

		fields := []zap.Field{
			zap.String("command", name),
			zap.String("duration", duration.String()),
		}
		if err != nil {
			zaplog.Info("command failed", append(fields, zap.Error(err))...)
			return err
		}
		zaplog.Debug("command done", fields...)
		return nil
	}
}
