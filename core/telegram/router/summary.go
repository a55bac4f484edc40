package router

import (
	"time"

	"github.com/iulicovete-ux/Documente-CV/core/logger"
	tghelpers "github.com/iulicovete-ux/Documente-CV/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

func handleWithSummary(c tele.Context, handlerName string, start time.Time, fn func() error) error {
	ctx := tghelpers.WithHandler(c, handlerName)
	err := fn()

	status := "ok"
	if err != nil {
		status = "fail"
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(logger.SanitizeError(err), 256)))
	}
	logger.Info(ctx, "tg", "handler.handled", attrs...)
	return err
}
