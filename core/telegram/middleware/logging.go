package middleware

import (
	"time"

	"github.com/iulicovete-ux/Documente-CV/core/logger"
	tghelpers "github.com/iulicovete-ux/Documente-CV/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware builds the per-update rid, stores a logging context on the
// tele.Context, and logs a single receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user := c.Sender()
		chat := c.Chat()

		chatID, userID := int64(0), int64(0)
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(nil, rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		attrs := []slog.Attr{
			slog.String("status", "ok"),
			slog.Int("update_id", upd.ID),
		}
		if chatID != 0 {
			attrs = append(attrs, slog.Int64("chat_id", chatID))
		}
		if userID != 0 {
			attrs = append(attrs, slog.Int64("user_id", userID))
			if user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
		}
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)

		return next(c)
	}
}
