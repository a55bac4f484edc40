package apply

import (
	"context"
	"fmt"

	"github.com/iulicovete-ux/Documente-CV/core/logger"
	"log/slog"
)

const completionAnnounce = "✅ Am primit ambele poze. Trimit aplicația către staff în #Documente..."

// Completer finishes an application once both upload slots are filled:
// announce, deliver the review artifact, close the private channel, archive.
//
// Delivery failure is the only fatal step; it propagates so the caller keeps
// the session and the user can be told to try again. Announce and close are
// best-effort, but a failed close is reported instead of swallowed: it is
// logged and flagged on the archived row so an operator can clean up the
// channel manually.
type Completer struct {
	notifier ChannelNotifier
	sink     ReviewSink
	closer   ChannelCloser
	archiver Archiver
}

// NewCompleter wires the completion handler. archiver may be nil.
func NewCompleter(notifier ChannelNotifier, sink ReviewSink, closer ChannelCloser, archiver Archiver) *Completer {
	return &Completer{notifier: notifier, sink: sink, closer: closer, archiver: archiver}
}

// Complete runs the completion sequence for a finished session snapshot.
// The caller deletes the session only after Complete returns nil.
func (cp *Completer) Complete(ctx context.Context, sess Session) error {
	if err := cp.notifier.SendToChannel(ctx, sess.Channel, completionAnnounce); err != nil {
		logger.Warn(ctx, "flow", "complete.announce_failed",
			slog.Int64("user_id", sess.UserID),
			slog.String("err", err.Error()),
		)
	}

	if err := cp.sink.DeliverReview(ctx, BuildReview(sess)); err != nil {
		return fmt.Errorf("deliver review: %w", err)
	}

	needsCleanup := false
	if err := cp.closer.CloseChannel(ctx, sess.Channel); err != nil {
		needsCleanup = true
		logger.Error(ctx, "flow", "complete.close_failed",
			slog.Int64("user_id", sess.UserID),
			slog.Int64("chat_id", sess.Channel.ChatID),
			slog.Int("thread_id", sess.Channel.ThreadID),
			slog.String("err", err.Error()),
		)
	}

	if cp.archiver != nil {
		if err := cp.archiver.Insert(ctx, sess, needsCleanup); err != nil {
			logger.Error(ctx, "flow", "complete.archive_failed",
				slog.Int64("user_id", sess.UserID),
				slog.String("err", err.Error()),
			)
		}
	}

	logger.Info(ctx, "flow", "application.completed",
		slog.Int64("user_id", sess.UserID),
		slog.Bool("needs_cleanup", needsCleanup),
	)
	return nil
}
