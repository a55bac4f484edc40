package apply

import (
	"context"
	"errors"
	"strings"

	"github.com/iulicovete-ux/Documente-CV/core/logger"
	"log/slog"
)

// Status lines posted into the private channel while uploads are pending.
const (
	statusPrimaryReceived   = "✅ Buletin primit"
	statusPrimaryPending    = "⏳ Aștept buletin (față)"
	statusSecondaryReceived = "✅ Poză ID in-game primită"
	statusSecondaryPending  = "⏳ Aștept poză ID in-game + față"
)

// Collector observes messages in applicants' private channels and fills the
// two upload slots in arrival order.
type Collector struct {
	store     *Store
	notifier  ChannelNotifier
	completer *Completer
}

// NewCollector wires the upload collector.
func NewCollector(store *Store, notifier ChannelNotifier, completer *Completer) *Collector {
	return &Collector{store: store, notifier: notifier, completer: completer}
}

// OnMessage applies a message's attachments to the author's session. It is a
// no-op unless the author has a session with a provisioned channel and the
// message arrived exactly there. The first missing slot fills first;
// attachments beyond the second are ignored.
//
// The stage moves to StageCompleted under the store lock in the invocation
// that fills the second slot, so concurrent messages can never trigger a
// duplicate delivery. If delivery fails the stage is reverted and the next
// message in the channel retries the hand-off.
func (c *Collector) OnMessage(ctx context.Context, authorID int64, ch Channel, attachments []string) error {
	if len(attachments) == 0 {
		return nil
	}

	var (
		matched      bool
		completedNow bool
	)
	snap, err := c.store.Update(authorID, func(s *Session) {
		if s.Stage != StageAwaitingUploads || s.Channel.Zero() || s.Channel != ch {
			return
		}
		matched = true
		for _, url := range attachments {
			if url == "" {
				continue
			}
			switch {
			case s.Uploads.PrimaryURL == "":
				s.Uploads.PrimaryURL = url
			case s.Uploads.SecondaryURL == "":
				s.Uploads.SecondaryURL = url
			}
		}
		if s.Uploads.Complete() {
			s.Stage = StageCompleted
			completedNow = true
		}
	})
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if !matched {
		return nil
	}

	logger.Debug(ctx, "flow", "upload.received",
		slog.Int64("user_id", authorID),
		slog.Int("attachments", len(attachments)),
		slog.Bool("complete", snap.Uploads.Complete()),
	)

	if completedNow {
		if err := c.completer.Complete(ctx, snap); err != nil {
			_, _ = c.store.Update(authorID, func(s *Session) {
				s.Stage = StageAwaitingUploads
			})
			return err
		}
		c.store.Delete(authorID)
		return nil
	}

	return c.notifier.SendToChannel(ctx, ch, statusText(snap.Uploads))
}

func statusText(u Uploads) string {
	lines := make([]string, 0, 2)
	if u.PrimaryURL != "" {
		lines = append(lines, statusPrimaryReceived)
	} else {
		lines = append(lines, statusPrimaryPending)
	}
	if u.SecondaryURL != "" {
		lines = append(lines, statusSecondaryReceived)
	} else {
		lines = append(lines, statusSecondaryPending)
	}
	return strings.Join(lines, "\n")
}
