package apply

import (
	"context"
	"errors"
	"fmt"

	"github.com/iulicovete-ux/Documente-CV/core/logger"
	"log/slog"
)

// FormFlow drives the two form pages and the transition into the upload
// stage. It owns all stage validation; callers only translate its outcomes
// into user-facing messages.
type FormFlow struct {
	store *Store
	prov  Provisioner
}

// NewFormFlow wires the form controller.
func NewFormFlow(store *Store, prov Provisioner) *FormFlow {
	return &FormFlow{store: store, prov: prov}
}

// StartApplication unconditionally creates a fresh session for the user,
// discarding any existing one. No data leaks from a discarded attempt.
func (f *FormFlow) StartApplication(ctx context.Context, userID int64, displayName string) {
	f.store.Put(Session{
		UserID:      userID,
		DisplayName: displayName,
		Stage:       StageAwaitingPage1,
	})
	logger.Info(ctx, "flow", "application.start",
		slog.Int64("user_id", userID),
	)
}

// SubmitPage1 stores the five page-1 answers verbatim and advances the
// session to the page-2 stage. A missing session is tolerated: a fresh one
// is synthesized so a user who raced the TTL sweep does not lose the answers
// they just typed.
func (f *FormFlow) SubmitPage1(ctx context.Context, userID int64, displayName string, p1 Page1) {
	snap, err := f.store.Update(userID, func(s *Session) {
		s.Page1 = p1
		s.Stage = StageAwaitingPage2
	})
	if errors.Is(err, ErrNoSession) {
		f.store.Put(Session{
			UserID:      userID,
			DisplayName: displayName,
			Stage:       StageAwaitingPage2,
			Page1:       p1,
		})
		snap, _ = f.store.Get(userID)
	}
	logger.Info(ctx, "flow", "page1.saved",
		slog.Int64("user_id", userID),
		slog.String("stage", snap.Stage.String()),
	)
}

// AdvanceToPage2 validates that page 1 was completed before the caller
// presents the second page. ErrRestartRequired is recoverable: the user is
// told to press the panel button again.
func (f *FormFlow) AdvanceToPage2(ctx context.Context, userID int64) error {
	sess, ok := f.store.Get(userID)
	if !ok || sess.Stage != StageAwaitingPage2 || sess.Page1.FullName == "" {
		logger.Warn(ctx, "flow", "page2.rejected",
			slog.Int64("user_id", userID),
			slog.String("stage", sess.Stage.String()),
		)
		return ErrRestartRequired
	}
	return nil
}

// SubmitPage2 stores the two page-2 answers, provisions the applicant's
// private upload channel, and advances the session to the upload stage.
// The stage only moves once the channel exists; a provisioning failure
// leaves the session at page 2 so the submission can be retried.
func (f *FormFlow) SubmitPage2(ctx context.Context, userID int64, p2 Page2) (Channel, error) {
	sess, ok := f.store.Get(userID)
	if !ok || sess.Stage != StageAwaitingPage2 || sess.Page1.FullName == "" {
		return Channel{}, ErrRestartRequired
	}

	ch, err := f.prov.CreateApplicantChannel(ctx, sess.DisplayName, userID)
	if err != nil {
		return Channel{}, fmt.Errorf("provision applicant channel: %w", err)
	}

	snap, err := f.store.Update(userID, func(s *Session) {
		s.Page2 = p2
		s.Channel = ch
		s.Stage = StageAwaitingUploads
	})
	if err != nil {
		// Session evicted between the check and the write; start over.
		return Channel{}, ErrRestartRequired
	}

	logger.Info(ctx, "flow", "page2.saved",
		slog.Int64("user_id", userID),
		slog.String("stage", snap.Stage.String()),
		slog.Int64("chat_id", ch.ChatID),
		slog.Int("thread_id", ch.ThreadID),
	)
	return ch, nil
}
