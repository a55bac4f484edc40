// Package apply implements the CV intake workflow: the per-user application
// session, the two-page form flow, upload collection in the applicant's
// private channel, and completion hand-off to the review channel.
package apply

import (
	"errors"
	"time"
)

var (
	// ErrNoSession indicates that no application is in flight for the user.
	ErrNoSession = errors.New("apply: no active session")
	// ErrRestartRequired indicates the session is missing or an earlier page
	// was never completed; the user has to start over from the panel button.
	ErrRestartRequired = errors.New("apply: restart required")
)

// Stage is the lifecycle phase of an application session. Transitions are
// validated; operations arriving out of order are rejected instead of being
// inferred from which fields happen to be populated.
type Stage int

const (
	// StageAwaitingPage1 means the session was created and page 1 is pending.
	StageAwaitingPage1 Stage = iota
	// StageAwaitingPage2 means page 1 is stored and page 2 is pending.
	StageAwaitingPage2
	// StageAwaitingUploads means both pages are stored and the private
	// channel is waiting for the two photos.
	StageAwaitingUploads
	// StageCompleted marks the session as handed off. It is set under the
	// store lock when the second upload lands, blocking any concurrent
	// completion attempt; the session is deleted once delivery succeeds.
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingPage1:
		return "awaiting_page1"
	case StageAwaitingPage2:
		return "awaiting_page2"
	case StageAwaitingUploads:
		return "awaiting_uploads"
	case StageCompleted:
		return "completed"
	}
	return "unknown"
}

// Channel identifies the applicant's private upload channel: a topic inside
// the staff forum supergroup.
type Channel struct {
	ChatID   int64
	ThreadID int
}

// Zero reports whether no channel was provisioned yet.
func (ch Channel) Zero() bool {
	return ch.ChatID == 0 && ch.ThreadID == 0
}

// Page1 holds the five short answers of the first form page. All values are
// stored verbatim; there is no semantic validation.
type Page1 struct {
	FullName     string
	IBAN         string
	MonthsInCity string
	Phone        string
	Referrer     string
}

// Page2 holds the two long answers of the second form page.
type Page2 struct {
	Motivation string
	Experience string
}

// Uploads holds the two required photo slots. Slots fill in order: primary
// first, secondary second.
type Uploads struct {
	PrimaryURL   string
	SecondaryURL string
}

// Complete reports whether both slots are filled.
func (u Uploads) Complete() bool {
	return u.PrimaryURL != "" && u.SecondaryURL != ""
}

// Session is one user's in-flight application. At most one exists per user;
// starting a new application replaces any prior session unconditionally.
type Session struct {
	UserID      int64
	DisplayName string
	Stage       Stage
	Page1       Page1
	Page2       Page2
	Channel     Channel
	Uploads     Uploads
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
