package apply

import "context"

// Provisioner creates the applicant's private upload channel and seeds it
// with the upload instructions.
type Provisioner interface {
	CreateApplicantChannel(ctx context.Context, displayName string, userID int64) (Channel, error)
}

// ChannelNotifier posts plain status messages into a private channel.
type ChannelNotifier interface {
	SendToChannel(ctx context.Context, ch Channel, text string) error
}

// ReviewSink delivers the compiled review artifact to the staff channel.
type ReviewSink interface {
	DeliverReview(ctx context.Context, art ReviewArtifact) error
}

// ChannelCloser locks down a private channel once the application is done.
type ChannelCloser interface {
	CloseChannel(ctx context.Context, ch Channel) error
}

// Archiver persists a finished application for operator visibility. It is
// optional; a nil Archiver disables archiving.
type Archiver interface {
	Insert(ctx context.Context, sess Session, needsCleanup bool) error
}
