package apply

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelMessage struct {
	ch   Channel
	text string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []channelMessage
}

func (n *fakeNotifier) SendToChannel(ctx context.Context, ch Channel, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, channelMessage{ch: ch, text: text})
	return nil
}

func (n *fakeNotifier) messages() []channelMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]channelMessage(nil), n.sent...)
}

type fakeSink struct {
	arts []ReviewArtifact
	err  error
}

func (s *fakeSink) DeliverReview(ctx context.Context, art ReviewArtifact) error {
	if s.err != nil {
		return s.err
	}
	s.arts = append(s.arts, art)
	return nil
}

type fakeCloser struct {
	closed []Channel
	err    error
}

func (c *fakeCloser) CloseChannel(ctx context.Context, ch Channel) error {
	if c.err != nil {
		return c.err
	}
	c.closed = append(c.closed, ch)
	return nil
}

type archivedRow struct {
	sess         Session
	needsCleanup bool
}

type fakeArchiver struct {
	rows []archivedRow
	err  error
}

func (a *fakeArchiver) Insert(ctx context.Context, sess Session, needsCleanup bool) error {
	if a.err != nil {
		return a.err
	}
	a.rows = append(a.rows, archivedRow{sess: sess, needsCleanup: needsCleanup})
	return nil
}

type collectorFixture struct {
	store    *Store
	notifier *fakeNotifier
	sink     *fakeSink
	closer   *fakeCloser
	archiver *fakeArchiver
	coll     *Collector
}

func newCollectorFixture() *collectorFixture {
	f := &collectorFixture{
		store:    NewStore(StoreOptions{}),
		notifier: &fakeNotifier{},
		sink:     &fakeSink{},
		closer:   &fakeCloser{},
		archiver: &fakeArchiver{},
	}
	completer := NewCompleter(f.notifier, f.sink, f.closer, f.archiver)
	f.coll = NewCollector(f.store, f.notifier, completer)
	return f
}

var uploadChannel = Channel{ChatID: -100555, ThreadID: 31}

func (f *collectorFixture) seedUploadSession(userID int64) {
	f.store.Put(Session{
		UserID:      userID,
		DisplayName: "Ion Pop",
		Stage:       StageAwaitingUploads,
		Page1:       page1Filled,
		Page2:       Page2{Motivation: "vreau să ajut", Experience: "2 ani"},
		Channel:     uploadChannel,
	})
}

func TestCollectorIgnoresMessagesOutsideChannel(t *testing.T) {
	f := newCollectorFixture()
	f.seedUploadSession(1)
	ctx := context.Background()

	other := Channel{ChatID: -100555, ThreadID: 99}
	require.NoError(t, f.coll.OnMessage(ctx, 1, other, []string{"https://x/a.jpg"}))

	sess, _ := f.store.Get(1)
	assert.Empty(t, sess.Uploads.PrimaryURL)
	assert.Empty(t, f.notifier.messages())
}

func TestCollectorIgnoresUsersWithoutSession(t *testing.T) {
	f := newCollectorFixture()

	err := f.coll.OnMessage(context.Background(), 77, uploadChannel, []string{"https://x/a.jpg"})
	assert.NoError(t, err)
	assert.Empty(t, f.notifier.messages())
}

func TestCollectorIgnoresWrongStage(t *testing.T) {
	f := newCollectorFixture()
	f.store.Put(Session{UserID: 1, Stage: StageAwaitingPage2, Channel: uploadChannel})

	require.NoError(t, f.coll.OnMessage(context.Background(), 1, uploadChannel, []string{"https://x/a.jpg"}))

	sess, _ := f.store.Get(1)
	assert.Empty(t, sess.Uploads.PrimaryURL)
}

func TestCollectorFirstUploadPostsStatus(t *testing.T) {
	f := newCollectorFixture()
	f.seedUploadSession(1)

	require.NoError(t, f.coll.OnMessage(context.Background(), 1, uploadChannel, []string{"https://x/a.jpg"}))

	sess, ok := f.store.Get(1)
	require.True(t, ok, "session stays alive until both slots fill")
	assert.Equal(t, "https://x/a.jpg", sess.Uploads.PrimaryURL)
	assert.Empty(t, sess.Uploads.SecondaryURL)

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, uploadChannel, msgs[0].ch)
	assert.Equal(t, statusPrimaryReceived+"\n"+statusSecondaryPending, msgs[0].text)
	assert.Empty(t, f.sink.arts)
}

func TestCollectorSecondUploadCompletes(t *testing.T) {
	f := newCollectorFixture()
	f.seedUploadSession(1)
	ctx := context.Background()

	require.NoError(t, f.coll.OnMessage(ctx, 1, uploadChannel, []string{"https://x/a.jpg"}))
	require.NoError(t, f.coll.OnMessage(ctx, 1, uploadChannel, []string{"https://x/b.jpg"}))

	require.Len(t, f.sink.arts, 1)
	art := f.sink.arts[0]
	assert.Equal(t, "https://x/a.jpg", art.ImageURL, "review leads with the first upload")

	assert.Equal(t, []Channel{uploadChannel}, f.closer.closed)

	require.Len(t, f.archiver.rows, 1)
	assert.False(t, f.archiver.rows[0].needsCleanup)
	assert.Equal(t, "https://x/b.jpg", f.archiver.rows[0].sess.Uploads.SecondaryURL)

	_, ok := f.store.Get(1)
	assert.False(t, ok, "completed session is deleted")

	msgs := f.notifier.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, completionAnnounce, msgs[1].text)
}

func TestCollectorBothUploadsInOneMessage(t *testing.T) {
	f := newCollectorFixture()
	f.seedUploadSession(1)

	urls := []string{"https://x/a.jpg", "https://x/b.jpg"}
	require.NoError(t, f.coll.OnMessage(context.Background(), 1, uploadChannel, urls))

	require.Len(t, f.sink.arts, 1)
	assert.Equal(t, "https://x/a.jpg", f.sink.arts[0].ImageURL)
	require.Len(t, f.archiver.rows, 1)
	assert.Equal(t, "https://x/b.jpg", f.archiver.rows[0].sess.Uploads.SecondaryURL)
}

func TestCollectorExtraAttachmentsIgnored(t *testing.T) {
	f := newCollectorFixture()
	f.seedUploadSession(1)

	urls := []string{"https://x/a.jpg", "https://x/b.jpg", "https://x/c.jpg"}
	require.NoError(t, f.coll.OnMessage(context.Background(), 1, uploadChannel, urls))

	require.Len(t, f.archiver.rows, 1)
	got := f.archiver.rows[0].sess.Uploads
	assert.Equal(t, "https://x/a.jpg", got.PrimaryURL)
	assert.Equal(t, "https://x/b.jpg", got.SecondaryURL)
}

func TestCollectorCompletionHappensExactlyOnce(t *testing.T) {
	f := newCollectorFixture()
	f.seedUploadSession(1)
	ctx := context.Background()

	require.NoError(t, f.coll.OnMessage(ctx, 1, uploadChannel, []string{"https://x/a.jpg", "https://x/b.jpg"}))
	require.NoError(t, f.coll.OnMessage(ctx, 1, uploadChannel, []string{"https://x/late.jpg"}))

	assert.Len(t, f.sink.arts, 1, "a message after completion must not re-deliver")
	assert.Len(t, f.closer.closed, 1)
}

func TestCollectorDeliveryFailureKeepsSession(t *testing.T) {
	f := newCollectorFixture()
	f.seedUploadSession(1)
	f.sink.err = errors.New("review channel unavailable")
	ctx := context.Background()

	err := f.coll.OnMessage(ctx, 1, uploadChannel, []string{"https://x/a.jpg", "https://x/b.jpg"})
	require.Error(t, err)

	sess, ok := f.store.Get(1)
	require.True(t, ok, "session survives a failed delivery")
	assert.True(t, sess.Uploads.Complete())
	assert.Equal(t, StageAwaitingUploads, sess.Stage, "stage reverts so the hand-off can be retried")
	assert.Empty(t, f.closer.closed, "channel stays open for the retry")
	assert.Empty(t, f.archiver.rows)

	// The next message in the channel retries the hand-off.
	f.sink.err = nil
	require.NoError(t, f.coll.OnMessage(ctx, 1, uploadChannel, []string{"https://x/ignored.jpg"}))
	assert.Len(t, f.sink.arts, 1)
	_, ok = f.store.Get(1)
	assert.False(t, ok)
}

func TestCompleterReportsCloseFailure(t *testing.T) {
	f := newCollectorFixture()
	f.seedUploadSession(1)
	f.closer.err = errors.New("topic already closed")

	urls := []string{"https://x/a.jpg", "https://x/b.jpg"}
	require.NoError(t, f.coll.OnMessage(context.Background(), 1, uploadChannel, urls))

	require.Len(t, f.sink.arts, 1, "close failure does not block delivery")
	require.Len(t, f.archiver.rows, 1)
	assert.True(t, f.archiver.rows[0].needsCleanup, "failed close is flagged for the operator")

	_, ok := f.store.Get(1)
	assert.False(t, ok)
}

func TestCompleterToleratesArchiveFailure(t *testing.T) {
	f := newCollectorFixture()
	f.seedUploadSession(1)
	f.archiver.err = errors.New("db down")

	urls := []string{"https://x/a.jpg", "https://x/b.jpg"}
	require.NoError(t, f.coll.OnMessage(context.Background(), 1, uploadChannel, urls))

	assert.Len(t, f.sink.arts, 1)
	_, ok := f.store.Get(1)
	assert.False(t, ok, "archiving is best-effort and never blocks completion")
}

// Full walkthrough from the panel button to the delivered review.
func TestApplicationEndToEnd(t *testing.T) {
	f := newCollectorFixture()
	prov := &fakeProvisioner{ch: uploadChannel}
	flow := NewFormFlow(f.store, prov)
	ctx := context.Background()
	const ion int64 = 1001

	flow.StartApplication(ctx, ion, "Ion Pop")
	flow.SubmitPage1(ctx, ion, "Ion Pop", page1Filled)
	require.NoError(t, flow.AdvanceToPage2(ctx, ion))

	_, err := flow.SubmitPage2(ctx, ion, Page2{Motivation: "vreau să ajut", Experience: "2 ani"})
	require.NoError(t, err)

	require.NoError(t, f.coll.OnMessage(ctx, ion, uploadChannel, []string{"https://x/buletin.jpg"}))
	require.NoError(t, f.coll.OnMessage(ctx, ion, uploadChannel, []string{"https://x/id.jpg"}))

	require.Len(t, f.sink.arts, 1)
	art := f.sink.arts[0]
	assert.Equal(t, reviewTitle, art.Title)
	require.Len(t, art.Fields, 8)
	assert.Equal(t, "Ion Pop", art.Fields[0].Value)
	assert.Equal(t, "RO49AAAA1B31007593840000", art.Fields[1].Value)
	assert.Equal(t, "vreau să ajut", art.Fields[5].Value)
	assert.Equal(t, "https://x/buletin.jpg", art.Fields[7].Value)
	assert.Equal(t, "https://x/buletin.jpg", art.ImageURL)

	assert.Equal(t, []Channel{uploadChannel}, f.closer.closed)
	assert.Equal(t, 0, f.store.Len())
}
