package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/iulicovete-ux/Documente-CV/apply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *tele.User
		want string
	}{
		{name: "first and last", user: &tele.User{FirstName: "Ion", LastName: "Pop"}, want: "Ion Pop"},
		{name: "first only", user: &tele.User{FirstName: "Ion"}, want: "Ion"},
		{name: "username fallback", user: &tele.User{Username: "ionpop"}, want: "ionpop"},
		{name: "nothing set", user: &tele.User{}, want: "aplicant"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, displayName(tc.user))
		})
	}
}

func TestQuestionNumbering(t *testing.T) {
	assert.Equal(t, "1/5: Nume + Prenume", question(1, len(page1Prompts), page1Prompts[0].label))
	assert.Equal(t, "2/2: Experiență anterioară", question(2, len(page2Prompts), page2Prompts[1].label))
}

func TestPromptKeysAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range append(append([]fieldPrompt{}, page1Prompts...), page2Prompts...) {
		assert.False(t, seen[p.key], p.key)
		seen[p.key] = true
	}
	assert.Len(t, seen, 7)
}

// fakeTeleContext implements the handful of tele.Context methods the
// attachment handler touches; everything else panics via the nil embed.
type fakeTeleContext struct {
	tele.Context
	sender *tele.User
	chat   *tele.Chat
	msg    *tele.Message
	store  map[string]any
}

func (f *fakeTeleContext) Sender() *tele.User     { return f.sender }
func (f *fakeTeleContext) Chat() *tele.Chat       { return f.chat }
func (f *fakeTeleContext) Message() *tele.Message { return f.msg }
func (f *fakeTeleContext) Update() tele.Update    { return tele.Update{} }
func (f *fakeTeleContext) Get(key string) any     { return f.store[key] }
func (f *fakeTeleContext) Set(key string, val any) {
	if f.store == nil {
		f.store = make(map[string]any)
	}
	f.store[key] = val
}

type fakeSender struct {
	files map[string]string
}

func (s *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	return nil, nil
}

func (s *fakeSender) FileURL(fileID string) (string, error) {
	url, ok := s.files[fileID]
	if !ok {
		return "", errors.New("file not found")
	}
	return url, nil
}

type recordingNotifier struct {
	texts []string
}

func (n *recordingNotifier) SendToChannel(ctx context.Context, ch apply.Channel, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

type recordingSink struct {
	arts []apply.ReviewArtifact
}

func (s *recordingSink) DeliverReview(ctx context.Context, art apply.ReviewArtifact) error {
	s.arts = append(s.arts, art)
	return nil
}

type recordingCloser struct {
	closed []apply.Channel
}

func (c *recordingCloser) CloseChannel(ctx context.Context, ch apply.Channel) error {
	c.closed = append(c.closed, ch)
	return nil
}

type attachmentFixture struct {
	store    *apply.Store
	notifier *recordingNotifier
	sink     *recordingSink
	closer   *recordingCloser
	handlers *Handlers
}

var testUploadChannel = apply.Channel{ChatID: -100555, ThreadID: 31}

func newAttachmentFixture(files map[string]string) *attachmentFixture {
	f := &attachmentFixture{
		store:    apply.NewStore(apply.StoreOptions{}),
		notifier: &recordingNotifier{},
		sink:     &recordingSink{},
		closer:   &recordingCloser{},
	}
	completer := apply.NewCompleter(f.notifier, f.sink, f.closer, nil)
	collector := apply.NewCollector(f.store, f.notifier, completer)
	f.handlers = NewHandlers(nil, nil, collector, nil, &fakeSender{files: files})

	f.store.Put(apply.Session{
		UserID:  1,
		Stage:   apply.StageAwaitingUploads,
		Channel: testUploadChannel,
	})
	return f
}

func uploadContext(user *tele.User, msg *tele.Message) tele.Context {
	return &fakeTeleContext{
		sender: user,
		chat:   &tele.Chat{ID: testUploadChannel.ChatID},
		msg:    msg,
	}
}

func TestHandleAttachmentIgnoresBots(t *testing.T) {
	f := newAttachmentFixture(map[string]string{"p1": "https://x/a.jpg"})
	msg := &tele.Message{
		ThreadID: testUploadChannel.ThreadID,
		Photo:    &tele.Photo{File: tele.File{FileID: "p1"}},
	}

	err := f.handlers.HandleAttachment(uploadContext(&tele.User{ID: 1, IsBot: true}, msg))
	require.NoError(t, err)

	sess, _ := f.store.Get(1)
	assert.Empty(t, sess.Uploads.PrimaryURL)
	assert.Empty(t, f.notifier.texts)
}

func TestHandleAttachmentSkipsNonMedia(t *testing.T) {
	f := newAttachmentFixture(nil)
	msg := &tele.Message{ThreadID: testUploadChannel.ThreadID, Text: "doar text"}

	err := f.handlers.HandleAttachment(uploadContext(&tele.User{ID: 1}, msg))
	require.NoError(t, err)
	assert.Empty(t, f.notifier.texts)
}

func TestHandleAttachmentResolveFailureSkips(t *testing.T) {
	f := newAttachmentFixture(nil)
	msg := &tele.Message{
		ThreadID: testUploadChannel.ThreadID,
		Photo:    &tele.Photo{File: tele.File{FileID: "unknown"}},
	}

	err := f.handlers.HandleAttachment(uploadContext(&tele.User{ID: 1}, msg))
	require.NoError(t, err)

	sess, _ := f.store.Get(1)
	assert.Empty(t, sess.Uploads.PrimaryURL)
}

func TestHandleAttachmentSinglePhoto(t *testing.T) {
	f := newAttachmentFixture(map[string]string{"p1": "https://x/a.jpg"})
	msg := &tele.Message{
		ThreadID: testUploadChannel.ThreadID,
		Photo:    &tele.Photo{File: tele.File{FileID: "p1"}},
	}

	err := f.handlers.HandleAttachment(uploadContext(&tele.User{ID: 1}, msg))
	require.NoError(t, err)

	sess, ok := f.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "https://x/a.jpg", sess.Uploads.PrimaryURL)
	assert.Empty(t, sess.Uploads.SecondaryURL)
	require.Len(t, f.notifier.texts, 1)
	assert.Empty(t, f.sink.arts)
}

func TestHandleAttachmentPhotoAndDocument(t *testing.T) {
	f := newAttachmentFixture(map[string]string{
		"p1": "https://x/a.jpg",
		"d1": "https://x/b.pdf",
	})
	msg := &tele.Message{
		ThreadID: testUploadChannel.ThreadID,
		Photo:    &tele.Photo{File: tele.File{FileID: "p1"}},
		Document: &tele.Document{File: tele.File{FileID: "d1"}},
	}

	err := f.handlers.HandleAttachment(uploadContext(&tele.User{ID: 1}, msg))
	require.NoError(t, err)

	require.Len(t, f.sink.arts, 1)
	assert.Equal(t, "https://x/a.jpg", f.sink.arts[0].ImageURL)
	assert.Equal(t, []apply.Channel{testUploadChannel}, f.closer.closed)
	_, ok := f.store.Get(1)
	assert.False(t, ok)
}
