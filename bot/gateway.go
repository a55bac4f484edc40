package bot

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/iulicovete-ux/Documente-CV/apply"
	coreconfig "github.com/iulicovete-ux/Documente-CV/core/config"
	"github.com/iulicovete-ux/Documente-CV/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Gateway adapts the Telegram API to the workflow ports: it provisions forum
// topics as private upload channels, posts status messages into them, delivers
// the compiled review to the staff channel, and closes finished topics.
//
// The bot instance is created by the transport runner, so the gateway starts
// empty and receives it through SetBot in the OnStart hook, before the first
// update is processed.
type Gateway struct {
	bot atomic.Pointer[tele.Bot]
	app coreconfig.AppConfig
}

// NewGateway creates a gateway bound to the configured chats.
func NewGateway(app coreconfig.AppConfig) *Gateway {
	return &Gateway{app: app}
}

// SetBot attaches the live bot instance.
func (g *Gateway) SetBot(b *tele.Bot) {
	g.bot.Store(b)
}

func (g *Gateway) api() (*tele.Bot, error) {
	b := g.bot.Load()
	if b == nil {
		return nil, fmt.Errorf("gateway: bot not attached")
	}
	return b, nil
}

// CreateApplicantChannel creates a forum topic in the staff supergroup and
// seeds it with the upload instructions.
func (g *Gateway) CreateApplicantChannel(ctx context.Context, displayName string, userID int64) (apply.Channel, error) {
	b, err := g.api()
	if err != nil {
		return apply.Channel{}, err
	}

	group := &tele.Chat{ID: g.app.GroupID}
	name := TopicName(displayName, time.Now())
	topic, err := b.CreateTopic(group, &tele.Topic{Name: name})
	if err != nil {
		return apply.Channel{}, fmt.Errorf("create topic: %w", err)
	}

	ch := apply.Channel{ChatID: g.app.GroupID, ThreadID: topic.ThreadID}
	_, err = b.Send(group, uploadInstructions, &tele.SendOptions{
		ThreadID:  topic.ThreadID,
		ParseMode: tele.ModeMarkdown,
	})
	if err != nil {
		return apply.Channel{}, fmt.Errorf("seed topic: %w", err)
	}

	logger.Info(ctx, "tg", "topic.created",
		slog.Int64("user_id", userID),
		slog.Int("thread_id", topic.ThreadID),
		slog.String("name", name),
	)
	return ch, nil
}

// SendToChannel posts plain text into an upload topic.
func (g *Gateway) SendToChannel(ctx context.Context, ch apply.Channel, text string) error {
	b, err := g.api()
	if err != nil {
		return err
	}
	_, err = b.Send(&tele.Chat{ID: ch.ChatID}, text, &tele.SendOptions{ThreadID: ch.ThreadID})
	return err
}

// DeliverReview posts the compiled application to the review channel. The
// field summary goes out as plain text so free-form answers cannot break
// message parsing; the first photo follows as a separate message because
// photo captions are capped well below the text limit.
func (g *Gateway) DeliverReview(ctx context.Context, art apply.ReviewArtifact) error {
	b, err := g.api()
	if err != nil {
		return err
	}

	review := &tele.Chat{ID: g.app.ReviewChatID}
	if _, err := b.Send(review, RenderReview(art)); err != nil {
		return fmt.Errorf("send review: %w", err)
	}

	if art.ImageURL != "" {
		photo := &tele.Photo{File: tele.FromURL(art.ImageURL)}
		if _, err := b.Send(review, photo); err != nil {
			return fmt.Errorf("send review photo: %w", err)
		}
	}
	return nil
}

// CloseChannel closes the upload topic so the applicant cannot post further.
func (g *Gateway) CloseChannel(ctx context.Context, ch apply.Channel) error {
	b, err := g.api()
	if err != nil {
		return err
	}
	return b.CloseTopic(&tele.Chat{ID: ch.ChatID}, &tele.Topic{ThreadID: ch.ThreadID})
}

// FileURL resolves an uploaded file id to a downloadable URL via getFile.
func (g *Gateway) FileURL(fileID string) (string, error) {
	b, err := g.api()
	if err != nil {
		return "", err
	}
	f, err := b.FileByID(fileID)
	if err != nil {
		return "", fmt.Errorf("resolve file: %w", err)
	}
	return fileDownloadURL(b.URL, b.Token, f.FilePath), nil
}

func fileDownloadURL(apiURL, token, filePath string) string {
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	return fmt.Sprintf("%s/file/bot%s/%s", apiURL, token, filePath)
}

// Send posts an arbitrary message to a chat. Used by handlers that address
// chats other than the one the update came from.
func (g *Gateway) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	b, err := g.api()
	if err != nil {
		return nil, err
	}
	return b.Send(to, what, opts...)
}

// TopicName derives the upload topic name from the applicant's display name,
// suffixed with the last four digits of the timestamp to keep names unique.
func TopicName(displayName string, now time.Time) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	suffix := millis
	if len(millis) > 4 {
		suffix = millis[len(millis)-4:]
	}
	return fmt.Sprintf("cv-%s-%s", slugify(displayName), suffix)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "aplicant"
	}
	return out
}

// RenderReview flattens the review artifact into the staff channel message.
func RenderReview(art apply.ReviewArtifact) string {
	var b strings.Builder
	b.WriteString(art.Title)
	b.WriteString("\n")
	for _, f := range art.Fields {
		b.WriteString("\n")
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}
