package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iulicovete-ux/Documente-CV/apply"
	coreconfig "github.com/iulicovete-ux/Documente-CV/core/config"
	"github.com/iulicovete-ux/Documente-CV/core/logger"
	tg "github.com/iulicovete-ux/Documente-CV/core/telegram"
	"github.com/iulicovete-ux/Documente-CV/core/telegram/helpers"
	"github.com/iulicovete-ux/Documente-CV/core/telegram/keyboard"
	"github.com/iulicovete-ux/Documente-CV/core/telegram/state"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// telegramSender is the slice of the gateway the handlers call directly:
// addressed sends plus file resolution for uploads.
type telegramSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	FileURL(fileID string) (string, error)
}

// Handlers binds the Telegram update surface to the application workflow:
// the admin panel command, the two inline-button callbacks, the per-question
// conversation steps, and the attachment listener for the upload topics.
type Handlers struct {
	cfg       *coreconfig.Config
	flow      *apply.FormFlow
	collector *apply.Collector
	fsm       state.Manager
	gw        telegramSender
}

// NewHandlers wires the update handlers.
func NewHandlers(cfg *coreconfig.Config, flow *apply.FormFlow, collector *apply.Collector, fsm state.Manager, gw telegramSender) *Handlers {
	return &Handlers{cfg: cfg, flow: flow, collector: collector, fsm: fsm, gw: gw}
}

// Register installs the commands, callbacks, and conversation steps.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/setupcv", tg.Command{
		Handler:     h.handleSetupCV,
		Description: "Postează panoul de depunere CV",
		AdminOnly:   true,
		Hidden:      true,
	})

	if err := reg.RegisterCallback(callbackStart, h.handleStart); err != nil {
		logger.Warn(context.Background(), "tg", "callback.register_failed", slog.String("key", callbackStart))
	}
	if err := reg.RegisterCallback(callbackNext, h.handleNextPage); err != nil {
		logger.Warn(context.Background(), "tg", "callback.register_failed", slog.String("key", callbackNext))
	}

	for i := range page1Prompts {
		h.fsm.Handle(statePage1(i), h.page1Step(i))
	}
	for i := range page2Prompts {
		h.fsm.Handle(statePage2(i), h.page2Step(i))
	}
}

// handleSetupCV posts the intake panel with the single start button.
func (h *Handlers) handleSetupCV(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	markup := keyboard.Single(keyboard.InlineBtn{Text: panelButtonLabel, Unique: callbackStart})
	_, err := h.gw.Send(&tele.Chat{ID: h.cfg.App.IntakeChatID}, panelText, markup)
	if err != nil {
		logger.Error(ctx, "tg", "panel.post_failed",
			slog.Int64("chat_id", h.cfg.App.IntakeChatID),
			slog.String("err", err.Error()),
		)
		return helpers.SendText(c, msgPanelFailed)
	}
	return helpers.SendText(c, msgPanelPosted)
}

// handleStart begins a fresh application: any prior session is replaced and
// the first page-1 question is sent to the applicant's private chat.
func (h *Handlers) handleStart(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)

	h.flow.StartApplication(ctx, user.ID, displayName(user))
	h.fsm.Clear(user.ID)
	h.fsm.SetState(user.ID, statePage1(0))

	first := page1Header + "\n\n" + question(1, len(page1Prompts), page1Prompts[0].label)
	if _, err := h.gw.Send(user, first); err != nil {
		// The applicant never opened a private chat with the bot, so the
		// first question cannot be delivered. Park the conversation and
		// tell them in the intake chat.
		h.fsm.Clear(user.ID)
		logger.Warn(ctx, "tg", "start.dm_failed",
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
		return helpers.SendText(c, msgOpenPrivate)
	}
	return nil
}

// page1Step stores the answer for question idx and advances the conversation.
func (h *Handlers) page1Step(idx int) tele.HandlerFunc {
	return func(c tele.Context) error {
		uid := c.Sender().ID
		h.fsm.SetTemp(uid, page1Prompts[idx].key, strings.TrimSpace(c.Text()))

		if next := idx + 1; next < len(page1Prompts) {
			h.fsm.SetState(uid, statePage1(next))
			return helpers.SendText(c, question(next+1, len(page1Prompts), page1Prompts[next].label))
		}
		return h.finishPage1(c)
	}
}

func (h *Handlers) finishPage1(c tele.Context) error {
	user := c.Sender()
	ctx := helpers.BuildContext(c)

	answers := h.fsm.TempSnapshot(user.ID)
	h.flow.SubmitPage1(ctx, user.ID, displayName(user), apply.Page1{
		FullName:     answers["nume_prenume"],
		IBAN:         answers["iban"],
		MonthsInCity: answers["luni_oras"],
		Phone:        answers["telefon"],
		Referrer:     answers["cine_te_a_adus"],
	})
	h.fsm.Clear(user.ID)

	markup := keyboard.Single(keyboard.InlineBtn{Text: btnNextPageLabel, Unique: callbackNext})
	return helpers.SendText(c, msgPage1Saved, &tele.SendOptions{ReplyMarkup: markup})
}

// handleNextPage validates that page 1 is on file and opens page 2.
func (h *Handlers) handleNextPage(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)

	if err := h.flow.AdvanceToPage2(ctx, user.ID); err != nil {
		return helpers.SendText(c, msgRestart)
	}

	h.fsm.Clear(user.ID)
	h.fsm.SetState(user.ID, statePage2(0))
	first := page2Header + "\n\n" + question(1, len(page2Prompts), page2Prompts[0].label)
	return helpers.SendText(c, first)
}

// page2Step stores the answer for question idx and advances the conversation.
func (h *Handlers) page2Step(idx int) tele.HandlerFunc {
	return func(c tele.Context) error {
		uid := c.Sender().ID
		h.fsm.SetTemp(uid, page2Prompts[idx].key, strings.TrimSpace(c.Text()))

		if next := idx + 1; next < len(page2Prompts) {
			h.fsm.SetState(uid, statePage2(next))
			return helpers.SendText(c, question(next+1, len(page2Prompts), page2Prompts[next].label))
		}
		return h.finishPage2(c)
	}
}

func (h *Handlers) finishPage2(c tele.Context) error {
	user := c.Sender()
	ctx := helpers.BuildContext(c)

	answers := h.fsm.TempSnapshot(user.ID)
	ch, err := h.flow.SubmitPage2(ctx, user.ID, apply.Page2{
		Motivation: answers["motiv"],
		Experience: answers["experienta"],
	})
	if errors.Is(err, apply.ErrRestartRequired) {
		h.fsm.Clear(user.ID)
		return helpers.SendText(c, msgRestart)
	}
	if err != nil {
		// Keep the conversation on the last question so resending the
		// answer retries topic creation.
		logger.Error(ctx, "tg", "page2.submit_failed",
			slog.Int64("user_id", user.ID),
			slog.String("err", err.Error()),
		)
		return helpers.SendText(c, msgGenericError)
	}

	h.fsm.Clear(user.ID)
	return helpers.SendText(c, fmt.Sprintf(msgPage2Saved, topicLink(ch)))
}

// HandleAttachment forwards photo and document uploads to the collector. The
// collector decides whether the message belongs to an active application.
func (h *Handlers) HandleAttachment(c tele.Context) error {
	user := c.Sender()
	msg := c.Message()
	if user == nil || user.IsBot || msg == nil {
		return nil
	}

	var fileIDs []string
	if msg.Photo != nil {
		fileIDs = append(fileIDs, msg.Photo.FileID)
	}
	if msg.Document != nil {
		fileIDs = append(fileIDs, msg.Document.FileID)
	}
	if len(fileIDs) == 0 {
		return nil
	}

	ctx := helpers.BuildContext(c)
	urls := make([]string, 0, len(fileIDs))
	for _, id := range fileIDs {
		url, err := h.gw.FileURL(id)
		if err != nil {
			logger.Warn(ctx, "tg", "attachment.resolve_failed",
				slog.Int64("user_id", user.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		urls = append(urls, url)
	}
	if len(urls) == 0 {
		return nil
	}

	ch := apply.Channel{ChatID: c.Chat().ID, ThreadID: msg.ThreadID}
	return h.collector.OnMessage(ctx, user.ID, ch, urls)
}

func question(n, total int, label string) string {
	return fmt.Sprintf("%d/%d: %s", n, total, label)
}

func displayName(user *tele.User) string {
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name != "" {
		return name
	}
	if user.Username != "" {
		return user.Username
	}
	return "aplicant"
}

func topicLink(ch apply.Channel) string {
	id := strings.TrimPrefix(strconv.FormatInt(ch.ChatID, 10), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, ch.ThreadID)
}
