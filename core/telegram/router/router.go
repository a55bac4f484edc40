// Package router wires registry commands, callbacks, FSM conversations, and
// media updates into tele routes with shared middleware and summary logging.
package router

import (
	"strings"
	"time"

	tg "github.com/iulicovete-ux/Documente-CV/core/telegram"
	"github.com/iulicovete-ux/Documente-CV/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for an FSM manager.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		h := def.Handler
		h = middleware.RecoverMiddleware(h)
		if def.AdminOnly {
			h = middleware.AdminOnlyMiddleware(adminOpts)(h)
		}
		h = middleware.LoggerMiddleware(h)
		routes = append(routes, tg.Route{Endpoint: cmd, Handler: h})
	}
	return routes
}

// CallbackRoute returns a handler that routes callbacks through the registry.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		key := callbackKey(cb)
		_ = c.Respond()

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			return handleWithSummary(c, "callback."+normalizeHandlerName(key), start, func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			})
		}

		return handleWithSummary(c, "callback."+normalizeHandlerName(key), start, func() error {
			return cbHandler(c)
		})
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

// MediaOptions routes photo/document updates to a dedicated handler, with the
// FSM taking precedence for in-progress conversations.
type MediaOptions struct {
	OnAttachment tele.HandlerFunc
}

// TextRoutes builds handlers for text, photo, and document routing.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, media MediaOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if fsmMgr != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm", start, func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}

		if reg != nil {
			if cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(text), start, func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}
		return nil
	}

	attachmentHandler := func(c tele.Context) error {
		start := time.Now()
		if media.OnAttachment == nil {
			return nil
		}
		return handleWithSummary(c, "attachment", start, func() error {
			return media.OnAttachment(c)
		})
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(attachmentHandler)},
		{Endpoint: tele.OnDocument, Handler: wrap(attachmentHandler)},
	}
}

func callbackKey(cb *tele.Callback) string {
	if cb.Unique != "" {
		return cb.Unique
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	return strings.TrimSpace(parts[0])
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}
