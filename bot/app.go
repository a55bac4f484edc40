// Package bot assembles the CV intake application on top of the Telegram
// transport: the workflow services, their Telegram gateway, and the update
// handlers.
package bot

import (
	"context"
	"time"

	"github.com/iulicovete-ux/Documente-CV/apply"
	coreconfig "github.com/iulicovete-ux/Documente-CV/core/config"
	tg "github.com/iulicovete-ux/Documente-CV/core/telegram"
	"github.com/iulicovete-ux/Documente-CV/core/telegram/router"
	"github.com/iulicovete-ux/Documente-CV/core/telegram/state"

	"github.com/jmoiron/sqlx"
)

// App is the fully wired application, ready to be handed to the transport
// runner.
type App struct {
	cfg    *coreconfig.Config
	store  *apply.Store
	reg    *tg.Registry
	gw     *Gateway
	routes []tg.Route
}

// New builds the application graph. db may be nil; archiving is then
// disabled.
func New(cfg *coreconfig.Config, db *sqlx.DB) *App {
	store := apply.NewStore(apply.StoreOptions{
		TTL:           time.Duration(cfg.Session.TTLHours) * time.Hour,
		SweepInterval: time.Duration(cfg.Session.SweepMinutes) * time.Minute,
	})

	gw := NewGateway(cfg.App)

	var archiver apply.Archiver
	if db != nil {
		archiver = apply.NewArchive(db)
	}

	flow := apply.NewFormFlow(store, gw)
	completer := apply.NewCompleter(gw, gw, gw, archiver)
	collector := apply.NewCollector(store, gw, completer)

	fsm := state.NewMemoryManager()
	handlers := NewHandlers(cfg, flow, collector, fsm, gw)

	reg := tg.NewRegistry()
	handlers.Register(reg)

	app := &App{cfg: cfg, store: store, reg: reg, gw: gw}
	app.routes = buildRoutes(cfg, reg, fsm, handlers)
	return app
}

func buildRoutes(cfg *coreconfig.Config, reg *tg.Registry, fsm state.Manager, handlers *Handlers) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: cfg.App.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.TextRoutes(fsm, reg, router.MediaOptions{
		OnAttachment: handlers.HandleAttachment,
	})...)
	return routes
}

// RunOptions exposes the wired application as transport run options. The bot
// instance only exists once the runner built it, so the gateway is attached
// and the session sweeper started in the OnStart hook.
func (a *App) RunOptions() tg.RunOptions {
	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      a.routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.gw.SetBot(rt.Bot)
			a.store.Start(ctx)
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			a.store.Stop()
			return nil
		},
	}
}
