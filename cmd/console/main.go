package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	console "github.com/douremember/go-admin-console"
	"github.com/douremember/go-admin-console/client"
	"github.com/douremember/go-admin-console/config"
	"github.com/gofiber/fiber/v2"
	django "github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	root := newRootLogger(cfg)
	lgr := func(name string) console.Logger {
		return zlogAdapter{l: root.With().Str("component", name).Logger()}
	}

	ctx := context.Background()

	storage, err := buildStorage(ctx, cfg)
	if err != nil {
		root.Fatal().Err(err).Msg("storage init")
	}

	store := console.NewStore(storage,
		console.WithStorageKey(cfg.Session.StorageKey),
		console.WithStoreLogger(lgr("session")),
	)

	apiClient := client.New(cfg.Backend.BaseURL,
		client.WithTokenSource(store),
		client.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		client.WithLogger(lgr("client")),
	)

	// Now that the client exists, let the store refresh through it.
	console.WithStoreRefresher(apiClient)(store)

	activity := console.ActivitySinkFunc(func(ctx context.Context, event console.ActivityEvent) error {
		root.Info().
			Str("event", string(event.EventType)).
			Str("actor", event.Actor.ID).
			Str("user_id", event.UserID).
			Fields(event.Metadata).
			Msg("activity")
		return nil
	})

	auther := console.NewAuthenticator(apiClient, store,
		console.WithRequiredRole(console.Role(cfg.Session.RequiredRole)),
		console.WithAutherLogger(lgr("auth")),
		console.WithAutherActivitySink(activity),
	)

	gate := console.NewRouteGate(store, console.WithGateLogger(lgr("gate")))

	engine := django.New(cfg.Server.ViewsDir, ".html")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:           cfg.App.Name,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	srv.Router().Get("/", func(ctx router.Context) error {
		return ctx.Redirect("/admin", router.StatusSeeOther)
	})

	console.RegisterConsoleRoutes(srv.Router().Group("/"),
		console.WithControllerLogger(lgr("console")),
		console.WithControllerSessions(store),
		console.WithControllerAuther(auther),
		console.WithControllerGate(gate),
		console.WithControllerBackend(apiClient),
		console.WithControllerActivitySink(activity),
		console.WithControllerDebug(cfg.App.Debug),
	)

	root.Info().
		Str("addr", cfg.Server.Addr()).
		Str("backend", cfg.Backend.BaseURL).
		Msg("console listening")

	srv.Serve(cfg.Server.Addr())

	WaitExitSignal()
}

func buildStorage(ctx context.Context, cfg *config.Config) (console.Storage, error) {
	if cfg.Storage.Driver == "memory" {
		return console.NewMemoryStorage(), nil
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	storage := console.NewBunStorage(db)
	if err := storage.Init(ctx); err != nil {
		return nil, err
	}

	return storage, nil
}

func newRootLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.App.Debug {
		level = zerolog.DebugLevel
	}

	var out = zerolog.MultiLevelWriter(os.Stderr)
	if cfg.IsDevelopment() {
		out = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", cfg.App.Name).
		Logger()
}

// zlogAdapter bridges the console's printf-and-pairs logger contract onto
// zerolog. Formats containing verbs go through Msgf; otherwise trailing args
// are treated as key-value pairs.
type zlogAdapter struct {
	l zerolog.Logger
}

func (a zlogAdapter) Debug(format string, args ...any) { a.log(a.l.Debug(), format, args...) }
func (a zlogAdapter) Info(format string, args ...any)  { a.log(a.l.Info(), format, args...) }
func (a zlogAdapter) Warn(format string, args ...any)  { a.log(a.l.Warn(), format, args...) }
func (a zlogAdapter) Error(format string, args ...any) { a.log(a.l.Error(), format, args...) }

func (a zlogAdapter) log(e *zerolog.Event, format string, args ...any) {
	if strings.Contains(format, "%") {
		e.Msgf(format, args...)
		return
	}

	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}

	e.Msg(strings.TrimSpace(strings.TrimSuffix(format, ": ")))
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
