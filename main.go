// main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ViniZap4/lumi-estimates/auth"
	"github.com/ViniZap4/lumi-estimates/config"
	"github.com/ViniZap4/lumi-estimates/contacts"
	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/ViniZap4/lumi-estimates/filesystem"
	httphandlers "github.com/ViniZap4/lumi-estimates/http"
	"github.com/ViniZap4/lumi-estimates/store"
	"github.com/ViniZap4/lumi-estimates/ws"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	contactStore, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	authn, err := newAuthenticator(cfg.Workspaces)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load workspaces")
	}
	if len(cfg.Workspaces) == 0 {
		log.Warn().Msg("no workspaces configured; every API request will be rejected")
	}

	hub := ws.NewHub(log.With().Str("component", "hub").Logger())
	go hub.Run(ctx)

	svc := contacts.NewService(contactStore, hub, log.With().Str("component", "contacts").Logger(),
		contacts.Options{NormalizeUnicode: cfg.NormalizeUnicode})

	if cfg.ImportDir != "" {
		startImport(ctx, cfg, svc, log.With().Str("component", "import").Logger())
	}

	server := httphandlers.NewServer(svc, hub, authn, log.With().Str("component", "http").Logger())
	app := server.App()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Int("workspaces", len(cfg.Workspaces)).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if strings.EqualFold(cfg.LogFormat, "json") {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return log.Level(level).With().Timestamp().Logger()
}

// openStore connects to Postgres and migrates it, or falls back to the
// in-memory store when no database is configured.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.ContactStore, func()) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("LUMI_DATABASE_URL not set, contacts are kept in memory")
		return store.NewMemory(), func() {}
	}

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	log.Info().Msg("connected to postgres")
	return store.NewPostgres(pool), pool.Close
}

func newAuthenticator(workspaces []config.Workspace) (*auth.Authenticator, error) {
	creds := make([]auth.Credential, 0, len(workspaces))
	for _, w := range workspaces {
		hash := w.TokenHash
		if hash == "" {
			var err error
			if hash, err = auth.HashToken(w.Token); err != nil {
				return nil, err
			}
		}
		name := w.Name
		if name == "" {
			name = w.ID
		}
		creds = append(creds, auth.Credential{
			Workspace: domain.Workspace{ID: w.ID, Name: name},
			TokenHash: hash,
		})
	}
	return auth.NewAuthenticator(creds...), nil
}

func startImport(ctx context.Context, cfg config.Config, svc *contacts.Service, log zerolog.Logger) {
	workspaceID := cfg.ImportWorkspaceID()

	result, err := filesystem.Import(ctx, cfg.ImportDir, workspaceID, svc, log)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.ImportDir).Msg("import failed")
		return
	}
	log.Info().
		Str("dir", cfg.ImportDir).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("contacts imported")

	if !cfg.ImportWatch {
		return
	}
	go func() {
		err := filesystem.Watch(ctx, cfg.ImportDir, func(path string) {
			created, err := filesystem.ImportFile(ctx, path, workspaceID, svc)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to import contact")
				return
			}
			log.Info().Str("path", path).Bool("created", created).Msg("contact imported")
		}, log)
		if err != nil {
			log.Error().Err(err).Msg("import watch stopped")
		}
	}()
}
