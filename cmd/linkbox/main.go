// Command linkbox runs the uploader, converter and file-server Telegram bots
// and the short-link redirect endpoint in one process. Each bot long-polls
// independently under a supervisor that restarts it with backoff when it
// fails; a crash in one never stops the others.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-linkbox/internal/config"
	httpapi "github.com/tbourn/go-linkbox/internal/http"
	"github.com/tbourn/go-linkbox/internal/http/handlers"
	"github.com/tbourn/go-linkbox/internal/observability"
	"github.com/tbourn/go-linkbox/internal/repo"
	"github.com/tbourn/go-linkbox/internal/services"
	"github.com/tbourn/go-linkbox/internal/shortener"
	"github.com/tbourn/go-linkbox/internal/supervisor"
	"github.com/tbourn/go-linkbox/internal/sysutil"
	"github.com/tbourn/go-linkbox/internal/telegram"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("linkbox stopped")
		os.Exit(1)
	}
	log.Info().Msg("linkbox stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(sctx); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	telegram.InstallLogger()

	sup := supervisor.New(cfg.Supervisor.MinBackoff, cfg.Supervisor.MaxBackoff)
	fileBot, err := addBots(sup, cfg, store)
	if err != nil {
		return err
	}

	if cfg.HTTPEnabled {
		engine := gin.New()
		httpapi.RegisterRoutes(engine, handlers.New(fileBot, sup), cfg)
		sup.Add("http", serveHTTP(httpapi.NewServer(engine, cfg)))
	}

	log.Info().
		Str("version", version).
		Strs("bots", cfg.Bots.Enabled).
		Str("store", cfg.Store.Driver).
		Bool("http", cfg.HTTPEnabled).
		Msg("linkbox starting")
	return sup.Run(ctx)
}

// openStore connects the configured mapping store backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (repo.Store, error) {
	if cfg.Driver == config.DriverSQLite {
		db, err := repo.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := repo.AutoMigrate(db); err != nil {
				return nil, err
			}
		}
		return repo.NewSQLStore(db), nil
	}

	ms, err := repo.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MappingsColl)
	if err != nil {
		return nil, err
	}
	if cfg.IndexesOnStart {
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = ms.Close(context.Background())
			return nil, err
		}
	}
	return ms, nil
}

// addBots authenticates every enabled bot and registers its poller with sup.
// It returns the file-server bot username ("" when that bot is disabled),
// which the redirect endpoint links to.
func addBots(sup *supervisor.Supervisor, cfg config.Config, store repo.Store) (string, error) {
	opts := telegram.Options{
		StorageChatID: cfg.Channels.StorageID,
		GateChatID:    cfg.Channels.GateID,
		GateLink:      cfg.Channels.GateLink,
		PollTimeout:   cfg.Poll.Timeout,
	}
	texts := telegram.Texts{Domain: cfg.Shortener.Domain, Support: cfg.SupportContact}
	keys := services.NewKeyService(store)
	short := shortener.New(cfg.Shortener.APIURL, cfg.Shortener.Timeout)

	var fileBot string
	if cfg.BotEnabled(config.BotFileServer) {
		c, err := telegram.Dial(cfg.Bots.FileServerToken, config.BotFileServer, opts)
		if err != nil {
			return "", err
		}
		fileBot = c.Username()
		bot := &telegram.FileServerBot{Out: c, Resolve: services.NewFileService(store, c, c)}
		sup.Add(config.BotFileServer, poller(cfg.Poll, c, bot).Run)
	}
	if cfg.BotEnabled(config.BotUploader) {
		c, err := telegram.Dial(cfg.Bots.UploaderToken, config.BotUploader, opts)
		if err != nil {
			return "", err
		}
		links := services.NewLinkService(store, short, c, cfg.WorkerDomain, cfg.Shortener.Domain)
		bot := &telegram.UploaderBot{Out: c, Keys: keys, Publish: links, Texts: texts}
		sup.Add(config.BotUploader, poller(cfg.Poll, c, bot).Run)
	}
	if cfg.BotEnabled(config.BotConverter) {
		c, err := telegram.Dial(cfg.Bots.ConverterToken, config.BotConverter, opts)
		if err != nil {
			return "", err
		}
		links := services.NewLinkService(store, short, c, cfg.WorkerDomain, cfg.Shortener.Domain)
		bot := &telegram.ConverterBot{Out: c, Keys: keys, Convert: links, Texts: texts}
		sup.Add(config.BotConverter, poller(cfg.Poll, c, bot).Run)
	}
	return fileBot, nil
}

func poller(cfg config.PollConfig, c *telegram.Client, h telegram.Handler) *telegram.Poller {
	p := telegram.NewPoller(c.Name(), c, h)
	p.Timeout = cfg.Timeout
	p.Backoff = cfg.Backoff
	return p
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
// A listen failure returns to the supervisor, which retries it.
func serveHTTP(srv *http.Server) supervisor.TaskFunc {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		log.Info().Str("addr", srv.Addr).Msg("http listening")

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}
