// Package main is the entry point for the Tonearm server.
// Tonearm is a small music review site: accounts, an album catalog and
// per-album ratings.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/prn-tf/tonearm/internal/config"
	"github.com/prn-tf/tonearm/internal/database"
	"github.com/prn-tf/tonearm/internal/handler"
	"github.com/prn-tf/tonearm/internal/lock"
	"github.com/prn-tf/tonearm/internal/metrics"
	"github.com/prn-tf/tonearm/internal/repository"
	"github.com/prn-tf/tonearm/internal/service"
	"github.com/prn-tf/tonearm/internal/session"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

type server struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	s := &server{}

	root := &cobra.Command{
		Use:           "tonearm-server",
		Short:         "Serve the Tonearm music review site",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          s.serve,
	}
	root.PersistentFlags().StringVar(&s.configPath, "config", "", "path to config file")

	root.AddCommand(s.checkConfigCmd(), versionCmd())
	return root
}

func (s *server) serve(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogger(cfg.Logging)

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Tonearm server")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, log.Logger)
}

// checkConfigCmd loads and validates the configuration without serving.
func (s *server) checkConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print the resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(s.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "addr: %s\ndriver: %s\naggregate_isolation: %s\nauto_migrate: %t\n",
				cfg.Server.Addr(), cfg.Database.Driver, cfg.Database.AggregateIsolation, cfg.Database.AutoMigrate)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Tonearm Server\nVersion: %s\nBuild Time: %s\nGit Commit: %s\n",
				Version, BuildTime, GitCommit)
		},
	}
}

// run serves until ctx is done, then shuts the server down gracefully.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	store, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx, "up"); err != nil {
			return err
		}
		logger.Info().Str("driver", store.Driver()).Msg("schema up to date")
	}

	sessions, err := session.NewStore(cfg.Session, logger)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	aggregate, err := repository.ParseIsolation(cfg.Database.AggregateIsolation)
	if err != nil {
		return err
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Database.IsEmbedded() {
		// one pooled SQLite connection already serializes writers
		locker = lock.NewNoOpLocker()
	}
	accounts := service.NewAccountService(store, locker, m, logger)
	site, err := handler.NewSiteHandler(handler.SiteConfig{
		AccountService: accounts,
		CatalogService: service.NewCatalogService(store, locker, m, logger),
		ReviewService:  service.NewReviewService(store, aggregate, m, logger),
		Sessions:       sessions,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	router := handler.NewRouter(handler.RouterConfig{
		SiteHandler: site,
		Sessions:    sessions,
		Users:       accounts,
		Health:      store,
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: cfg.TimeFormat})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
