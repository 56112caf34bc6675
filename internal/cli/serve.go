package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arvergara/Hualpen-sub001/internal/config"
	"github.com/arvergara/Hualpen-sub001/internal/database"
	"github.com/arvergara/Hualpen-sub001/internal/handler"
	"github.com/arvergara/Hualpen-sub001/internal/metrics"
	"github.com/arvergara/Hualpen-sub001/internal/repository"
	"github.com/arvergara/Hualpen-sub001/pkg/logger"
	"github.com/arvergara/Hualpen-sub001/pkg/roster"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the roster HTTP service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Logging)

	var repo *repository.RunRepository
	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		repo = repository.NewRunRepository(db)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	engine := roster.NewEngine(engineSearchConfig(cfg), nil)
	rosterHandler := handler.NewRosterHandler(engine, repo, m, 0)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"hualpen-roster"}`))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":%q,"git_commit":%q}`, Version, GitCommit)
	})
	mux.HandleFunc("/api/v1/roster/solve", rosterHandler.Solve)
	mux.HandleFunc("/api/v1/roster/runs/", rosterHandler.Run)
	mux.HandleFunc("/api/v1/roster/cancel/", rosterHandler.Cancel)
	if m != nil {
		mux.Handle(cfg.Metrics.Path, m.Handler())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
