package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"maxscale/config"
	"maxscale/handlers"
	"maxscale/utils"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the website backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := applyServerFlags(cmd.Flags(), &cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger := newLogger(cfg)
		logger.Info("environment", "env", cfg.Env)

		ctx, stop := context.WithCancel(context.Background())
		defer stop()

		store, closeStore, err := newRateLimitStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		limiter := utils.NewLimiter(store, utils.MaxRequests, utils.RateLimitWindow,
			utils.WithLimiterLogger(logger))

		a := handlers.New(limiter, newSender(cfg, logger), cfg.From, cfg.Recipients,
			handlers.WithLogger(logger),
			handlers.WithErrorDetail(!cfg.Production()),
			handlers.WithTrustProxy(cfg.TrustProxy),
			handlers.WithNativeCookies(cfg.NativeCookies),
			handlers.WithSendTimeout(cfg.MailTimeout),
		)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(handlers.RequestLogger(logger))
		r.Use(middleware.Recoverer)

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		a.Routes(r)

		if cfg.StaticDir != "" {
			r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
		}

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      cfg.MailTimeout + 15*time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		logger.Info("starting server", "port", cfg.Port, "static_dir", cfg.StaticDir)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("shutting down", "signal", sig.String())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func bindServerFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "p", 8080, "Port to listen on (overrides PORT)")
	fs.String("static-dir", "", "Directory with the built site to serve (overrides STATIC_DIR)")
}

// applyServerFlags copies explicitly set flags over cfg and validates the
// result again.
func applyServerFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("port") {
		port, err := fs.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Port = port
	}
	if fs.Changed("static-dir") {
		dir, err := fs.GetString("static-dir")
		if err != nil {
			return err
		}
		cfg.StaticDir = dir
	}
	return cfg.Validate()
}

func init() {
	rootCmd.AddCommand(serverCmd)
	bindServerFlags(serverCmd.Flags())
}
