package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/cesargomez89/photodex/internal/app"
	"github.com/cesargomez89/photodex/internal/config"
	"github.com/cesargomez89/photodex/internal/constants"
	httpapp "github.com/cesargomez89/photodex/internal/http"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, cfg, serve)
		},
	}
	cmd.Flags().StringVarP(&cfg.Port, "port", "p", cfg.Port, "listen port")
	return cmd
}

func serve(ctx context.Context, lib *app.Library) error {
	log := lib.Logger

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := httpapp.NewHandler(lib, app.NewImportService(lib, lib.Logger))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + lib.Config.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
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

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exiting")
	return nil
}
