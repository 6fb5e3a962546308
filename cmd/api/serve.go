package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"

	"github.com/wanderlust/wanderlust-go/internal/config"
	"github.com/wanderlust/wanderlust-go/internal/handler"
	"github.com/wanderlust/wanderlust-go/internal/session"
	"github.com/wanderlust/wanderlust-go/internal/view"
	"github.com/wanderlust/wanderlust-go/web"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := config.Load()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	h, err := newHandler(a, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env,
			"data_store", cfg.DataStore, "session_store", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}

// newHandler builds the router for a and wraps it in the server-level
// middleware. Forwarded headers rewrite the client address only when
// cfg.TrustProxy is set, since the login throttle keys on that address.
func newHandler(a *app, cfg config.Config) (http.Handler, error) {
	renderer, err := view.New(web.FS)
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return nil, err
	}

	router := handler.NewRouter(handler.Deps{
		Listings: a.listings,
		Reviews:  a.reviews,
		Auth:     a.auth,
		Images:   a.images,
		Sessions: session.NewManager(a.sessions, session.Options{
			Secret:     cfg.SessionSecret,
			MaxAge:     cfg.SessionMaxAge,
			TouchAfter: cfg.SessionTouchAfter,
			Secure:     cfg.IsProduction(),
		}),
		View:           renderer,
		Static:         static,
		MaxUploadBytes: cfg.MaxUploadBytes,
		LoginRate:      cfg.LoginRate,
		LoginBurst:     cfg.LoginBurst,
	})

	h := handlers.CompressHandler(router)
	if cfg.TrustProxy {
		h = handlers.ProxyHeaders(h)
	}
	return h, nil
}
