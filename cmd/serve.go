package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"food-storefront/handlers"
	"food-storefront/routes"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storefront API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	mode := a.cfg.GinMode
	if mode == "" {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	h := handlers.New(handlers.Deps{
		Store:        a.store,
		Checkout:     a.checkout,
		Orders:       a.client,
		Notices:      a.notices,
		Logger:       a.log,
		Timeout:      a.cfg.RequestTimeout,
		PollInterval: a.cfg.PollInterval,
	})
	r := routes.NewRouter(a.log, a.cfg.CORSOrigins)
	routes.SetupRoutes(r, h, a.store)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Order streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("storefront listening on http://localhost:%s (backend %s)", a.cfg.Port, a.cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down storefront")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.Info("storefront stopped")
	return nil
}
