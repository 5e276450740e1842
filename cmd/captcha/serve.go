package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leeforge/captcha/captcha"
	"github.com/leeforge/captcha/http/handler"
	ratelimit "github.com/leeforge/captcha/middleware"
)

func newServeCmd(opts *loadOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the captcha HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *opts)
		},
	}
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Reload profiles when config files change")
	return cmd
}

func runServe(ctx context.Context, opts loadOptions) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.logger.Named("serve")

	store, backend, closeStore, err := a.backends(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	service := captcha.NewService(a.cfg.Captcha, a.engine(), store,
		captcha.WithRateLimiter(ratelimit.NewCaptchaLimiter(backend, ratelimit.LimitConfigFrom(a.cfg.Captcha))),
		captcha.WithServiceLogger(a.logger.Named("service")),
		captcha.WithServiceMetrics(a.metrics),
	)

	rc := handler.RouterConfig{
		Service:    service,
		Logger:     a.logger,
		Metrics:    a.metrics,
		RateLimit:  a.cfg.Server.RateLimit,
		RateWindow: a.cfg.Server.RateWindow,
		TrustProxy: a.cfg.Server.TrustProxy,
		Security:   a.cfg.Server.Security,
	}
	if rc.RateLimit > 0 {
		rc.RateBackend = backend
	}

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      handler.NewRouter(rc),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	if opts.watch {
		log.Info("watching config files", zap.Strings("files", a.source.Files()))
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr), zap.String("store", a.cfg.Captcha.Store))
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
