package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

// registerMetricsServer serves /metrics for the lifetime of the app,
// only when the prometheus exporter is selected.
func registerMetricsServer(lc fx.Lifecycle, config *baseConfiguration, logger xlog.XLogger) {
	if config.promRegistry == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.PrometheusHandler(config.promRegistry))
	srv := &http.Server{
		Addr:              config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return infra.WrapErrorStackWithMessage(err, "metrics server listen")
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.ErrorStack(infra.WrapErrorStack(err), "metrics server stopped")
				}
			}()
			logger.InfoContext(ctx, "metrics server started", zap.String("addr", ln.Addr().String()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
