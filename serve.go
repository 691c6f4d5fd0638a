package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nstehr/abilityc/server"
)

var serveSocket string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve compile requests on a unix socket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := setup(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		path := serveSocket
		if path == "" {
			path = rt.cfg.Server.Socket
		}
		ln, err := server.Listen(path)
		if err != nil {
			return err
		}
		defer os.Remove(path)

		if addr := rt.cfg.Server.MetricsAddr; addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
			metrics := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					rt.logger.Error("metrics server failed", zap.Error(err))
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metrics.Shutdown(shutdownCtx)
			}()
			rt.logger.Info("serving metrics", zap.String("addr", addr))
		}

		rt.logger.Info("listening on domain socket", zap.String("path", path), zap.String("model", rt.model))
		err = server.New(rt.compiler, rt.model, rt.logger).Serve(ctx, ln)
		rt.logger.Info("shutting down")
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveSocket, "socket", "", "socket path (default from config)")
}
