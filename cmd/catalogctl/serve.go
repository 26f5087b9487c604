package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"syscat/pkg/catalog"
	"syscat/pkg/logging"
	"syscat/pkg/metrics"
)

func newServeCmd(ctx *cliContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "open the catalog and export its metrics over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return ctx.serve(sigCtx, cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address for /metrics and /health")
	return cmd
}

func (ctx *cliContext) serve(runCtx context.Context, cmd *cobra.Command, addr string) (err error) {
	cfg, err := ctx.loadConfig()
	if err != nil {
		return err
	}
	logCfg := cfg.LoggingConfig()
	if logCfg.OutputPath == "" {
		logCfg.Writer = cmd.ErrOrStderr()
	}
	_ = logging.Close()
	if err := logging.Init(logCfg); err != nil {
		return err
	}
	defer logging.Close() //nolint:errcheck

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if err := catalog.Init(cfg, catalog.WithMetrics(metrics.New(reg))); err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, catalog.Shutdown())
	}()

	srv := &http.Server{
		Addr:         addr,
		Handler:      newMetricsMux(catalog.Get(), reg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log := logging.WithComponent("catalogctl")
	errCh := make(chan error, 1)
	go func() {
		log.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// newMetricsMux serves reg on /metrics, plus gauges describing c, and a
// liveness probe on /health.
func newMetricsMux(c *catalog.Catalog, reg *prometheus.Registry) *http.ServeMux {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "syscat",
			Name:      "user_tables",
			Help:      "User tables registered in the catalog.",
		}, func() float64 { return float64(len(c.Runtime().Tables())) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "syscat",
			Name:      "active_transactions",
			Help:      "Transactions begun and not yet finished.",
		}, func() float64 { return float64(c.Engine().ActiveTransactions()) }),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	return mux
}
