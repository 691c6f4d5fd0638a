package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nstehr/abilityc/agent"
	"github.com/nstehr/abilityc/cache"
	"github.com/nstehr/abilityc/compiler"
	"github.com/nstehr/abilityc/config"
	"github.com/nstehr/abilityc/llm"
	"github.com/nstehr/abilityc/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "abilityc",
	Short:         "Compile character ability data into calculation scripts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("ABILITYC_CONFIG"), "YAML config file")
	rootCmd.AddCommand(compileCmd, batchCmd, checkCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "abilityc:", err)
		os.Exit(1)
	}
}

// app is everything a command needs to compile.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	compiler *compiler.Compiler
	model    string
	closers  []func() error
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	rt := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	rt.closers = append(rt.closers, func() error {
		_ = logger.Sync()
		return nil
	})
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		rt.close()
		return nil, err
	}
	store, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		rt.close()
		return nil, err
	}
	if c, ok := store.(interface{ Close() error }); ok {
		rt.closers = append(rt.closers, c.Close)
	}
	if client != nil {
		rt.model = client.Name()
	}

	rt.compiler = compiler.New(compiler.Options{
		Client:     client,
		Cache:      store,
		Logger:     logger,
		Metrics:    agent.NewMetrics(rt.registry),
		DescTokens: cfg.Compiler.DescTokens,
	})
	logger.Debug("compiler ready",
		zap.String("model", rt.model),
		zap.String("cache", cfg.Cache.Backend),
	)
	return rt, nil
}

// close runs the closers in reverse order.
func (rt *app) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i]()
	}
}
