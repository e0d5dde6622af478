package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fluxo/csv-writer/pkg/config"
	"github.com/fluxo/csv-writer/pkg/errs"
	"github.com/fluxo/csv-writer/pkg/jobrunner"
	"github.com/fluxo/csv-writer/pkg/logger"
	"github.com/fluxo/csv-writer/pkg/metrics"
)

func newRunCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a YAML job writing several CSV targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "job.yaml", "Path to job configuration file")
	return cmd
}

func runJob(cmd *cobra.Command, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return errs.Configuration("config", "%v", err)
	}

	log, err := logger.New(
		cfg.Logging.Level,
		cfg.Logging.Format,
		cfg.Logging.Output,
		cfg.Logging.EnableTracing,
	)
	if err != nil {
		return err
	}

	log.Info(fmt.Sprintf("Starting csvwrite v%s", version), logger.Fields{
		"config":       configPath,
		"targets":      len(cfg.Targets),
		"max_parallel": cfg.Concurrency.MaxParallelTargets,
	})

	// Stop scheduling new batches on shutdown signal
	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(cfg.Metrics.Namespace, nil)
	result, runErr := jobrunner.NewRunner(cfg, log, collector).Run(ctx)

	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Error("Failed to write metrics", logger.Fields{"error": err.Error()})
		}
	}

	for _, t := range result.Targets {
		status := "ok"
		if t.Err != nil {
			status = t.ErrorCode
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-8d %s\n", t.Name, t.Records, status)
	}

	return runErr
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
