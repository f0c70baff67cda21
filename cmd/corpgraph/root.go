package main

import (
	"corpgraph/internal/blob"
	"corpgraph/internal/config"
	"corpgraph/internal/core"
	"corpgraph/internal/logging"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the collaborators opened by the root command for its subcommands.
type app struct {
	envFiles []string
	verbose  bool

	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	store    core.PersistentStore
	svc      *core.Service
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "corpgraph",
		Short: "Keep businesses, departments and employees linked in a local store",
		Long: `corpgraph stores businesses, departments and employees and keeps the
links between them consistent in both directions. Every change is written to
the configured medium (sqlite by default) before the listing is refreshed.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.open(cmd) },
	}
	rootCmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newBusinessCmd(a),
		newDepartmentCmd(a),
		newEmployeeCmd(a),
		newLinkCmd(a, true),
		newLinkCmd(a, false),
		newListCmd(a),
		newExportCmd(a),
	)
	return rootCmd
}

// execute runs cmd and releases the store and logger afterwards. Cobra skips
// post-run hooks once RunE fails, so the release happens here instead.
func (a *app) execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	return errors.Join(err, a.close())
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFiles...)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	} else if level == "" {
		level = "warn"
	}
	logger, err := logging.New(cfg.Env, level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger

	a.registry = prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetrics(a.registry)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	engine := core.NewDefaultRulesEngine(nil)
	store, err := core.OpenPersistentStore(cmd.Context(), storageConfig(cfg), engine, logger)
	if err != nil {
		return err
	}
	a.store = store
	a.svc = core.NewService(store, core.WithLogger(logger), core.WithMetrics(metrics))
	return nil
}

func (a *app) close() error {
	if a.registry != nil && a.logger != nil {
		if families, err := a.registry.Gather(); err == nil {
			for _, mf := range families {
				if mf.GetName() != "corpgraph_operations_total" {
					continue
				}
				for _, m := range mf.GetMetric() {
					fields := []zap.Field{zap.Float64("count", m.GetCounter().GetValue())}
					for _, lp := range m.GetLabel() {
						fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
					}
					a.logger.Debug("operation summary", fields...)
				}
			}
		}
	}
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
		a.logger = nil
	}
	return err
}

func storageConfig(cfg *config.Config) core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(cfg.StorageDriver),
		SQLitePath:  cfg.SQLitePath,
		PostgresDSN: cfg.PostgresDSN,
		BlobKey:     cfg.BlobKey,
		Blob: blob.Config{
			Driver: blob.Driver(cfg.BlobDriver),
			FSRoot: cfg.BlobFSRoot,
			S3: blob.S3Config{
				Region:          cfg.S3Region,
				Bucket:          cfg.S3Bucket,
				Endpoint:        cfg.S3Endpoint,
				AccessKeyID:     cfg.S3AccessKeyID,
				SecretAccessKey: cfg.S3SecretAccessKey,
				SessionToken:    cfg.S3SessionToken,
				PathStyle:       cfg.S3PathStyle,
			},
		},
	}
}
