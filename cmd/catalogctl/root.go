package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"syscat/pkg/catalog"
	"syscat/pkg/catalog/systable"
	"syscat/pkg/config"
	"syscat/pkg/logging"
)

// cliContext holds the global flags.
type cliContext struct {
	configPath string
	snapshot   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	ctx := &cliContext{}
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "inspect and administer a system catalog snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&ctx.configPath, "config", "", "TOML configuration file")
	f.StringVar(&ctx.snapshot, "snapshot", "", "snapshot file, overrides storage.snapshot_path")
	f.StringVar(&ctx.logLevel, "log-level", "", "log level, overrides log.level")

	root.AddCommand(
		newBootstrapCmd(ctx),
		newDatabaseCmd(ctx),
		newSchemaCmd(ctx),
		newTableCmd(ctx),
		newTriggerCmd(ctx),
		newStatsCmd(ctx),
		newServeCmd(ctx),
	)
	return root
}

func (ctx *cliContext) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if ctx.configPath != "" {
		var err error
		if cfg, err = config.Load(ctx.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if ctx.snapshot != "" {
		cfg.Storage.SnapshotPath = ctx.snapshot
	}
	if ctx.logLevel != "" {
		cfg.Log.Level = ctx.logLevel
	}
	return cfg, cfg.Validate()
}

// run opens the catalog, calls fn inside one transaction, commits and shuts
// the catalog down, which saves the snapshot.
func (ctx *cliContext) run(cmd *cobra.Command, fn func(c *catalog.Catalog, txn systable.TxContext) error) (err error) {
	cfg, err := ctx.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.SnapshotPath == "" {
		return errors.New("no snapshot configured: pass --snapshot or set storage.snapshot_path")
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

	if err := catalog.Init(cfg); err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, catalog.Shutdown())
	}()

	c := catalog.Get()
	txn := c.Begin()
	if err := fn(c, txn); err != nil {
		return errors.CombineErrors(err, c.Abort(txn))
	}
	return c.Commit(txn)
}
