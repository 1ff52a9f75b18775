package cli

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BartekS5/order-etl/internal/config"
	"github.com/BartekS5/order-etl/internal/etl"
	"github.com/BartekS5/order-etl/internal/metrics"
	"github.com/BartekS5/order-etl/pkg/database"
	"github.com/BartekS5/order-etl/pkg/etlerr"
	"github.com/BartekS5/order-etl/pkg/logger"
)

type RunOptions struct {
	DryRun bool
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync pass",
		RunE: func(c *cobra.Command, args []string) error {
			return runSync(c.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Extract and filter without touching the destination")
	return cmd
}

func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify both databases are reachable",
		RunE: func(c *cobra.Command, args []string) error {
			return runCheck(c.Context())
		},
	}
}

func runSync(ctx context.Context, opts *RunOptions) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync(log)

	pipeline := etl.NewPipeline(
		sourceConnector(cfg, log),
		destinationConnector(cfg, log),
		etl.NewStatusFilter(cfg.AcceptedStatuses...),
		log,
		opts.DryRun,
	)

	report, runErr := pipeline.Run(ctx)
	metrics.NewPusher(cfg.Metrics, log).Push(ctx, report, runErr)
	return runErr
}

func runCheck(ctx context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync(log)

	src, err := database.ConnectPostgres(ctx, cfg.Source, log)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := database.ConnectSQLServer(ctx, cfg.Destination, log)
	if err != nil {
		return err
	}
	defer dst.Close()

	log.Info("both databases reachable")
	return nil
}

// bootstrap loads configuration before anything else so a missing
// setting fails without a connection attempt.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		return nil, nil, etlerr.Configuration("invalid logging settings", etlerr.WithCause(err))
	}
	log.Debug("configuration loaded", zap.Strings("accepted_statuses", cfg.AcceptedStatuses))
	return cfg, log, nil
}

func sourceConnector(cfg *config.Config, log *zap.Logger) etl.ConnectFunc {
	return func(ctx context.Context) (*sql.DB, error) {
		return database.ConnectPostgres(ctx, cfg.Source, log)
	}
}

func destinationConnector(cfg *config.Config, log *zap.Logger) etl.ConnectFunc {
	return func(ctx context.Context) (*sql.DB, error) {
		return database.ConnectSQLServer(ctx, cfg.Destination, log)
	}
}
