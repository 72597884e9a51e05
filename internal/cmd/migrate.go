package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campushub/throttle/internal/store"
	"github.com/campushub/throttle/pkg/limiter"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the durable backend schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx := cmd.Context()
		db, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := limiter.NewSQLStore(db).Migrate(ctx); err != nil {
			return err
		}
		log.Info("durable backend schema is up to date", zap.String("path", cfg.Store.Path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
