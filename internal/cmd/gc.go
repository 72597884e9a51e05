package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campushub/throttle/internal/store"
	"github.com/campushub/throttle/pkg/limiter"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete expired windows from the durable backend",
	Long: `Deletes rate-limit rows whose window has fully elapsed. Expiry is
otherwise enforced lazily at read time, so this exists purely to reclaim
space; run it out of band (cron or similar), never on the request path.`,
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

		n, err := limiter.NewSQLStore(db).Cleanup(ctx, time.Now())
		if err != nil {
			return err
		}
		log.Info("expired windows removed", zap.Int64("rows", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gcCmd)
}
