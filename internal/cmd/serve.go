package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campushub/throttle/internal/metrics"
	"github.com/campushub/throttle/internal/server"
	"github.com/campushub/throttle/internal/store"
	"github.com/campushub/throttle/pkg/limiter"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the rate-limit decision service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx := cmd.Context()

	// Both backend handles are constructed once per process and injected;
	// reachability is re-evaluated on every check, so neither is pinged here.
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	defer rdb.Close()

	fast := limiter.NewRedisStore(rdb,
		limiter.WithPrefix(cfg.Redis.KeyPrefix),
		limiter.WithTimeout(cfg.Redis.OpTimeout),
	)

	// The durable backend is the backstop; a service that cannot open it
	// still starts, running on Redis plus fail-open.
	var durable limiter.Store
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Warn("durable backend unavailable, serving without fallback", zap.Error(err))
	} else {
		defer db.Close()
		sqlStore := limiter.NewSQLStore(db)
		if err := sqlStore.Migrate(ctx); err != nil {
			log.Warn("durable backend migration failed, serving without fallback", zap.Error(err))
		} else {
			durable = sqlStore
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	l := limiter.New(fast, durable,
		limiter.WithLogger(log),
		limiter.WithRecorder(metrics.NewRecorder(registry)),
	)

	srv := server.New(cfg.Server, l, cfg.Rules, registry, log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("received signal", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
