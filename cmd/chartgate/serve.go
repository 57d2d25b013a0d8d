package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chart-gateway/chartgate"
	"chart-gateway/chartgate/application"
	"chart-gateway/chartgate/domain"
	"chart-gateway/chartgate/infra"
	"chart-gateway/logger"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Accept chart data events over HTTP and keep per-metric state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig(*envFile)
			if err != nil {
				return err
			}
			logger.Init(cfg.logConfig())
			defer logger.Sync()

			return serve(cmd.Context(), cfg)
		},
	}
}

type stateContainer interface {
	domain.Notifier
	chartgate.StateReader
}

func serve(ctx context.Context, cfg config) error {
	log := logger.L()

	var rdb *redis.Client
	if cfg.needsRedis() || (cfg.StatsEnabled && cfg.RedisAddr != "") {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}

	var state stateContainer = infra.NewMemoryStateStore()
	if cfg.StateBackend == "redis" {
		state = infra.NewRedisStateStore(ctx, rdb,
			infra.WithStatePrefix(cfg.StatePrefix),
			infra.WithStateLogger(log.Named("state")),
		)
	}

	var stats domain.StatsStore
	if cfg.StatsEnabled {
		if rdb != nil {
			stats = infra.NewRedisStatsStore(rdb,
				infra.WithStatsPrefix(cfg.StatsPrefix),
				infra.WithStatsTTL(cfg.StatsTTL),
				infra.WithStatsBucket(cfg.StatsBucket),
				infra.WithStatsTrackKeys(cfg.StatsTrackKeys),
			)
		} else {
			stats = infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.StatsTrackKeys))
		}
	}

	loader := infra.NewHTTPLoader(cfg.ReportsURL, infra.WithReportsPath(cfg.ReportsPath))
	sched := application.NewScheduler(
		infra.NewLaneTable(),
		application.Workflow{Loader: loader, Log: log.Named("workflow")},
		state,
		application.WithStats(stats),
		application.WithLogger(log.Named("scheduler")),
	)

	events := make(chan domain.Request, cfg.IngressBuffer)

	var throttle *application.Throttle
	if cfg.RateEnabled {
		buckets := infra.NewLimiterStore(cfg.RateRPS, cfg.RateBurst)
		buckets.StartJanitor(ctx)
		throttle = application.NewThrottle(ctx, buckets, application.SendTo(events),
			application.WithMaxDelay(cfg.RateMaxDelay),
			application.WithThrottleLogger(log.Named("throttle")),
		)
		defer throttle.Stop()
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/events", chartgate.IngressHandler(chartgate.IngressOptions{
		Throttle: throttle,
		Log:      log.Named("ingress"),
	}, events))
	mux.Handle("/v1/charts/state", chartgate.StateHandler(state))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx, events)
	})
	g.Go(func() error {
		log.Info("chartgate listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("reports", cfg.ReportsURL),
			zap.String("state", cfg.StateBackend),
			zap.Bool("rate", cfg.RateEnabled),
			zap.Bool("stats", cfg.StatsEnabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	sched.Close()
	return err
}
