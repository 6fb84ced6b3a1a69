package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"classifieds-engine/internal/bootstrap"
	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/infra/config"
	applog "classifieds-engine/internal/infra/log"
	"classifieds-engine/internal/infra/metrics"
	"classifieds-engine/internal/usecase/lifecycle"
)

func main() {
	once := flag.Bool("once", false, "выполнить один проход и выйти")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := bootstrap.OpenStores(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: хранилище недоступно")
	}
	defer closeStores()

	redisClient, err := bootstrap.OpenRedis(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: нет подключения к redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("sweeper: REDIS_ADDR не задан, проходы не защищены блокировкой")
	}

	sweeper := bootstrap.NewSweeper(cfg, stores, redisClient, applog.Component(logger, "sweeper"))

	if *once {
		if _, err := sweeper.Run(ctx); err != nil {
			logger.Fatal().Err(err).Msg("sweeper: проход завершился ошибкой")
		}
		return
	}

	metrics.StartServer(ctx, applog.Component(logger, "metrics"), cfg.MetricsAddr)

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})))
	if _, err := scheduler.AddFunc(cfg.Sweep.Cron, func() { runSweep(ctx, sweeper, logger) }); err != nil {
		logger.Fatal().Err(err).Str("cron", cfg.Sweep.Cron).Msg("sweeper: неверное расписание")
	}
	scheduler.Start()
	logger.Info().Str("cron", cfg.Sweep.Cron).Int("workers", cfg.Sweep.Workers).Msg("sweeper: планировщик запущен")

	<-ctx.Done()
	<-scheduler.Stop().Done()
	logger.Info().Msg("sweeper: остановлен")
}

func runSweep(ctx context.Context, sweeper *lifecycle.Sweeper, logger zerolog.Logger) {
	report, err := sweeper.Run(ctx)
	switch {
	case errors.Is(err, domain.ErrSweepInProgress):
		logger.Info().Msg("sweeper: проход уже выполняется другим процессом")
	case err != nil:
		logger.Error().Err(err).Msg("sweeper: проход завершился ошибкой")
	default:
		logger.Debug().Str("run_id", report.RunID).Int("changes", report.Changes()).Msg("sweeper: проход выполнен")
	}
}

// cronLogger адаптирует zerolog к интерфейсу cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
