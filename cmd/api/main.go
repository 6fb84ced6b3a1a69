package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"classifieds-engine/internal/adapters/httpapi"
	"classifieds-engine/internal/bootstrap"
	"classifieds-engine/internal/infra/config"
	httpinfra "classifieds-engine/internal/infra/http"
	applog "classifieds-engine/internal/infra/log"
	"classifieds-engine/internal/infra/metrics"
	"classifieds-engine/internal/usecase/calendar"
	"classifieds-engine/internal/usecase/feature"
	"classifieds-engine/internal/usecase/moderation"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("api: JWT_SECRET не задан")
	}

	stores, closeStores, err := bootstrap.OpenStores(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: хранилище недоступно")
	}
	defer closeStores()

	redisClient, err := bootstrap.OpenRedis(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	calendarService := calendar.NewService(stores.Events, cfg.Location(), applog.Component(logger, "calendar"))
	featureService := feature.NewService(stores.Listings, stores.Settings, applog.Component(logger, "feature"))
	moderationService := moderation.NewService(stores.Listings, stores.Events, stores.Settings, applog.Component(logger, "moderation"))
	sweeper := bootstrap.NewSweeper(cfg, stores, redisClient, applog.Component(logger, "sweeper"))

	handler := httpapi.NewHandler(calendarService, featureService, moderationService,
		httpapi.WithLogger(applog.Component(logger, "httpapi")),
		httpapi.WithAuth(httpinfra.AuthMiddleware(cfg.Auth.JWTSecret)),
		httpapi.WithSweeper(sweeper),
	)

	server := httpinfra.NewServer(applog.Component(logger, "http"))
	handler.Register(server.Router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api: ошибка остановки сервера")
		}
	}()

	if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Fatal().Err(err).Msg("api: сервер остановлен с ошибкой")
	}
	logger.Info().Msg("api: остановлен")
}
