package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	RecurrenceUnknownFrequency = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_unknown_frequency_total",
		Help: "Правила повторения с неизвестной частотой, развёрнутые как одиночные события",
	})
	RecurrenceTruncated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_horizon_truncated_total",
		Help: "Развёртки, обрезанные горизонтом раньше until (по одной на вызов Expand)",
	})

	SweepRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_sweep_runs_total",
		Help: "Количество проходов жизненного цикла объявлений",
	}, []string{"status"})
	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lifecycle_sweep_duration_seconds",
		Help:    "Длительность прохода жизненного цикла",
		Buckets: prometheus.DefBuckets,
	})
	ListingsChanged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_listings_changed_total",
		Help: "Изменения объявлений, внесённые проходом",
	}, []string{"change"})
	SweepFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifecycle_sweep_failures_total",
		Help: "Ошибки обновления отдельных объявлений во время прохода",
	})

	FeatureRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feature_requests_total",
		Help: "Запросы на выделение объявлений",
	}, []string{"result"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		RecurrenceUnknownFrequency,
		RecurrenceTruncated,
		SweepRuns,
		SweepDuration,
		ListingsChanged,
		SweepFailures,
		FeatureRequests,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveSweep записывает итог прохода жизненного цикла.
func ObserveSweep(duration time.Duration, featuredCleared, inactivated, failures int, err error) {
	status := "success"
	switch {
	case err != nil:
		status = "error"
	case failures > 0:
		status = "partial"
	}
	SweepRuns.WithLabelValues(status).Inc()
	SweepDuration.Observe(duration.Seconds())
	if featuredCleared > 0 {
		ListingsChanged.WithLabelValues("feature_cleared").Add(float64(featuredCleared))
	}
	if inactivated > 0 {
		ListingsChanged.WithLabelValues("inactivated").Add(float64(inactivated))
	}
	if failures > 0 {
		SweepFailures.Add(float64(failures))
	}
}
