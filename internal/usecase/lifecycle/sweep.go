package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/infra/metrics"
)

const (
	defaultWorkers = 4
	defaultLockTTL = 10 * time.Minute
	sweepLockKey   = "lifecycle:sweep"
)

// Failure описывает объявление, которое не удалось обновить во время прохода.
type Failure struct {
	ListingID int64  `json:"listing_id"`
	Error     string `json:"error"`
}

// Report содержит итог прохода.
type Report struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	Cutoff          time.Time `json:"-"`
	Scanned         int       `json:"scanned"`
	FeaturedCleared int       `json:"featured_cleared"`
	Inactivated     int       `json:"inactivated"`
	Failures        []Failure `json:"failures"`
}

// CutoffISO возвращает границу снятия в формате RFC 3339.
func (r Report) CutoffISO() string {
	return r.Cutoff.UTC().Format(time.RFC3339)
}

// Changes возвращает количество внесённых изменений.
func (r Report) Changes() int {
	return r.FeaturedCleared + r.Inactivated
}

// Sweeper периодически продвигает объявления по жизненному циклу.
// Проход не транзакционен: каждое обновление самостоятельно корректно,
// поэтому прерванный проход доделывается следующим.
type Sweeper struct {
	listings domain.ListingRepo
	settings domain.SettingsRepo
	notifier domain.Notifier
	locker   domain.Locker
	lockTTL  time.Duration
	workers  int
	now      domain.Clock
	log      zerolog.Logger
}

// Option настраивает Sweeper.
type Option func(*Sweeper)

// WithNotifier включает уведомления владельцев.
func WithNotifier(notifier domain.Notifier) Option {
	return func(s *Sweeper) {
		s.notifier = notifier
	}
}

// WithLocker включает взаимное исключение проходов.
func WithLocker(locker domain.Locker, ttl time.Duration) Option {
	return func(s *Sweeper) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithWorkers задаёт число параллельных обновлений.
func WithWorkers(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(clock domain.Clock) Option {
	return func(s *Sweeper) {
		s.now = clock
	}
}

// NewSweeper создаёт проход жизненного цикла.
func NewSweeper(listings domain.ListingRepo, settings domain.SettingsRepo, logger zerolog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		listings: listings,
		settings: settings,
		lockTTL:  defaultLockTTL,
		workers:  defaultWorkers,
		now:      time.Now,
		log:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run выполняет один проход. Ошибка возвращается, только если не удалось загрузить
// настройки или список объявлений; сбои отдельных объявлений попадают в Report.Failures.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report, err := s.run(ctx)
	metrics.ObserveSweep(time.Since(start), report.FeaturedCleared, report.Inactivated, len(report.Failures), err)
	return report, err
}

func (s *Sweeper) run(ctx context.Context) (Report, error) {
	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, sweepLockKey, s.lockTTL)
		if err != nil {
			return Report{}, fmt.Errorf("блокировка прохода: %w", err)
		}
		if !ok {
			return Report{}, domain.ErrSweepInProgress
		}
		defer release()
	}

	now := s.now()
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("получение настроек: %w", err)
	}
	settings = settings.Normalize()

	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Cutoff:    Cutoff(now, settings),
		Failures:  []Failure{},
	}
	log := s.log.With().Str("run_id", report.RunID).Logger()

	listings, err := s.listings.ListListings(ctx)
	if err != nil {
		return report, fmt.Errorf("получение объявлений: %w", err)
	}
	report.Scanned = len(listings)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.workers)
	for _, listing := range listings {
		if !Transition(listing, now, settings).Changed() {
			continue
		}
		g.Go(func() error {
			outcome, err := s.apply(ctx, report.RunID, listing.ID, now, settings)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error().Err(err).Int64("listing", listing.ID).Msg("sweeper: не удалось обновить объявление")
				report.Failures = append(report.Failures, Failure{ListingID: listing.ID, Error: err.Error()})
				return nil
			}
			if outcome.FeatureCleared {
				report.FeaturedCleared++
			}
			if outcome.Inactivated {
				report.Inactivated++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].ListingID < report.Failures[j].ListingID })
	log.Info().
		Int("scanned", report.Scanned).
		Int("featured_cleared", report.FeaturedCleared).
		Int("inactivated", report.Inactivated).
		Int("failures", len(report.Failures)).
		Str("cutoff", report.CutoffISO()).
		Msg("sweeper: проход завершён")
	return report, nil
}

// apply перечитывает объявление и записывает только изменённые поля.
func (s *Sweeper) apply(ctx context.Context, runID string, id int64, now time.Time, settings domain.Settings) (Outcome, error) {
	fresh, err := s.listings.FindListing(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		// объявление удалено после выборки, переводить нечего
		s.log.Debug().Str("run_id", runID).Int64("listing", id).Msg("sweeper: объявление исчезло до обновления")
		return Outcome{}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("повторное чтение объявления: %w", err)
	}
	outcome := Transition(fresh, now, settings)
	if !outcome.Changed() {
		return outcome, nil
	}
	patch := domain.DiffListing(fresh, outcome.Listing)
	if _, err := s.listings.UpdateListing(ctx, id, patch); err != nil {
		return Outcome{}, fmt.Errorf("обновление объявления: %w", err)
	}
	s.notify(ctx, runID, outcome, now)
	return outcome, nil
}

func (s *Sweeper) notify(ctx context.Context, runID string, outcome Outcome, now time.Time) {
	if s.notifier == nil {
		return
	}
	var kinds []domain.ListingNoticeKind
	if outcome.Inactivated {
		kinds = append(kinds, domain.ListingNoticeInactivated)
	}
	if outcome.FeatureCleared {
		kinds = append(kinds, domain.ListingNoticeFeatureExpired)
	}
	for _, kind := range kinds {
		notice := domain.ListingNotice{
			RunID:      runID,
			ListingID:  outcome.Listing.ID,
			OwnerID:    outcome.Listing.CreatedBy,
			Kind:       kind,
			OccurredAt: now,
		}
		if err := s.notifier.Publish(ctx, notice); err != nil {
			s.log.Warn().Err(err).Int64("listing", notice.ListingID).Str("kind", string(kind)).Msg("sweeper: не удалось отправить уведомление")
		}
	}
}
