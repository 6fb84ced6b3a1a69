package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.EventRepo    = (*Postgres)(nil)
	_ domain.ListingRepo  = (*Postgres)(nil)
	_ domain.SettingsRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// storeErr переводит ошибки драйвера в ошибки домена.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

const eventColumns = `id, title, description, location, start_at, end_at, recurrence_rule, status, created_by`

func scanEvent(row pgx.Row) (domain.Event, error) {
	var (
		ev     domain.Event
		endAt  sql.NullTime
		rule   sql.NullString
		status string
	)
	if err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Location, &ev.StartAt, &endAt, &rule, &status, &ev.CreatedBy); err != nil {
		return domain.Event{}, err
	}
	if endAt.Valid {
		ts := endAt.Time
		ev.EndAt = &ts
	}
	if rule.Valid {
		ev.Recurrence = decodeRule(rule.String)
	}
	ev.Status = domain.EventStatus(status)
	return ev, nil
}

// ListEvents реализует domain.EventRepo.
func (p *Postgres) ListEvents(ctx context.Context) ([]domain.Event, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_at, id`)
	metrics.ObserveNetworkRequest("postgres", "events_list", "events", start, err)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var events []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		events = append(events, ev)
	}
	return events, storeErr(rows.Err())
}

// GetEvent реализует domain.EventRepo.
func (p *Postgres) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	ev, err := scanEvent(p.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	metrics.ObserveNetworkRequest("postgres", "events_get", "events", start, err)
	if err != nil {
		return domain.Event{}, storeErr(err)
	}
	return ev, nil
}

// UpdateEventStatus реализует domain.EventRepo.
func (p *Postgres) UpdateEventStatus(ctx context.Context, id int64, status domain.EventStatus) (domain.Event, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	ev, err := scanEvent(p.pool.QueryRow(ctx, `
UPDATE events SET status = $2, updated_at = now()
WHERE id = $1
RETURNING `+eventColumns, id, string(status)))
	metrics.ObserveNetworkRequest("postgres", "events_update_status", "events", start, err)
	if err != nil {
		return domain.Event{}, storeErr(err)
	}
	return ev, nil
}

// CreateEvent реализует domain.EventRepo.
func (p *Postgres) CreateEvent(ctx context.Context, ev domain.Event) (domain.Event, error) {
	rule, err := encodeRule(ev.Recurrence)
	if err != nil {
		return domain.Event{}, err
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var endAt sql.NullTime
	if ev.EndAt != nil {
		endAt = sql.NullTime{Time: *ev.EndAt, Valid: true}
	}
	var ruleValue sql.NullString
	if rule != "" {
		ruleValue = sql.NullString{String: rule, Valid: true}
	}

	start := time.Now()
	saved, err := scanEvent(p.pool.QueryRow(ctx, `
INSERT INTO events (title, description, location, start_at, end_at, recurrence_rule, status, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+eventColumns, ev.Title, ev.Description, ev.Location, ev.StartAt, endAt, ruleValue, string(ev.Status), ev.CreatedBy))
	metrics.ObserveNetworkRequest("postgres", "events_insert", "events", start, err)
	if err != nil {
		return domain.Event{}, storeErr(err)
	}
	return saved, nil
}

const listingColumns = `id, title, status, created_at, featured, featured_until, created_by`

func scanListing(row pgx.Row) (domain.Listing, error) {
	var (
		l             domain.Listing
		status        string
		featuredUntil sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.Title, &status, &l.CreatedAt, &l.Featured, &featuredUntil, &l.CreatedBy); err != nil {
		return domain.Listing{}, err
	}
	l.Status = domain.ListingStatus(status)
	if featuredUntil.Valid {
		ts := featuredUntil.Time
		l.FeaturedUntil = &ts
	}
	return l, nil
}

// ListListings реализует domain.ListingRepo.
func (p *Postgres) ListListings(ctx context.Context) ([]domain.Listing, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY id`)
	metrics.ObserveNetworkRequest("postgres", "listings_list", "listings", start, err)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		listings = append(listings, l)
	}
	return listings, storeErr(rows.Err())
}

// FindListing реализует domain.ListingRepo.
func (p *Postgres) FindListing(ctx context.Context, id int64) (domain.Listing, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	l, err := scanListing(p.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	metrics.ObserveNetworkRequest("postgres", "listings_get", "listings", start, err)
	if err != nil {
		return domain.Listing{}, storeErr(err)
	}
	return l, nil
}

// UpdateListing реализует domain.ListingRepo. Пустые поля патча оставляют значение в БД.
func (p *Postgres) UpdateListing(ctx context.Context, id int64, patch domain.ListingPatch) (domain.Listing, error) {
	if patch.Empty() {
		return p.FindListing(ctx, id)
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var status sql.NullString
	if patch.Status != nil {
		status = sql.NullString{String: string(*patch.Status), Valid: true}
	}
	var featured sql.NullBool
	if patch.Featured != nil {
		featured = sql.NullBool{Bool: *patch.Featured, Valid: true}
	}
	var featuredUntil sql.NullTime
	if patch.FeaturedUntil != nil {
		featuredUntil = sql.NullTime{Time: *patch.FeaturedUntil, Valid: true}
	}

	start := time.Now()
	l, err := scanListing(p.pool.QueryRow(ctx, `
UPDATE listings SET
    status = COALESCE($2::text, status),
    featured = COALESCE($3::boolean, featured),
    featured_until = CASE WHEN $4::boolean THEN $5::timestamptz ELSE featured_until END,
    updated_at = now()
WHERE id = $1
RETURNING `+listingColumns, id, status, featured, patch.SetFeaturedUntil, featuredUntil))
	metrics.ObserveNetworkRequest("postgres", "listings_update", "listings", start, err)
	if err != nil {
		return domain.Listing{}, storeErr(err)
	}
	return l, nil
}

// GetSettings реализует domain.SettingsRepo. Отсутствие строки означает настройки по умолчанию.
func (p *Postgres) GetSettings(ctx context.Context) (domain.Settings, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		months  int32
		options []int32
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT auto_inactive_months, highlight_options FROM marketplace_settings WHERE id = 1`).Scan(&months, &options)
	metrics.ObserveNetworkRequest("postgres", "settings_get", "marketplace_settings", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, storeErr(err)
	}
	settings := domain.Settings{AutoInactiveMonths: int(months), HighlightOptions: make([]int, 0, len(options))}
	for _, days := range options {
		settings.HighlightOptions = append(settings.HighlightOptions, int(days))
	}
	return settings.Normalize(), nil
}

// SaveSettings реализует domain.SettingsRepo.
func (p *Postgres) SaveSettings(ctx context.Context, settings domain.Settings) error {
	settings = settings.Normalize()
	options := make([]int32, 0, len(settings.HighlightOptions))
	for _, days := range settings.HighlightOptions {
		options = append(options, int32(days))
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO marketplace_settings (id, auto_inactive_months, highlight_options)
VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET auto_inactive_months = EXCLUDED.auto_inactive_months, highlight_options = EXCLUDED.highlight_options, updated_at = now()
`, int32(settings.AutoInactiveMonths), options)
	metrics.ObserveNetworkRequest("postgres", "settings_upsert", "marketplace_settings", start, err)
	return storeErr(err)
}
