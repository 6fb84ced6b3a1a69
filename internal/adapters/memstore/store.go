package memstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"classifieds-engine/internal/domain"
)

// Fixture описывает начальное содержимое хранилища.
type Fixture struct {
	Settings *domain.Settings `yaml:"settings"`
	Events   []domain.Event   `yaml:"events"`
	Listings []domain.Listing `yaml:"listings"`
}

// Store реализует репозитории в памяти процесса. Используется для локального запуска.
type Store struct {
	mu       sync.RWMutex
	events   map[int64]domain.Event
	listings map[int64]domain.Listing
	settings domain.Settings
	nextID   int64
}

var (
	_ domain.EventRepo    = (*Store)(nil)
	_ domain.ListingRepo  = (*Store)(nil)
	_ domain.SettingsRepo = (*Store)(nil)
)

// New создаёт хранилище с содержимым фикстуры.
func New(fx Fixture) *Store {
	s := &Store{
		events:   make(map[int64]domain.Event, len(fx.Events)),
		listings: make(map[int64]domain.Listing, len(fx.Listings)),
		settings: domain.DefaultSettings(),
	}
	if fx.Settings != nil {
		s.settings = fx.Settings.Normalize()
	}
	for _, ev := range fx.Events {
		s.events[ev.ID] = ev
		if ev.ID > s.nextID {
			s.nextID = ev.ID
		}
	}
	for _, l := range fx.Listings {
		s.listings[l.ID] = l
	}
	return s
}

// ParseFixture разбирает YAML-фикстуру.
func ParseFixture(data []byte) (Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return Fixture{}, fmt.Errorf("разбор фикстуры: %w", err)
	}
	for _, ev := range fx.Events {
		if !ev.Status.Valid() {
			return Fixture{}, fmt.Errorf("событие %d: неизвестный статус %q", ev.ID, ev.Status)
		}
	}
	for _, l := range fx.Listings {
		if !l.Status.Valid() {
			return Fixture{}, fmt.Errorf("объявление %d: неизвестный статус %q", l.ID, l.Status)
		}
	}
	return fx, nil
}

// Load читает фикстуру из файла. Пустой путь даёт пустое хранилище.
func Load(path string) (*Store, error) {
	if path == "" {
		return New(Fixture{}), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение фикстуры: %w", err)
	}
	fx, err := ParseFixture(data)
	if err != nil {
		return nil, err
	}
	return New(fx), nil
}

// ListEvents реализует domain.EventRepo.
func (s *Store) ListEvents(ctx context.Context) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetEvent реализует domain.EventRepo.
func (s *Store) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return ev, nil
}

// UpdateEventStatus реализует domain.EventRepo.
func (s *Store) UpdateEventStatus(ctx context.Context, id int64, status domain.EventStatus) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	ev.Status = status
	s.events[id] = ev
	return ev, nil
}

// CreateEvent реализует domain.EventRepo.
func (s *Store) CreateEvent(ctx context.Context, ev domain.Event) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ev.ID = s.nextID
	s.events[ev.ID] = ev
	return ev, nil
}

// ListListings реализует domain.ListingRepo.
func (s *Store) ListListings(ctx context.Context) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindListing реализует domain.ListingRepo.
func (s *Store) FindListing(ctx context.Context, id int64) (domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return domain.Listing{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

// UpdateListing реализует domain.ListingRepo.
func (s *Store) UpdateListing(ctx context.Context, id int64, patch domain.ListingPatch) (domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return domain.Listing{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	l = patch.Apply(l)
	s.listings[id] = l
	return l, nil
}

// GetSettings реализует domain.SettingsRepo.
func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings := s.settings
	settings.HighlightOptions = append([]int(nil), s.settings.HighlightOptions...)
	return settings, nil
}

// SaveSettings реализует domain.SettingsRepo.
func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings.Normalize()
	return nil
}
