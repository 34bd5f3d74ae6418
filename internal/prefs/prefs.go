package prefs

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/f1rq/LifeMap/internal/database"
	"github.com/f1rq/LifeMap/internal/models"
)

const mapThemeKey = "map_theme"

// Store persists single-key preference values in the shared database
// and notifies watchers when the map theme changes.
type Store struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers map[int]chan models.MapTheme
	nextID   int
}

// NewStore creates a preference store
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		watchers: make(map[int]chan models.MapTheme),
	}
}

// MapTheme returns the stored map theme, falling back to the default
// when nothing is stored or the stored value is unknown.
func (s *Store) MapTheme(ctx context.Context) (models.MapTheme, error) {
	var pref models.Preference
	err := s.db.WithContext(ctx).
		Where("key = ?", mapThemeKey).
		First(&pref).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return models.DefaultMapTheme, nil
		}
		return models.DefaultMapTheme, errors.Wrap(err, "failed to read map theme")
	}

	return models.ParseMapTheme(pref.Value), nil
}

// SetMapTheme stores the map theme and notifies watchers.
func (s *Store) SetMapTheme(ctx context.Context, theme models.MapTheme) error {
	pref := models.Preference{Key: mapThemeKey, Value: string(theme)}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&pref).Error
	if err != nil {
		return errors.Wrap(err, "failed to store map theme")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		sendLatest(ch, theme)
	}
	return nil
}

// Watch returns a live feed of the map theme: the current value is
// emitted immediately, then again after every change. Emissions
// coalesce; the channel is closed when the context is done.
func (s *Store) Watch(ctx context.Context) <-chan models.MapTheme {
	ch := make(chan models.MapTheme, 1)

	current, err := s.MapTheme(ctx)
	if err != nil {
		current = models.DefaultMapTheme
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	sendLatest(ch, current)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}

func sendLatest(ch chan models.MapTheme, theme models.MapTheme) {
	for {
		select {
		case ch <- theme:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
