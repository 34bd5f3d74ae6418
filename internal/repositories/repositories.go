package repositories

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/f1rq/LifeMap/internal/database"
	"github.com/f1rq/LifeMap/internal/models"
)

// EventRepository provides access to persisted events. It is a thin
// pass-through over the store plus the live watch feed; it adds no
// business logic.
type EventRepository struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers map[int]chan []models.Event
	nextID   int
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{
		db:       db,
		watchers: make(map[int]chan []models.Event),
	}
}

// ListAll returns all events ordered by creation time descending.
func (r *EventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}
	return events, nil
}

// GetByID gets an event by id. A missing id returns (nil, nil).
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).First(&event, id).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get event by id")
	}
	return &event, nil
}

// Create inserts a new event and returns the generated identifier. A
// non-positive identifier indicates failure.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) (int64, error) {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return 0, errors.Wrap(err, "failed to insert event")
	}

	r.notify(ctx)
	return event.ID, nil
}

// Update replaces the mutable fields of the row matching the event's
// identifier. Updating a missing identifier is a no-op.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	res := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", event.ID).
		Select("name", "date", "description", "category", "latitude", "longitude", "location_name").
		Updates(event)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update event")
	}

	if res.RowsAffected == 0 {
		log.Warn().Int64("event_id", event.ID).Msg("Update matched no rows")
		return nil
	}

	r.notify(ctx)
	return nil
}

// Delete removes the given event. Deleting a missing event is a no-op.
func (r *EventRepository) Delete(ctx context.Context, event *models.Event) error {
	return r.DeleteByID(ctx, event.ID)
}

// DeleteByID removes the event with the given identifier. Deleting a
// missing identifier is a no-op.
func (r *EventRepository) DeleteByID(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Event{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete event")
	}

	if res.RowsAffected > 0 {
		r.notify(ctx)
	}
	return nil
}

// ListByDate returns events whose date field matches the LIKE pattern.
func (r *EventRepository) ListByDate(ctx context.Context, pattern string) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("date LIKE ?", pattern).
		Order("created_at DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events by date")
	}
	return events, nil
}

// Count returns the number of persisted events.
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Event{}).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count events")
	}
	return count, nil
}

// Watch returns a live feed of the full event list. The current list is
// emitted immediately, then the feed re-emits after every successful
// mutation. Emissions coalesce per subscriber: a slow consumer sees the
// latest list, not every intermediate one. The channel is closed when
// the context is done.
func (r *EventRepository) Watch(ctx context.Context) <-chan []models.Event {
	ch := make(chan []models.Event, 1)

	// Initial emission so subscribers never wait for the first mutation
	events, err := r.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load initial event list for watcher")
	}

	// Sends happen only under the mutex while the watcher is registered,
	// and the channel is closed only after deregistration
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.watchers[id] = ch
	if err == nil {
		sendLatest(ch, events)
	}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.watchers, id)
		r.mu.Unlock()
		close(ch)
	}()

	return ch
}

// notify re-queries the full list and pushes it to every watcher.
func (r *EventRepository) notify(ctx context.Context) {
	events, err := r.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reload event list for watchers")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.watchers {
		sendLatest(ch, events)
	}
}

// sendLatest delivers to a capacity-1 channel, dropping a stale pending
// list so the newest one always wins.
func sendLatest(ch chan []models.Event, events []models.Event) {
	for {
		select {
		case ch <- events:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
