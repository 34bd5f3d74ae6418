package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/f1rq/LifeMap/internal/metrics"
	"github.com/f1rq/LifeMap/internal/models"
	"github.com/f1rq/LifeMap/internal/tasks"
	"github.com/f1rq/LifeMap/internal/tracing"
)

// EventStore is the repository seam the state core depends on.
type EventStore interface {
	ListAll(ctx context.Context) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) (int64, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, event *models.Event) error
	DeleteByID(ctx context.Context, id int64) error
	ListByDate(ctx context.Context, pattern string) ([]models.Event, error)
	Watch(ctx context.Context) <-chan []models.Event
}

// Snapshot is the single coherent view of "what the UI should show":
// the live event list recombined with filter, category selection, sort
// order and the transient operation state. It is an immutable value;
// one-shot fields (Err, SuccessMessage, AddEventSuccess) stay set until
// the consumer explicitly clears them.
type Snapshot struct {
	Events          []models.Event
	IsLoading       bool
	Err             string
	IsAddingEvent   bool
	AddEventSuccess bool
	SuccessMessage  string
}

// operationState is the transient outcome of the most recent mutating
// action, merged into every snapshot.
type operationState struct {
	isAdding   bool
	addSuccess bool
	errMsg     string
	successMsg string
}

// EventService combines the store's live event feed with UI-only state
// into snapshots, and runs mutating operations on the background
// runner with optimistic success/error reporting. Mutations are
// fire-and-forget; completion is observed through the snapshot (the
// returned channel exists for shutdown and tests). Concurrent mutations
// are not serialized against each other: last write wins.
type EventService struct {
	store   EventStore
	runner  *tasks.Runner
	metrics *metrics.Metrics
	tracer  tracing.Tracer

	mu               sync.Mutex
	events           []models.Event
	loaded           bool
	op               operationState
	filterText       string
	selected         map[string]struct{}
	sortOption       models.SortOption
	selectedLocation *models.GeoPoint
	form             models.EventForm
	subs             map[int]chan Snapshot
	nextSub          int
}

// NewEventService creates the view-state core.
func NewEventService(store EventStore, runner *tasks.Runner, m *metrics.Metrics, tracer tracing.Tracer) *EventService {
	return &EventService{
		store:      store,
		runner:     runner,
		metrics:    m,
		tracer:     tracer,
		selected:   make(map[string]struct{}),
		sortOption: models.SortNewest,
		subs:       make(map[int]chan Snapshot),
	}
}

// Start begins consuming the store's live feed. The snapshot reports
// loading until the first batch arrives.
func (s *EventService) Start(ctx context.Context) {
	feed := s.store.Watch(ctx)
	go func() {
		for list := range feed {
			s.mu.Lock()
			s.events = list
			s.loaded = true
			s.broadcastLocked()
			s.mu.Unlock()
		}
	}()
}

// Snapshot returns the current recombined state.
func (s *EventService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recombineLocked()
}

// Subscribe returns a feed of snapshots, starting with the current one.
// Emissions coalesce per subscriber; the channel closes when the
// context is done.
func (s *EventService) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	sendSnapshot(ch, s.recombineLocked())
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}

// SetFilterText sets the free-text filter; it takes effect in the next
// snapshot.
func (s *EventService) SetFilterText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterText = text
	s.broadcastLocked()
}

// ToggleCategory adds or removes a category from the selection set.
func (s *EventService) ToggleCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[category]; ok {
		delete(s.selected, category)
	} else {
		s.selected[category] = struct{}{}
	}
	s.broadcastLocked()
}

// SelectedCategories returns the current selection, sorted.
func (s *EventService) SelectedCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selected))
	for c := range s.selected {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SetSortOption sets the active sort order.
func (s *EventService) SetSortOption(option models.SortOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortOption = option
	s.broadcastLocked()
}

// SortOption returns the active sort order.
func (s *EventService) SortOption() models.SortOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortOption
}

// AddEvent inserts the event in the background. The snapshot flips
// IsAddingEvent immediately; on success AddEventSuccess and a one-shot
// success message are raised, on failure the error is recorded and the
// prior list is left untouched.
func (s *EventService) AddEvent(ctx context.Context, event models.Event) <-chan error {
	s.mu.Lock()
	s.op = operationState{isAdding: true}
	s.broadcastLocked()
	s.mu.Unlock()

	return s.runner.Submit(ctx, "add-event", func(ctx context.Context) error {
		txn := s.tracer.StartTransaction("add-event")
		defer s.tracer.EndTransaction(txn)

		started := time.Now()
		id, err := s.store.Create(ctx, &event)
		s.metrics.RecordTimer("events.add", time.Since(started).Milliseconds())

		s.mu.Lock()
		defer s.mu.Unlock()

		switch {
		case err != nil:
			s.tracer.RecordError(txn, err)
			s.metrics.RecordError("events.add")
			s.op = operationState{errMsg: fmt.Sprintf("Error adding event: %v", err)}
		case id <= 0:
			s.metrics.RecordError("events.add")
			s.op = operationState{errMsg: "Failed to add event"}
		default:
			s.metrics.RecordSuccess("events.add")
			s.op = operationState{
				addSuccess: true,
				successMsg: fmt.Sprintf("Event %s added successfully!", event.Name),
			}
			log.Info().Int64("event_id", id).Str("name", event.Name).Msg("Event added")
		}

		s.broadcastLocked()
		return err
	})
}

// UpdateEvent replaces the event's mutable fields in the background.
func (s *EventService) UpdateEvent(ctx context.Context, event models.Event) <-chan error {
	return s.runner.Submit(ctx, "update-event", func(ctx context.Context) error {
		txn := s.tracer.StartTransaction("update-event")
		defer s.tracer.EndTransaction(txn)

		started := time.Now()
		err := s.store.Update(ctx, &event)
		s.metrics.RecordTimer("events.update", time.Since(started).Milliseconds())

		s.mu.Lock()
		defer s.mu.Unlock()

		if err != nil {
			s.tracer.RecordError(txn, err)
			s.metrics.RecordError("events.update")
			s.op = operationState{errMsg: fmt.Sprintf("Failed to update event: %v", err)}
		} else {
			s.metrics.RecordSuccess("events.update")
			s.op = operationState{
				successMsg: fmt.Sprintf("Event %s updated successfully!", event.Name),
			}
			log.Info().Int64("event_id", event.ID).Msg("Event updated")
		}

		s.broadcastLocked()
		return err
	})
}

// DeleteEvent removes the event in the background.
func (s *EventService) DeleteEvent(ctx context.Context, event models.Event) <-chan error {
	return s.runner.Submit(ctx, "delete-event", func(ctx context.Context) error {
		txn := s.tracer.StartTransaction("delete-event")
		defer s.tracer.EndTransaction(txn)

		started := time.Now()
		err := s.store.Delete(ctx, &event)
		s.metrics.RecordTimer("events.delete", time.Since(started).Milliseconds())

		s.mu.Lock()
		defer s.mu.Unlock()

		if err != nil {
			s.tracer.RecordError(txn, err)
			s.metrics.RecordError("events.delete")
			s.op = operationState{errMsg: fmt.Sprintf("Failed to delete event: %v", err)}
		} else {
			s.metrics.RecordSuccess("events.delete")
			s.op = operationState{
				successMsg: fmt.Sprintf("Event %s deleted successfully", event.Name),
			}
			log.Info().Int64("event_id", event.ID).Msg("Event deleted")
		}

		s.broadcastLocked()
		return err
	})
}

// DeleteEventByID removes the event with the given identifier in the
// background. A missing identifier is a no-op, not an error.
func (s *EventService) DeleteEventByID(ctx context.Context, id int64) <-chan error {
	return s.runner.Submit(ctx, "delete-event-by-id", func(ctx context.Context) error {
		txn := s.tracer.StartTransaction("delete-event-by-id")
		defer s.tracer.EndTransaction(txn)

		started := time.Now()
		err := s.store.DeleteByID(ctx, id)
		s.metrics.RecordTimer("events.delete", time.Since(started).Milliseconds())

		s.mu.Lock()
		defer s.mu.Unlock()

		if err != nil {
			s.tracer.RecordError(txn, err)
			s.metrics.RecordError("events.delete")
			s.op = operationState{errMsg: fmt.Sprintf("Failed to delete event: %v", err)}
		} else {
			s.metrics.RecordSuccess("events.delete")
			s.op = operationState{successMsg: "Event deleted successfully!"}
			log.Info().Int64("event_id", id).Msg("Event deleted")
		}

		s.broadcastLocked()
		return err
	})
}

// GetEventByID looks up a single event. Failures are recorded in the
// snapshot error state; a missing id returns (nil, nil).
func (s *EventService) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.mu.Lock()
		s.op = operationState{errMsg: fmt.Sprintf("Failed to get event: %v", err)}
		s.broadcastLocked()
		s.mu.Unlock()
		return nil, err
	}
	return event, nil
}

// EventsByDate returns events whose date matches the LIKE pattern.
func (s *EventService) EventsByDate(ctx context.Context, pattern string) ([]models.Event, error) {
	events, err := s.store.ListByDate(ctx, pattern)
	if err != nil {
		s.mu.Lock()
		s.op = operationState{errMsg: fmt.Sprintf("Failed to load events for date: %v", err)}
		s.broadcastLocked()
		s.mu.Unlock()
		return nil, err
	}
	return events, nil
}

// ClearError drops the one-shot error.
func (s *EventService) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op.errMsg = ""
	s.broadcastLocked()
}

// ClearAddEventSuccess drops the one-shot add-success flag.
func (s *EventService) ClearAddEventSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op.addSuccess = false
	s.broadcastLocked()
}

// ClearSuccessMessage drops the one-shot success message.
func (s *EventService) ClearSuccessMessage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.op.successMsg = ""
	s.broadcastLocked()
}

// SetSelectedLocation stores the coordinate picked on the map surface.
func (s *EventService) SetSelectedLocation(location *models.GeoPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedLocation = location
}

// SelectedLocation returns the coordinate picked on the map surface.
func (s *EventService) SelectedLocation() *models.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocation
}

// UpdateForm replaces the in-progress event form.
func (s *EventService) UpdateForm(form models.EventForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
}

// UpdateFormLocationName sets only the form's location name, keeping
// the rest of the form intact.
func (s *EventService) UpdateFormLocationName(name *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.LocationName = name
}

// ClearForm resets the in-progress event form.
func (s *EventService) ClearForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = models.EventForm{}
}

// Form returns the in-progress event form.
func (s *EventService) Form() models.EventForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Markers projects the current snapshot's located events into map
// marker descriptors, colored by category.
func (s *EventService) Markers() []models.Marker {
	snap := s.Snapshot()
	markers := make([]models.Marker, 0, len(snap.Events))
	for _, ev := range snap.Events {
		if !ev.HasLocation() {
			continue
		}
		markers = append(markers, models.Marker{
			Latitude:  *ev.Latitude,
			Longitude: *ev.Longitude,
			Label:     ev.Name,
			Color:     models.CategoryColor(ev.Category),
		})
	}
	return markers
}

// recombineLocked builds the snapshot from the live list and the
// UI-only state. Callers must hold s.mu.
func (s *EventService) recombineLocked() Snapshot {
	list := s.events

	if filter := strings.ToLower(strings.TrimSpace(s.filterText)); filter != "" {
		filtered := make([]models.Event, 0, len(list))
		for _, ev := range list {
			if matchesFilter(&ev, filter) {
				filtered = append(filtered, ev)
			}
		}
		list = filtered
	}

	if len(s.selected) > 0 {
		filtered := make([]models.Event, 0, len(list))
		for _, ev := range list {
			if ev.Category == nil {
				continue
			}
			if _, ok := s.selected[*ev.Category]; ok {
				filtered = append(filtered, ev)
			}
		}
		list = filtered
	}

	return Snapshot{
		Events:          models.SortEvents(list, s.sortOption),
		IsLoading:       !s.loaded,
		Err:             s.op.errMsg,
		IsAddingEvent:   s.op.isAdding,
		AddEventSuccess: s.op.addSuccess,
		SuccessMessage:  s.op.successMsg,
	}
}

// matchesFilter reports a case-insensitive substring match against
// name, location name or category.
func matchesFilter(ev *models.Event, filter string) bool {
	if strings.Contains(strings.ToLower(ev.Name), filter) {
		return true
	}
	if ev.LocationName != nil && strings.Contains(strings.ToLower(*ev.LocationName), filter) {
		return true
	}
	if ev.Category != nil && strings.Contains(strings.ToLower(*ev.Category), filter) {
		return true
	}
	return false
}

// broadcastLocked pushes the recombined snapshot to every subscriber.
// Callers must hold s.mu.
func (s *EventService) broadcastLocked() {
	snap := s.recombineLocked()
	for _, ch := range s.subs {
		sendSnapshot(ch, snap)
	}
}

// sendSnapshot delivers to a capacity-1 channel, dropping a stale
// pending snapshot so the newest one always wins.
func sendSnapshot(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
