// Package bookingtest provides in-memory implementations of the booking
// Store, Catalog and Publisher interfaces for use in tests.
package bookingtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/apperr"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/policy"
	"github.com/iliyamo/restaurant-booking/internal/queue"
)

// Catalog is a fixed set of tables keyed by id.
type Catalog struct {
	mu     sync.Mutex
	tables map[uint64]model.Table
}

// NewCatalog returns a Catalog holding tables.
func NewCatalog(tables ...model.Table) *Catalog {
	c := &Catalog{tables: make(map[uint64]model.Table, len(tables))}
	for _, t := range tables {
		c.tables[t.ID] = t
	}
	return c
}

// TableByID implements booking.Catalog.
func (c *Catalog) TableByID(_ context.Context, id uint64) (*model.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: table %d", apperr.ErrNotFound, id)
	}
	return &t, nil
}

// Store keeps bookings in a map. A single mutex serialises Mutate calls,
// standing in for the row lock of the SQL store.
type Store struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Booking
	now    func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{rows: make(map[uint64]model.Booking), now: time.Now}
}

// Put inserts b as-is, assigning an id when b.ID is zero. It is meant for
// seeding fixtures.
func (s *Store) Put(b model.Booking) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.nextID++
		b.ID = s.nextID
	} else if b.ID > s.nextID {
		s.nextID = b.ID
	}
	s.rows[b.ID] = b
	return b
}

// Snapshot returns the stored copy of booking id.
func (s *Store) Snapshot(id uint64) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	return b, ok
}

// Create implements booking.Store.
func (s *Store) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	b.CreatedAt = s.now().UTC()
	b.UpdatedAt = b.CreatedAt
	s.rows[b.ID] = *b
	return nil
}

// List implements booking.Store. Results are ordered newest first.
func (s *Store) List(_ context.Context, scope policy.Scope) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range s.rows {
		if scope.Matches(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Get implements booking.Store.
func (s *Store) Get(_ context.Context, scope policy.Scope) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.find(scope)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &b, nil
}

// Mutate implements booking.Store.
func (s *Store) Mutate(_ context.Context, scope policy.Scope, fn func(b *model.Booking) error) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.find(scope)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	work := b
	if err := fn(&work); err != nil {
		return nil, err
	}
	work.ID = b.ID
	work.UpdatedAt = s.now().UTC()
	s.rows[b.ID] = work
	return &work, nil
}

func (s *Store) find(scope policy.Scope) (model.Booking, bool) {
	if scope.BookingID != 0 {
		b, ok := s.rows[scope.BookingID]
		return b, ok && scope.Matches(b)
	}
	for _, b := range s.rows {
		if scope.Matches(b) {
			return b, true
		}
	}
	return model.Booking{}, false
}

// Publisher records every published event. Err, when set, is returned from
// Publish after recording.
type Publisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	Err    error
}

// Publish implements booking.Publisher.
func (p *Publisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.Err
}

// Events returns a copy of the recorded events.
func (p *Publisher) Events() []queue.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.BookingEvent(nil), p.events...)
}
