// Package booking implements the booking lifecycle: creation, scoped
// reads, status-limited updates and cancellation. Authorization decisions
// are delegated to package policy; persistence goes through Store so the
// rules can be exercised without a database.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/apperr"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/policy"
	"github.com/iliyamo/restaurant-booking/internal/queue"
)

// Store persists bookings. Get and Mutate return an error wrapping
// apperr.ErrNotFound when no booking satisfies the scope. Mutate loads the
// single matching booking under a row lock, calls fn on it and persists the
// result only when fn returns nil; otherwise the record is left unchanged.
type Store interface {
	Create(ctx context.Context, b *model.Booking) error
	List(ctx context.Context, s policy.Scope) ([]model.Booking, error)
	Get(ctx context.Context, s policy.Scope) (*model.Booking, error)
	Mutate(ctx context.Context, s policy.Scope, fn func(b *model.Booking) error) (*model.Booking, error)
}

// Catalog resolves a table and its ownership chain. TableByID returns an
// error wrapping apperr.ErrNotFound for unknown tables.
type Catalog interface {
	TableByID(ctx context.Context, id uint64) (*model.Table, error)
}

// Publisher delivers lifecycle events after a change has been committed.
type Publisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// Service is the booking lifecycle manager.
type Service struct {
	store   Store
	catalog Catalog
	events  Publisher
	now     func() time.Time
	loc     *time.Location
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher sets the event publisher. Without one, events are dropped.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLocation sets the zone in which "today" is evaluated. The default is
// the server's local zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService constructs a Service. store and catalog must be non-nil.
func NewService(store Store, catalog Catalog, opts ...Option) *Service {
	if store == nil || catalog == nil {
		panic("nil dependency passed to booking.NewService")
	}
	s := &Service{store: store, catalog: catalog, now: time.Now, loc: time.Local}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateInput is the caller's request to book a table. UserID is optional;
// when set it must equal the principal.
type CreateInput struct {
	TableID   uint64
	Date      string
	Time      string
	PartySize int
	UserID    uint64
}

// Create books a table for p. The table must exist in the catalog. No
// double-booking check is made for the same table, date and time.
func (s *Service) Create(ctx context.Context, p model.Principal, in CreateInput) (*model.Booking, error) {
	owner := in.UserID
	if owner == 0 {
		owner = p.ID
	}
	if !policy.CanCreate(p, owner) {
		return nil, fmt.Errorf("%w: bookings can only be created for yourself", apperr.ErrForbidden)
	}
	if in.TableID == 0 {
		return nil, fmt.Errorf("%w: table is required", apperr.ErrValidation)
	}
	date, err := normalizeDate(in.Date)
	if err != nil {
		return nil, err
	}
	clock, err := normalizeTime(in.Time)
	if err != nil {
		return nil, err
	}
	size, err := validPartySize(in.PartySize)
	if err != nil {
		return nil, err
	}
	table, err := s.catalog.TableByID(ctx, in.TableID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: table %d does not exist", apperr.ErrValidation, in.TableID)
		}
		return nil, err
	}
	b := &model.Booking{
		UserID:       owner,
		TableID:      table.ID,
		RestaurantID: table.RestaurantID,
		ManagerID:    table.ManagerID,
		Date:         date,
		Time:         clock,
		PartySize:    size,
		Status:       InitialStatus,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventBookingCreated, p, b)
	return b, nil
}

// ListForUser returns every booking owned by p.
func (s *Service) ListForUser(ctx context.Context, p model.Principal) ([]model.Booking, error) {
	return s.store.List(ctx, policy.OwnedBy(p))
}

// ListForRestaurant returns the bookings of a restaurant visible to p.
func (s *Service) ListForRestaurant(ctx context.Context, p model.Principal, restaurantID uint64) ([]model.Booking, error) {
	if restaurantID == 0 {
		return nil, fmt.Errorf("%w: invalid restaurant id", apperr.ErrValidation)
	}
	return s.store.List(ctx, policy.ScopeList(p, policy.Filter{RestaurantID: restaurantID}))
}

// ListToday returns today's bookings visible to p. Today is evaluated at
// call time in the service's zone.
func (s *Service) ListToday(ctx context.Context, p model.Principal) ([]model.Booking, error) {
	return s.store.List(ctx, policy.ScopeList(p, policy.Filter{Date: s.Today()}))
}

// Today returns the current calendar date as YYYY-MM-DD.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

// Retrieve returns a single booking visible to p. Bookings outside p's
// scope are reported exactly like missing ones.
func (s *Service) Retrieve(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
	b, err := s.store.Get(ctx, policy.ScopeList(p, policy.Filter{}).WithBooking(id))
	if err != nil {
		return nil, err
	}
	if !policy.CanReadDetail(p, *b) {
		return nil, notFound(id)
	}
	return b, nil
}

// Update modifies a booking visible to p. Only the owner may mutate and a
// customer may only change the status to cancelled. When full is true
// (PUT semantics) date, time and party size must all be supplied.
func (s *Service) Update(ctx context.Context, p model.Principal, id uint64, ch model.BookingChanges, full bool) (*model.Booking, error) {
	if full && (ch.Date == nil || ch.Time == nil || ch.PartySize == nil) {
		return nil, fmt.Errorf("%w: date, time and party_size are required", apperr.ErrValidation)
	}
	var before model.Status
	updated, err := s.store.Mutate(ctx, policy.ScopeList(p, policy.Filter{}).WithBooking(id), func(b *model.Booking) error {
		if !policy.CanReadDetail(p, *b) {
			return notFound(id)
		}
		if err := policy.CanMutateDetail(p, *b, ch); err != nil {
			return err
		}
		before = b.Status
		return apply(b, ch)
	})
	if err != nil {
		return nil, err
	}
	ev := queue.EventBookingUpdated
	if before != model.StatusCancelled && updated.Status == model.StatusCancelled {
		ev = queue.EventBookingCancelled
	}
	s.publish(ctx, ev, p, updated)
	return updated, nil
}

// Delete handles DELETE on the detail surface. Bookings are never removed;
// the owner's delete is a cancellation. Visible bookings owned by someone
// else are forbidden.
func (s *Service) Delete(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
	return s.cancel(ctx, p, policy.ScopeList(p, policy.Filter{}).WithBooking(id), id)
}

// Cancel moves a booking owned by p to cancelled. Bookings p does not own
// are reported as not found; a booking already cancelled is an invalid
// state.
func (s *Service) Cancel(ctx context.Context, p model.Principal, id uint64) (*model.Booking, error) {
	return s.cancel(ctx, p, policy.OwnedBy(p).WithBooking(id), id)
}

func (s *Service) cancel(ctx context.Context, p model.Principal, scope policy.Scope, id uint64) (*model.Booking, error) {
	updated, err := s.store.Mutate(ctx, scope, func(b *model.Booking) error {
		if !policy.CanReadDetail(p, *b) {
			return notFound(id)
		}
		if err := policy.CanCancel(p, *b); err != nil {
			return err
		}
		b.Status = model.StatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.EventBookingCancelled, p, updated)
	return updated, nil
}

// apply validates ch against the current state of b and writes the
// accepted values into b.
func apply(b *model.Booking, ch model.BookingChanges) error {
	if b.Status == model.StatusCancelled {
		return fmt.Errorf("%w: this booking is already cancelled", apperr.ErrInvalidState)
	}
	next := *b
	if ch.Date != nil {
		d, err := normalizeDate(*ch.Date)
		if err != nil {
			return err
		}
		next.Date = d
	}
	if ch.Time != nil {
		t, err := normalizeTime(*ch.Time)
		if err != nil {
			return err
		}
		next.Time = t
	}
	if ch.PartySize != nil {
		n, err := validPartySize(*ch.PartySize)
		if err != nil {
			return err
		}
		next.PartySize = n
	}
	if ch.Status != nil {
		to := model.Status(*ch.Status)
		if !to.Valid() {
			return fmt.Errorf("%w: %q is not a valid status", apperr.ErrValidation, *ch.Status)
		}
		if to != b.Status && !CanTransition(b.Status, to) {
			return fmt.Errorf("%w: cannot change status from %s to %s", apperr.ErrInvalidState, b.Status, to)
		}
		next.Status = to
	}
	*b = next
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, actor model.Principal, b *model.Booking) {
	if s.events == nil {
		return
	}
	ev := queue.NewBookingEvent(eventType, s.now())
	ev.BookingID = b.ID
	ev.UserID = b.UserID
	ev.ActorID = actor.ID
	ev.TableID = b.TableID
	ev.RestaurantID = b.RestaurantID
	ev.Date = b.Date
	ev.Time = b.Time
	ev.PartySize = b.PartySize
	ev.Status = string(b.Status)
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("booking: publish %s for booking %d failed: %v", eventType, b.ID, err)
	}
}

func notFound(id uint64) error {
	return fmt.Errorf("%w: booking %d", apperr.ErrNotFound, id)
}
