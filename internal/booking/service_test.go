package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-booking/internal/apperr"
	"github.com/iliyamo/restaurant-booking/internal/booking/bookingtest"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/queue"
)

var (
	custC   = model.Principal{ID: 1, Role: model.RoleCustomer}
	custD   = model.Principal{ID: 2, Role: model.RoleCustomer}
	mgrM    = model.Principal{ID: 3, Role: model.RoleManager}
	mgrN    = model.Principal{ID: 4, Role: model.RoleManager}
	adminA  = model.Principal{ID: 5, Role: model.RoleAdmin}
	tableT  = model.Table{ID: 100, RestaurantID: 10, ManagerID: 3, Number: 1, Capacity: 4}
	tableU  = model.Table{ID: 200, RestaurantID: 20, ManagerID: 4, Number: 1, Capacity: 6}
	fixedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc    *Service
	store  *bookingtest.Store
	events *bookingtest.Publisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := bookingtest.NewStore()
	events := &bookingtest.Publisher{}
	svc := NewService(store, bookingtest.NewCatalog(tableT, tableU),
		WithPublisher(events),
		WithClock(func() time.Time { return fixedAt }),
		WithLocation(time.UTC),
	)
	return fixture{svc: svc, store: store, events: events}
}

func (f fixture) book(t *testing.T, p model.Principal, table uint64, date string) *model.Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), p, CreateInput{TableID: table, Date: date, Time: "19:30", PartySize: 2})
	require.NoError(t, err)
	return b
}

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, custC, CreateInput{TableID: 100, Date: "2024-06-01", Time: "19:30", PartySize: 4})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	assert.Equal(t, custC.ID, b.UserID)
	assert.Equal(t, uint64(10), b.RestaurantID)
	assert.Equal(t, uint64(3), b.ManagerID)
	assert.Equal(t, "19:30:00", b.Time)
	assert.Equal(t, InitialStatus, b.Status)

	evs := f.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, queue.EventBookingCreated, evs[0].EventType)
	assert.Equal(t, b.ID, evs[0].BookingID)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"missing table", CreateInput{Date: "2024-06-01", Time: "19:30", PartySize: 2}, apperr.ErrValidation},
		{"unknown table", CreateInput{TableID: 999, Date: "2024-06-01", Time: "19:30", PartySize: 2}, apperr.ErrValidation},
		{"bad date", CreateInput{TableID: 100, Date: "01/06/2024", Time: "19:30", PartySize: 2}, apperr.ErrValidation},
		{"bad time", CreateInput{TableID: 100, Date: "2024-06-01", Time: "7pm", PartySize: 2}, apperr.ErrValidation},
		{"zero party", CreateInput{TableID: 100, Date: "2024-06-01", Time: "19:30", PartySize: 0}, apperr.ErrValidation},
		{"for another user", CreateInput{TableID: 100, Date: "2024-06-01", Time: "19:30", PartySize: 2, UserID: 2}, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, custC, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.events.Events())
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.events.Err = errors.New("broker down")
	b := f.book(t, custC, 100, "2024-06-01")
	assert.NotZero(t, b.ID)
}

func TestRetrieve_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, custC, 100, "2024-06-01")

	for _, p := range []model.Principal{custC, mgrM, adminA} {
		got, err := f.svc.Retrieve(ctx, p, b.ID)
		require.NoError(t, err, "principal %d", p.ID)
		assert.Equal(t, b.ID, got.ID)
	}
	for _, p := range []model.Principal{custD, mgrN} {
		_, err := f.svc.Retrieve(ctx, p, b.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound, "principal %d", p.ID)
	}
	_, err := f.svc.Retrieve(ctx, adminA, 12345)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_CustomerStatusRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, custC, 100, "2024-06-01")

	for _, s := range []string{"pending", "confirmed", "seated"} {
		_, err := f.svc.Update(ctx, custC, b.ID, model.BookingChanges{Status: strp(s)}, false)
		assert.ErrorIs(t, err, apperr.ErrValidation, s)
	}
	stored, _ := f.store.Snapshot(b.ID)
	assert.Equal(t, model.StatusConfirmed, stored.Status)

	got, err := f.svc.Update(ctx, custC, b.ID, model.BookingChanges{Status: strp("cancelled")}, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	evs := f.events.Events()
	assert.Equal(t, queue.EventBookingCancelled, evs[len(evs)-1].EventType)
}

func TestUpdate_Fields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, custC, 100, "2024-06-01")

	got, err := f.svc.Update(ctx, custC, b.ID, model.BookingChanges{Time: strp("20:15"), PartySize: intp(5)}, false)
	require.NoError(t, err)
	assert.Equal(t, "20:15:00", got.Time)
	assert.Equal(t, uint32(5), got.PartySize)
	assert.Equal(t, "2024-06-01", got.Date)

	_, err = f.svc.Update(ctx, custC, b.ID, model.BookingChanges{PartySize: intp(-1)}, false)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Update(ctx, custC, b.ID, model.BookingChanges{Date: strp("2024-06-03")}, true)
	assert.ErrorIs(t, err, apperr.ErrValidation, "PUT requires every editable field")

	got, err = f.svc.Update(ctx, custC, b.ID, model.BookingChanges{
		Date: strp("2024-06-03"), Time: strp("18:00:00"), PartySize: intp(3),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", got.Date)
}

func TestUpdate_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, custC, 100, "2024-06-01")
	ch := model.BookingChanges{PartySize: intp(3)}

	_, err := f.svc.Update(ctx, mgrM, b.ID, ch, false)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Update(ctx, adminA, b.ID, ch, false)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Update(ctx, custD, b.ID, ch, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Update(ctx, mgrN, b.ID, ch, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdate_NonCustomerOwnerTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeded := f.store.Put(model.Booking{
		UserID: adminA.ID, TableID: 100, RestaurantID: 10, ManagerID: 3,
		Date: "2024-06-01", Time: "19:00:00", PartySize: 2, Status: model.StatusPending,
	})

	got, err := f.svc.Update(ctx, adminA, seeded.ID, model.BookingChanges{Status: strp("confirmed")}, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)

	_, err = f.svc.Update(ctx, adminA, seeded.ID, model.BookingChanges{Status: strp("pending")}, false)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = f.svc.Update(ctx, adminA, seeded.ID, model.BookingChanges{Status: strp("cancelled")}, false)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, adminA, seeded.ID, model.BookingChanges{Status: strp("confirmed")}, false)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = f.svc.Update(ctx, adminA, seeded.ID, model.BookingChanges{PartySize: intp(4)}, false)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, custC, 100, "2024-06-01")

	_, err := f.svc.Cancel(ctx, mgrM, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Cancel(ctx, adminA, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := f.svc.Cancel(ctx, custC, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	before, _ := f.store.Snapshot(b.ID)
	_, err = f.svc.Cancel(ctx, custC, b.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	after, _ := f.store.Snapshot(b.ID)
	assert.Equal(t, before, after)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, custC, 100, "2024-06-01")

	_, err := f.svc.Delete(ctx, mgrM, b.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.Delete(ctx, custD, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := f.svc.Delete(ctx, custC, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	_, ok := f.store.Snapshot(b.ID)
	assert.True(t, ok, "bookings are never physically deleted")
}

func TestConcurrentCancel_OnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t, custC, 100, "2024-06-01")

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Cancel(ctx, custC, b.ID)
		}(i)
	}
	wg.Wait()
	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	}
	assert.Equal(t, 1, ok)
}

func TestLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, custC, 100, "2024-06-01")
	f.book(t, custC, 200, "2024-06-02")
	f.book(t, custD, 100, "2024-06-01")
	f.book(t, custD, 200, "2024-06-01")

	mine, err := f.svc.ListForUser(ctx, custC)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := f.svc.ListForRestaurant(ctx, adminA, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.ListForRestaurant(ctx, custC, 10)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	foreign, err := f.svc.ListForRestaurant(ctx, mgrN, 10)
	require.NoError(t, err)
	assert.Empty(t, foreign)

	_, err = f.svc.ListForRestaurant(ctx, adminA, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	todayM, err := f.svc.ListToday(ctx, mgrM)
	require.NoError(t, err)
	require.Len(t, todayM, 2)
	for _, b := range todayM {
		assert.Equal(t, "2024-06-01", b.Date)
		assert.Equal(t, mgrM.ID, b.ManagerID)
	}

	todayAdmin, err := f.svc.ListToday(ctx, adminA)
	require.NoError(t, err)
	assert.Len(t, todayAdmin, 3)

	todayC, err := f.svc.ListToday(ctx, custC)
	require.NoError(t, err)
	assert.Len(t, todayC, 1)
	assert.GreaterOrEqual(t, len(todayAdmin), len(todayC))
}

func TestToday_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	late := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	svc := NewService(bookingtest.NewStore(), bookingtest.NewCatalog(),
		WithClock(func() time.Time { return late }), WithLocation(tokyo))
	assert.Equal(t, "2024-06-02", svc.Today())
}

func TestScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := f.book(t, custC, tableT.ID, "2024-06-01")

	_, err := f.svc.Retrieve(ctx, custC, b.ID)
	require.NoError(t, err)

	listed, err := f.svc.ListForRestaurant(ctx, mgrM, tableT.RestaurantID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, b.ID, listed[0].ID)

	_, err = f.svc.Retrieve(ctx, custD, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Update(ctx, mgrM, b.ID, model.BookingChanges{Status: strp("confirmed")}, false)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.svc.Cancel(ctx, custC, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	_, err = f.svc.Cancel(ctx, custC, b.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(model.StatusPending, model.StatusConfirmed))
	assert.True(t, CanTransition(model.StatusPending, model.StatusCancelled))
	assert.True(t, CanTransition(model.StatusConfirmed, model.StatusCancelled))
	assert.False(t, CanTransition(model.StatusConfirmed, model.StatusPending))
	assert.False(t, CanTransition(model.StatusCancelled, model.StatusConfirmed))
	assert.False(t, CanTransition(model.StatusCancelled, model.StatusCancelled))
}
