package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/restaurant-booking/internal/apperr"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

var (
	customer = model.Principal{ID: 10, Role: model.RoleCustomer}
	other    = model.Principal{ID: 11, Role: model.RoleCustomer}
	manager  = model.Principal{ID: 20, Role: model.RoleManager}
	rival    = model.Principal{ID: 21, Role: model.RoleManager}
	admin    = model.Principal{ID: 30, Role: model.RoleAdmin}

	booked = model.Booking{
		ID: 1, UserID: 10, TableID: 5, RestaurantID: 3, ManagerID: 20,
		Date: "2024-06-01", Time: "19:30:00", PartySize: 2, Status: model.StatusConfirmed,
	}
)

func strp(s string) *string { return &s }

func TestCanCreate(t *testing.T) {
	assert.True(t, CanCreate(customer, customer.ID))
	assert.True(t, CanCreate(admin, admin.ID))
	assert.False(t, CanCreate(admin, customer.ID), "admins cannot book on behalf of others")
	assert.False(t, CanCreate(model.Principal{}, 0))
}

func TestCanReadDetail(t *testing.T) {
	tests := []struct {
		name string
		p    model.Principal
		want bool
	}{
		{"owner", customer, true},
		{"unrelated customer", other, false},
		{"restaurant manager", manager, true},
		{"manager of another restaurant", rival, false},
		{"admin", admin, true},
		{"anonymous", model.Principal{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanReadDetail(tt.p, booked))
		})
	}
}

func TestCanReadDetail_ManagerIDRequiresManagerRole(t *testing.T) {
	// a customer whose id happens to equal the restaurant manager id
	p := model.Principal{ID: 20, Role: model.RoleCustomer}
	assert.False(t, CanReadDetail(p, booked))
}

func TestCanMutateDetail(t *testing.T) {
	tests := []struct {
		name    string
		p       model.Principal
		ch      model.BookingChanges
		wantErr error
	}{
		{"owner changes date", customer, model.BookingChanges{Date: strp("2024-06-02")}, nil},
		{"owner cancels", customer, model.BookingChanges{Status: strp("cancelled")}, nil},
		{"owner customer confirms", customer, model.BookingChanges{Status: strp("confirmed")}, apperr.ErrValidation},
		{"owner customer sets pending", customer, model.BookingChanges{Status: strp("pending")}, apperr.ErrValidation},
		{"manager cannot mutate", manager, model.BookingChanges{Status: strp("cancelled")}, apperr.ErrForbidden},
		{"admin cannot mutate", admin, model.BookingChanges{Date: strp("2024-06-02")}, apperr.ErrForbidden},
		{"other customer", other, model.BookingChanges{}, apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMutateDetail(tt.p, booked, tt.ch)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanMutateDetail_NonCustomerOwnerMaySetAnyStatus(t *testing.T) {
	own := booked
	own.UserID = manager.ID
	assert.NoError(t, CanMutateDetail(manager, own, model.BookingChanges{Status: strp("pending")}))
}

func TestCanCancel(t *testing.T) {
	assert.NoError(t, CanCancel(customer, booked))
	assert.ErrorIs(t, CanCancel(manager, booked), apperr.ErrForbidden)
	assert.ErrorIs(t, CanCancel(admin, booked), apperr.ErrForbidden)

	cancelled := booked
	cancelled.Status = model.StatusCancelled
	assert.ErrorIs(t, CanCancel(customer, cancelled), apperr.ErrInvalidState)
}

func TestScopeList(t *testing.T) {
	f := Filter{RestaurantID: 3, Date: "2024-06-01"}
	assert.Equal(t, Scope{RestaurantID: 3, Date: "2024-06-01"}, ScopeList(admin, f))
	assert.Equal(t, Scope{ManagerID: 20, RestaurantID: 3, Date: "2024-06-01"}, ScopeList(manager, f))
	assert.Equal(t, Scope{OwnerID: 10, RestaurantID: 3, Date: "2024-06-01"}, ScopeList(customer, f))

	unknownRole := model.Principal{ID: 40, Role: model.ParseRole("waiter")}
	assert.Equal(t, Scope{OwnerID: 40}, ScopeList(unknownRole, Filter{}))

	assert.True(t, ScopeList(model.Principal{Role: model.RoleAdmin}, Filter{}).Deny)
	assert.True(t, OwnedBy(model.Principal{}).Deny)
}

func TestScopeMatches(t *testing.T) {
	rows := []model.Booking{
		booked,
		{ID: 2, UserID: 11, RestaurantID: 3, ManagerID: 20, Date: "2024-06-01"},
		{ID: 3, UserID: 10, RestaurantID: 4, ManagerID: 21, Date: "2024-06-02"},
	}
	count := func(s Scope) int {
		n := 0
		for _, b := range rows {
			if s.Matches(b) {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 3, count(ScopeList(admin, Filter{})))
	assert.Equal(t, 2, count(ScopeList(customer, Filter{})))
	assert.Equal(t, 2, count(ScopeList(manager, Filter{})))
	assert.Equal(t, 1, count(ScopeList(rival, Filter{})))
	assert.Equal(t, 1, count(ScopeList(customer, Filter{Date: "2024-06-02"})))
	assert.Equal(t, 2, count(ScopeList(admin, Filter{RestaurantID: 3})))
	assert.Equal(t, 1, count(ScopeList(admin, Filter{}).WithBooking(2)))
	assert.Equal(t, 0, count(ScopeList(customer, Filter{}).WithBooking(2)))
	assert.Equal(t, 0, count(Scope{Deny: true}))
}
