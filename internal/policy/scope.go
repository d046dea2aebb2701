package policy

import "github.com/iliyamo/restaurant-booking/internal/model"

// Filter is the caller-supplied part of a list query.
type Filter struct {
	RestaurantID uint64 // 0 means any restaurant
	Date         string // YYYY-MM-DD; empty means any date
}

// Scope is the full predicate a booking query must satisfy: the caller's
// filter plus the ownership restriction implied by the caller's role. Zero
// fields are unconstrained. The repository renders a Scope to SQL; Matches
// evaluates the same predicate in memory.
type Scope struct {
	BookingID    uint64
	OwnerID      uint64
	ManagerID    uint64
	RestaurantID uint64
	Date         string
	// Deny matches nothing. It is set for principals without an id so
	// that a zero OwnerID can never widen a query to every booking.
	Deny bool
}

// ScopeList returns the predicate for a list query by p.
//
//	admin              -> filter only
//	restaurant_manager -> filter + table's restaurant managed by p
//	customer / other   -> filter + booking owned by p
func ScopeList(p model.Principal, f Filter) Scope {
	if p.ID == 0 {
		return Scope{Deny: true}
	}
	s := Scope{RestaurantID: f.RestaurantID, Date: f.Date}
	switch p.Role {
	case model.RoleAdmin:
	case model.RoleManager:
		s.ManagerID = p.ID
	default:
		s.OwnerID = p.ID
	}
	return s
}

// OwnedBy returns the scope of bookings owned by p regardless of role.
func OwnedBy(p model.Principal) Scope {
	if p.ID == 0 {
		return Scope{Deny: true}
	}
	return Scope{OwnerID: p.ID}
}

// WithBooking narrows s to a single booking id.
func (s Scope) WithBooking(id uint64) Scope {
	s.BookingID = id
	return s
}

// Matches reports whether b satisfies s.
func (s Scope) Matches(b model.Booking) bool {
	if s.Deny {
		return false
	}
	if s.BookingID != 0 && b.ID != s.BookingID {
		return false
	}
	if s.OwnerID != 0 && b.UserID != s.OwnerID {
		return false
	}
	if s.ManagerID != 0 && b.ManagerID != s.ManagerID {
		return false
	}
	if s.RestaurantID != 0 && b.RestaurantID != s.RestaurantID {
		return false
	}
	if s.Date != "" && b.Date != s.Date {
		return false
	}
	return true
}
