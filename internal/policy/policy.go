// Package policy decides who may create, read, mutate and cancel a
// booking and which bookings a list query may return. Every function is a
// pure decision over the supplied principal and booking; nothing here
// touches storage.
package policy

import (
	"fmt"

	"github.com/iliyamo/restaurant-booking/internal/apperr"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

// CanCreate reports whether p may create a booking owned by ownerID. Any
// authenticated principal may book for themselves and never for anyone
// else.
func CanCreate(p model.Principal, ownerID uint64) bool {
	return p.ID != 0 && p.ID == ownerID
}

func isOwner(p model.Principal, b model.Booking) bool {
	return p.ID != 0 && b.UserID == p.ID
}

func isRestaurantManager(p model.Principal, b model.Booking) bool {
	return p.Role == model.RoleManager && p.ID != 0 && b.ManagerID == p.ID
}

// CanReadDetail reports whether p may see b.
func CanReadDetail(p model.Principal, b model.Booking) bool {
	if p.Role == model.RoleAdmin {
		return true
	}
	return isOwner(p, b) || isRestaurantManager(p, b)
}

// CanMutateDetail checks an update or delete on the detail surface.
// Ownership is strict: managers and admins may read a booking but not
// change it. A customer may only move the status to cancelled.
func CanMutateDetail(p model.Principal, b model.Booking, ch model.BookingChanges) error {
	if !isOwner(p, b) {
		return apperr.ErrForbidden
	}
	if ch.HasStatus() && p.Role == model.RoleCustomer {
		if model.Status(*ch.Status) != model.StatusCancelled {
			return fmt.Errorf("%w: you can only cancel a booking, not change its status to anything else", apperr.ErrValidation)
		}
	}
	return nil
}

// CanCancel checks the dedicated cancel operation. Only the owner may
// cancel, and a booking that is already cancelled cannot be cancelled
// again.
func CanCancel(p model.Principal, b model.Booking) error {
	if !isOwner(p, b) {
		return apperr.ErrForbidden
	}
	if b.Status == model.StatusCancelled {
		return fmt.Errorf("%w: this booking is already cancelled", apperr.ErrInvalidState)
	}
	return nil
}
