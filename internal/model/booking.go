package model

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
    StatusPending   Status = "pending"
    StatusConfirmed Status = "confirmed"
    StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
    switch s {
    case StatusPending, StatusConfirmed, StatusCancelled:
        return true
    }
    return false
}

// Booking records a user's reservation of a restaurant table.
// RestaurantID and ManagerID are derived from the catalog when the row is
// read; they are never written to the bookings table.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – user who owns the booking.
//  TableID      – booked table.
//  RestaurantID – restaurant of the table (derived).
//  ManagerID    – manager of that restaurant (derived).
//  Date         – booking date, YYYY-MM-DD.
//  Time         – booking time of day, HH:MM:SS.
//  PartySize    – number of guests.
//  Status       – pending, confirmed or cancelled.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Booking struct {
    ID           uint64    // bookings.id
    UserID       uint64    // bookings.user_id
    TableID      uint64    // bookings.table_id
    RestaurantID uint64    // restaurant_tables.restaurant_id
    ManagerID    uint64    // restaurants.manager_id
    Date         string    // bookings.date
    Time         string    // bookings.time
    PartySize    uint32    // bookings.party_size
    Status       Status    // bookings.status
    CreatedAt    time.Time // bookings.created_at
    UpdatedAt    time.Time // bookings.updated_at
}

// BookingChanges carries the fields a caller asked to modify. A nil
// pointer means the field was not part of the request.
type BookingChanges struct {
    Date      *string
    Time      *string
    PartySize *int
    Status    *string
}

// HasStatus reports whether the request touches the status field.
func (c BookingChanges) HasStatus() bool { return c.Status != nil }
