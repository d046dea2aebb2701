// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// Event types published on the bookings exchange. The event type doubles
// as the routing key.
const (
    EventBookingCreated   = "booking.created"
    EventBookingUpdated   = "booking.updated"
    EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking change is committed. It carries
// a snapshot of the booking so downstream consumers (confirmation mail,
// SMS, analytics) do not have to query the primary database.
type BookingEvent struct {
    EventID      string `json:"event_id"`
    EventType    string `json:"event_type"`
    BookingID    uint64 `json:"booking_id"`
    UserID       uint64 `json:"user_id"`
    ActorID      uint64 `json:"actor_id"`
    TableID      uint64 `json:"table_id"`
    RestaurantID uint64 `json:"restaurant_id"`
    Date         string `json:"date"`
    Time         string `json:"time"`
    PartySize    uint32 `json:"party_size"`
    Status       string `json:"status"`
    OccurredAt   string `json:"occurred_at"`
}

// NewBookingEvent fills the envelope fields of a BookingEvent.
func NewBookingEvent(eventType string, at time.Time) BookingEvent {
    return BookingEvent{
        EventID:    uuid.NewString(),
        EventType:  eventType,
        OccurredAt: at.UTC().Format(time.RFC3339),
    }
}
