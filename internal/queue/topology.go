package queue

import (
    "fmt"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Broker topology. Events go to a durable topic exchange keyed by event
// type; the notifier's queue receives every booking.* event.
const (
    Exchange          = "bookings"
    NotificationQueue = "booking.notifications"
    BindingKey        = "booking.*"
)

// Declare idempotently creates the exchange, the notification queue and
// the binding between them.
func Declare(ch *amqp.Channel) error {
    if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
        return fmt.Errorf("exchange declare: %w", err)
    }
    if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    if err := ch.QueueBind(NotificationQueue, BindingKey, Exchange, false, nil); err != nil {
        return fmt.Errorf("queue bind: %w", err)
    }
    return nil
}
