// Package publisher delivers booking events to RabbitMQ.
package publisher

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/restaurant-booking/internal/queue"
)

// DefaultTimeout bounds a single Publish, including any reconnect.
const DefaultTimeout = 2 * time.Second

// AMQP publishes events on the bookings exchange. The connection is opened
// lazily and reopened after any failure, so a broker outage only costs the
// events published while it lasts.
//
// Publish never waits longer than its context allows, or Timeout when that
// is shorter. At most one dial is in flight; other callers wait for it
// until their own deadline.
type AMQP struct {
    url     string
    Timeout time.Duration

    mu      sync.Mutex
    conn    *amqp.Connection
    ch      *amqp.Channel
    dialing chan struct{} // closed when the in-flight dial finishes
}

// New returns a publisher for url. No connection is made until the first
// Publish.
func New(url string) *AMQP { return &AMQP{url: url, Timeout: DefaultTimeout} }

// Publish sends ev as a persistent JSON message routed by its event type.
func (p *AMQP) Publish(ctx context.Context, ev queue.BookingEvent) error {
    msg, err := publishing(ev)
    if err != nil {
        return err
    }
    if p.Timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, p.Timeout)
        defer cancel()
    }
    ch, err := p.channel(ctx)
    if err != nil {
        return err
    }
    if err := ch.PublishWithContext(ctx, queue.Exchange, ev.EventType, false, false, msg); err != nil {
        p.drop(ch)
        return fmt.Errorf("publish %s: %w", ev.EventType, err)
    }
    return nil
}

// Close releases the broker connection.
func (p *AMQP) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.conn == nil {
        return nil
    }
    err := p.conn.Close()
    p.conn, p.ch = nil, nil
    if errors.Is(err, amqp.ErrClosed) {
        return nil
    }
    return err
}

// channel returns an open channel, dialling when there is none. The lock
// is never held while talking to the broker.
func (p *AMQP) channel(ctx context.Context) (*amqp.Channel, error) {
    for {
        p.mu.Lock()
        if p.ch != nil && !p.ch.IsClosed() {
            ch := p.ch
            p.mu.Unlock()
            return ch, nil
        }
        if wait := p.dialing; wait != nil {
            p.mu.Unlock()
            select {
            case <-wait:
                continue
            case <-ctx.Done():
                return nil, fmt.Errorf("dial: %w", ctx.Err())
            }
        }
        p.resetLocked()
        done := make(chan struct{})
        p.dialing = done
        p.mu.Unlock()

        conn, ch, err := connect(ctx, p.url)

        p.mu.Lock()
        p.dialing = nil
        close(done)
        if err == nil {
            p.conn, p.ch = conn, ch
        }
        p.mu.Unlock()
        if err != nil {
            return nil, err
        }
        return ch, nil
    }
}

func connect(ctx context.Context, url string) (*amqp.Connection, *amqp.Channel, error) {
    var (
        raw  net.Conn
        stop func() bool
    )
    dial := func(network, addr string) (net.Conn, error) {
        d := net.Dialer{}
        conn, err := d.DialContext(ctx, network, addr)
        if err != nil {
            return nil, err
        }
        raw = conn
        // the client clears this deadline once the handshake completes
        if deadline, ok := ctx.Deadline(); ok {
            if err := conn.SetDeadline(deadline); err != nil {
                _ = conn.Close()
                return nil, err
            }
        }
        stop = context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
        return conn, nil
    }
    conn, err := amqp.DialConfig(url, amqp.Config{
        Dial:      dial,
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
    })
    if err != nil {
        if stop != nil {
            stop()
            _ = raw.Close()
        }
        return nil, nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err == nil {
        err = queue.Declare(ch)
    }
    // ctx stays armed until the topology is declared
    if !stop() && err == nil {
        err = ctx.Err()
    }
    if err != nil {
        _ = conn.Close()
        return nil, nil, fmt.Errorf("channel setup: %w", err)
    }
    return conn, ch, nil
}

// drop discards ch if it is still the current channel.
func (p *AMQP) drop(ch *amqp.Channel) {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch == ch {
        p.resetLocked()
    }
}

func (p *AMQP) resetLocked() {
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

func publishing(ev queue.BookingEvent) (amqp.Publishing, error) {
    if ev.EventType == "" {
        return amqp.Publishing{}, errors.New("event type is required")
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return amqp.Publishing{}, err
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.EventID,
        Type:         ev.EventType,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }, nil
}
