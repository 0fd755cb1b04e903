// Package pgnotify wraps Postgres LISTEN/NOTIFY on a dedicated connection.
// Delivery is at-least-once: a notification may be duplicated, delayed, or
// describe a message that has already been claimed and deleted, so every
// notification is only a hint to attempt a claim.
package pgnotify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Listener subscribes a single pgx connection to one channel. The same
// connection stays usable for queries between Wait calls; pgx buffers
// notifications that arrive mid-query.
type Listener struct {
	conn    *pgx.Conn
	channel string
}

func New(conn *pgx.Conn, channel string) *Listener {
	return &Listener{conn: conn, channel: channel}
}

// Channel returns the channel name this listener is registered for.
func (l *Listener) Channel() string { return l.channel }

// Listen registers the subscription. Must be called once before Wait.
func (l *Listener) Listen(ctx context.Context) error {
	_, err := l.conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize())
	if err != nil {
		return fmt.Errorf("listening on channel %q: %w", l.channel, err)
	}
	return nil
}

// Wait blocks until the next notification arrives or ctx is done.
func (l *Listener) Wait(ctx context.Context) (*pgconn.Notification, error) {
	n, err := l.conn.WaitForNotification(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for notification: %w", err)
	}
	return n, nil
}

// Notify sends a payload on the given channel. Producers normally never
// call this directly: the insert trigger does. It exists for tests and
// ad-hoc poking.
func Notify(ctx context.Context, conn *pgx.Conn, channel, payload string) error {
	if _, err := conn.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload); err != nil {
		return fmt.Errorf("notifying channel %q: %w", channel, err)
	}
	return nil
}
