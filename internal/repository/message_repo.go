package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pgmq/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgx used by the repository. Both *pgx.Conn (the
// worker's single persistent connection) and *pgxpool.Pool satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// MessageRepository owns every mutation of the queue tables. A message row
// is only ever touched through Claim (to acquire) and Archive (to consume).
type MessageRepository interface {
	// Enqueue inserts a new message. The NOTIFY fires from a database
	// trigger, not from here, so producers and consumers stay decoupled.
	Enqueue(ctx context.Context, payload []byte) (*model.Message, error)
	// Claim atomically locks the message for lockDuration and returns it.
	// A nil message (with nil error) means another consumer holds a live
	// lock or the row no longer exists; callers must treat that as
	// "nothing to do", not as a fault.
	Claim(ctx context.Context, id int64, lockDuration time.Duration) (*model.Message, error)
	// Archive deletes the message row and inserts the archive record in a
	// single transaction.
	Archive(ctx context.Context, msg *model.Message, outcome model.Outcome, handledBy string) (*model.MessageArchive, error)
}

type messageRepo struct {
	db DB
}

func NewMessageRepo(db DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Enqueue(ctx context.Context, payload []byte) (*model.Message, error) {
	const q = `
		INSERT INTO messages.message (message)
		VALUES ($1::jsonb)
		RETURNING id, created_at, message, lock_expires_at
	`
	var m model.Message
	err := r.db.QueryRow(ctx, q, string(payload)).Scan(
		&m.ID,
		&m.CreatedAt,
		&m.Payload,
		&m.LockExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("enqueueing message: %w", err)
	}
	return &m, nil
}

// Claim is the single conditional update that makes concurrent claim
// attempts race safely: the WHERE clause and the SET are one statement, so
// the database applies exactly one winner and every loser matches no row.
// An expired lock (lock_expires_at in the past) counts as unclaimed.
func (r *messageRepo) Claim(ctx context.Context, id int64, lockDuration time.Duration) (*model.Message, error) {
	const q = `
		UPDATE messages.message
		SET lock_expires_at = CURRENT_TIMESTAMP + make_interval(secs => $2)
		WHERE
			id = $1
			AND (lock_expires_at IS NULL OR lock_expires_at < CURRENT_TIMESTAMP)
		RETURNING id, created_at, message, lock_expires_at
	`
	var m model.Message
	err := r.db.QueryRow(ctx, q, id, lockDuration.Seconds()).Scan(
		&m.ID,
		&m.CreatedAt,
		&m.Payload,
		&m.LockExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already locked, or already archived and deleted.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claiming message %d: %w", id, err)
	}
	return &m, nil
}

func (r *messageRepo) Archive(ctx context.Context, msg *model.Message, outcome model.Outcome, handledBy string) (*model.MessageArchive, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning archive tx for message %d: %w", msg.ID, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages.message WHERE id = $1`, msg.ID); err != nil {
		return nil, fmt.Errorf("deleting message %d: %w", msg.ID, err)
	}

	const q = `
		INSERT INTO messages.message_archive (created_at, message, result, handled_by, details)
		VALUES ($1, $2::jsonb, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at, archived_at, message, result, handled_by, details
	`
	var a model.MessageArchive
	err = tx.QueryRow(ctx, q,
		msg.CreatedAt,
		string(msg.Payload),
		string(outcome.Result),
		handledBy,
		outcome.Details,
	).Scan(
		&a.ID,
		&a.CreatedAt,
		&a.ArchivedAt,
		&a.Payload,
		&a.Result,
		&a.HandledBy,
		&a.Details,
	)
	if err != nil {
		return nil, fmt.Errorf("archiving message %d: %w", msg.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing archive tx for message %d: %w", msg.ID, err)
	}
	return &a, nil
}
