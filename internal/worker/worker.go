// Package worker runs the claim/process/archive loop of the queue. One
// worker holds one database connection for its lifetime and processes one
// message at a time; exclusivity across multiple worker processes comes
// entirely from the claim update's atomicity.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pgmq/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// MessageStore is the subset of the repository the worker needs: acquire
// via Claim, consume via Archive.
type MessageStore interface {
	Claim(ctx context.Context, id int64, lockDuration time.Duration) (*model.Message, error)
	Archive(ctx context.Context, msg *model.Message, outcome model.Outcome, handledBy string) (*model.MessageArchive, error)
}

// Notifier delivers wake-up signals. Notifications are at-least-once hints:
// duplicated or stale deliveries are normal and resolve as lost claims.
type Notifier interface {
	Wait(ctx context.Context) (*pgconn.Notification, error)
}

type Worker struct {
	store         MessageStore
	engine        Engine
	notifications Notifier
	channel       string
	lockDuration  time.Duration
	handledBy     string
	logger        zerolog.Logger
}

func New(store MessageStore, engine Engine, notifications Notifier, channel string, lockDuration time.Duration, handledBy string, logger zerolog.Logger) *Worker {
	return &Worker{
		store:         store,
		engine:        engine,
		notifications: notifications,
		channel:       channel,
		lockDuration:  lockDuration,
		handledBy:     handledBy,
		logger:        logger,
	}
}

// Run blocks on the notification channel until ctx is cancelled. It returns
// nil on cancellation and an error only for unrecoverable faults: a broken
// notifier, or a notification arriving on a channel this worker never
// subscribed to (a contract violation, since the subscription is registered
// for exactly one channel).
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("channel", w.channel).Msg("waiting for messages")
	for {
		n, err := w.notifications.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info().Msg("shutting down worker")
				return nil
			}
			return err
		}
		if n.Channel != w.channel {
			return fmt.Errorf("notification on unexpected channel %q, subscribed to %q", n.Channel, w.channel)
		}
		w.logger.Info().Str("payload", n.Payload).Msg("notify received")

		id, err := parseMessageID(n.Payload)
		if err != nil {
			// Fatal to this notification only, never to the loop.
			w.logger.Error().Err(err).Str("payload", n.Payload).Msg("malformed notification payload")
			continue
		}

		if err := w.handle(ctx, id); err != nil {
			if ctx.Err() != nil {
				w.logger.Info().Msg("shutting down worker")
				return nil
			}
			// Storage faults abort the current message; the loop keeps
			// serving notifications. Connection loss surfaces on the
			// next Wait and ends the loop above.
			w.logger.Error().Err(err).Int64("message_id", id).Msg("handling message")
		}
	}
}

// parseMessageID parses a notification payload, which must be the decimal
// form of a positive message id.
func parseMessageID(payload string) (int64, error) {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected payload to contain only an integer message id, got %q: %w", payload, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("expected a positive message id, got %d", id)
	}
	return id, nil
}

func (w *Worker) handle(ctx context.Context, id int64) error {
	msg, err := w.store.Claim(ctx, id, w.lockDuration)
	if err != nil {
		return err
	}
	if msg == nil {
		// Another consumer won the race, or the message is already
		// archived. Expected contention.
		w.logger.Debug().Int64("message_id", id).Msg("could not claim message (probably locked)")
		return nil
	}
	if msg.LockExpiresAt == nil {
		return fmt.Errorf("claimed message %d has no lock expiry", msg.ID)
	}
	w.logger.Info().
		Int64("message_id", msg.ID).
		Time("lock_expires_at", *msg.LockExpiresAt).
		Msgf("message claimed: %s", msg.Payload)

	outcome := w.process(ctx, msg)

	archive, err := w.store.Archive(ctx, msg, outcome, w.handledBy)
	if err != nil {
		return err
	}
	w.logger.Info().
		Int64("message_id", msg.ID).
		Int64("archive_id", archive.ID).
		Str("result", string(archive.Result)).
		Msg("message archived")
	return nil
}

// process runs the engine under a deadline equal to the time remaining on
// the claim. The engine runs in its own goroutine and the guard selects on
// the deadline, so the worker unblocks on time even against an engine that
// ignores cancellation; a late result is discarded. Engine panics and
// errors both become failed outcomes.
func (w *Worker) process(ctx context.Context, msg *model.Message) model.Outcome {
	remaining := time.Until(*msg.LockExpiresAt)
	if remaining <= 0 {
		// The claim was void before any work started; archive it as such
		// without invoking the engine.
		w.logger.Error().
			Int64("message_id", msg.ID).
			Time("lock_expires_at", *msg.LockExpiresAt).
			Msg("lock expired before work could begin")
		return model.Outcome{Result: model.ResultLockExpired, Details: "lock expired before work could begin"}
	}

	procCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	type engineReturn struct {
		outcome model.Outcome
		err     error
	}
	done := make(chan engineReturn, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- engineReturn{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		outcome, err := w.engine.Process(procCtx, msg.Payload)
		done <- engineReturn{outcome: outcome, err: err}
	}()

	select {
	case ret := <-done:
		if ret.err != nil {
			w.logger.Error().Err(ret.err).Int64("message_id", msg.ID).Msg("unhandled processing fault")
			return model.Outcome{Result: model.ResultFailed, Details: fmt.Sprintf("unhandled fault: %v", ret.err)}
		}
		w.logger.Info().Int64("message_id", msg.ID).Msg("work complete")
		return ret.outcome
	case <-procCtx.Done():
		w.logger.Error().Int64("message_id", msg.ID).Dur("deadline", remaining).Msg("processing timed out")
		return model.Outcome{Result: model.ResultFailed, Details: "timed out"}
	}
}
