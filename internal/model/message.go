package model

import "time"

// Message is a single row in the active queue. Payload is the raw JSONB
// value; it is only parsed inside the processing engine.
type Message struct {
	ID            int64      `db:"id"`
	CreatedAt     time.Time  `db:"created_at"`
	Payload       []byte     `db:"message"`
	LockExpiresAt *time.Time `db:"lock_expires_at"` // nil means unclaimed
}

// MessageArchive is the permanent record of a message's terminal outcome.
// It carries its own identity; the originating queue row is gone by the
// time this row exists.
type MessageArchive struct {
	ID         int64     `db:"id"`
	CreatedAt  time.Time `db:"created_at"` // copied from the originating message
	ArchivedAt time.Time `db:"archived_at"`
	Payload    []byte    `db:"message"`
	Result     Result    `db:"result"`
	HandledBy  string    `db:"handled_by"`
	Details    *string   `db:"details"`
}
