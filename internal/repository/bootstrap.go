package repository

import (
	"context"
	"fmt"
)

// bootstrapStatements is the full schema: queue table, archive table, the
// result enum, and the trigger that NOTIFYs listeners on every insert with
// the new row's id as payload. Every statement is idempotent so the
// bootstrap can run against an existing database.
var bootstrapStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS messages`,

	`DO $$ BEGIN
		CREATE TYPE messages.message_status AS ENUM ('success', 'failed', 'rejected', 'lock_expired');
	EXCEPTION WHEN duplicate_object THEN
		NULL;
	END $$`,

	`CREATE TABLE IF NOT EXISTS messages.message (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
		message JSONB NOT NULL,
		lock_expires_at TIMESTAMP DEFAULT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS messages.message_archive (
		id SERIAL PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		archived_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
		message JSONB NOT NULL,
		result messages.message_status NOT NULL,
		handled_by VARCHAR(50) NOT NULL,
		details TEXT DEFAULT NULL
	)`,

	`CREATE OR REPLACE FUNCTION messages.notify_new_message() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('new_message', NEW.id::text);
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,

	`DROP TRIGGER IF EXISTS message_insert_notify ON messages.message`,

	`CREATE TRIGGER message_insert_notify
		AFTER INSERT ON messages.message
		FOR EACH ROW EXECUTE FUNCTION messages.notify_new_message()`,
}

// Bootstrap creates the messages schema, tables, enum and notify trigger.
func Bootstrap(ctx context.Context, db DB) error {
	for _, stmt := range bootstrapStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrapping schema: %w", err)
		}
	}
	return nil
}
