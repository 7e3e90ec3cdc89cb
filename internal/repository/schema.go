package repository

import (
	"context"
	"fmt"
)

// The DDL is shared by sqlite3 and postgres; BIGINT keeps Telegram ids intact on both.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
		money INTEGER NOT NULL DEFAULT 0,
		streak INTEGER NOT NULL DEFAULT 0,
		event_cnt INTEGER NOT NULL DEFAULT 0,
		ref_cnt INTEGER NOT NULL DEFAULT 0,
		first_contact TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS events (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL DEFAULT '',
		time TEXT NOT NULL DEFAULT '',
		place TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'in_progress',
		winner_id BIGINT,
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS registrations (
		user_id BIGINT NOT NULL,
		event_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'reg',
		first_contact TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, event_name)
	);`,
	`CREATE TABLE IF NOT EXISTS ref_giveaways (
		user_id BIGINT NOT NULL,
		event_name TEXT NOT NULL,
		host_id BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, event_name)
	);`,
	`CREATE TABLE IF NOT EXISTS giveaway_hosts (
		user_id BIGINT NOT NULL,
		event_name TEXT NOT NULL,
		org_name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, event_name)
	);`,
	`CREATE TABLE IF NOT EXISTS reg_event_profiles (
		user_id BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		surname TEXT NOT NULL DEFAULT '',
		patronymic TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		organization TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS qr_codes (
		id TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		event_name TEXT NOT NULL,
		issued_at TIMESTAMP NOT NULL,
		used BOOLEAN NOT NULL DEFAULT FALSE
	);`,
	`CREATE TABLE IF NOT EXISTS face_control (
		user_id BIGINT PRIMARY KEY,
		granted_by BIGINT NOT NULL,
		granted_at TIMESTAMP NOT NULL
	);`,
}

// CreateTables creates every table used by the bot.
func (r *SQLStore) CreateTables(ctx context.Context) error {
	for _, ddl := range tables {
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
