package db

import (
	"context"
	"database/sql"

	"github.com/charmbracelet/log"
)

type table struct {
	name     string
	sqlite   string
	postgres string
}

var tables = []table{
	{
		name: "profiles",
		sqlite: `CREATE TABLE IF NOT EXISTS profiles (
		id TEXT NOT NULL PRIMARY KEY,
		handle TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		bio TEXT DEFAULT '',
		following TEXT NOT NULL DEFAULT '[]',
		followers TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
		postgres: `CREATE TABLE IF NOT EXISTS profiles (
		id TEXT NOT NULL PRIMARY KEY,
		handle TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		bio TEXT DEFAULT '',
		following TEXT NOT NULL DEFAULT '[]',
		followers TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	},
	{
		name: "posts",
		sqlite: `CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		handle TEXT NOT NULL,
		display_name TEXT NOT NULL,
		content TEXT NOT NULL,
		likes TEXT NOT NULL DEFAULT '[]',
		reposts TEXT NOT NULL DEFAULT '[]',
		replies TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
		postgres: `CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		handle TEXT NOT NULL,
		display_name TEXT NOT NULL,
		content TEXT NOT NULL,
		likes TEXT NOT NULL DEFAULT '[]',
		reposts TEXT NOT NULL DEFAULT '[]',
		replies TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	},
	{
		name: "devices",
		sqlite: `CREATE TABLE IF NOT EXISTS devices (
		key_hash TEXT NOT NULL PRIMARY KEY,
		device_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
		postgres: `CREATE TABLE IF NOT EXISTS devices (
		key_hash TEXT NOT NULL PRIMARY KEY,
		device_id TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	},
}

// same syntax on both drivers
var indices = []string{
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_handle ON posts(handle)`,
	`CREATE INDEX IF NOT EXISTS idx_profiles_created_at ON profiles(created_at)`,
}

// RunMigrations creates the schema for the configured driver.
func (db *DB) RunMigrations(ctx context.Context) error {
	return db.wrapTransaction(ctx, func(tx *sql.Tx) error {
		for _, t := range tables {
			createSQL := t.sqlite
			if db.driver == DriverPostgres {
				createSQL = t.postgres
			}
			if err := db.createTableIfNotExists(ctx, tx, createSQL, t.name); err != nil {
				return err
			}
		}

		for _, idx := range indices {
			if _, err := tx.ExecContext(ctx, idx); err != nil {
				log.Warn("failed to create index", "sql", idx, "err", err)
			}
		}

		return nil
	})
}

func (db *DB) createTableIfNotExists(ctx context.Context, tx *sql.Tx, createSQL string, tableName string) error {
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		log.Error("error creating table", "table", tableName, "err", err)
		return err
	}
	log.Debug("table created or already exists", "table", tableName)
	return nil
}
