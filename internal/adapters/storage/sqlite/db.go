package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // driver sqlite en Go puro
)

const schema = `
CREATE TABLE IF NOT EXISTS pet_records (
    id                 INTEGER PRIMARY KEY,
    name               TEXT NOT NULL DEFAULT '',
    breed              TEXT NOT NULL DEFAULT '',
    sex                TEXT NOT NULL DEFAULT '',
    date_of_birth      TEXT NOT NULL DEFAULT '',
    image_url          TEXT NOT NULL DEFAULT '',
    created_at_ns      INTEGER NOT NULL,
    updated_at_ns      INTEGER NULL,
    transfer_to        TEXT NULL,
    owner_id           TEXT NOT NULL,
    owner_name         TEXT NOT NULL DEFAULT '',
    owner_address      TEXT NOT NULL DEFAULT '',
    owner_phone_number TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ownership_index (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    collection TEXT NOT NULL,
    identity   TEXT NOT NULL,
    pet_id     INTEGER NOT NULL,
    UNIQUE (collection, identity, pet_id)
);

CREATE TABLE IF NOT EXISTS registry_counter (
    name  TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);
`

// Open abre (o crea) el archivo SQLite y asegura el schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "pet-registry.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializa escrituras; una sola conexión evita SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return db, nil
}
