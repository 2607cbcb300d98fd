package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"apartment-tracker/models"
	"apartment-tracker/utils"
)

// PostgresStore persists the snapshot in a single table, replacing it inside
// one transaction so readers never observe a half-written snapshot.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// pings, runs schema migrations and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do(ctx, "postgres-ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshot_listings (
			position    INTEGER     PRIMARY KEY,
			listing_id  TEXT        NOT NULL DEFAULT '',
			title       TEXT        NOT NULL DEFAULT '',
			url         TEXT        NOT NULL DEFAULT '',
			address     TEXT        NOT NULL DEFAULT '',
			price       TEXT        NOT NULL DEFAULT '',
			size        TEXT        NOT NULL DEFAULT '',
			rooms       TEXT        NOT NULL DEFAULT '',
			captured_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snapshot_listings_id ON snapshot_listings(listing_id);
	`)
	return err
}

// Load returns the stored snapshot in its original order.
func (ps *PostgresStore) Load(ctx context.Context) (models.Snapshot, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT listing_id, title, url, address, price, size, rooms, captured_at
		FROM snapshot_listings
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load: %w", err)
	}
	defer rows.Close()

	snapshot := models.Snapshot{}
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.ID, &l.Title, &l.URL, &l.Address, &l.Price, &l.Size, &l.Rooms, &l.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		snapshot = append(snapshot, l)
	}
	return snapshot, rows.Err()
}

// Save replaces the stored snapshot. Duplicate and empty ids are kept as-is.
func (ps *PostgresStore) Save(ctx context.Context, snapshot models.Snapshot) (err error) {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM snapshot_listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(snapshot); i += batchSize {
		end := i + batchSize
		if end > len(snapshot) {
			end = len(snapshot)
		}
		if err = insertBatch(ctx, tx, i, snapshot[i:end]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, offset int, batch models.Snapshot) error {
	const cols = 9
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		valueArgs = append(valueArgs,
			offset+idx, l.ID, l.Title, l.URL, l.Address, l.Price, l.Size, l.Rooms, l.Timestamp)
	}

	query := fmt.Sprintf(`
		INSERT INTO snapshot_listings (position, listing_id, title, url, address, price, size, rooms, captured_at)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch at %d: %w", offset, err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
