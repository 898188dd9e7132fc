package tables

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store caches fetched table payloads in the local goose-managed SQLite
// store so reporting runs never depend on upstream availability.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Put caches one fetched table.
func (s *Store) Put(ctx context.Context, desc Descriptor, table *RawTable) error {
	payload, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode table payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO table_cache (internal_file_name, short_name, full_name, source_url, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (internal_file_name) DO UPDATE SET
			short_name = excluded.short_name,
			full_name = excluded.full_name,
			source_url = excluded.source_url,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		desc.InternalFileName, desc.ShortName, desc.TableFullName, desc.URL, payload, time.Now())
	if err != nil {
		return fmt.Errorf("failed to cache table %s: %w", desc.InternalFileName, err)
	}

	s.logger.Debug().Str("table", desc.InternalFileName).Int("songs", len(table.Songs)).Msg("table cached")
	return nil
}

// Get returns one cached table, or sql.ErrNoRows when never fetched.
func (s *Store) Get(ctx context.Context, internalFileName string) (*RawTable, time.Time, error) {
	var payload []byte
	var fetchedAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, fetched_at FROM table_cache WHERE internal_file_name = ?",
		internalFileName).Scan(&payload, &fetchedAt)
	if err != nil {
		return nil, time.Time{}, err
	}

	var table RawTable
	if err := json.Unmarshal(payload, &table); err != nil {
		return nil, time.Time{}, fmt.Errorf("cached table %s is corrupt: %w", internalFileName, err)
	}
	return &table, fetchedAt, nil
}

// List returns the descriptors of every cached table.
func (s *Store) List(ctx context.Context) ([]Descriptor, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT internal_file_name, short_name, full_name, source_url FROM table_cache ORDER BY internal_file_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Descriptor
	for rows.Next() {
		var d Descriptor
		if err := rows.Scan(&d.InternalFileName, &d.ShortName, &d.TableFullName, &d.URL); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
