package tables

import (
	"context"
	"database/sql"
	"testing"

	"lampview/internal/config"
	"lampview/internal/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openCacheStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE table_cache (
		internal_file_name TEXT PRIMARY KEY,
		short_name         TEXT NOT NULL DEFAULT '',
		full_name          TEXT NOT NULL DEFAULT '',
		source_url         TEXT NOT NULL DEFAULT '',
		payload            BLOB NOT NULL,
		fetched_at         TIMESTAMP NOT NULL
	)`)
	require.NoError(t, err)

	return NewStore(db, zerolog.Nop())
}

func TestRefreshSkipsFreshlyCachedTables(t *testing.T) {
	store := openCacheStore(t)

	desc := Descriptor{InternalFileName: "satellite", ShortName: "sl", URL: "http://unreachable.invalid/score.json"}
	table := &RawTable{ShortName: "sl", Songs: []domain.TableSong{{Md5: "m1", Title: "Alpha", Level: "1"}}}
	require.NoError(t, store.Put(context.Background(), desc, table))

	// a nil fetcher would panic on any fetch attempt; a clean pass proves
	// the fresh cache entry was skipped
	svc := NewService(&config.Config{}, nil, store, zerolog.Nop())
	require.NoError(t, svc.Refresh(context.Background()))

	cached, _, err := store.Get(context.Background(), "satellite")
	require.NoError(t, err)
	assert.Len(t, cached.Songs, 1)
}
