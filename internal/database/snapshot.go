package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"lampview/internal/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// snapshotTables maps each snapshot kind to the table the pipeline reads. An
// upload that does not contain its table is rejected outright.
var snapshotTables = map[domain.SnapshotKind]string{
	domain.SnapshotScore:    "score",
	domain.SnapshotScoreLog: "scorelog",
	domain.SnapshotSongData: "song",
}

// snapshotIndexes are the lookup indexes created once at upload time so the
// batched queries of a reporting run stay cheap.
var snapshotIndexes = map[domain.SnapshotKind][]string{
	domain.SnapshotSongData: {
		"CREATE INDEX IF NOT EXISTS idx_song_md5 ON song (md5)",
	},
	domain.SnapshotScoreLog: {
		"CREATE INDEX IF NOT EXISTS idx_scorelog_sha256_date ON scorelog (sha256, date)",
		"CREATE INDEX IF NOT EXISTS idx_scorelog_sha256 ON scorelog (sha256)",
	},
}

// SaveSnapshot persists raw snapshot bytes to a per-session temp file,
// verifies the expected table exists, and prepares the lookup indexes.
// The returned path is treated as read-only for the rest of the session.
func SaveSnapshot(dir, sessionID string, kind domain.SnapshotKind, data []byte, logger zerolog.Logger) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown snapshot kind %q", kind)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.db", sessionID, kind))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer db.Close()

	table := snapshotTables[kind]
	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("snapshot has no %s table: %w", table, err)
	}

	for _, stmt := range snapshotIndexes[kind] {
		if _, err := db.Exec(stmt); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("failed to create snapshot index: %w", err)
		}
	}

	logger.Info().
		Str("session_id", sessionID).
		Str("kind", string(kind)).
		Int("bytes", len(data)).
		Msg("snapshot stored")

	return path, nil
}

// OpenSnapshot opens a stored snapshot for the duration of one reporting
// run. Callers close it when the run ends; the file is never written after
// upload, so concurrent runs over the same snapshot are safe.
func OpenSnapshot(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot not uploaded")
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	return db, nil
}
