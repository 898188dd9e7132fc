package session

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"lampview/internal/config"
	"lampview/internal/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := &config.Config{DataDir: t.TempDir(), SessionTTL: time.Hour}
	return NewRegistry(cfg, zerolog.Nop())
}

// scoreSnapshot builds a minimal valid score-state snapshot file and returns
// its raw bytes, the shape an upload body carries.
func scoreSnapshot(t *testing.T) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seed.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE score (sha256 TEXT, mode INTEGER, clear INTEGER, minbp INTEGER)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestGetReturnsDetachedCopy(t *testing.T) {
	r := newTestRegistry(t)
	sess, err := r.Create()
	require.NoError(t, err)

	before, err := r.Get(sess.ID)
	require.NoError(t, err)
	assert.False(t, before.Has(domain.SnapshotScore))

	require.NoError(t, r.AttachSnapshot(sess.ID, domain.SnapshotScore, scoreSnapshot(t)))

	// the copy handed out earlier stays frozen; a fresh lookup sees the upload
	assert.False(t, before.Has(domain.SnapshotScore))

	after, err := r.Get(sess.ID)
	require.NoError(t, err)
	assert.True(t, after.Has(domain.SnapshotScore))
	assert.NotEmpty(t, after.Path(domain.SnapshotScore))
}

func TestConcurrentUploadAndRead(t *testing.T) {
	r := newTestRegistry(t)
	sess, err := r.Create()
	require.NoError(t, err)

	data := scoreSnapshot(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			require.NoError(t, r.AttachSnapshot(sess.ID, domain.SnapshotScore, data))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			got, err := r.Get(sess.ID)
			require.NoError(t, err)
			got.Has(domain.SnapshotScore)
		}
	}()
	wg.Wait()
}

func TestAttachSnapshotUnknownSession(t *testing.T) {
	r := newTestRegistry(t)
	err := r.AttachSnapshot("nope", domain.SnapshotScore, scoreSnapshot(t))
	assert.Error(t, err)
}
