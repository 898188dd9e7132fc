package reconcile

import (
	"context"
	"database/sql"
	"testing"

	"lampview/internal/domain"
	"lampview/internal/repository"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSongData(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE song (md5 TEXT, sha256 TEXT, title TEXT)")
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO song VALUES
		('m1', 's1', 'Song A'),
		('m2', 's2', 'Song B'),
		('m3', 's3', 'Song C')`)
	require.NoError(t, err)

	return db
}

func TestBuildRegistersDirectAndResolved(t *testing.T) {
	db := openSongData(t)
	songRepo := repository.NewSongDataRepository(db, zerolog.Nop())

	songs := []domain.TableSong{
		{Md5: "m1", Sha256: "s1", Title: "Song A"}, // both hashes, direct
		{Md5: "m2", Title: "Song B"},               // md5 only, resolved by lookup
		{Title: "orphan"},                          // neither, excluded
	}

	m := Build(context.Background(), songs, songRepo, zerolog.Nop())

	assert.Equal(t, 2, m.Len())

	md5, ok := m.Md5For("s1")
	require.True(t, ok)
	assert.Equal(t, "m1", md5)

	sha256, ok := m.Sha256For("m2")
	require.True(t, ok)
	assert.Equal(t, "s2", sha256)

	// both directions agree for every entry
	for _, s := range m.Sha256s() {
		md5, ok := m.Md5For(s)
		require.True(t, ok)
		if md5 != "" {
			back, ok := m.Sha256For(md5)
			require.True(t, ok)
			assert.Equal(t, s, back)
		}
	}
}

func TestBuildUnknownMd5StaysOut(t *testing.T) {
	db := openSongData(t)
	songRepo := repository.NewSongDataRepository(db, zerolog.Nop())

	songs := []domain.TableSong{
		{Md5: "unknown-md5", Title: "never installed"},
	}

	m := Build(context.Background(), songs, songRepo, zerolog.Nop())
	assert.Equal(t, 0, m.Len())

	_, ok := m.Sha256For("unknown-md5")
	assert.False(t, ok)
}

func TestBuildSha256OnlyRecord(t *testing.T) {
	db := openSongData(t)
	songRepo := repository.NewSongDataRepository(db, zerolog.Nop())

	songs := []domain.TableSong{
		{Sha256: "s9", Title: "sha-only chart"},
	}

	m := Build(context.Background(), songs, songRepo, zerolog.Nop())
	assert.Equal(t, 1, m.Len())

	md5, ok := m.Md5For("s9")
	require.True(t, ok)
	assert.Equal(t, "", md5)
}
