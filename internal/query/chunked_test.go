package query

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, rows int) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE song (md5 TEXT PRIMARY KEY, sha256 TEXT)")
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)
	stmt, err := tx.Prepare("INSERT INTO song (md5, sha256) VALUES (?, ?)")
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		_, err = stmt.Exec(fmt.Sprintf("md5-%04d", i), fmt.Sprintf("sha-%04d", i))
		require.NoError(t, err)
	}
	require.NoError(t, stmt.Close())
	require.NoError(t, tx.Commit())

	return db
}

type pair struct {
	Md5    string
	Sha256 string
}

func scanPair(rows *sql.Rows) (pair, error) {
	var p pair
	err := rows.Scan(&p.Md5, &p.Sha256)
	return p, err
}

func TestSelectEmptyKeys(t *testing.T) {
	db := openTestDB(t, 10)
	q := StringKeys("SELECT md5, sha256 FROM missing_table WHERE md5 IN (%s)")

	// the template targets a table that does not exist, so any issued
	// query would fail loudly; nil proves no query ran
	got := Select(context.Background(), db, zerolog.Nop(), q, nil, scanPair)
	assert.Nil(t, got)
}

func TestSelectSingleBatch(t *testing.T) {
	db := openTestDB(t, 10)
	q := StringKeys("SELECT md5, sha256 FROM song WHERE md5 IN (%s)")

	got := Select(context.Background(), db, zerolog.Nop(), q, []string{"md5-0001", "md5-0003"}, scanPair)
	assert.Len(t, got, 2)
}

func TestSelectMergesBatchesLikeUnboundedQuery(t *testing.T) {
	const total = 1500
	db := openTestDB(t, total)

	keys := make([]string, total)
	for i := range keys {
		keys[i] = fmt.Sprintf("md5-%04d", i)
	}

	// ceiling of 999 forces two batches, 999 + 501
	q := StringKeys("SELECT md5, sha256 FROM song WHERE md5 IN (%s)")
	q.ChunkSize = 999

	got := Select(context.Background(), db, zerolog.Nop(), q, keys, scanPair)
	require.Len(t, got, total)

	seen := make(map[string]string, len(got))
	for _, p := range got {
		seen[p.Md5] = p.Sha256
	}
	for i := 0; i < total; i++ {
		assert.Equal(t, fmt.Sprintf("sha-%04d", i), seen[fmt.Sprintf("md5-%04d", i)])
	}
}

func TestSelectDuplicateKeys(t *testing.T) {
	db := openTestDB(t, 10)
	q := StringKeys("SELECT md5, sha256 FROM song WHERE md5 IN (%s)")
	q.ChunkSize = 2

	// a key repeated across batch boundaries must yield exactly what one
	// unbounded query over the set would: one row per distinct key
	keys := []string{"md5-0001", "md5-0002", "md5-0001"}
	got := Select(context.Background(), db, zerolog.Nop(), q, keys, scanPair)

	md5s := make([]string, 0, len(got))
	for _, p := range got {
		md5s = append(md5s, p.Md5)
	}
	assert.ElementsMatch(t, []string{"md5-0001", "md5-0002"}, md5s)
}

func TestSelectDuplicateCompositeKeys(t *testing.T) {
	db := openTestDB(t, 0)
	_, err := db.Exec("CREATE TABLE scorelog (sha256 TEXT, date INTEGER)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO scorelog VALUES ('a', 100), ('a', 200)")
	require.NoError(t, err)

	type key struct {
		sha  string
		date int64
	}
	q := Query[key]{
		Template:    "SELECT sha256, date FROM scorelog WHERE (sha256, date) IN (%s)",
		Placeholder: "(?, ?)",
		Bind:        func(k key) []any { return []any{k.sha, k.date} },
		ChunkSize:   1,
	}

	// same sha with different dates stays two keys; the exact repeat collapses
	keys := []key{{"a", 100}, {"a", 200}, {"a", 100}}
	got := Select(context.Background(), db, zerolog.Nop(), q, keys,
		func(rows *sql.Rows) (key, error) {
			var k key
			err := rows.Scan(&k.sha, &k.date)
			return k, err
		})

	assert.ElementsMatch(t, []key{{"a", 100}, {"a", 200}}, got)
}

func TestSelectDropsFailingBatchOnly(t *testing.T) {
	db := openTestDB(t, 10)

	// the "bad" key binds two parameters against one placeholder, failing
	// exactly the batch that contains it
	q := Query[string]{
		Template:    "SELECT md5, sha256 FROM song WHERE md5 IN (%s)",
		Placeholder: "?",
		Bind: func(k string) []any {
			if k == "bad" {
				return []any{k, k}
			}
			return []any{k}
		},
		ChunkSize: 2,
	}

	keys := []string{"md5-0001", "md5-0002", "bad", "md5-0003", "md5-0004", "md5-0005"}
	got := Select(context.Background(), db, zerolog.Nop(), q, keys, scanPair)

	// batch {bad, md5-0003} is dropped; the other two batches survive
	md5s := make([]string, 0, len(got))
	for _, p := range got {
		md5s = append(md5s, p.Md5)
	}
	assert.ElementsMatch(t, []string{"md5-0001", "md5-0002", "md5-0004", "md5-0005"}, md5s)
}

func TestSelectMapKeyedResult(t *testing.T) {
	db := openTestDB(t, 5)
	q := StringKeys("SELECT md5, sha256 FROM song WHERE md5 IN (%s)")

	got := SelectMap(context.Background(), db, zerolog.Nop(), q,
		[]string{"md5-0000", "md5-0004"}, scanPair,
		func(p pair) string { return p.Md5 })

	require.Len(t, got, 2)
	assert.Equal(t, "sha-0004", got["md5-0004"].Sha256)
}

func TestSelectCompositeKeys(t *testing.T) {
	db := openTestDB(t, 0)
	_, err := db.Exec("CREATE TABLE scorelog (sha256 TEXT, date INTEGER, clear INTEGER)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO scorelog VALUES ('a', 100, 4), ('a', 200, 6), ('b', 100, 1)")
	require.NoError(t, err)

	type key struct {
		sha  string
		date int64
	}
	q := Query[key]{
		Template:    "SELECT sha256, date, clear FROM scorelog WHERE (sha256, date) IN (%s)",
		Placeholder: "(?, ?)",
		Bind:        func(k key) []any { return []any{k.sha, k.date} },
		ChunkSize:   1,
	}

	type row struct {
		sha   string
		date  int64
		clear int
	}
	got := Select(context.Background(), db, zerolog.Nop(), q,
		[]key{{"a", 200}, {"b", 100}},
		func(rows *sql.Rows) (row, error) {
			var r row
			err := rows.Scan(&r.sha, &r.date, &r.clear)
			return r, err
		})

	require.Len(t, got, 2)
	assert.ElementsMatch(t, []row{{"a", 200, 6}, {"b", 100, 1}}, got)
}
