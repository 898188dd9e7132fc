package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lampview/internal/constants"

	"github.com/rs/zerolog"
)

// Query describes a parameterized lookup over an arbitrary-length key set.
// The key set is split into batches no larger than the chunk ceiling so a
// single IN clause never exceeds SQLite's bound-parameter limit.
type Query[K any] struct {
	// Template holds one %s verb that receives the placeholder list.
	Template string
	// Placeholder is the per-key parameter shape, "?" for single-column
	// keys, "(?, ?)" for composite keys.
	Placeholder string
	// Bind expands one key into its bound parameters.
	Bind func(K) []any
	// ChunkSize overrides the default batch ceiling when positive.
	ChunkSize int
}

// StringKeys builds a Query for the common single string-column key case.
func StringKeys(template string) Query[string] {
	return Query[string]{
		Template:    template,
		Placeholder: "?",
		Bind:        func(k string) []any { return []any{k} },
	}
}

func (q Query[K]) chunkSize() int {
	if q.ChunkSize > 0 {
		return q.ChunkSize
	}
	return constants.QueryChunkSize
}

func (q Query[K]) build(n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = q.Placeholder
	}
	return fmt.Sprintf(q.Template, strings.Join(placeholders, ","))
}

// Select runs q against keys, one query per batch, and merges all rows into a
// single slice. The merged result matches what one unbounded query over the
// whole key set would return: duplicate keys are collapsed before chunking so
// a key repeated across batch boundaries cannot yield its rows twice.
// Batches run sequentially against the same engine instance. A failing batch
// is dropped with an error log and processing continues with the remaining
// batches; partial results are an accepted outcome. An empty key set returns
// nil without issuing any query.
func Select[K, T any](ctx context.Context, db *sql.DB, logger zerolog.Logger, q Query[K], keys []K, scan func(*sql.Rows) (T, error)) []T {
	keys = dedupe(q, keys)
	if len(keys) == 0 {
		return nil
	}

	size := q.chunkSize()
	var results []T
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		batch, err := selectBatch(ctx, db, q, chunk, scan)
		if err != nil {
			logger.Error().
				Err(err).
				Int("batch_start", start).
				Int("batch_size", len(chunk)).
				Msg("batch query failed, dropping its contribution")
			continue
		}
		results = append(results, batch...)
	}
	return results
}

// SelectMap is Select with the merged rows folded into a map. When distinct
// rows collide on mapKey the last row wins, matching a keyed result set.
func SelectMap[K, T any, M comparable](ctx context.Context, db *sql.DB, logger zerolog.Logger, q Query[K], keys []K, scan func(*sql.Rows) (T, error), mapKey func(T) M) map[M]T {
	rows := Select(ctx, db, logger, q, keys, scan)
	out := make(map[M]T, len(rows))
	for _, row := range rows {
		out[mapKey(row)] = row
	}
	return out
}

// dedupe drops repeated keys, keeping first-occurrence order. Keys are
// compared by their bound-parameter tuple so composite keys collapse too.
func dedupe[K any](q Query[K], keys []K) []K {
	seen := make(map[string]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		var sig strings.Builder
		for _, arg := range q.Bind(k) {
			fmt.Fprintf(&sig, "%v\x1f", arg)
		}
		if _, ok := seen[sig.String()]; ok {
			continue
		}
		seen[sig.String()] = struct{}{}
		out = append(out, k)
	}
	return out
}

func selectBatch[K, T any](ctx context.Context, db *sql.DB, q Query[K], chunk []K, scan func(*sql.Rows) (T, error)) ([]T, error) {
	args := make([]any, 0, len(chunk))
	for _, k := range chunk {
		args = append(args, q.Bind(k)...)
	}

	rows, err := db.QueryContext(ctx, q.build(len(chunk)), args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var batch []T
	for rows.Next() {
		row, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		batch = append(batch, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return batch, nil
}
