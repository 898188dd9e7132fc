package repository

import (
	"context"
	"database/sql"

	"lampview/internal/domain"
	"lampview/internal/query"

	"github.com/rs/zerolog"
)

// AttemptKey identifies one attempt-history row.
type AttemptKey struct {
	Sha256 string
	Date   int64
}

// ScoreLogRepository reads the attempt-history snapshot of one session.
type ScoreLogRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewScoreLogRepository(db *sql.DB, logger zerolog.Logger) *ScoreLogRepository {
	return &ScoreLogRepository{db: db, logger: logger}
}

// FindAttemptKeys returns the (sha256, date) key of every attempt recorded
// for the given charts.
func (r *ScoreLogRepository) FindAttemptKeys(ctx context.Context, sha256s []string) []AttemptKey {
	q := query.StringKeys("SELECT sha256, date FROM scorelog WHERE sha256 IN (%s)")

	return query.Select(ctx, r.db, r.logger, q, sha256s, func(rows *sql.Rows) (AttemptKey, error) {
		var key AttemptKey
		err := rows.Scan(&key.Sha256, &key.Date)
		return key, err
	})
}

// FindAttempts loads the full attempt rows for the given keys using SQLite
// row-value IN lists, batched like every other chunked lookup.
func (r *ScoreLogRepository) FindAttempts(ctx context.Context, keys []AttemptKey) []domain.ScoreLogRow {
	q := query.Query[AttemptKey]{
		Template:    "SELECT sha256, date, oldclear, clear, oldscore, score, oldminbp, minbp FROM scorelog WHERE (sha256, date) IN (%s)",
		Placeholder: "(?, ?)",
		Bind:        func(k AttemptKey) []any { return []any{k.Sha256, k.Date} },
	}

	return query.Select(ctx, r.db, r.logger, q, keys, func(rows *sql.Rows) (domain.ScoreLogRow, error) {
		var row domain.ScoreLogRow
		err := rows.Scan(&row.Sha256, &row.Date, &row.OldClear, &row.Clear, &row.OldScore, &row.Score, &row.OldMinBP, &row.MinBP)
		return row, err
	})
}

// DailyUpdateCounts counts attempt-history rows per calendar day for the
// progress heatmap series.
func (r *ScoreLogRepository) DailyUpdateCounts(ctx context.Context) ([]domain.HeatmapPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', date, 'unixepoch', 'localtime') AS day, COUNT(*) AS value
		FROM scorelog
		GROUP BY day
		ORDER BY day`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.HeatmapPoint
	for rows.Next() {
		var p domain.HeatmapPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
