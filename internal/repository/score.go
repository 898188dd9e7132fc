package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lampview/internal/domain"
	"lampview/internal/query"

	"github.com/rs/zerolog"
)

// ScoreRepository reads the score-state snapshot of one session.
type ScoreRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewScoreRepository(db *sql.DB, logger zerolog.Logger) *ScoreRepository {
	return &ScoreRepository{db: db, logger: logger}
}

// FindByMode loads the score rows of the given charts for one play mode in a
// single batched pass. Charts without a row for the mode are absent from the
// result.
func (r *ScoreRepository) FindByMode(ctx context.Context, sha256s []string, mode domain.PlayMode) map[string]domain.ScoreRow {
	q := query.StringKeys(fmt.Sprintf(
		"SELECT sha256, clear, minbp, epg, lpg, egr, lgr, egd, lgd FROM score WHERE mode = %d AND sha256 IN (%%s)", mode))

	return query.SelectMap(ctx, r.db, r.logger, q, sha256s,
		func(rows *sql.Rows) (domain.ScoreRow, error) {
			row := domain.ScoreRow{Mode: mode}
			err := rows.Scan(&row.Sha256, &row.Clear, &row.MinBP, &row.Epg, &row.Lpg, &row.Egr, &row.Lgr, &row.Egd, &row.Lgd)
			return row, err
		},
		func(row domain.ScoreRow) string { return row.Sha256 })
}

// PlayerActivity returns the running keystroke totals recorded in the player
// table, oldest first. The heatmap service turns them into per-day deltas.
func (r *ScoreRepository) PlayerActivity(ctx context.Context) ([]domain.HeatmapPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', date, 'unixepoch', 'localtime') AS day,
		       epg + lpg + egr + lgr + egd + lgd AS total
		FROM player
		ORDER BY date ASC`)
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
