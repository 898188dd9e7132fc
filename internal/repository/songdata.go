package repository

import (
	"context"
	"database/sql"

	"lampview/internal/domain"
	"lampview/internal/query"

	"github.com/rs/zerolog"
)

// SongDataRepository reads the song-metadata snapshot of one session. It is
// constructed per reporting run and holds no state beyond the open handle.
type SongDataRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSongDataRepository(db *sql.DB, logger zerolog.Logger) *SongDataRepository {
	return &SongDataRepository{db: db, logger: logger}
}

// FindSha256sByMd5s resolves legacy md5 hashes to their canonical sha256,
// batched under the chunk ceiling. Hashes unknown to the snapshot are simply
// absent from the result.
func (r *SongDataRepository) FindSha256sByMd5s(ctx context.Context, md5s []string) map[string]string {
	q := query.StringKeys("SELECT md5, sha256 FROM song WHERE md5 IN (%s)")

	rows := query.Select(ctx, r.db, r.logger, q, md5s, func(rows *sql.Rows) (domain.SongRow, error) {
		var row domain.SongRow
		err := rows.Scan(&row.Md5, &row.Sha256)
		return row, err
	})

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.Sha256 != "" {
			out[row.Md5] = row.Sha256
		}
	}
	return out
}

// OwnedSha256s reports which of the given charts exist in the metadata
// snapshot, i.e. which charts the player owns.
func (r *SongDataRepository) OwnedSha256s(ctx context.Context, sha256s []string) map[string]bool {
	q := query.StringKeys("SELECT sha256 FROM song WHERE sha256 IN (%s)")

	rows := query.Select(ctx, r.db, r.logger, q, sha256s, func(rows *sql.Rows) (string, error) {
		var sha256 string
		err := rows.Scan(&sha256)
		return sha256, err
	})

	out := make(map[string]bool, len(rows))
	for _, sha256 := range rows {
		out[sha256] = true
	}
	return out
}
