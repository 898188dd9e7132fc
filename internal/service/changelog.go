package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lampview/internal/database"
	"lampview/internal/domain"
	"lampview/internal/reconcile"
	"lampview/internal/repository"
	"lampview/internal/session"
	"lampview/internal/tables"

	"github.com/rs/zerolog"
)

// ChangelogService runs the history-report pipeline: reconcile identifiers,
// load attempt history, and fold it into per-day change records.
type ChangelogService struct {
	sessions *session.Registry
	tables   *tables.Service
	logger   zerolog.Logger
}

func NewChangelogService(sessions *session.Registry, tablesSvc *tables.Service, logger zerolog.Logger) *ChangelogService {
	return &ChangelogService{sessions: sessions, tables: tablesSvc, logger: logger}
}

// Generate produces the day-by-day change report for one session. The
// attempt-history and song-metadata snapshots are required; the run is
// refused before any processing when either is missing.
func (s *ChangelogService) Generate(ctx context.Context, sessionID string) ([]domain.DayReport, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Has(domain.SnapshotScoreLog) || !sess.Has(domain.SnapshotSongData) {
		return nil, fmt.Errorf("scorelog and songdata snapshots are required")
	}

	s.logger.Info().Str("session_id", sessionID).Msg("generating change report")

	songDataDB, err := database.OpenSnapshot(sess.Path(domain.SnapshotSongData))
	if err != nil {
		return nil, err
	}
	defer songDataDB.Close()

	scoreLogDB, err := database.OpenSnapshot(sess.Path(domain.SnapshotScoreLog))
	if err != nil {
		return nil, err
	}
	defer scoreLogDB.Close()

	songs, err := s.tables.MergedSongs(ctx)
	if err != nil {
		return nil, err
	}

	songRepo := repository.NewSongDataRepository(songDataDB, s.logger)
	logRepo := repository.NewScoreLogRepository(scoreLogDB, s.logger)

	recon := reconcile.Build(ctx, songs, songRepo, s.logger)
	titles := newTitleResolver(songs, recon)

	keys := logRepo.FindAttemptKeys(ctx, recon.Sha256s())
	attempts := logRepo.FindAttempts(ctx, keys)

	s.logger.Debug().
		Int("charts", recon.Len()).
		Int("attempts", len(attempts)).
		Msg("attempt history loaded")

	fold := NewChangeFold()
	skipped := 0
	for _, att := range attempts {
		title, ok := titles.resolve(att.Sha256)
		if !ok {
			s.logger.Warn().Str("sha256", att.Sha256).Msg("attempt references unknown chart, skipped")
			skipped++
			continue
		}
		day := time.Unix(att.Date, 0).Local().Format("2006/01/02")
		fold.Add(day, title, att)
	}

	if skipped > 0 {
		s.logger.Warn().Int("skipped", skipped).Msg("attempts skipped during reconciliation")
	}

	reports := fold.Reports()
	s.logger.Info().Str("session_id", sessionID).Int("days", len(reports)).Msg("change report generated")
	return reports, nil
}

// titleResolver maps a canonical hash back to the merged-table song and
// formats its display title with the applicable level labels.
type titleResolver struct {
	byMd5    map[string]domain.TableSong
	bySha256 map[string]domain.TableSong
	recon    *reconcile.Map
}

func newTitleResolver(songs []domain.TableSong, recon *reconcile.Map) *titleResolver {
	r := &titleResolver{
		byMd5:    make(map[string]domain.TableSong, len(songs)),
		bySha256: make(map[string]domain.TableSong),
		recon:    recon,
	}
	for _, song := range songs {
		if song.Md5 != "" {
			r.byMd5[song.Md5] = song
		} else if song.Sha256 != "" {
			r.bySha256[song.Sha256] = song
		}
	}
	return r
}

func (r *titleResolver) resolve(sha256 string) (string, bool) {
	if md5, ok := r.recon.Md5For(sha256); ok && md5 != "" {
		if song, ok := r.byMd5[md5]; ok {
			return formatTitle(song), true
		}
	}
	if song, ok := r.bySha256[sha256]; ok {
		return formatTitle(song), true
	}
	return "", false
}

// formatTitle prefixes the song title with its level labels: a single label
// directly, several labels joined by "/".
func formatTitle(song domain.TableSong) string {
	switch len(song.Levels) {
	case 0:
		return song.Title
	case 1:
		label := song.Levels[0]
		return label.ShortName + label.Level + " " + song.Title
	default:
		parts := make([]string, len(song.Levels))
		for i, label := range song.Levels {
			parts[i] = label.ShortName + label.Level
		}
		return strings.Join(parts, "/") + " " + song.Title
	}
}
