package service

import (
	"context"
	"fmt"
	"sort"

	"lampview/internal/database"
	"lampview/internal/domain"
	"lampview/internal/reconcile"
	"lampview/internal/repository"
	"lampview/internal/session"
	"lampview/internal/tables"

	"github.com/rs/zerolog"
)

// LampGraphService classifies the charts of one difficulty table against a
// session's score state and aggregates the result into the per-level lamp
// distribution.
type LampGraphService struct {
	sessions *session.Registry
	tables   *tables.Service
	logger   zerolog.Logger
}

func NewLampGraphService(sessions *session.Registry, tablesSvc *tables.Service, logger zerolog.Logger) *LampGraphService {
	return &LampGraphService{sessions: sessions, tables: tablesSvc, logger: logger}
}

// Generate classifies every chart of the named table for the selected play
// mode and returns the level/clear distribution. The score-state and
// song-metadata snapshots are required.
func (s *LampGraphService) Generate(ctx context.Context, sessionID, tableName string, mode domain.PlayMode) ([]domain.LevelGroup, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Has(domain.SnapshotScore) || !sess.Has(domain.SnapshotSongData) {
		return nil, fmt.Errorf("score and songdata snapshots are required")
	}

	table, err := s.tables.RawTable(ctx, tableName)
	if err != nil {
		return nil, err
	}

	songDataDB, err := database.OpenSnapshot(sess.Path(domain.SnapshotSongData))
	if err != nil {
		return nil, err
	}
	defer songDataDB.Close()

	scoreDB, err := database.OpenSnapshot(sess.Path(domain.SnapshotScore))
	if err != nil {
		return nil, err
	}
	defer scoreDB.Close()

	songRepo := repository.NewSongDataRepository(songDataDB, s.logger)
	scoreRepo := repository.NewScoreRepository(scoreDB, s.logger)

	recon := reconcile.Build(ctx, table.Songs, songRepo, s.logger)

	resolved := make([]string, 0, len(table.Songs))
	for _, song := range table.Songs {
		if sha256 := resolveSha256(song, recon); sha256 != "" {
			resolved = append(resolved, sha256)
		}
	}

	owned := songRepo.OwnedSha256s(ctx, resolved)

	// One batched pass over the whole chart list per mode; tables can carry
	// thousands of entries, so per-chart queries are off the table. The
	// second pass is skipped entirely when the selected mode is the default.
	scores := scoreRepo.FindByMode(ctx, resolved, domain.ModeDefault)
	if mode != domain.ModeDefault {
		scores = MergeModeScores(scores, scoreRepo.FindByMode(ctx, resolved, mode))
	}

	charts := Classify(table.Songs, recon, owned, scores)

	s.logger.Info().
		Str("session_id", sessionID).
		Str("table", tableName).
		Int("mode", int(mode)).
		Int("charts", len(charts)).
		Msg("lamp graph generated")

	return Distribute(charts), nil
}

func resolveSha256(song domain.TableSong, recon *reconcile.Map) string {
	if song.Sha256 != "" {
		return song.Sha256
	}
	if sha256, ok := recon.Sha256For(song.Md5); ok {
		return sha256
	}
	return ""
}

// MergeModeScores overlays the selected mode's rows on the default mode's:
// wherever both modes scored a chart, the selected mode wins.
func MergeModeScores(defaults, selected map[string]domain.ScoreRow) map[string]domain.ScoreRow {
	for sha256, row := range selected {
		defaults[sha256] = row
	}
	return defaults
}

// Classify resolves each chart's ownership and clear status. A chart whose
// strong hash cannot be resolved, or that is absent from the metadata
// snapshot, is unowned and lands on the NoChart tier. Owned charts default
// to NoPlay until a score row says otherwise; rows in the scores map already
// reflect the mode precedence.
func Classify(songs []domain.TableSong, recon *reconcile.Map, owned map[string]bool, scores map[string]domain.ScoreRow) []domain.Classification {
	charts := make([]domain.Classification, 0, len(songs))
	for _, song := range songs {
		c := domain.Classification{
			Md5:   song.Md5,
			Title: song.Title,
			Level: song.Level,
			Lamp:  domain.LampNoChart,
		}
		c.Sha256 = resolveSha256(song, recon)

		if c.Sha256 == "" || !owned[c.Sha256] {
			charts = append(charts, c)
			continue
		}

		c.Owned = true
		c.Lamp = domain.LampNoPlay

		if row, ok := scores[c.Sha256]; ok {
			c.Lamp = row.Clear
			minbp := row.MinBP
			c.MinBP = &minbp
			c.Points = row.Points()
		}
		charts = append(charts, c)
	}
	return charts
}

// Distribute groups classified charts by declared level, and within a level
// by clear tier from the best lamp down. Levels with no charts are omitted;
// every chart of a level lands in exactly one tier.
func Distribute(charts []domain.Classification) []domain.LevelGroup {
	byLevel := make(map[string][]domain.Classification)
	var levels []string
	for _, c := range charts {
		if _, ok := byLevel[c.Level]; !ok {
			levels = append(levels, c.Level)
		}
		byLevel[c.Level] = append(byLevel[c.Level], c)
	}

	sort.SliceStable(levels, func(i, j int) bool {
		return domain.LevelLess(levels[i], levels[j])
	})

	groups := make([]domain.LevelGroup, 0, len(levels))
	for _, level := range levels {
		members := byLevel[level]
		if len(members) == 0 {
			continue
		}

		byLamp := make(map[domain.Lamp][]domain.Classification)
		for _, c := range members {
			byLamp[c.Lamp] = append(byLamp[c.Lamp], c)
		}

		group := domain.LevelGroup{Level: level, Total: len(members)}
		for lamp := domain.LampMax; lamp >= domain.LampNoChart; lamp-- {
			songs := byLamp[lamp]
			if len(songs) == 0 {
				continue
			}
			sort.SliceStable(songs, func(i, j int) bool {
				return songs[i].Title < songs[j].Title
			})
			group.Tiers = append(group.Tiers, domain.TierBucket{
				Lamp:  lamp,
				Count: len(songs),
				Songs: songs,
			})
		}
		groups = append(groups, group)
	}
	return groups
}
