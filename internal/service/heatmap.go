package service

import (
	"context"
	"fmt"

	"lampview/internal/database"
	"lampview/internal/domain"
	"lampview/internal/repository"
	"lampview/internal/session"

	"github.com/rs/zerolog"
)

// HeatmapData carries the two calendar series of the activity heatmap: daily
// keystroke counts and daily score-update counts.
type HeatmapData struct {
	Notes    []domain.HeatmapPoint `json:"notes"`
	Progress []domain.HeatmapPoint `json:"progress"`
}

// HeatmapService derives the activity heatmap from the score-state and
// attempt-history snapshots.
type HeatmapService struct {
	sessions *session.Registry
	logger   zerolog.Logger
}

func NewHeatmapService(sessions *session.Registry, logger zerolog.Logger) *HeatmapService {
	return &HeatmapService{sessions: sessions, logger: logger}
}

func (s *HeatmapService) Generate(ctx context.Context, sessionID string) (*HeatmapData, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Has(domain.SnapshotScore) || !sess.Has(domain.SnapshotScoreLog) {
		return nil, fmt.Errorf("score and scorelog snapshots are required")
	}

	scoreDB, err := database.OpenSnapshot(sess.Path(domain.SnapshotScore))
	if err != nil {
		return nil, err
	}
	defer scoreDB.Close()

	scoreLogDB, err := database.OpenSnapshot(sess.Path(domain.SnapshotScoreLog))
	if err != nil {
		return nil, err
	}
	defer scoreLogDB.Close()

	scoreRepo := repository.NewScoreRepository(scoreDB, s.logger)
	logRepo := repository.NewScoreLogRepository(scoreLogDB, s.logger)

	activity, err := scoreRepo.PlayerActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load player activity: %w", err)
	}

	progress, err := logRepo.DailyUpdateCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load update counts: %w", err)
	}

	data := &HeatmapData{
		Notes:    NotesDeltas(activity),
		Progress: progress,
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("note_days", len(data.Notes)).
		Int("progress_days", len(data.Progress)).
		Msg("heatmap generated")

	return data, nil
}

// NotesDeltas converts running keystroke totals into per-day deltas. The
// first recorded day has no predecessor and reports zero.
func NotesDeltas(totals []domain.HeatmapPoint) []domain.HeatmapPoint {
	deltas := make([]domain.HeatmapPoint, len(totals))
	for i, p := range totals {
		value := 0
		if i > 0 {
			value = p.Value - totals[i-1].Value
		}
		deltas[i] = domain.HeatmapPoint{Date: p.Date, Value: value}
	}
	return deltas
}
