package domain

import "time"

// Lamp is the clear-lamp tier recorded for a chart. Values follow the score
// snapshot's own integer codes; LampNoChart sits below every played tier and
// marks a chart the player does not own.
type Lamp int

const (
	LampNoChart         Lamp = -1
	LampNoPlay          Lamp = 0
	LampFailed          Lamp = 1
	LampAssistEasy      Lamp = 2
	LampLightAssistEasy Lamp = 3
	LampEasy            Lamp = 4
	LampNormal          Lamp = 5
	LampHard            Lamp = 6
	LampExHard          Lamp = 7
	LampFullCombo       Lamp = 8
	LampPerfect         Lamp = 9
	LampMax             Lamp = 10
)

var lampNames = map[Lamp]string{
	LampNoChart:         "NoChart",
	LampNoPlay:          "NoPlay",
	LampFailed:          "Failed",
	LampAssistEasy:      "AssistEasy",
	LampLightAssistEasy: "LightAssistEasy",
	LampEasy:            "Easy",
	LampNormal:          "Normal",
	LampHard:            "Hard",
	LampExHard:          "ExHard",
	LampFullCombo:       "FullCombo",
	LampPerfect:         "Perfect",
	LampMax:             "Max",
}

var lampColors = map[Lamp]string{
	LampNoChart:         "rgba(64, 64, 64, 0.5)",
	LampNoPlay:          "rgba(0, 0, 0, 0.5)",
	LampFailed:          "rgba(128, 0, 0, 0.5)",
	LampAssistEasy:      "rgba(128, 0, 128, 0.5)",
	LampLightAssistEasy: "rgba(255, 192, 203, 0.5)",
	LampEasy:            "rgba(0, 128, 0, 0.5)",
	LampNormal:          "rgba(135, 206, 235, 0.5)",
	LampHard:            "rgba(192, 0, 0, 0.5)",
	LampExHard:          "rgba(255, 165, 0, 0.5)",
	LampFullCombo:       "rgba(173, 255, 47, 0.5)",
	LampPerfect:         "rgba(0, 255, 255, 0.5)",
	LampMax:             "rgba(255, 215, 0, 0.5)",
}

func (l Lamp) Name() string {
	if name, ok := lampNames[l]; ok {
		return name
	}
	return "Unknown"
}

func (l Lamp) Color() string {
	if color, ok := lampColors[l]; ok {
		return color
	}
	return "#888888"
}

func (l Lamp) Valid() bool {
	_, ok := lampNames[l]
	return ok
}

// NullLamp is a lamp that may be unset. A change record starts unset and stays
// unset when no attempt of the day actually changed the lamp.
type NullLamp struct {
	Lamp  Lamp
	Valid bool
}

func SomeLamp(l Lamp) NullLamp {
	return NullLamp{Lamp: l, Valid: true}
}

// PlayMode selects which score-state rows apply. ModeDefault is the standard
// ruleset; the others are the long-note handling variants.
type PlayMode int

const (
	ModeDefault    PlayMode = 0
	ModeCharge     PlayMode = 1
	ModeHardCharge PlayMode = 2
)

// NoDataBP marks a best-miss-count column with no recorded data. It is kept
// raw through aggregation and relabeled only at export.
const NoDataBP = 2147483647

// ScoreRow is one score-state row, keyed by (sha256, mode).
type ScoreRow struct {
	Sha256 string
	Mode   PlayMode
	Clear  Lamp
	MinBP  int
	Epg    int
	Lpg    int
	Egr    int
	Lgr    int
	Egd    int
	Lgd    int
}

// Points is the aggregate judgment total used for display.
func (r ScoreRow) Points() int {
	return r.Epg + r.Lpg + r.Egr + r.Lgr
}

// ScoreLogRow is one attempt-history row, keyed by (sha256, date).
type ScoreLogRow struct {
	Sha256   string
	Date     int64
	OldClear Lamp
	Clear    Lamp
	OldScore int
	Score    int
	OldMinBP int
	MinBP    int
}

// Changed reports whether the attempt produced any observable change.
func (r ScoreLogRow) Changed() bool {
	return r.OldClear != r.Clear || r.OldMinBP != r.MinBP
}

// SongRow is one metadata-store row.
type SongRow struct {
	Md5    string
	Sha256 string
	Title  string
}

// LevelLabel names the difficulty a table assigns to a chart.
type LevelLabel struct {
	Level     string `json:"level"`
	Table     string `json:"table"`
	ShortName string `json:"shortName"`
}

// TableSong is one chart entry of a difficulty table. Md5 or Sha256 may be
// empty but never both once merged.
type TableSong struct {
	Md5     string       `json:"md5,omitempty"`
	Sha256  string       `json:"sha256,omitempty"`
	Title   string       `json:"title"`
	Artist  string       `json:"artist,omitempty"`
	Level   string       `json:"level,omitempty"`
	URL     string       `json:"url,omitempty"`
	URLDiff string       `json:"url_diff,omitempty"`
	Levels  []LevelLabel `json:"levels,omitempty"`
}

// ChangeRecord is the per-(day, title) fold of all qualifying attempts.
type ChangeRecord struct {
	Title string
	Clear NullLamp
	OldBP int
	NewBP int
}

// DayReport groups the change records of one calendar day.
type DayReport struct {
	Date    string
	Records []ChangeRecord
}

// Classification is the per-chart result of a lamp-graph run.
type Classification struct {
	Md5    string
	Sha256 string
	Title  string
	Level  string
	Owned  bool
	Lamp   Lamp
	MinBP  *int
	Points int
}

// TierBucket collects the charts of one level that share a clear lamp.
type TierBucket struct {
	Lamp  Lamp
	Count int
	Songs []Classification
}

// LevelGroup is the per-level slice of the lamp distribution, tiers ordered
// high to low.
type LevelGroup struct {
	Level string
	Total int
	Tiers []TierBucket
}

// HeatmapPoint is one calendar-day cell of an activity heatmap series.
type HeatmapPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// SnapshotKind names one of the three uploadable snapshot stores.
type SnapshotKind string

const (
	SnapshotScore    SnapshotKind = "score"
	SnapshotScoreLog SnapshotKind = "scorelog"
	SnapshotSongData SnapshotKind = "songdata"
)

func (k SnapshotKind) Valid() bool {
	switch k {
	case SnapshotScore, SnapshotScoreLog, SnapshotSongData:
		return true
	}
	return false
}

// Session holds one user's uploaded snapshot set. Paths point at per-session
// temp files; all snapshots are read-only after upload.
type Session struct {
	ID           string
	ScorePath    string
	ScoreLogPath string
	SongDataPath string
	CreatedAt    time.Time
}

// Path returns the stored file path for a snapshot kind, empty when missing.
func (s *Session) Path(kind SnapshotKind) string {
	switch kind {
	case SnapshotScore:
		return s.ScorePath
	case SnapshotScoreLog:
		return s.ScoreLogPath
	case SnapshotSongData:
		return s.SongDataPath
	}
	return ""
}

func (s *Session) Has(kind SnapshotKind) bool {
	return s.Path(kind) != ""
}
