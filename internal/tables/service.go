package tables

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"lampview/internal/config"
	"lampview/internal/constants"
	"lampview/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Service owns the difficulty-table data: fetching, caching, merging, and
// the static browser view.
type Service struct {
	cfg     *config.Config
	fetcher *Fetcher
	store   *Store
	logger  zerolog.Logger
}

func NewService(cfg *config.Config, fetcher *Fetcher, store *Store, logger zerolog.Logger) *Service {
	return &Service{cfg: cfg, fetcher: fetcher, store: store, logger: logger}
}

// LoadDescriptors reads the configured table list, from a URL or a local
// file.
func (s *Service) LoadDescriptors(ctx context.Context) ([]Descriptor, error) {
	src := s.cfg.TableListURL
	if src == "" {
		return s.store.List(ctx)
	}

	if strings.Contains(src, "://") {
		return s.fetcher.FetchDescriptors(ctx, src)
	}

	body, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read table list: %w", err)
	}
	return decodeDescriptors(body)
}

// Refresh fetches every listed table and caches the results. Each table is
// independent: a malformed or unreachable table is logged and skipped, the
// rest still land in the cache.
func (s *Service) Refresh(ctx context.Context) error {
	descriptors, err := s.LoadDescriptors(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, desc := range descriptors {
		if _, fetchedAt, err := s.store.Get(ctx, desc.InternalFileName); err == nil && time.Since(fetchedAt) < constants.TableFetchTTL {
			s.logger.Debug().Str("table", desc.InternalFileName).Time("fetched_at", fetchedAt).Msg("cached table still fresh, skipping fetch")
			continue
		}
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, constants.FetchTimeout)
			defer cancel()

			table, err := s.fetcher.FetchTable(fetchCtx, desc)
			if err != nil {
				s.logger.Error().Err(err).Str("table", desc.InternalFileName).Msg("table fetch failed, skipping")
				return nil
			}
			if err := s.store.Put(ctx, desc, table); err != nil {
				s.logger.Error().Err(err).Str("table", desc.InternalFileName).Msg("table cache write failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info().Int("tables", len(descriptors)).Msg("difficulty tables refreshed")
	return nil
}

// Descriptors lists every cached table.
func (s *Service) Descriptors(ctx context.Context) ([]Descriptor, error) {
	return s.store.List(ctx)
}

// RawTable returns one cached table's song list.
func (s *Service) RawTable(ctx context.Context, internalFileName string) (*RawTable, error) {
	table, _, err := s.store.Get(ctx, internalFileName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %s is not cached; refresh tables first", internalFileName)
	}
	if err != nil {
		return nil, err
	}
	return table, nil
}

// MergedSongs builds the unified song set across every cached table.
func (s *Service) MergedSongs(ctx context.Context) ([]domain.TableSong, error) {
	descriptors, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("no difficulty tables cached")
	}

	var fetched []FetchedTable
	for _, desc := range descriptors {
		table, _, err := s.store.Get(ctx, desc.InternalFileName)
		if err != nil {
			s.logger.Warn().Err(err).Str("table", desc.InternalFileName).Msg("cached table unreadable, skipping")
			continue
		}
		fetched = append(fetched, FetchedTable{Descriptor: desc, Table: table})
	}

	merged := Merge(fetched, s.logger)
	return merged.Songs, nil
}

// TableView is the static browser rendering of one table: songs grouped by
// level in display order.
type TableView struct {
	TableFullName string       `json:"tableFullName"`
	ShortName     string       `json:"shortName"`
	TotalSongs    int          `json:"totalSongs"`
	Levels        []LevelGroup `json:"levels"`
}

type LevelGroup struct {
	Level string     `json:"level"`
	Songs []TableRow `json:"songs"`
}

type TableRow struct {
	Title      string `json:"title"`
	Artist     string `json:"artist,omitempty"`
	URL        string `json:"url,omitempty"`
	URLDiff    string `json:"url_diff,omitempty"`
	RankingURL string `json:"rankingUrl,omitempty"`
}

// View builds the browser view for one table, honoring the descriptor's
// declared level order when present.
func (s *Service) View(ctx context.Context, internalFileName string) (*TableView, error) {
	descriptors, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var desc *Descriptor
	for i := range descriptors {
		if descriptors[i].InternalFileName == internalFileName {
			desc = &descriptors[i]
			break
		}
	}
	if desc == nil {
		return nil, fmt.Errorf("unknown table %s", internalFileName)
	}

	table, err := s.RawTable(ctx, internalFileName)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]domain.TableSong)
	var levels []string
	for _, song := range table.Songs {
		if _, ok := grouped[song.Level]; !ok {
			levels = append(levels, song.Level)
		}
		grouped[song.Level] = append(grouped[song.Level], song)
	}

	sortLevels(levels, desc.Levels)

	view := &TableView{
		TableFullName: desc.TableFullName,
		ShortName:     table.ShortName,
		TotalSongs:    len(table.Songs),
	}
	for _, level := range levels {
		group := LevelGroup{Level: table.ShortName + level}
		for _, song := range grouped[level] {
			group.Songs = append(group.Songs, TableRow{
				Title:      song.Title,
				Artist:     song.Artist,
				URL:        song.URL,
				URLDiff:    song.URLDiff,
				RankingURL: RankingURL(song.Md5),
			})
		}
		view.Levels = append(view.Levels, group)
	}
	return view, nil
}

// RankingURL is the LR2IR ranking page for a chart, derivable only from the
// legacy hash.
func RankingURL(md5 string) string {
	if md5 == "" {
		return ""
	}
	return "http://www.dream-pro.info/~lavalse/LR2IR/search.cgi?mode=ranking&bmsmd5=" + md5
}

// sortLevels orders levels by the predefined list when one is declared,
// otherwise numeric ascending then lexical.
func sortLevels(levels []string, predefined []string) {
	if len(predefined) > 0 {
		index := make(map[string]int, len(predefined))
		for i, level := range predefined {
			index[level] = i
		}
		sort.SliceStable(levels, func(i, j int) bool {
			a, okA := index[levels[i]]
			b, okB := index[levels[j]]
			switch {
			case okA && okB:
				return a < b
			case okA:
				return true
			case okB:
				return false
			default:
				return false
			}
		})
		return
	}

	sort.SliceStable(levels, func(i, j int) bool {
		return domain.LevelLess(levels[i], levels[j])
	})
}
