package reconcile

import (
	"context"

	"lampview/internal/domain"
	"lampview/internal/repository"

	"github.com/rs/zerolog"
)

// Map associates the two hash spaces of a chart: the canonical sha256 used by
// the score and history stores, and the legacy md5 the difficulty tables were
// historically keyed by. A Map is built fresh for every reporting run and is
// never shared across runs.
type Map struct {
	sha256ToMd5 map[string]string
	md5ToSha256 map[string]string
}

// Build constructs the map for the given chart universe. Charts that already
// carry a sha256 register directly; charts with only an md5 are resolved in
// one batched pass against the metadata snapshot. Charts with neither hash
// cannot participate in history matching and are excluded.
func Build(ctx context.Context, songs []domain.TableSong, songData *repository.SongDataRepository, logger zerolog.Logger) *Map {
	m := &Map{
		sha256ToMd5: make(map[string]string, len(songs)),
		md5ToSha256: make(map[string]string, len(songs)),
	}

	var missing []string
	for _, song := range songs {
		switch {
		case song.Sha256 != "":
			m.put(song.Sha256, song.Md5)
		case song.Md5 != "":
			missing = append(missing, song.Md5)
		default:
			logger.Warn().Str("title", song.Title).Msg("chart has neither md5 nor sha256, excluded from reconciliation")
		}
	}

	resolved := songData.FindSha256sByMd5s(ctx, missing)
	for md5, sha256 := range resolved {
		m.put(sha256, md5)
	}

	logger.Debug().
		Int("charts", len(songs)).
		Int("resolved_by_lookup", len(resolved)).
		Int("entries", len(m.sha256ToMd5)).
		Msg("reconciliation map built")

	return m
}

func (m *Map) put(sha256, md5 string) {
	m.sha256ToMd5[sha256] = md5
	if md5 != "" {
		m.md5ToSha256[md5] = sha256
	}
}

// Md5For returns the legacy hash for a canonical one.
func (m *Map) Md5For(sha256 string) (string, bool) {
	md5, ok := m.sha256ToMd5[sha256]
	return md5, ok
}

// Sha256For returns the canonical hash for a legacy one.
func (m *Map) Sha256For(md5 string) (string, bool) {
	sha256, ok := m.md5ToSha256[md5]
	return sha256, ok
}

// Sha256s lists every canonical hash in the map.
func (m *Map) Sha256s() []string {
	out := make([]string, 0, len(m.sha256ToMd5))
	for sha256 := range m.sha256ToMd5 {
		out = append(out, sha256)
	}
	return out
}

func (m *Map) Len() int {
	return len(m.sha256ToMd5)
}
