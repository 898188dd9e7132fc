package tables

import (
	"sort"
	"time"

	"lampview/internal/domain"

	"github.com/rs/zerolog"
)

// FetchedTable pairs a descriptor with its song list for merging.
type FetchedTable struct {
	Descriptor Descriptor
	Table      *RawTable
}

// Merge folds the song lists of every table into one unified set. Songs are
// keyed by md5 when present, by sha256 otherwise; a song listed by several
// tables accumulates one level label per listing, and the first non-empty
// title, artist and hash win. Songs with neither hash cannot be reconciled
// and are dropped with a warning. Tables flagged SkipMerge are left out.
func Merge(fetched []FetchedTable, logger zerolog.Logger) *MergedTables {
	byMd5 := make(map[string]*domain.TableSong)
	bySha256 := make(map[string]*domain.TableSong)
	var md5Order, sha256Order []string
	var tableNames []string

	for _, ft := range fetched {
		desc := ft.Descriptor
		if desc.SkipMerge {
			logger.Debug().Str("table", desc.InternalFileName).Msg("table skipped by skipMerge flag")
			continue
		}
		tableNames = append(tableNames, desc.InternalFileName)

		shortName := ft.Table.ShortName
		if shortName == "" {
			shortName = desc.ShortName
		}

		for _, song := range ft.Table.Songs {
			if song.Md5 == "" && song.Sha256 == "" {
				logger.Warn().
					Str("table", desc.InternalFileName).
					Str("title", song.Title).
					Msg("song has neither md5 nor sha256, dropped from merge")
				continue
			}

			label := domain.LevelLabel{
				Level:     song.Level,
				Table:     desc.InternalFileName,
				ShortName: shortName,
			}

			if song.Md5 != "" {
				existing, ok := byMd5[song.Md5]
				if !ok {
					entry := song
					entry.Level = ""
					entry.Levels = []domain.LevelLabel{label}
					byMd5[song.Md5] = &entry
					md5Order = append(md5Order, song.Md5)
					continue
				}
				existing.Levels = append(existing.Levels, label)
				fillMissing(existing, song)
				continue
			}

			existing, ok := bySha256[song.Sha256]
			if !ok {
				entry := song
				entry.Level = ""
				entry.Levels = []domain.LevelLabel{label}
				bySha256[song.Sha256] = &entry
				sha256Order = append(sha256Order, song.Sha256)
				continue
			}
			existing.Levels = append(existing.Levels, label)
			fillMissing(existing, song)
		}
	}

	songs := make([]domain.TableSong, 0, len(byMd5)+len(bySha256))
	for _, md5 := range md5Order {
		songs = append(songs, *byMd5[md5])
	}
	for _, sha256 := range sha256Order {
		// a later table may have supplied the md5; those entries are
		// already represented in the md5-keyed set
		if bySha256[sha256].Md5 != "" {
			continue
		}
		songs = append(songs, *bySha256[sha256])
	}

	sort.SliceStable(songs, func(i, j int) bool {
		return songs[i].Title < songs[j].Title
	})

	return &MergedTables{
		LastUpdate: time.Now().Format("2006-01-02 15:04:05"),
		Tables:     tableNames,
		Songs:      songs,
	}
}

func fillMissing(dst *domain.TableSong, src domain.TableSong) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if dst.Artist == "" && src.Artist != "" {
		dst.Artist = src.Artist
	}
	if dst.Sha256 == "" && src.Sha256 != "" {
		dst.Sha256 = src.Sha256
	}
	if dst.Md5 == "" && src.Md5 != "" {
		dst.Md5 = src.Md5
	}
}
