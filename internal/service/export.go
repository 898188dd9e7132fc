package service

import "lampview/internal/domain"

// ExportDay is the JSON-export shape of one day's change records, with the
// presentation relabeling applied.
type ExportDay struct {
	Date   string        `json:"date"`
	Titles []ExportEntry `json:"titles"`
}

type ExportEntry struct {
	Title string `json:"title"`
	Clear string `json:"clear"`
	OldBP any    `json:"old_bp"`
	NewBP any    `json:"new_bp"`
}

// ExportChangelog relabels sentinel values for presentation: an unset clear
// becomes "Unchanged" and a no-data miss count becomes "Not Played". The
// underlying records stay raw; the transform applies only here.
func ExportChangelog(reports []domain.DayReport) []ExportDay {
	out := make([]ExportDay, 0, len(reports))
	for _, report := range reports {
		day := ExportDay{Date: report.Date, Titles: make([]ExportEntry, 0, len(report.Records))}
		for _, rec := range report.Records {
			day.Titles = append(day.Titles, ExportEntry{
				Title: rec.Title,
				Clear: exportClear(rec.Clear),
				OldBP: exportBP(rec.OldBP),
				NewBP: exportBP(rec.NewBP),
			})
		}
		out = append(out, day)
	}
	return out
}

func exportClear(clear domain.NullLamp) string {
	if !clear.Valid {
		return "Unchanged"
	}
	return clear.Lamp.Name()
}

func exportBP(bp int) any {
	if bp == domain.NoDataBP {
		return "Not Played"
	}
	return bp
}
