package service

import (
	"sort"

	"lampview/internal/domain"
)

// changeAccum folds every qualifying attempt of one (day, title) pair. The
// fold is commutative: clear keeps the highest lamp among attempts that
// changed it, old BP keeps the highest "before" and new BP the lowest
// "after" among attempts that changed the miss count. Attempts that left the
// miss count alone only contribute a seed pair, used when no attempt of the
// day touched the miss count at all.
type changeAccum struct {
	clear   domain.NullLamp
	bpSet   bool
	oldBP   int
	newBP   int
	seedSet bool
	seedOld int
	seedNew int
}

func (a *changeAccum) fold(att domain.ScoreLogRow) {
	if !a.seedSet {
		a.seedOld = att.OldMinBP
		a.seedNew = att.MinBP
		a.seedSet = true
	}

	if att.OldClear != att.Clear {
		if !a.clear.Valid || att.Clear > a.clear.Lamp {
			a.clear = domain.SomeLamp(att.Clear)
		}
	}

	if att.OldMinBP != att.MinBP {
		if !a.bpSet {
			a.oldBP = att.OldMinBP
			a.newBP = att.MinBP
			a.bpSet = true
			return
		}
		if att.OldMinBP > a.oldBP {
			a.oldBP = att.OldMinBP
		}
		if att.MinBP < a.newBP {
			a.newBP = att.MinBP
		}
	}
}

func (a *changeAccum) record(title string) domain.ChangeRecord {
	rec := domain.ChangeRecord{Title: title, Clear: a.clear, OldBP: a.seedOld, NewBP: a.seedNew}
	if a.bpSet {
		rec.OldBP = a.oldBP
		rec.NewBP = a.newBP
	}
	return rec
}

// ChangeFold accumulates change records across a whole reporting run,
// grouped by calendar day and display title. A fresh fold is constructed per
// run.
type ChangeFold struct {
	days map[string]map[string]*changeAccum
}

func NewChangeFold() *ChangeFold {
	return &ChangeFold{days: make(map[string]map[string]*changeAccum)}
}

// Add folds one attempt in. Attempts with no observable change contribute
// nothing.
func (f *ChangeFold) Add(day, title string, att domain.ScoreLogRow) {
	if !att.Changed() {
		return
	}

	titles, ok := f.days[day]
	if !ok {
		titles = make(map[string]*changeAccum)
		f.days[day] = titles
	}
	accum, ok := titles[title]
	if !ok {
		accum = &changeAccum{}
		titles[title] = accum
	}
	accum.fold(att)
}

// Reports renders the fold for display: days descending, titles within a day
// by final clear descending. An unset clear sorts below every real lamp.
func (f *ChangeFold) Reports() []domain.DayReport {
	reports := make([]domain.DayReport, 0, len(f.days))
	for day, titles := range f.days {
		report := domain.DayReport{Date: day, Records: make([]domain.ChangeRecord, 0, len(titles))}
		for title, accum := range titles {
			report.Records = append(report.Records, accum.record(title))
		}
		sort.SliceStable(report.Records, func(i, j int) bool {
			return sortLamp(report.Records[i].Clear) > sortLamp(report.Records[j].Clear)
		})
		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Date > reports[j].Date
	})
	return reports
}

func sortLamp(clear domain.NullLamp) domain.Lamp {
	if !clear.Valid {
		return domain.LampNoChart
	}
	return clear.Lamp
}
