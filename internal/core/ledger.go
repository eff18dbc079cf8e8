package core

import (
	"slices"
	"sort"
	"time"
)

// Standing is one participant's total for a month.
type Standing struct {
	Person string
	Total  int64
}

// MonthlyAggregate sums steps per person for records dated within ym.
// The result is empty, never nil, when nothing matches.
func MonthlyAggregate(records []StepRecord, ym YearMonth) map[string]int64 {
	out := make(map[string]int64)
	for _, r := range records {
		if !ym.Contains(r.Date) {
			continue
		}
		out[r.Person] += r.Steps
	}
	return out
}

// LeaderOf returns the person with the highest total. The boolean is false
// when the aggregate is empty. Ties go to the lexicographically smallest name.
func LeaderOf(aggregate map[string]int64) (Standing, bool) {
	var (
		best  Standing
		found bool
	)
	for person, total := range aggregate {
		if !found || total > best.Total || (total == best.Total && person < best.Person) {
			best = Standing{Person: person, Total: total}
			found = true
		}
	}
	return best, found
}

// DailyTotal sums steps for records matching person and date exactly.
func DailyTotal(records []StepRecord, person string, date Date) int64 {
	var total int64
	for _, r := range records {
		if r.Person == person && r.Date.Equal(date) {
			total += r.Steps
		}
	}
	return total
}

// Upsert returns a new snapshot with every record in rec's (date, person)
// slot removed and rec appended. The input is not modified.
func Upsert(records []StepRecord, rec StepRecord) []StepRecord {
	out := make([]StepRecord, 0, len(records)+1)
	for _, r := range records {
		if r.sameSlot(rec) {
			continue
		}
		out = append(out, r)
	}
	return append(out, rec)
}

// DeleteAt returns a new snapshot without the first record equal to target in
// every field. A missing target leaves the snapshot unchanged.
func DeleteAt(records []StepRecord, target StepRecord) []StepRecord {
	out := make([]StepRecord, 0, len(records))
	removed := false
	for _, r := range records {
		if !removed && r.sameContent(target) {
			removed = true
			continue
		}
		out = append(out, r)
	}
	return out
}

// Contains reports whether a record equal to target in every field exists.
func Contains(records []StepRecord, target StepRecord) bool {
	return slices.ContainsFunc(records, target.sameContent)
}

// AveragePerDay is total integer-divided by daysElapsed, or 0 before the first day.
func AveragePerDay(total int64, daysElapsed int) int64 {
	if daysElapsed < 1 {
		return 0
	}
	return total / int64(daysElapsed)
}

// DaysElapsed counts the days of ym that have started as of today: the whole
// month for past months, 0 for future months.
func DaysElapsed(ym YearMonth, today Date) int {
	cur := today.YearMonth()
	switch {
	case cur == ym:
		return today.Day()
	case cur.Year > ym.Year || (cur.Year == ym.Year && cur.Month > ym.Month):
		return ym.Days()
	default:
		return 0
	}
}

// Standings lists one entry per roster participant in roster order, using 0
// for participants missing from the aggregate. Names outside the roster are skipped.
func Standings(aggregate map[string]int64, roster Roster) []Standing {
	out := make([]Standing, 0, roster.Len())
	for _, p := range roster.Participants() {
		out = append(out, Standing{Person: p.Name, Total: aggregate[p.Name]})
	}
	return out
}

// MissingToday lists roster participants with no record dated today.
func MissingToday(records []StepRecord, roster Roster, today Date) []string {
	logged := make(map[string]bool)
	for _, r := range records {
		if r.Date.Equal(today) {
			logged[r.Person] = true
		}
	}
	var out []string
	for _, p := range roster.Participants() {
		if !logged[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}

// History returns a copy of records ordered newest date first. Records on
// the same day keep their snapshot order.
func History(records []StepRecord) []StepRecord {
	out := slices.Clone(records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if out == nil {
		out = []StepRecord{}
	}
	return out
}

// Today returns the calendar day of now in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(now.In(loc))
}
