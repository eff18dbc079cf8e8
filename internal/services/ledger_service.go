package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"stepqueen/internal/core"
	"stepqueen/internal/sheets"
)

// ErrUnknownParticipant is returned when a submitted name is not on the roster.
var ErrUnknownParticipant = errors.New("unknown participant")

// DefaultReminderHour is the local hour from which missing entries are listed.
const DefaultReminderHour = 21

// LedgerConfig carries the calendar settings of a LedgerService.
type LedgerConfig struct {
	Location     *time.Location
	ReminderHour int
}

// LedgerService runs every interaction as a read snapshot, compute, write
// snapshot cycle against a record store. Nothing is cached between calls.
type LedgerService struct {
	store        sheets.RecordStore
	roster       core.Roster
	loc          *time.Location
	reminderHour int
}

func NewLedgerService(store sheets.RecordStore, roster core.Roster, cfg LedgerConfig) *LedgerService {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	hour := cfg.ReminderHour
	if hour < 0 || hour > 23 {
		hour = DefaultReminderHour
	}
	return &LedgerService{
		store:        store,
		roster:       roster,
		loc:          loc,
		reminderHour: hour,
	}
}

// Roster returns the recognized participants.
func (s *LedgerService) Roster() core.Roster {
	return s.roster
}

// Today returns the calendar day of now in the service's time zone.
func (s *LedgerService) Today(now time.Time) core.Date {
	return core.Today(now, s.loc)
}

// Snapshot reads and normalizes the current records.
func (s *LedgerService) Snapshot(ctx context.Context) ([]core.StepRecord, error) {
	t, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return core.LoadSnapshot(t), nil
}

// Submit adds or replaces the record for rec's (date, person) slot.
func (s *LedgerService) Submit(ctx context.Context, rec core.StepRecord) error {
	rec.Person = strings.TrimSpace(rec.Person)
	if err := rec.Validate(); err != nil {
		return err
	}
	if !s.roster.Has(rec.Person) {
		return fmt.Errorf("%w: %q", ErrUnknownParticipant, rec.Person)
	}

	records, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	updated := core.Upsert(records, rec)
	if err := s.store.WriteAll(ctx, core.ToTable(updated)); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Step record saved",
		"date", rec.Date.String(),
		"person", rec.Person,
		"steps", rec.Steps,
		"records", len(updated))
	return nil
}

// Delete removes the first record equal to rec. A record that is already
// gone is not an error and causes no write.
func (s *LedgerService) Delete(ctx context.Context, rec core.StepRecord) error {
	records, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	if !core.Contains(records, rec) {
		slog.InfoContext(ctx, "Step record already absent",
			"date", rec.Date.String(),
			"person", rec.Person,
			"steps", rec.Steps)
		return nil
	}

	updated := core.DeleteAt(records, rec)
	if err := s.store.WriteAll(ctx, core.ToTable(updated)); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Step record deleted",
		"date", rec.Date.String(),
		"person", rec.Person,
		"steps", rec.Steps)
	return nil
}

// ParticipantCard is a roster participant's monthly summary.
type ParticipantCard struct {
	core.Participant
	Total         int64
	AveragePerDay int64
	TodaySteps    int64
}

// ChartBar is one bar of the monthly totals chart.
type ChartBar struct {
	core.Participant
	Total   int64
	Percent int
}

// HistoryRow is a record with its display metadata.
type HistoryRow struct {
	core.StepRecord
	Participant core.Participant
}

// DashboardView is everything the dashboard page renders.
type DashboardView struct {
	Month          core.YearMonth
	Prev           core.YearMonth
	Next           core.YearMonth
	Today          core.Date
	IsCurrentMonth bool
	DaysElapsed    int

	Participants []core.Participant
	Cards        []ParticipantCard

	HasLeader     bool
	Leader        core.Standing
	LeaderDisplay core.Participant
	Celebrate     bool

	Chart    []ChartBar
	Reminder []string
	History  []HistoryRow

	// Unavailable is set when the store could not be read and the view is empty.
	Unavailable bool
}

// Dashboard builds the view of ym as seen at now. A store read failure
// degrades to an empty snapshot instead of an error.
func (s *LedgerService) Dashboard(ctx context.Context, ym core.YearMonth, now time.Time) DashboardView {
	records, err := s.Snapshot(ctx)
	unavailable := false
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load snapshot, rendering empty dashboard", "error", err)
		records = []core.StepRecord{}
		unavailable = true
	}
	return s.buildView(records, ym, now, unavailable)
}

func (s *LedgerService) buildView(records []core.StepRecord, ym core.YearMonth, now time.Time, unavailable bool) DashboardView {
	today := s.Today(now)
	days := core.DaysElapsed(ym, today)
	agg := core.MonthlyAggregate(records, ym)

	view := DashboardView{
		Month:          ym,
		Prev:           ym.Prev(),
		Next:           ym.Next(),
		Today:          today,
		IsCurrentMonth: today.YearMonth() == ym,
		DaysElapsed:    days,
		Participants:   s.roster.Participants(),
		Unavailable:    unavailable,
	}

	for _, st := range core.Standings(agg, s.roster) {
		view.Cards = append(view.Cards, ParticipantCard{
			Participant:   s.roster.Lookup(st.Person),
			Total:         st.Total,
			AveragePerDay: core.AveragePerDay(st.Total, days),
			TodaySteps:    core.DailyTotal(records, st.Person, today),
		})
	}

	if leader, ok := core.LeaderOf(agg); ok {
		view.HasLeader = true
		view.Leader = leader
		view.LeaderDisplay = s.roster.Lookup(leader.Person)
		view.Celebrate = leader.Total > 0
	}

	view.Chart = chartBars(agg, s.roster)

	if view.IsCurrentMonth && now.In(s.loc).Hour() >= s.reminderHour {
		view.Reminder = core.MissingToday(records, s.roster, today)
	}

	for _, r := range core.History(records) {
		view.History = append(view.History, HistoryRow{
			StepRecord:  r,
			Participant: s.roster.Lookup(r.Person),
		})
	}

	return view
}

// chartBars lists roster participants first, then any other names found in
// the month, each scaled against the largest total.
func chartBars(agg map[string]int64, roster core.Roster) []ChartBar {
	if len(agg) == 0 {
		return nil
	}

	names := roster.Names()
	var extra []string
	for name := range agg {
		if !roster.Has(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	var top int64
	for _, total := range agg {
		if total > top {
			top = total
		}
	}

	bars := make([]ChartBar, 0, len(names))
	for _, name := range names {
		total := agg[name]
		pct := 0
		if top > 0 {
			pct = int(total * 100 / top)
		}
		bars = append(bars, ChartBar{
			Participant: roster.Lookup(name),
			Total:       total,
			Percent:     pct,
		})
	}
	return bars
}
