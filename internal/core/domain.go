package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// Date is a calendar day. The time part is always UTC midnight.
	Date struct {
		time.Time
	}

	// StepRecord is one (date, person, steps) row of the ledger.
	StepRecord struct {
		Date   Date
		Person string
		Steps  int64
	}

	// YearMonth identifies a calendar month.
	YearMonth struct {
		Year  int
		Month time.Month
	}
)

var (
	ErrZeroDate      = errors.New("date cannot be zero")
	ErrEmptyPerson   = errors.New("empty person")
	ErrNegativeSteps = errors.New("steps cannot be negative")
	ErrInvalidSteps  = errors.New("invalid steps")
	ErrInvalidDate   = errors.New("invalid date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Equal reports whether both dates name the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

// YearMonth returns the month the date falls in.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

// String formats the date as YYYY-MM-DD, the layout written back to stores.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (r StepRecord) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Person) == "" {
		return ErrEmptyPerson
	}
	if r.Steps < 0 {
		return ErrNegativeSteps
	}
	return nil
}

// sameSlot reports whether both records occupy the same (date, person) slot.
func (r StepRecord) sameSlot(o StepRecord) bool {
	return r.Person == o.Person && r.Date.Equal(o.Date)
}

// sameContent reports full field equality.
func (r StepRecord) sameContent(o StepRecord) bool {
	return r.sameSlot(o) && r.Steps == o.Steps
}

// CurrentYearMonth returns the month containing t.
func CurrentYearMonth(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Contains reports whether d falls within the month.
func (ym YearMonth) Contains(d Date) bool {
	return d.Year() == ym.Year && d.Month() == ym.Month
}

// Days returns the number of days in the month.
func (ym YearMonth) Days() int {
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Prev returns the previous month.
func (ym YearMonth) Prev() YearMonth {
	t := time.Date(ym.Year, ym.Month-1, 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Next returns the following month.
func (ym YearMonth) Next() YearMonth {
	t := time.Date(ym.Year, ym.Month+1, 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// String formats the month as MM/YYYY.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%02d/%d", int(ym.Month), ym.Year)
}
