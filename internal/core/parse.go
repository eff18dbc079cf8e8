// Package core provides parsing helpers for raw step and date values.
//
// Store cells and form fields arrive as loosely formatted strings. The helpers
// here are the single place where those strings become typed values.
package core

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date layout used when writing records.
const DateLayout = "2006-01-02"

// dateLayouts lists accepted raw date forms, most specific first.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2.1.2006",
	"2. 1. 2006",
	"1/2/2006",
}

// Spreadsheet serial days count from 1899-12-30. The bounds keep plain step
// counts from being mistaken for dates (20000 is 1954, 80000 is 2119).
const (
	minSerialDay = 20000
	maxSerialDay = 80000
)

var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate converts a raw cell or form value to a calendar day.
//
// Accepted forms:
//
//	2024-06-01
//	2024-06-01 00:00:00
//	2024-06-01T00:00:00Z
//	1.6.2024
//	6/1/2024
//	45444 (spreadsheet serial day)
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f >= minSerialDay && f < maxSerialDay {
			return DateOf(serialEpoch.AddDate(0, 0, int(f))), nil
		}
	}
	return Date{}, ErrInvalidDate
}

// ParseSteps converts a raw cell or form value to a non-negative step count.
//
// Thousands separators (space, no-break space, comma, underscore) are ignored
// and float renderings such as "5000.0" are truncated toward zero.
func ParseSteps(s string) (int64, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', ',', '_':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return 0, ErrInvalidSteps
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, ErrNegativeSteps
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 {
		return 0, ErrInvalidSteps
	}
	if f < 0 {
		return 0, ErrNegativeSteps
	}
	return int64(f), nil
}
