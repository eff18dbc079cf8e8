package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	want := NewDate(2024, time.June, 1)
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-06-01", true},
		{" 2024-06-01 ", true},
		{"2024-06-01 00:00:00", true},
		{"2024-06-01T00:00:00Z", true},
		{"1.6.2024", true},
		{"01.06.2024", true},
		{"6/1/2024", true},
		{"45444", true},
		{"", false},
		{"yesterday", false},
		{"5000", false},
		{"2024-13-01", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(want) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestParseSteps(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		err error
	}{
		{"5000", 5000, nil},
		{" 12 000 ", 12000, nil},
		{"12 000", 12000, nil},
		{"12,000", 12000, nil},
		{"5000.0", 5000, nil},
		{"5000.9", 5000, nil},
		{"0", 0, nil},
		{"-1", 0, ErrNegativeSteps},
		{"-2.5", 0, ErrNegativeSteps},
		{"", 0, ErrInvalidSteps},
		{"lots", 0, ErrInvalidSteps},
		{"NaN", 0, ErrInvalidSteps},
	}
	for _, tc := range cases {
		got, err := ParseSteps(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil || got != tc.out {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
		}
	}
}

func TestStepRecordValidate(t *testing.T) {
	good := StepRecord{Date: NewDate(2024, time.June, 1), Person: "Lili", Steps: 0}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []struct {
		r   StepRecord
		err error
	}{
		{StepRecord{Person: "Lili", Steps: 1}, ErrZeroDate},
		{StepRecord{Date: good.Date, Person: "  ", Steps: 1}, ErrEmptyPerson},
		{StepRecord{Date: good.Date, Person: "Lili", Steps: -1}, ErrNegativeSteps},
	}
	for i, tc := range bads {
		if err := tc.r.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestLoadSnapshotDropsMalformedRows(t *testing.T) {
	table := Table{
		Header: []string{"Datum", "Jmeno", "Kroky"},
		Rows: [][]string{
			{"2024-06-01", "Lili", "5000"},
			{"not a date", "Lili", "5000"},
			{"2024-06-02", "", "5000"},
			{"2024-06-02", "Lenka", "many"},
			{"2024-06-02", "Lenka", "-3"},
			{"2024-06-02", "Lenka"},
			{"2.6.2024", " Monka ", "7 000"},
		},
	}
	got := LoadSnapshot(table)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}
	if got[1].Person != "Monka" || got[1].Steps != 7000 || !got[1].Date.Equal(NewDate(2024, time.June, 2)) {
		t.Fatalf("unexpected normalized record: %+v", got[1])
	}
}

func TestLoadSnapshotMissingColumns(t *testing.T) {
	table := Table{
		Header: []string{"datum", "kroky"},
		Rows:   [][]string{{"2024-06-01", "5000"}},
	}
	if got := LoadSnapshot(table); len(got) != 0 {
		t.Fatalf("expected empty snapshot without person column, got %+v", got)
	}
}

func TestLoadSnapshotEnglishHeaderAnyOrder(t *testing.T) {
	table := Table{
		Header: []string{"steps", "person", "date"},
		Rows:   [][]string{{"4200", "Eva", "2024-06-09"}},
	}
	got := LoadSnapshot(table)
	if len(got) != 1 || got[0].Person != "Eva" || got[0].Steps != 4200 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestYearMonthNavigation(t *testing.T) {
	jan := YearMonth{Year: 2025, Month: time.January}
	if p := jan.Prev(); p != (YearMonth{2024, time.December}) {
		t.Fatalf("prev of %v = %v", jan, p)
	}
	dec := YearMonth{Year: 2024, Month: time.December}
	if n := dec.Next(); n != jan {
		t.Fatalf("next of %v = %v", dec, n)
	}
	if s := jan.String(); s != "01/2025" {
		t.Fatalf("unexpected label %q", s)
	}
}
