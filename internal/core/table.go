package core

import (
	"strconv"
	"strings"
)

// Canonical column names written back to stores. They match the legacy sheet.
const (
	ColumnDate   = "datum"
	ColumnPerson = "jmeno"
	ColumnSteps  = "kroky"
)

var columnAliases = map[string][]string{
	ColumnDate:   {"datum", "date", "day"},
	ColumnPerson: {"jmeno", "jméno", "person", "name"},
	ColumnSteps:  {"kroky", "steps", "count"},
}

// Table is raw tabular data as held by a record store: a header row followed
// by data rows. Cells are untyped strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the table holds no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{Header: append([]string(nil), t.Header...)}
	if t.Rows != nil {
		out.Rows = make([][]string, len(t.Rows))
		for i, row := range t.Rows {
			out.Rows[i] = append([]string(nil), row...)
		}
	}
	return out
}

// LoadSnapshot normalizes a raw table into records.
//
// Rows whose date, person or steps cannot be normalized are dropped. A table
// without the expected columns yields an empty snapshot. The result is never nil.
func LoadSnapshot(t Table) []StepRecord {
	out := make([]StepRecord, 0, len(t.Rows))
	colDate := columnIndex(t.Header, ColumnDate)
	colPerson := columnIndex(t.Header, ColumnPerson)
	colSteps := columnIndex(t.Header, ColumnSteps)
	if colDate == -1 || colPerson == -1 || colSteps == -1 {
		return out
	}
	for _, row := range t.Rows {
		d, err := ParseDate(safeGet(row, colDate))
		if err != nil {
			continue
		}
		person := strings.TrimSpace(safeGet(row, colPerson))
		if person == "" {
			continue
		}
		steps, err := ParseSteps(safeGet(row, colSteps))
		if err != nil {
			continue
		}
		out = append(out, StepRecord{Date: d, Person: person, Steps: steps})
	}
	return out
}

// ToTable renders records as a table with the canonical header, preserving order.
func ToTable(records []StepRecord) Table {
	t := Table{
		Header: []string{ColumnDate, ColumnPerson, ColumnSteps},
		Rows:   make([][]string, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{r.Date.String(), r.Person, strconv.FormatInt(r.Steps, 10)})
	}
	return t
}

func columnIndex(header []string, column string) int {
	for _, alias := range columnAliases[column] {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				return i
			}
		}
	}
	return -1
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
