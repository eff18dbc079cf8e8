package google

import (
	"testing"

	"stepqueen/internal/core"
)

func TestValuesToTable(t *testing.T) {
	values := [][]interface{}{
		{"datum", "jmeno", "kroky"},
		{"2024-06-01", "Lili", 5000.0},
		{},
		{"", "", ""},
		{"2024-06-02", "Lenka", 1234567.0},
		{"2024-06-03", "Monka"},
	}
	tbl := valuesToTable(values)
	if len(tbl.Header) != 3 || tbl.Header[1] != "jmeno" {
		t.Fatalf("unexpected header: %v", tbl.Header)
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("expected 3 non-blank rows, got %d: %v", len(tbl.Rows), tbl.Rows)
	}
	if tbl.Rows[0][2] != "5000" || tbl.Rows[1][2] != "1234567" {
		t.Fatalf("numbers not rendered as integers: %v", tbl.Rows)
	}

	records := core.LoadSnapshot(tbl)
	if len(records) != 2 {
		t.Fatalf("expected short row to be dropped, got %+v", records)
	}
}

func TestValuesToTableEmpty(t *testing.T) {
	if tbl := valuesToTable(nil); !tbl.Empty() || tbl.Header != nil {
		t.Fatalf("expected empty table, got %+v", tbl)
	}
}

func TestTableToValuesPadsPreviousRows(t *testing.T) {
	tbl := core.Table{
		Header: []string{"datum", "jmeno", "kroky"},
		Rows:   [][]string{{"2024-06-01", "Lili", "5000"}},
	}
	values := tableToValues(tbl, 5)
	if len(values) != 5 {
		t.Fatalf("expected 5 rows (2 data + 3 blank), got %d", len(values))
	}
	for i, row := range values {
		if len(row) != tableColumns {
			t.Fatalf("row %d has width %d", i, len(row))
		}
	}
	if values[4][0] != "" || values[1][1] != "Lili" {
		t.Fatalf("unexpected values: %v", values)
	}

	// Growing table: no padding needed.
	if got := tableToValues(tbl, 0); len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
}

func TestSheetRange(t *testing.T) {
	cases := map[string]string{
		"List1":    "List1!A:C",
		"My Steps": "'My Steps'!A:C",
		"Bob's":    "'Bob''s'!A:C",
		"Kroky_24": "Kroky_24!A:C",
	}
	for sheet, want := range cases {
		if got := sheetRange(sheet, "A:C"); got != want {
			t.Fatalf("sheetRange(%q) = %q, want %q", sheet, got, want)
		}
	}
}

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{1: "A", 3: "C", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"}
	for n, want := range cases {
		if got := columnLetter(n); got != want {
			t.Fatalf("columnLetter(%d) = %q, want %q", n, got, want)
		}
	}
}
