package google

import (
	"fmt"
	"strconv"
	"strings"

	"stepqueen/internal/core"
)

// valuesToTable converts a values matrix (as returned by the Sheets API)
// into a table. The first row is the header; blank rows are skipped.
func valuesToTable(values [][]interface{}) core.Table {
	if len(values) == 0 {
		return core.Table{}
	}
	t := core.Table{Header: toStrings(values[0])}
	for _, row := range values[1:] {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		t.Rows = append(t.Rows, cols)
	}
	return t
}

// tableToValues renders t as a values matrix of fixed width, padded with
// blank rows up to prevRows.
func tableToValues(t core.Table, prevRows int) [][]interface{} {
	out := make([][]interface{}, 0, max(len(t.Rows)+1, prevRows))
	out = append(out, padRow(t.Header))
	for _, row := range t.Rows {
		out = append(out, padRow(row))
	}
	for len(out) < prevRows {
		out = append(out, padRow(nil))
	}
	return out
}

func padRow(cells []string) []interface{} {
	row := make([]interface{}, tableColumns)
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// sheetRange builds an A1 range, quoting sheet names that need it.
func sheetRange(sheet, cells string) string {
	for _, r := range sheet {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
		}
	}
	return sheet + "!" + cells
}

// columnLetter returns the A1 column name for a 1-based index.
func columnLetter(n int) string {
	var s []byte
	for n > 0 {
		n--
		s = append([]byte{byte('A' + n%26)}, s...)
		n /= 26
	}
	return string(s)
}
