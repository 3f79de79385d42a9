package core

// convert.go provides type coercion for raw spreadsheet cells.
//
// These functions handle the messy reality of human-edited sheets:
//   - Multiple date formats (US, EU, ISO, etc.)
//   - Currency symbols and thousand separators in prices
//   - Excel formula prefixes (="value")
//   - Native typed cells (time.Time, float64) from API-backed sources
//
// All Parse* functions return pgtype values with Valid=false for
// empty or unparsable input, so optional fields flow to NULL instead
// of rejecting the row.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are
// assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// CellString extracts a cleaned string from a heterogeneous cell.
// Non-string cells are rendered in their natural text form; nil
// yields the empty string.
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return CleanCell(c)
	case time.Time:
		return c.Format("2006-01-02")
	case float64:
		if c == math.Trunc(c) && math.Abs(c) < 1e15 {
			return strconv.FormatInt(int64(c), 10)
		}
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case bool:
		return strconv.FormatBool(c)
	default:
		return CleanCell(fmt.Sprint(c))
	}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// trims whitespace, strips an Excel formula prefix (="..."), and
// removes surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}

// ParseDate coerces a cell to pgtype.Date. Native time.Time cells pass
// through; strings are tried against the layout lists with a pivot for
// 2-digit years. Unparsable input returns Valid=false.
func ParseDate(v any) pgtype.Date {
	if t, ok := v.(time.Time); ok {
		return pgtype.Date{Time: t, Valid: true}
	}

	s := CellString(v)
	if s == "" {
		return pgtype.Date{Valid: false}
	}

	// 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot

	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	return pgtype.Date{Valid: false}
}

// ParsePrice coerces a cell to pgtype.Numeric. Handles currency
// symbols, thousands separators, and accounting format (parentheses
// for negative).
func ParsePrice(v any) pgtype.Numeric {
	s := CellString(v)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	// Accounting negative "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}

	return n
}

// NumericString renders a pgtype.Numeric as plain decimal text, or ""
// when null.
func NumericString(n pgtype.Numeric) string {
	if !n.Valid {
		return ""
	}
	return canonNumeric(n)
}

// canonNumeric produces the canonical decimal text form of a numeric
// value: trailing fractional zeros stripped, no exponent.
func canonNumeric(n pgtype.Numeric) string {
	if n.Int == nil {
		return "0"
	}
	s := n.Int.String()
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	exp := int(n.Exp)
	for len(s) > 1 && strings.HasSuffix(s, "0") {
		s = s[:len(s)-1]
		exp++
	}
	if s == "0" {
		return "0"
	}
	var out string
	switch {
	case exp >= 0:
		out = s + strings.Repeat("0", exp)
	case -exp < len(s):
		out = s[:len(s)+exp] + "." + s[len(s)+exp:]
	default:
		out = "0." + strings.Repeat("0", -exp-len(s)) + s
	}
	if neg {
		out = "-" + out
	}
	return out
}
