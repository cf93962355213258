package core

// convert.go provides lenient cell parsers used to infer column kinds and to
// match file headers against catalog columns.
//
// These functions handle the messy reality of spreadsheet exports:
//   - Multiple date formats (ISO, day-first, month-first, compact)
//   - Currency symbols and thousand separators in numbers
//   - Various boolean representations (yes/no, si/no, true/false)
//   - Excel formula prefixes (="value")
//
// All ToPg* functions return pgtype values with Valid=false for empty or
// unparseable input.

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers and decimals; pgtype rejects exponents on Scan.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// integerRegex matches plain integers after cleanup.
var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are moved
// to the previous century.
var TwoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"2/1/06", "02/01/06", "2-1-06", "2.1.06", "02.01.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00",
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
		"1/2/2006", "01/02/2006",
		"Jan 2, 2006", "2 Jan 2006",
	}
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a string to pgtype.Date.
// Day-first layouts are tried before month-first ones, and 2-digit years use
// the pivot.
func ToPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	return pgtype.Date{Valid: false}
}

// cleanNumber strips currency symbols, thousands separators and the
// accounting parentheses used for negatives.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.TrimPrefix(s, "S/") // Peruvian sol
	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(s)

	if isNegative {
		s = "-" + s
	}
	return s
}

// ToPgNumeric converts a string to pgtype.Numeric.
func ToPgNumeric(s string) pgtype.Numeric {
	s = cleanNumber(s)
	if s == "" || !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ToPgInt8 converts a string to pgtype.Int8. Decimals are rejected.
func ToPgInt8(s string) pgtype.Int8 {
	s = cleanNumber(s)
	if s == "" || !integerRegex.MatchString(s) {
		return pgtype.Int8{Valid: false}
	}

	var n pgtype.Int8
	if err := n.Scan(s); err != nil {
		return pgtype.Int8{Valid: false}
	}
	return n
}

// ToPgBool converts a string to pgtype.Bool.
// Accepts true/false, yes/no, si/no, t/f, y/n, 1/0.
func ToPgBool(s string) pgtype.Bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return pgtype.Bool{Valid: false}
	}

	switch s {
	case "true", "t", "yes", "y", "si", "sí", "1":
		return pgtype.Bool{Bool: true, Valid: true}
	case "false", "f", "no", "n", "0":
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="...") and quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// HeaderIndex maps normalized column names to their position in the header.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row.
// The first occurrence of a normalized name wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// NormalizeHeader folds a header cell for matching: artifacts removed,
// accents dropped, lower-cased, and runs of spaces or dashes turned into
// a single underscore. "Teléfono" and "telefono" compare equal, as do
// "Nombre Completo" and "nombre_completo".
func NormalizeHeader(s string) string {
	s = CleanCell(s)
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(folder, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		if r == ' ' || r == '-' || r == '_' || r == '\t' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('_')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}
