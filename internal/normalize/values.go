package normalize

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxRating is the top of the rating scale.
const MaxRating = 10.0

// ParseYear coerces s to a year. Unparseable, fractional-garbage or
// negative input yields 0 with ok=false.
func ParseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if y, err := strconv.Atoi(s); err == nil {
		if y < 0 {
			return 0, false
		}
		return y, true
	}
	// Spreadsheet exports often render integers as "2021.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// ParseRating coerces s to a rating in [0, MaxRating]. Anything else
// yields 0 with ok=false.
func ParseRating(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > MaxRating {
		return 0, false
	}
	return f, true
}

// SourceName derives the logical list name from a file path.
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TitleKey normalises a title for identity comparison: NFC composed,
// whitespace collapsed, case folded.
func TitleKey(title string) string {
	t := norm.NFC.String(title)
	t = strings.Join(strings.Fields(t), " ")
	return cases.Fold().String(t)
}
