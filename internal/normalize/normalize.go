// Package normalize converts raw listing tokens into canonical scalar forms.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Asif-shah786/zoopla-scraper/internal/model"
)

var moneyRe = regexp.MustCompile(`£?\s*(\d+(?:\.\d+)?)`)

// Money reduces a price string to its first decimal number with the
// currency symbol and thousands separators removed: "£450,000" → "450000".
func Money(s string) (string, bool) {
	s = StripThousands(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	m := moneyRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// StripThousands removes comma separators.
func StripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// Int parses an integer after stripping separators and surrounding space.
func Int(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(StripThousands(s)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float parses a float after stripping separators and surrounding space.
func Float(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(StripThousands(s)), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Miles formats a distance with one decimal place. Unparseable input is
// returned trimmed.
func Miles(s string) string {
	s = strings.TrimSpace(s)
	f, ok := Float(s)
	if !ok {
		return s
	}
	return OneDecimal(f)
}

// OneDecimal formats f with exactly one decimal place.
func OneDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

// Spaces replaces Unicode space runes such as U+00A0 with an ASCII space.
// Tabs and line breaks are kept.
func Spaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r', ' ':
			return r
		}
		if unicode.IsSpace(r) || unicode.Is(unicode.Zs, r) {
			return ' '
		}
		return r
	}, s)
}

// CleanSpace trims s and collapses internal whitespace runs to one space.
func CleanSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CollapseBlankLines right-trims every line, drops leading and trailing
// blank lines, and keeps at most one blank line between paragraphs.
func CollapseBlankLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t\r")
	}

	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}

	out := make([]string, 0, end-start)
	blank := false
	for _, ln := range lines[start:end] {
		if strings.TrimSpace(ln) != "" {
			out = append(out, ln)
			blank = false
			continue
		}
		if !blank {
			out = append(out, "")
		}
		blank = true
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// RecentMonths returns the n most recent month keys ending at now's month,
// newest first: 2025-02 with n=3 gives 2025-02, 2025-01, 2024-12.
func RecentMonths(now time.Time, n int) []model.MonthKey {
	if n <= 0 {
		return nil
	}
	year, month := now.Year(), int(now.Month())
	out := make([]model.MonthKey, 0, n)
	for i := 0; i < n; i++ {
		y, m := year, month-i
		for m <= 0 {
			m += 12
			y--
		}
		out = append(out, model.MonthKey(fmt.Sprintf("%04d-%02d", y, m)))
	}
	return out
}
