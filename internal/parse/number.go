// Package parse holds the low-level primitives shared by all supplier
// imports: Danish-formatted number parsing, delimiter-aware line tokenizing
// and byte decoding with encoding fallback.
package parse

import (
	"strconv"
	"strings"
)

// Number interprets a Danish-formatted numeric string. When a comma is
// present, `.` is a thousands separator and `,` the decimal separator
// ("1.234,56" -> 1234.56). Without a comma the text is read as a plain
// decimal ("42.5" -> 42.5). Blank or unparseable input returns ok=false;
// that is not an error by itself, callers decide significance.
func Number(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
