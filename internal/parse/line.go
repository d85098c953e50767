package parse

import "strings"

// SplitLine tokenizes one delimited line. Fields may be wrapped in double
// quotes; a doubled quote inside a quoted field (`""`) unescapes to a single
// quote, and the delimiter loses its meaning inside quotes. Fields are
// trimmed of surrounding whitespace after tokenizing.
func SplitLine(line string, delimiter rune) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == delimiter && !inQuotes:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(field.String()))

	return fields
}
