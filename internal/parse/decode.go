package parse

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// encodings maps the labels suppliers put in their exports (or that we
// configure per adapter) to decoders. Labels are matched case-insensitively
// with separators stripped, so "ISO-8859-1", "iso8859_1" and "latin1" all
// resolve to the same decoder.
var encodings = map[string]encoding.Encoding{
	"utf8":        unicode.UTF8,
	"iso88591":    charmap.ISO8859_1,
	"latin1":      charmap.ISO8859_1,
	"iso885915":   charmap.ISO8859_15,
	"windows1252": charmap.Windows1252,
	"cp1252":      charmap.Windows1252,
	"windows1251": charmap.Windows1251,
	"cp1251":      charmap.Windows1251,
	"windows1250": charmap.Windows1250,
	"cp850":       charmap.CodePage850,
	"ibm850":      charmap.CodePage850,
}

// DecodeBytes decodes the buffer with the requested encoding, falling back
// to UTF-8 for unsupported or invalid encoding labels. Supplier files
// routinely mislabel their encoding, so an unknown label is never an error.
func DecodeBytes(buf []byte, label string) string {
	enc := lookupEncoding(label)
	if enc == nil || enc == unicode.UTF8 {
		return string(buf)
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), buf)
	if err != nil {
		return string(buf)
	}
	return string(decoded)
}

// KnownEncoding reports whether the label resolves to a supported decoder.
func KnownEncoding(label string) bool {
	return lookupEncoding(label) != nil
}

func lookupEncoding(label string) encoding.Encoding {
	normalized := strings.ToLower(label)
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)
	return encodings[normalized]
}
