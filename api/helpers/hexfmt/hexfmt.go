// Package hexfmt formats attribute payloads for log output.
package hexfmt

import "strings"

// Formatter describes a function that renders a payload as text.
type Formatter func(data []byte) string

const hextable = "0123456789ABCDEF"

// Bytes renders a payload as uppercase hex octets joined by hyphens,
// such as "0A-1B-2C". An empty payload renders as an empty string.
func Bytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var s strings.Builder
	s.Grow(len(data)*3 - 1)

	for i, b := range data {
		if i > 0 {
			s.WriteByte('-')
		}

		s.WriteByte(hextable[b>>4])
		s.WriteByte(hextable[b&0x0f])
	}

	return s.String()
}
