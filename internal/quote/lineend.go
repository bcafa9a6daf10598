// internal/quote/lineend.go
package quote

import (
	"fmt"
	"strings"
)

// LineEnd is the row terminator used by a writer. It is fixed per writer.
type LineEnd int

const (
	LF LineEnd = iota
	CRLF
)

func (e LineEnd) String() string {
	if e == CRLF {
		return "\r\n"
	}
	return "\n"
}

// ParseLineEnd accepts "lf" or "crlf" (any case).
func ParseLineEnd(s string) (LineEnd, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lf":
		return LF, nil
	case "crlf":
		return CRLF, nil
	}
	return LF, fmt.Errorf("unknown line end %q (want lf or crlf)", s)
}

// AppendRow appends the encoded cells joined by commas and terminated by end.
func AppendRow(dst []byte, cells []string, end LineEnd) []byte {
	for i, c := range cells {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, Encode(c)...)
	}
	return append(dst, end.String()...)
}

// Join encodes cells as one row terminated by end.
func Join(cells []string, end LineEnd) string {
	return string(AppendRow(nil, cells, end))
}
