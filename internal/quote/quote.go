// internal/quote/quote.go

// Package quote escapes single values for comma-delimited rows and for
// metadata embedded in record title and comment lines.
//
// A value is quoted only when it has to be: when it contains a double
// quote, a comma, a carriage return or a line feed. Quoted values have
// every inner double quote doubled. Decode is the exact inverse.
package quote

import (
	"errors"
	"strings"
)

var (
	ErrBareQuote    = errors.New("quote: bare \" in unquoted field")
	ErrUnterminated = errors.New("quote: unterminated quoted field")
	ErrTrailingData = errors.New("quote: data after closing quote")
)

const special = "\",\r\n"

// NeedsQuoting reports whether s must be wrapped in quotes.
func NeedsQuoting(s string) bool {
	return strings.ContainsAny(s, special)
}

// Encode returns s ready to be placed in a delimited row.
func Encode(s string) string {
	if !NeedsQuoting(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2 + strings.Count(s, `"`))
	b.WriteByte('"')
	for {
		i := strings.IndexByte(s, '"')
		if i < 0 {
			break
		}
		b.WriteString(s[:i+1])
		b.WriteByte('"')
		s = s[i+1:]
	}
	b.WriteString(s)
	b.WriteByte('"')
	return b.String()
}

// Decode reverses Encode for a single field.
// Unquoted input is returned unchanged unless it contains a bare quote.
func Decode(s string) (string, error) {
	if !strings.HasPrefix(s, `"`) {
		if strings.IndexByte(s, '"') >= 0 {
			return "", ErrBareQuote
		}
		return s, nil
	}
	body := s[1:]
	var b strings.Builder
	b.Grow(len(body))
	for {
		i := strings.IndexByte(body, '"')
		if i < 0 {
			return "", ErrUnterminated
		}
		b.WriteString(body[:i])
		rest := body[i+1:]
		switch {
		case rest == "":
			return b.String(), nil
		case rest[0] == '"':
			b.WriteByte('"')
			body = rest[1:]
		default:
			return "", ErrTrailingData
		}
	}
}

// DecodeLenient decodes s and falls back to s itself when it is not a
// well-formed field.
func DecodeLenient(s string) string {
	if v, err := Decode(s); err == nil {
		return v
	}
	return s
}
