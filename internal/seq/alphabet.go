// internal/seq/alphabet.go
package seq

import "strings"

// DefaultAlphabet is the IUPAC nucleotide code set plus gap characters.
const DefaultAlphabet = "ACGTURYSWKMBDHVN-."

// Alphabet is a case-insensitive set of accepted residue characters.
type Alphabet struct {
	ok  [256]bool
	def string
}

// NewAlphabet builds an alphabet from chars. An empty string selects
// DefaultAlphabet.
func NewAlphabet(chars string) Alphabet {
	if chars == "" {
		chars = DefaultAlphabet
	}
	var a Alphabet
	for i := 0; i < len(chars); i++ {
		c := chars[i]
		a.ok[c] = true
		a.ok[toUpper(c)] = true
		a.ok[toLower(c)] = true
	}
	a.def = strings.ToUpper(chars)
	return a
}

// Contains reports whether c is accepted.
func (a Alphabet) Contains(c byte) bool { return a.ok[c] }

// String returns the characters the alphabet was built from.
func (a Alphabet) String() string { return a.def }

func (a Alphabet) IsZero() bool { return a.def == "" }

func toUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func toLower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
