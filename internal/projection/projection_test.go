package projection

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"

	"seqfile/internal/seq"
)

func attrs(kv ...string) *seq.Attributes {
	a := seq.NewAttributes()
	for i := 0; i+1 < len(kv); i += 2 {
		a.Set(kv[i], seq.String(kv[i+1]))
	}
	return a
}

func TestColumnsFromFirstRecord(t *testing.T) {
	first := attrs("a", "1", "b", "2")
	assert.Equal(t, []string{"a", "b"}, Columns(nil, first, nil))
	assert.Equal(t, []string{"a", "b"}, Columns([]string{seq.KeyFullName}, first, nil))
}

func TestColumnsExplicit(t *testing.T) {
	first := attrs("a", "1")
	got := Columns([]string{"z", "a", "z"}, first, nil)
	assert.Equal(t, []string{"z", "a"}, got)
}

func TestColumnsExclude(t *testing.T) {
	first := attrs(seq.KeyFamily, "x", "a", "1")
	exclude := mapset.NewSet(seq.KeyFamily)
	tests := []struct {
		name   string
		fields []string
		want   []string
	}{
		{"derived", nil, []string{"a"}},
		{"derived from full name", []string{seq.KeyFullName}, []string{"a"}},
		{"explicit reserved key", []string{"score", seq.KeyFamily}, []string{"score", seq.KeyFamily}},
		{"explicit only reserved", []string{seq.KeyFamily, seq.KeyFamily}, []string{seq.KeyFamily}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Columns(tc.fields, first, exclude))
		})
	}
}

func TestRowMissingRendersEmpty(t *testing.T) {
	cols := []string{"a", "b"}
	assert.Equal(t, []string{"", "3"}, Row(cols, attrs("b", "3", "c", "4")))
}

func TestDerivesFromRecord(t *testing.T) {
	assert.True(t, DerivesFromRecord(nil))
	assert.True(t, DerivesFromRecord([]string{seq.KeyFullName}))
	assert.False(t, DerivesFromRecord([]string{seq.KeyFullName, "a"}))
	assert.False(t, DerivesFromRecord([]string{"a"}))
}
