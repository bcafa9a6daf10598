package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_PassThrough(t *testing.T) {
	for _, v := range []string{"", "abc", "0.9", "a b", "semi;colon", "key=value", "tab\there"} {
		assert.Equal(t, v, Encode(v), "value %q", v)
		got, err := Decode(Encode(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestEncode_Quotes(t *testing.T) {
	cases := map[string]string{
		`a,b`:      `"a,b"`,
		`say "hi"`: `"say ""hi"""`,
		"line\n":   "\"line\n\"",
		"cr\rlf\n": "\"cr\rlf\n\"",
		`"`:        `""""`,
		`""`:       `""""""`,
	}
	for in, want := range cases {
		assert.Equal(t, want, Encode(in), "value %q", in)
	}
}

func TestRoundTrip_Special(t *testing.T) {
	for _, v := range []string{`a,b`, `"`, `"quoted"`, "x\r\ny", ",,,", `a""b`, "\"\n,\r"} {
		got, err := Decode(Encode(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(`ab"c`)
	assert.ErrorIs(t, err, ErrBareQuote)

	_, err = Decode(`"abc`)
	assert.ErrorIs(t, err, ErrUnterminated)

	_, err = Decode(`"ab"c`)
	assert.ErrorIs(t, err, ErrTrailingData)

	assert.Equal(t, `"ab"c`, DecodeLenient(`"ab"c`))
	assert.Equal(t, `a,b`, DecodeLenient(`"a,b"`))
}

func TestAppendRow(t *testing.T) {
	got := AppendRow(nil, []string{"name", "a,b", "c"}, LF)
	assert.Equal(t, "name,\"a,b\",c\n", string(got))

	got = AppendRow(nil, []string{"x", ""}, CRLF)
	assert.Equal(t, "x,\r\n", string(got))

	assert.Equal(t, "\"say \"\"hi\"\"\",1\n", Join([]string{`say "hi"`, "1"}, LF))
}

func TestParseLineEnd(t *testing.T) {
	e, err := ParseLineEnd("CRLF")
	require.NoError(t, err)
	assert.Equal(t, CRLF, e)

	e, err = ParseLineEnd("")
	require.NoError(t, err)
	assert.Equal(t, LF, e)

	_, err = ParseLineEnd("cr")
	assert.Error(t, err)
}
