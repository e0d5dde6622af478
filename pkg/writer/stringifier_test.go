package writer

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo/csv-writer/pkg/header"
)

func TestFieldStringifier(t *testing.T) {
	tests := []struct {
		name        string
		delimiter   rune
		alwaysQuote bool
		value       string
		want        string
	}{
		{name: "plain", value: "Bob", want: "Bob"},
		{name: "empty", value: "", want: ""},
		{name: "leading space stays bare", value: " Bob ", want: " Bob "},
		{name: "comma", value: "a,b", want: `"a,b"`},
		{name: "quote", value: `He said "hi", bye`, want: `"He said ""hi"", bye"`},
		{name: "lone quote", value: `"`, want: `""""`},
		{name: "newline", value: "a\nb", want: "\"a\nb\""},
		{name: "carriage return", value: "a\rb", want: "\"a\rb\""},
		{name: "semicolon with comma delimiter", value: "a;b", want: "a;b"},
		{name: "semicolon delimiter", delimiter: ';', value: "a;b", want: `"a;b"`},
		{name: "comma with semicolon delimiter", delimiter: ';', value: "a,b", want: "a,b"},
		{name: "tab delimiter", delimiter: '\t', value: "a\tb", want: "\"a\tb\""},
		{name: "multibyte delimiter", delimiter: '¦', value: "a¦b", want: `"a¦b"`},
		{name: "always quote", alwaysQuote: true, value: "Bob", want: `"Bob"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := newFieldStringifier(tt.delimiter, tt.alwaysQuote)
			require.NoError(t, err)

			var b strings.Builder
			f.writeField(&b, tt.value)
			assert.Equal(t, tt.want, b.String())
		})
	}
}

func TestObjectStringifier(t *testing.T) {
	s, err := NewObjectStringifier(Options{Header: titledHeader})
	require.NoError(t, err)

	assert.Equal(t, "NAME,LANGUAGE\n", s.HeaderString())
	assert.Equal(t, "Bob,French\nMary,English\n", s.StringifyRecords(testRecords))
	assert.Equal(t, "", s.StringifyRecords(nil))
}

func TestObjectStringifier_QuotedTitles(t *testing.T) {
	s, err := NewObjectStringifier(Options{Header: header.Spec{
		header.Titled("name", "Full, Name"),
		header.Titled("quote", `Say "what"`),
	}})
	require.NoError(t, err)

	assert.Equal(t, "\"Full, Name\",\"Say \"\"what\"\"\"\n", s.HeaderString())
}

func TestObjectStringifier_NoHeaderForIDs(t *testing.T) {
	s, err := NewObjectStringifier(Options{Header: header.IDs("name", "lang")})
	require.NoError(t, err)
	assert.Equal(t, "", s.HeaderString())
}

func TestObjectStringifier_ColumnReorderKeepsValues(t *testing.T) {
	forward, err := NewObjectStringifier(Options{Header: header.IDs("name", "lang")})
	require.NoError(t, err)
	reverse, err := NewObjectStringifier(Options{Header: header.IDs("lang", "name")})
	require.NoError(t, err)

	records := []Record{{"name": "a,b", "lang": `q"`}}
	assert.Equal(t, "\"a,b\",\"q\"\"\"\n", forward.StringifyRecords(records))
	assert.Equal(t, "\"q\"\"\",\"a,b\"\n", reverse.StringifyRecords(records))
}

func TestObjectStringifier_NestedIDs(t *testing.T) {
	s, err := NewObjectStringifier(Options{
		Header:            header.IDs("name", "address.city", "address.zip.code"),
		HeaderIDDelimiter: '.',
	})
	require.NoError(t, err)

	records := []Record{
		{"name": "Bob", "address": map[string]interface{}{"city": "Paris", "zip": Record{"code": 75001}}},
		{"name": "Mary", "address": "not a map"},
	}
	assert.Equal(t, "Bob,Paris,75001\nMary,,\n", s.StringifyRecords(records))
}

func TestObjectStringifier_DottedIDsWithoutDelimiter(t *testing.T) {
	s, err := NewObjectStringifier(Options{Header: header.IDs("a.b")})
	require.NoError(t, err)
	assert.Equal(t, "flat\n", s.StringifyRecords([]Record{{"a.b": "flat"}}))
}

func TestArrayStringifier(t *testing.T) {
	s, err := NewArrayStringifier(nil, ';', false)
	require.NoError(t, err)

	assert.Equal(t, "", s.HeaderString())
	assert.Equal(t, "a;\"b;c\";1\n\n", s.StringifyRecords([][]interface{}{{"a", "b;c", 1}, {}}))
}

type stringer struct{}

func (stringer) String() string { return "custom" }

func TestTrimExponent(t *testing.T) {
	assert.Equal(t, "1e-7", trimExponent("1e-07"))
	assert.Equal(t, "1e+21", trimExponent("1e+21"))
	assert.Equal(t, "1e+0", trimExponent("1e+00"))
	assert.Equal(t, "12.5", trimExponent("12.5"))
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		value interface{}
		want  string
	}{
		{nil, ""},
		{"text", "text"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(255), "255"},
		{1.5, "1.5"},
		{float32(0.1), "0.1"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1.5e300, "1.5e+300"},
		{1e-7, "1e-7"},
		{1.5e-10, "1.5e-10"},
		{-2e-100, "-2e-100"},
		{0.000001, "0.000001"},
		{math.Copysign(0, -1), "0"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{json.Number("12.50"), "12.50"},
		{true, "true"},
		{[]byte("raw"), "raw"},
		{ts, "2024-03-01T12:30:00Z"},
		{stringer{}, "custom"},
		{[]int{1, 2}, "[1 2]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.value), "value %#v", tt.value)
	}
}
