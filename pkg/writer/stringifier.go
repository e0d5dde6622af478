package writer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fluxo/csv-writer/pkg/errs"
	"github.com/fluxo/csv-writer/pkg/header"
)

// fieldStringifier applies CSV quoting per RFC 4180
type fieldStringifier struct {
	delimiter   rune
	alwaysQuote bool
}

func newFieldStringifier(delimiter rune, alwaysQuote bool) (fieldStringifier, error) {
	if delimiter == 0 {
		delimiter = defaultDelimiter
	}
	if !utf8.ValidRune(delimiter) || delimiter == utf8.RuneError {
		return fieldStringifier{}, errs.Configuration("field_delimiter", "invalid delimiter %q", delimiter)
	}
	switch delimiter {
	case '"', '\r', '\n':
		return fieldStringifier{}, errs.Configuration("field_delimiter", "%q cannot be used as a delimiter", delimiter)
	}
	return fieldStringifier{delimiter: delimiter, alwaysQuote: alwaysQuote}, nil
}

func (f fieldStringifier) needsQuote(value string) bool {
	if f.alwaysQuote {
		return true
	}
	return strings.ContainsRune(value, f.delimiter) || strings.ContainsAny(value, "\"\r\n")
}

func (f fieldStringifier) writeField(b *strings.Builder, value string) {
	if !f.needsQuote(value) {
		b.WriteString(value)
		return
	}
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(value, `"`, `""`))
	b.WriteByte('"')
}

// writeLine writes one CSV line terminated by the record delimiter
func (f fieldStringifier) writeLine(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteRune(f.delimiter)
		}
		f.writeField(b, field)
	}
	b.WriteString(recordDelimiter)
}

// ObjectStringifier turns object records into CSV text in header order
type ObjectStringifier struct {
	header  *header.Header
	field   fieldStringifier
	idDelim rune
}

// NewObjectStringifier resolves the header and delimiter from opts
func NewObjectStringifier(opts Options) (*ObjectStringifier, error) {
	h, err := header.Resolve(opts.Header)
	if err != nil {
		return nil, err
	}
	field, err := newFieldStringifier(opts.FieldDelimiter, opts.AlwaysQuote)
	if err != nil {
		return nil, err
	}
	return &ObjectStringifier{header: h, field: field, idDelim: opts.HeaderIDDelimiter}, nil
}

// Header returns the resolved header
func (s *ObjectStringifier) Header() *header.Header {
	return s.header
}

// HeaderString returns the header line, or "" when the columns have no titles
func (s *ObjectStringifier) HeaderString() string {
	if !s.header.Titled {
		return ""
	}
	var b strings.Builder
	s.field.writeLine(&b, s.header.Titles())
	return b.String()
}

// StringifyRecords encodes records, one line each, with a trailing newline
func (s *ObjectStringifier) StringifyRecords(records []Record) string {
	var b strings.Builder
	fields := make([]string, len(s.header.Columns))
	for _, record := range records {
		for i, col := range s.header.Columns {
			fields[i] = formatValue(s.lookup(record, col.ID))
		}
		s.field.writeLine(&b, fields)
	}
	return b.String()
}

func (s *ObjectStringifier) lookup(record Record, id string) interface{} {
	if s.idDelim == 0 {
		return record[id]
	}

	var current interface{} = map[string]interface{}(record)
	for _, key := range strings.Split(id, string(s.idDelim)) {
		switch m := current.(type) {
		case map[string]interface{}:
			current = m[key]
		case Record:
			current = m[key]
		default:
			return nil
		}
	}
	return current
}

// ArrayStringifier turns positional records into CSV text
type ArrayStringifier struct {
	titles []string
	field  fieldStringifier
}

// NewArrayStringifier creates a stringifier for positional records. titles
// may be nil, in which case no header line is produced.
func NewArrayStringifier(titles []string, delimiter rune, alwaysQuote bool) (*ArrayStringifier, error) {
	field, err := newFieldStringifier(delimiter, alwaysQuote)
	if err != nil {
		return nil, err
	}
	return &ArrayStringifier{titles: titles, field: field}, nil
}

// HeaderString returns the header line, or "" when no titles were given
func (s *ArrayStringifier) HeaderString() string {
	if len(s.titles) == 0 {
		return ""
	}
	var b strings.Builder
	s.field.writeLine(&b, s.titles)
	return b.String()
}

// StringifyRecords encodes positional records, one line each
func (s *ArrayStringifier) StringifyRecords(records [][]interface{}) string {
	var b strings.Builder
	for _, record := range records {
		fields := make([]string, len(record))
		for i, v := range record {
			fields[i] = formatValue(v)
		}
		s.field.writeLine(&b, fields)
	}
	return b.String()
}

// formatValue renders a record value as text before quoting
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// formatFloat uses plain decimal notation, switching to exponent form only
// for very large or very small magnitudes.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		return trimExponent(strconv.FormatFloat(f, 'e', -1, bits))
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// trimExponent drops the zero padding strconv puts on exponents: 1e-07 becomes 1e-7.
func trimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 || i+2 >= len(s) {
		return s
	}
	digits := strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return s[:i+2] + digits
}
