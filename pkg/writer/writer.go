package writer

import (
	"errors"

	"github.com/fluxo/csv-writer/pkg/header"
	"github.com/fluxo/csv-writer/pkg/logger"
	"github.com/fluxo/csv-writer/pkg/storage"
)

// Record maps field ids to values. Supported values are strings, integer and
// float types, json.Number, bool, time.Time, fmt.Stringer and nil.
type Record map[string]interface{}

// FileMetadata contains metadata about the generated file
type FileMetadata struct {
	Path     string
	Size     int64
	Checksum string
	RowCount int64
}

// RecordWriter defines the interface implemented by the object CSV writer
type RecordWriter interface {
	// WriteRecords encodes records and appends them to the target file. It
	// returns once the bytes are synced to disk.
	WriteRecords(records []Record) error
}

// Options configures a writer or stringifier. Only the formatting fields
// apply to stringifiers.
type Options struct {
	// Path is the target file. Required for file writers.
	Path string

	// Header declares the columns of object records, in output order.
	Header header.Spec

	// FieldDelimiter separates fields within a line. Default is ','.
	FieldDelimiter rune

	// Encoding names the output text encoding. Default is "utf8".
	Encoding string

	// Append keeps existing content on the first write. When the target
	// already has content no header row is written.
	Append bool

	// AlwaysQuote quotes every field, not just those that need it.
	AlwaysQuote bool

	// HeaderIDDelimiter, when set, splits field ids into paths through
	// nested maps, e.g. "address.city" with '.'.
	HeaderIDDelimiter rune

	// Sink overrides the file-system primitive. Defaults to a FileSink.
	Sink storage.Sink

	// Logger receives debug events for successful writes.
	Logger *logger.Logger
}

const (
	defaultDelimiter = ','
	defaultEncoding  = "utf8"
	recordDelimiter  = "\n"
)

var errNotWritten = errors.New("target file does not exist")
