package writer

import (
	"context"
	"time"

	"golang.org/x/text/encoding"

	"github.com/fluxo/csv-writer/pkg/errs"
	"github.com/fluxo/csv-writer/pkg/logger"
	"github.com/fluxo/csv-writer/pkg/storage"
)

// session tracks per-writer file state across WriteRecords calls
type session struct {
	initialized     bool
	created         bool
	headerPending   bool
	truncatePending bool
	rowCount        int64
}

// fileTarget owns the target file and its session. It is shared by the
// object and array writers.
type fileTarget struct {
	path         string
	append       bool
	encoding     encoding.Encoding
	encodingName string
	sink         storage.Sink
	logger       *logger.Logger
	session      session
}

func newFileTarget(opts Options) (*fileTarget, error) {
	if opts.Path == "" {
		return nil, errs.Configuration("path", "target path is required")
	}

	name := opts.Encoding
	if name == "" {
		name = defaultEncoding
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}

	sink := opts.Sink
	if sink == nil {
		sink = storage.NewFileSink()
	}

	return &fileTarget{
		path:         opts.Path,
		append:       opts.Append,
		encoding:     enc,
		encodingName: name,
		sink:         sink,
		logger:       opts.Logger,
	}, nil
}

// begin probes the target once per session
func (t *fileTarget) begin() error {
	if t.session.initialized {
		return nil
	}

	state, err := storage.Probe(t.path)
	if err != nil {
		return err
	}

	t.session = session{
		initialized:     true,
		created:         !state.Exists,
		headerPending:   !t.append || state.Empty(),
		truncatePending: !t.append,
	}
	return nil
}

// write encodes the batch and hands it to the sink as one operation. Session
// flags only advance after the sink succeeds.
func (t *fileTarget) write(headerLine string, body string, rows int) error {
	if err := t.begin(); err != nil {
		return err
	}

	text := body
	wroteHeader := false
	if t.session.headerPending && headerLine != "" {
		text = headerLine + body
		wroteHeader = true
	}

	data, err := encodeText(t.encoding, t.encodingName, text)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := t.sink.Write(t.path, data, t.session.truncatePending); err != nil {
		return err
	}

	if t.logger != nil {
		cl := t.logger.WithContext(context.Background()).WithComponent("csv_writer").WithTarget(t.path)
		if t.session.created {
			cl.LogFileCreated("CSV file created", logger.Fields{"encoding": t.encodingName})
		}
		cl.LogBatchWritten("CSV batch written", time.Since(start).Milliseconds(), logger.Fields{
			"rows":     rows,
			"bytes":    len(data),
			"header":   wroteHeader,
			"truncate": t.session.truncatePending,
		})
	}

	t.session.created = false
	t.session.headerPending = false
	t.session.truncatePending = false
	t.session.rowCount += int64(rows)
	return nil
}

// metadata returns size and checksum of the target file
func (t *fileTarget) metadata() (*FileMetadata, error) {
	state, err := storage.Probe(t.path)
	if err != nil {
		return nil, err
	}
	if !state.Exists {
		return nil, errs.IO("stat", t.path, errNotWritten)
	}

	checksum, err := storage.Checksum(t.path)
	if err != nil {
		return nil, err
	}

	return &FileMetadata{
		Path:     t.path,
		Size:     state.Size,
		Checksum: checksum,
		RowCount: t.session.rowCount,
	}, nil
}

// ObjectCSVWriter writes object records to a CSV file.
//
// A writer is not safe for concurrent use: callers must wait for one
// WriteRecords call to return before issuing the next. Writers for different
// files share no state.
type ObjectCSVWriter struct {
	stringifier *ObjectStringifier
	target      *fileTarget
}

// NewObjectCSVWriter validates opts and creates a writer. The target file is
// not touched until the first WriteRecords call.
func NewObjectCSVWriter(opts Options) (*ObjectCSVWriter, error) {
	stringifier, err := NewObjectStringifier(opts)
	if err != nil {
		return nil, err
	}
	target, err := newFileTarget(opts)
	if err != nil {
		return nil, err
	}
	return &ObjectCSVWriter{stringifier: stringifier, target: target}, nil
}

// WriteRecords appends records to the target file. The first call truncates
// the file unless Append is set, and writes the header row when the header
// has titles and the file has no prior content.
func (w *ObjectCSVWriter) WriteRecords(records []Record) error {
	return w.target.write(w.stringifier.HeaderString(), w.stringifier.StringifyRecords(records), len(records))
}

// Path returns the target file path
func (w *ObjectCSVWriter) Path() string {
	return w.target.path
}

// Metadata returns size, checksum and the number of rows written so far
func (w *ObjectCSVWriter) Metadata() (*FileMetadata, error) {
	return w.target.metadata()
}

// ArrayCSVWriter writes positional records to a CSV file. It follows the
// same session rules as ObjectCSVWriter; opts.Header is ignored in favour
// of titles.
type ArrayCSVWriter struct {
	stringifier *ArrayStringifier
	target      *fileTarget
}

// NewArrayCSVWriter creates a writer for positional records. titles may be
// nil to omit the header row.
func NewArrayCSVWriter(opts Options, titles []string) (*ArrayCSVWriter, error) {
	stringifier, err := NewArrayStringifier(titles, opts.FieldDelimiter, opts.AlwaysQuote)
	if err != nil {
		return nil, err
	}
	target, err := newFileTarget(opts)
	if err != nil {
		return nil, err
	}
	return &ArrayCSVWriter{stringifier: stringifier, target: target}, nil
}

// WriteRecords appends positional records to the target file
func (w *ArrayCSVWriter) WriteRecords(records [][]interface{}) error {
	return w.target.write(w.stringifier.HeaderString(), w.stringifier.StringifyRecords(records), len(records))
}

// Metadata returns size, checksum and the number of rows written so far
func (w *ArrayCSVWriter) Metadata() (*FileMetadata, error) {
	return w.target.metadata()
}

var _ RecordWriter = (*ObjectCSVWriter)(nil)
