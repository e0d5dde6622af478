package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fluxo/csv-writer/pkg/config"
	"github.com/fluxo/csv-writer/pkg/errs"
	"github.com/fluxo/csv-writer/pkg/logger"
	"github.com/fluxo/csv-writer/pkg/metrics"
	"github.com/fluxo/csv-writer/pkg/source"
	"github.com/fluxo/csv-writer/pkg/storage"
	"github.com/fluxo/csv-writer/pkg/writer"
)

// Loader reads the records of one target input
type Loader func(path string) ([]writer.Record, error)

// TargetResult reports the outcome of one target
type TargetResult struct {
	Name      string
	Path      string
	Records   int
	Metadata  *writer.FileMetadata
	Err       error
	ErrorCode string
}

// Result reports the outcome of a job
type Result struct {
	JobID    string
	Targets  []TargetResult
	Duration time.Duration
}

// Failed returns the targets that did not complete
func (r *Result) Failed() []TargetResult {
	var failed []TargetResult
	for _, t := range r.Targets {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

// Runner writes every target of a job. Targets run in parallel, each with
// its own writer; batches within a target are written in order.
type Runner struct {
	config  *config.Config
	logger  *logger.Logger
	metrics *metrics.Collector
	sink    storage.Sink
	load    Loader
}

// NewRunner creates a job runner. collector may be nil.
func NewRunner(cfg *config.Config, log *logger.Logger, collector *metrics.Collector) *Runner {
	return &Runner{
		config:  cfg,
		logger:  log,
		metrics: collector,
		sink:    storage.NewFileSink(),
		load:    source.LoadFile,
	}
}

// WithLoader replaces the record loader
func (r *Runner) WithLoader(load Loader) *Runner {
	r.load = load
	return r
}

// WithSink replaces the file-system sink used by every target
func (r *Runner) WithSink(sink storage.Sink) *Runner {
	r.sink = sink
	return r
}

// Run writes all targets and waits for them. The returned error joins the
// failures of every failed target.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	jobID := uuid.New().String()
	start := time.Now()

	contextLogger := r.logger.WithContext(ctx).WithJobID(jobID).WithComponent("job_runner")
	contextLogger.LogJobStarted("CSV job started", logger.Fields{
		"targets":      len(r.config.Targets),
		"max_parallel": r.config.Concurrency.MaxParallelTargets,
	})

	results := make([]TargetResult, len(r.config.Targets))
	slots := make(chan struct{}, r.config.Concurrency.MaxParallelTargets)
	var wg sync.WaitGroup

	for i, target := range r.config.Targets {
		wg.Add(1)
		go func(i int, target config.TargetConfig) {
			defer wg.Done()

			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				results[i] = r.skip(target, ctx.Err(), contextLogger.WithTarget(target.Path))
				return
			}
			defer func() { <-slots }()

			results[i] = r.runTarget(ctx, target, contextLogger.WithTarget(target.Path))
		}(i, target)
	}
	wg.Wait()

	result := &Result{JobID: jobID, Targets: results, Duration: time.Since(start)}

	var failures []error
	for _, t := range result.Failed() {
		failures = append(failures, fmt.Errorf("target %q: %w", t.Name, t.Err))
	}

	contextLogger.LogJobCompleted("CSV job finished", result.Duration.Milliseconds(), logger.Fields{
		"targets": len(results),
		"failed":  len(failures),
	})

	return result, errors.Join(failures...)
}

// runTarget loads the input and feeds it to one writer in batches
func (r *Runner) runTarget(ctx context.Context, target config.TargetConfig, contextLogger *logger.ContextLogger) TargetResult {
	start := time.Now()

	records, err := r.load(target.Input)
	if err != nil {
		return r.fail(target, 0, fmt.Errorf("failed to load records from %s: %w", target.Input, err), contextLogger)
	}
	contextLogger.LogDebug("RecordsLoaded", "Records loaded", logger.Fields{
		"input":   target.Input,
		"records": len(records),
	})

	counter := &countingSink{next: r.sink}
	opts := target.WriterOptions()
	opts.Sink = counter
	opts.Logger = r.logger

	w, err := writer.NewObjectCSVWriter(opts)
	if err != nil {
		return r.fail(target, 0, err, contextLogger)
	}

	written := 0
	for _, batch := range batches(records, target.BatchSize) {
		if err := ctx.Err(); err != nil {
			return r.fail(target, written, err, contextLogger)
		}

		batchStart := time.Now()
		before := counter.total()
		if err := w.WriteRecords(batch); err != nil {
			return r.fail(target, written, err, contextLogger)
		}
		written += len(batch)

		if r.metrics != nil {
			r.metrics.RecordBatch(target.Name, len(batch), counter.total()-before, time.Since(batchStart))
		}
	}

	metadata, err := w.Metadata()
	if err != nil {
		return r.fail(target, written, err, contextLogger)
	}

	contextLogger.LogTargetWritten("CSV target written", time.Since(start).Milliseconds(), logger.Fields{
		"name":     target.Name,
		"records":  written,
		"size":     metadata.Size,
		"checksum": metadata.Checksum,
	})

	return TargetResult{Name: target.Name, Path: target.Path, Records: written, Metadata: metadata}
}

// fail records a target failure
func (r *Runner) fail(target config.TargetConfig, written int, err error, contextLogger *logger.ContextLogger) TargetResult {
	code := ErrorCode(err)

	contextLogger.LogTargetFailed("CSV target failed", code, err.Error(), logger.Fields{
		"name":    target.Name,
		"records": written,
	})
	if r.metrics != nil {
		r.metrics.RecordFailure(target.Name, code)
	}

	return TargetResult{Name: target.Name, Path: target.Path, Records: written, Err: err, ErrorCode: code}
}

// skip records a target that never started because the job was cancelled
func (r *Runner) skip(target config.TargetConfig, cause error, contextLogger *logger.ContextLogger) TargetResult {
	err := fmt.Errorf("target not started: %w", cause)
	code := ErrorCode(err)

	contextLogger.LogWarn("TargetSkipped", "CSV target skipped", logger.Fields{
		"name":   target.Name,
		"reason": cause.Error(),
	})
	if r.metrics != nil {
		r.metrics.RecordFailure(target.Name, code)
	}

	return TargetResult{Name: target.Name, Path: target.Path, Err: err, ErrorCode: code}
}

// ErrorCode classifies err for logs and metrics
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, errs.ErrConfiguration):
		return "CONFIGURATION_ERROR"
	case errors.Is(err, errs.ErrIO):
		return "IO_ERROR"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	default:
		return "SOURCE_ERROR"
	}
}

// batches splits records into chunks of size. A size of zero keeps a single
// batch. No records still yield one empty batch so the file is created.
func batches(records []writer.Record, size int) [][]writer.Record {
	if size <= 0 || len(records) <= size {
		return [][]writer.Record{records}
	}
	var out [][]writer.Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}

// countingSink counts the bytes passed to the wrapped sink
type countingSink struct {
	next  storage.Sink
	bytes atomic.Int64
}

func (s *countingSink) Write(path string, data []byte, truncate bool) error {
	if err := s.next.Write(path, data, truncate); err != nil {
		return err
	}
	s.bytes.Add(int64(len(data)))
	return nil
}

func (s *countingSink) total() int64 {
	return s.bytes.Load()
}
