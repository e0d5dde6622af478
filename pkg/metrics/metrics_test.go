package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordBatch(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector("test", registry)

	c.RecordBatch("people", 2, 24, 3*time.Millisecond)
	c.RecordBatch("people", 1, 12, time.Millisecond)
	c.RecordBatch("other", 5, 60, time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.records.WithLabelValues("people")))
	assert.Equal(t, 36.0, testutil.ToFloat64(c.bytes.WithLabelValues("people")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.batches.WithLabelValues("people")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.records.WithLabelValues("other")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))
	assert.Same(t, registry, c.Registry())
}

func TestCollector_RecordFailure(t *testing.T) {
	c := NewCollector("", nil)

	c.RecordFailure("people", "io")
	c.RecordFailure("people", "io")
	c.RecordFailure("people", "configuration")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.failures.WithLabelValues("people", "io")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures.WithLabelValues("people", "configuration")))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector("test", nil)
	c.RecordBatch("people", 2, 24, time.Millisecond)

	path := filepath.Join(t.TempDir(), "csv.prom")
	require.NoError(t, c.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `test_records_written_total{target="people"} 2`)

	assert.Error(t, c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "csv.prom")))
}
