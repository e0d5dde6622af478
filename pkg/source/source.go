// Package source loads in-memory records from JSON, JSON Lines or YAML files
// so they can be handed to the CSV writers.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fluxo/csv-writer/pkg/writer"
)

// Format identifies how a record file is laid out
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// DetectFormat picks a format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot detect record format of %q", path)
	}
}

// LoadFile reads all records from path, choosing the decoder by extension
func LoadFile(path string) ([]writer.Record, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	defer file.Close()

	return Load(file, format)
}

// Load decodes records from r in the given format
func Load(r io.Reader, format Format) ([]writer.Record, error) {
	switch format {
	case FormatJSON:
		return loadJSON(r)
	case FormatJSONL:
		return loadJSONL(r)
	case FormatYAML:
		return loadYAML(r)
	default:
		return nil, fmt.Errorf("unsupported record format %q", format)
	}
}

// Numbers are kept as json.Number so their source text is written unchanged.
func loadJSON(r io.Reader) ([]writer.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []writer.Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON records: %w", err)
	}
	return records, nil
}

func loadJSONL(r io.Reader) ([]writer.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var records []writer.Record
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var record writer.Record
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode record on line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

func loadYAML(r io.Reader) ([]writer.Record, error) {
	var records []writer.Record
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode YAML records: %w", err)
	}
	return records, nil
}
