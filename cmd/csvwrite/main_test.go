package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo/csv-writer/pkg/errs"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	input := filepath.Join(dir, "people.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"name":"Bob","lang":"French"},{"name":"Mary","lang":"English"}]`), 0644))
	return input
}

func TestWriteCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)
	output := filepath.Join(dir, "people.csv")

	out, err := execute(t, "write", "--input", input, "--path", output,
		"--header", "name=NAME,lang=LANGUAGE", "--delimiter", ";")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 records")

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "NAME;LANGUAGE\nBob;French\nMary;English\n", string(content))
}

func TestWriteCommand_Append(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)
	output := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(output, []byte("Mike,German\n"), 0644))

	_, err := execute(t, "write", "-i", input, "-o", output, "--header", "name", "--header", "lang", "--append")
	require.NoError(t, err)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Mike,German\nBob,French\nMary,English\n", string(content))
}

func TestWriteCommand_ConfigurationError(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	_, err := execute(t, "write", "-i", input, "-o", filepath.Join(dir, "x.csv"), "--header", "name,name")
	assert.ErrorIs(t, err, errs.ErrConfiguration)
	assert.Equal(t, 2, exitCode(err))

	_, err = execute(t, "write", "-i", input, "-o", filepath.Join(dir, "x.csv"), "--header", "name", "--delimiter", ";;")
	assert.Equal(t, 2, exitCode(err))
}

func TestWriteCommand_IOError(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	_, err := execute(t, "write", "-i", input, "-o", filepath.Join(dir, "missing", "x.csv"), "--header", "name")
	assert.ErrorIs(t, err, errs.ErrIO)
	assert.Equal(t, 3, exitCode(err))
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)
	metricsFile := filepath.Join(dir, "csv.prom")

	job := fmt.Sprintf(`
logging:
  level: error
metrics:
  textfile: %q
targets:
  - name: titled
    input: %q
    path: %q
    header:
      - {id: name, title: NAME}
      - {id: lang, title: LANGUAGE}
  - name: reversed
    input: %q
    path: %q
    header: [lang, name]
`, metricsFile, input, filepath.Join(dir, "titled.csv"), input, filepath.Join(dir, "reversed.csv"))
	configPath := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(job), 0644))

	out, err := execute(t, "run", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "titled")
	assert.Contains(t, out, "reversed")

	titled, err := os.ReadFile(filepath.Join(dir, "titled.csv"))
	require.NoError(t, err)
	assert.Equal(t, "NAME,LANGUAGE\nBob,French\nMary,English\n", string(titled))

	reversed, err := os.ReadFile(filepath.Join(dir, "reversed.csv"))
	require.NoError(t, err)
	assert.Equal(t, "French,Bob\nEnglish,Mary\n", string(reversed))

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `csvwriter_records_written_total{target="titled"} 2`)
}

func TestRunCommand_BadConfig(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(fmt.Errorf("other")))
}
