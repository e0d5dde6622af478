package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluxo/csv-writer/pkg/errs"
)

var version = "1.0.0"

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "csvwrite",
		Short: "Write JSON or YAML records to CSV files",
		Long: `csvwrite converts records (field/value objects) into CSV files with a
declared column order, optional header row, custom delimiter, text encoding
and append or overwrite semantics.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newWriteCommand(), newRunCommand())
	return rootCmd
}

// exitCode maps error kinds to process exit codes
func exitCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrConfiguration):
		return 2
	case errors.Is(err, errs.ErrIO):
		return 3
	default:
		return 1
	}
}
