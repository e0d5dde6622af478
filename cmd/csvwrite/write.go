package main

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/fluxo/csv-writer/pkg/errs"
	"github.com/fluxo/csv-writer/pkg/header"
	"github.com/fluxo/csv-writer/pkg/logger"
	"github.com/fluxo/csv-writer/pkg/source"
	"github.com/fluxo/csv-writer/pkg/writer"
)

type writeOptions struct {
	input       string
	path        string
	header      []string
	delimiter   string
	idDelimiter string
	encoding    string
	append      bool
	alwaysQuote bool
	logLevel    string
	logFormat   string
}

func newWriteCommand() *cobra.Command {
	opts := &writeOptions{}

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write one record file to a CSV target",
		Example: `  csvwrite write --input people.json --path people.csv --header name --header lang
  csvwrite write --input people.yaml --path people.csv --header name=NAME,lang=LANGUAGE --delimiter ';'
  csvwrite write --input more.jsonl --path people.csv --header name,lang --append`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Record file (.json, .jsonl, .yaml)")
	cmd.Flags().StringVarP(&opts.path, "path", "o", "", "Target CSV file")
	cmd.Flags().StringSliceVar(&opts.header, "header", nil, "Columns in output order: id or id=TITLE")
	cmd.Flags().StringVarP(&opts.delimiter, "delimiter", "d", ",", "Field delimiter (single character)")
	cmd.Flags().StringVar(&opts.idDelimiter, "header-id-delimiter", "", "Split field ids into nested paths on this character")
	cmd.Flags().StringVarP(&opts.encoding, "encoding", "e", "utf8", "Output text encoding")
	cmd.Flags().BoolVarP(&opts.append, "append", "a", false, "Append to existing content instead of overwriting")
	cmd.Flags().BoolVar(&opts.alwaysQuote, "always-quote", false, "Quote every field")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("header")

	return cmd
}

func runWrite(ctx context.Context, opts *writeOptions, cmd *cobra.Command) error {
	log := logger.NewWithWriter(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)

	delimiter, err := singleRune("delimiter", opts.delimiter)
	if err != nil {
		return err
	}
	var idDelimiter rune
	if opts.idDelimiter != "" {
		if idDelimiter, err = singleRune("header-id-delimiter", opts.idDelimiter); err != nil {
			return err
		}
	}

	w, err := writer.NewObjectCSVWriter(writer.Options{
		Path:              opts.path,
		Header:            header.ParseFlags(opts.header),
		FieldDelimiter:    delimiter,
		Encoding:          opts.encoding,
		Append:            opts.append,
		AlwaysQuote:       opts.alwaysQuote,
		HeaderIDDelimiter: idDelimiter,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	records, err := source.LoadFile(opts.input)
	if err != nil {
		return err
	}

	if err := w.WriteRecords(records); err != nil {
		return err
	}

	metadata, err := w.Metadata()
	if err != nil {
		return err
	}

	log.WithContext(ctx).WithComponent("cli").WithTarget(metadata.Path).LogTargetWritten("CSV target written", 0, logger.Fields{
		"records":  metadata.RowCount,
		"size":     metadata.Size,
		"checksum": metadata.Checksum,
	})
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", metadata.RowCount, metadata.Path)
	return nil
}

func singleRune(flag, value string) (rune, error) {
	if utf8.RuneCountInString(value) != 1 {
		return 0, errs.Configuration(flag, "must be a single character, got %q", value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}
