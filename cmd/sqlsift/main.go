// Package main implements the sqlsift CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sqlsift/sqlsift/internal/batch"
	"github.com/sqlsift/sqlsift/internal/cli"
	"github.com/sqlsift/sqlsift/internal/diag"
	"github.com/sqlsift/sqlsift/internal/logging"
)

func main() {
	code := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := cli.Parse(args)
	if err != nil {
		if cli.IsHelp(err) {
			_, _ = fmt.Fprintln(stdout, err.Error())
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err.Error())
		return 1
	}

	logger := logging.New(logging.Options{
		Verbose: opts.Verbose,
		Writer:  stderr,
	})

	b := batch.Batch{Env: batch.Environment{Logger: logger}}
	summary, runErr := b.Run(ctx, batch.RunOptions{
		ConfigPath:   opts.ConfigPath,
		StrictConfig: opts.StrictConfig,
	})
	if runErr != nil {
		_, _ = fmt.Fprintln(stderr, runErr.Error())
		return 2
	}

	if opts.Format == "json" {
		printJSON(stdout, summary.Diagnostics)
	} else {
		printText(stdout, summary.Diagnostics)
	}

	for _, d := range summary.Diagnostics {
		if d.Severity == diag.SeverityError {
			return 1
		}
	}
	return 0
}

func printText(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		span := d.PrimarySpan
		_, _ = fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n", span.File, span.StartLine, span.StartColumn, d.Severity, d.Message, d.Code)
		for _, rel := range d.Related {
			_, _ = fmt.Fprintf(w, "  %s:%d:%d: %s\n", rel.Span.File, rel.Span.StartLine, rel.Span.StartColumn, rel.Message)
		}
		for _, s := range d.Suggestions {
			_, _ = fmt.Fprintf(w, "  did you mean %q?\n", s)
		}
	}
}

type jsonDiagnostic struct {
	Code     string   `json:"code"`
	Severity string   `json:"severity"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Message  string   `json:"message"`
	Suggest  []string `json:"suggestions,omitempty"`
}

func printJSON(w io.Writer, diags []diag.Diagnostic) {
	out := make([]jsonDiagnostic, len(diags))
	for i, d := range diags {
		out[i] = jsonDiagnostic{
			Code:     string(d.Code),
			Severity: d.Severity.String(),
			File:     d.PrimarySpan.File,
			Line:     d.PrimarySpan.StartLine,
			Column:   d.PrimarySpan.StartColumn,
			Message:  d.Message,
			Suggest:  d.Suggestions,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
