// Package analyze is the single entry point that drives SchemaBuilder's
// output and a batch of query statements through NameResolver/TypeResolver
// and SuppressionMap to produce the final diagnostic list.
package analyze

import (
	"context"

	"github.com/sqlsift/sqlsift/internal/catalog"
	"github.com/sqlsift/sqlsift/internal/diag"
	"github.com/sqlsift/sqlsift/internal/dialect"
	"github.com/sqlsift/sqlsift/internal/resolve"
	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/suppress"
)

// Options configures one analysis run.
type Options struct {
	DisabledRules map[diag.Code]bool
	MaxErrors     int
	Dialect       dialect.Dialect
	Suppressions  *suppress.Map
}

// Analyze resolves and type-checks every statement against catalog,
// returning the stable-sorted, suppression-filtered, truncated diagnostic
// list. Cancellation is cooperative: ctx is checked between top-level
// statements, and whatever has been accumulated so far is returned once it
// fires.
func Analyze(ctx context.Context, cat *catalog.Catalog, path string, statements []sqlast.Stmt, parseDiags []diag.Diagnostic, opts Options) []diag.Diagnostic {
	r := resolve.New(cat, opts.Dialect, path)

	for _, stmt := range statements {
		select {
		case <-ctx.Done():
			return finalize(append(append([]diag.Diagnostic{}, parseDiags...), r.Diagnostics()...), opts)
		default:
		}
		r.Statement(stmt)
	}

	all := append(append([]diag.Diagnostic{}, parseDiags...), r.Diagnostics()...)
	return finalize(all, opts)
}

func finalize(diags []diag.Diagnostic, opts Options) []diag.Diagnostic {
	diags = filterDisabled(diags, opts.DisabledRules)
	if opts.Suppressions != nil {
		diags = opts.Suppressions.Filter(diags)
	}
	diag.Sort(diags)
	return diag.Truncate(diags, opts.MaxErrors)
}

func filterDisabled(diags []diag.Diagnostic, disabled map[diag.Code]bool) []diag.Diagnostic {
	if len(disabled) == 0 {
		return diags
	}
	out := diags[:0:0]
	for _, d := range diags {
		if disabled[d.Code] {
			continue
		}
		out = append(out, d)
	}
	return out
}
