// Package batch orchestrates one full sqlsift run: load configuration,
// parse and cache schema/query files by content hash, build the catalog,
// and analyze every query file against it.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sqlsift/sqlsift/internal/analysiscache"
	"github.com/sqlsift/sqlsift/internal/analyze"
	"github.com/sqlsift/sqlsift/internal/catalog"
	"github.com/sqlsift/sqlsift/internal/config"
	"github.com/sqlsift/sqlsift/internal/dialect"
	"github.com/sqlsift/sqlsift/internal/diag"
	"github.com/sqlsift/sqlsift/internal/schemabuild"
	"github.com/sqlsift/sqlsift/internal/sqlast"
	"github.com/sqlsift/sqlsift/internal/sqlparse"
	"github.com/sqlsift/sqlsift/internal/sqlscan"
	"github.com/sqlsift/sqlsift/internal/suppress"
)

// Environment captures the external dependencies a Batch run needs.
type Environment struct {
	Logger *slog.Logger
	Cache  analysiscache.Cache
}

// RunOptions configures one batch run.
type RunOptions struct {
	ConfigPath   string
	StrictConfig bool
}

// Summary reports what a Run produced.
type Summary struct {
	Catalog     *catalog.Catalog
	Diagnostics []diag.Diagnostic
	SchemaFiles int
	QueryFiles  int
}

// Batch runs the load-build-analyze pipeline against an Environment.
type Batch struct {
	Env Environment
}

// Run loads opts.ConfigPath, builds the catalog from every configured
// schema file, and analyzes every configured query file against it. The
// returned Summary's Diagnostics is sorted and truncated to the config's
// max_errors, across the whole run rather than per file.
func (b *Batch) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	var summary Summary

	res, err := config.Load(opts.ConfigPath, config.LoadOptions{Strict: opts.StrictConfig})
	if err != nil {
		return summary, fmt.Errorf("load config: %w", err)
	}
	for _, w := range res.Warnings {
		b.logger().Warn(w)
	}
	plan := res.Plan

	var schemaStmts []sqlast.Stmt
	var pending []diag.Diagnostic

	for _, path := range plan.Schemas {
		pf, err := b.parseFile(ctx, plan.Dialect, path, false)
		if err != nil {
			return summary, fmt.Errorf("read schema %s: %w", path, err)
		}
		schemaStmts = append(schemaStmts, pf.Stmts...)
		pending = append(pending, pf.Diags...)
		summary.SchemaFiles++
	}

	cat, buildDiags := schemabuild.Build(plan.Dialect, schemaStmts)
	pending = append(pending, buildDiags...)
	summary.Catalog = cat

	disabled := disabledCodes(plan.DisabledRules)
	all := append([]diag.Diagnostic{}, pending...)

	for _, path := range plan.Queries {
		pf, err := b.parseFile(ctx, plan.Dialect, path, true)
		if err != nil {
			return summary, fmt.Errorf("read query %s: %w", path, err)
		}

		suppressions := suppress.Build(pf.Tokens)
		fileDiags := analyze.Analyze(ctx, cat, path, pf.Stmts, pf.Diags, analyze.Options{
			DisabledRules: disabled,
			MaxErrors:     0,
			Dialect:       plan.Dialect,
			Suppressions:  suppressions,
		})
		all = append(all, fileDiags...)
		summary.QueryFiles++
		b.logger().Debug("analyzed query file", "path", path, "diagnostics", len(fileDiags))

		select {
		case <-ctx.Done():
			summary.Diagnostics = finalize(all, disabled, plan.MaxErrors)
			return summary, ctx.Err()
		default:
		}
	}

	summary.Diagnostics = finalize(all, disabled, plan.MaxErrors)
	return summary, nil
}

func (b *Batch) logger() *slog.Logger {
	if b.Env.Logger != nil {
		return b.Env.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (b *Batch) cache() analysiscache.Cache {
	if b.Env.Cache == nil {
		b.Env.Cache = analysiscache.NewMemoryCache()
	}
	return b.Env.Cache
}

// parsedFile is one file's cached scan+parse output.
type parsedFile struct {
	Tokens []sqlscan.Token
	Stmts  []sqlast.Stmt
	Diags  []diag.Diagnostic
}

// parseFile scans and parses path, reusing a cached result when the file's
// content hash has already been seen during this run (or a prior one, if
// the caller supplied a longer-lived Cache).
func (b *Batch) parseFile(ctx context.Context, dial dialect.Dialect, path string, captureDocs bool) (parsedFile, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return parsedFile{}, err
	}

	key := analysiscache.ComputeKeyWithPrefix(path, data)
	if cached, ok := b.cache().Get(ctx, key); ok {
		if pf, ok := cached.(parsedFile); ok {
			return pf, nil
		}
	}

	tokens, err := sqlscan.Scan(path, data, captureDocs)
	if err != nil {
		return parsedFile{}, fmt.Errorf("scan %s: %w", path, err)
	}
	stmts, parseDiags := sqlparse.Parse(path, dial, tokens)

	pf := parsedFile{Tokens: tokens, Stmts: stmts, Diags: parseDiags}
	b.cache().Set(ctx, key, pf, time.Hour)
	return pf, nil
}

func disabledCodes(raw map[string]struct{}) map[diag.Code]bool {
	out := make(map[diag.Code]bool, len(raw))
	for code := range raw {
		out[diag.Code(code)] = true
	}
	return out
}

func finalize(diags []diag.Diagnostic, disabled map[diag.Code]bool, maxErrors int) []diag.Diagnostic {
	out := diags[:0:0]
	for _, d := range diags {
		if disabled[d.Code] {
			continue
		}
		out = append(out, d)
	}
	diag.Sort(out)
	return diag.Truncate(out, maxErrors)
}
