// Package suppress parses `sqlsift:disable` directive comments out of the
// scanned token stream and answers whether a given diagnostic code is
// suppressed at a given line.
package suppress

import (
	"strings"

	"github.com/sqlsift/sqlsift/internal/diag"
	"github.com/sqlsift/sqlsift/internal/sqlscan"
)

const directivePrefix = "sqlsift:disable"

// Directive is one parsed `-- sqlsift:disable [CODE,...]` (bare form
// disables every code) attached to the line range it governs.
type Directive struct {
	Codes     []diag.Code // empty means "all codes"
	StartLine int
	EndLine   int // inclusive; for a line-trailing comment, == StartLine
}

func (d Directive) disables(code diag.Code) bool {
	if len(d.Codes) == 0 {
		return true
	}
	for _, c := range d.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// Map is a built suppression table for one file, queried once per
// diagnostic candidate by line and code.
type Map struct {
	directives []Directive
}

// Build scans every comment token for suppression directives. A directive
// trailing code on its own line (e.g. `SELECT 1; -- sqlsift:disable E0002`)
// governs only that line. A standalone directive on its own line accumulates
// with any immediately-following standalone directive comments into one
// block, whose EndLine reaches to the line of whatever token comes right
// after the run — or, if nothing follows but EOF, stays open to the end of
// the file (EndLine <= 0, checked by Suppressed).
func Build(tokens []sqlscan.Token) *Map {
	m := &Map{}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind != sqlscan.KindComment && tok.Kind != sqlscan.KindDocComment {
			continue
		}
		codes, ok := parseDirective(tok.Text)
		if !ok {
			continue
		}
		startLine := tok.Line
		endLine := tok.Line
		// A trailing directive (something else already sits on its line, e.g.
		// `SELECT 1; -- sqlsift:disable E0002`) governs only that line and
		// never accumulates with what follows.
		trailing := i > 0 && tokens[i-1].Line == tok.Line
		j := i
		if !trailing {
			// Accumulate a run of directive comments on consecutive lines into
			// one block, covering through the next non-comment token's line.
			for j+1 < len(tokens) {
				next := tokens[j+1]
				if (next.Kind == sqlscan.KindComment || next.Kind == sqlscan.KindDocComment) && next.Line == tokens[j].Line+1 {
					if extraCodes, ok := parseDirective(next.Text); ok {
						codes = mergeCodes(codes, extraCodes)
						endLine = next.Line
						j++
						continue
					}
				}
				break
			}
			// The doc-comment token the scanner emits just before a CREATE
			// is not the governed statement; look past it.
			k := j + 1
			for k < len(tokens) && tokens[k].Kind == sqlscan.KindDocComment {
				k++
			}
			if k < len(tokens) && tokens[k].Kind != sqlscan.KindEOF {
				endLine = tokens[k].Line
			} else {
				endLine = -1 // open to end of file
			}
		}
		m.directives = append(m.directives, Directive{
			Codes:     codes,
			StartLine: startLine,
			EndLine:   endLine,
		})
		i = j
	}
	return m
}

func mergeCodes(a, b []diag.Code) []diag.Code {
	if len(a) == 0 || len(b) == 0 {
		return nil // either side meant "all codes"
	}
	return append(append([]diag.Code{}, a...), b...)
}

// parseDirective recognizes `-- sqlsift:disable` and `-- sqlsift:disable
// CODE1,CODE2`, tolerating the comment marker already stripped or not.
func parseDirective(commentText string) ([]diag.Code, bool) {
	text := strings.TrimSpace(commentText)
	text = strings.TrimPrefix(text, "--")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, directivePrefix) {
		return nil, false
	}
	rest := strings.TrimSpace(text[len(directivePrefix):])
	if rest == "" {
		return nil, true
	}
	parts := strings.Split(rest, ",")
	codes := make([]diag.Code, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		codes = append(codes, diag.Code(p))
	}
	return codes, true
}

// Suppressed reports whether code is suppressed at line.
func (m *Map) Suppressed(line int, code diag.Code) bool {
	if m == nil {
		return false
	}
	for _, d := range m.directives {
		if line < d.StartLine {
			continue
		}
		if d.EndLine > 0 && line > d.EndLine {
			continue
		}
		if d.disables(code) {
			return true
		}
	}
	return false
}

// Filter removes every diagnostic this map suppresses.
func (m *Map) Filter(diags []diag.Diagnostic) []diag.Diagnostic {
	if m == nil || len(m.directives) == 0 {
		return diags
	}
	out := diags[:0:0]
	for _, d := range diags {
		if m.Suppressed(d.PrimarySpan.StartLine, d.Code) {
			continue
		}
		out = append(out, d)
	}
	return out
}
