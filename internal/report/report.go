// Package report turns analysis results into structured records that the
// prettyprinter renders as text and the cache stores as YAML.
package report

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/diagnostics"
	"github.com/funvibe/regionck/internal/regions"
)

type Severity string

const (
	SeverityNote  Severity = "note"
	SeverityError Severity = "error"
)

// Record is one headline diagnostic with its attached `= note:` lines.
type Record struct {
	Severity Severity `yaml:"severity"`
	Code     string   `yaml:"code,omitempty"`
	Message  string   `yaml:"message"`
	File     string   `yaml:"file"`
	Line     int      `yaml:"line"`
	Column   int      `yaml:"column"`
	Notes    []string `yaml:"notes,omitempty"`
}

// Report is everything printed for one input file.
type Report struct {
	File    string   `yaml:"file"`
	Records []Record `yaml:"records"`
}

type Options struct {
	// Verbose renders every region as '_#Nr.
	Verbose bool
	// AnnotatedOnly limits notes to functions marked #[regions].
	AnnotatedOnly bool
}

// Build assembles the report of one file: front-end errors first, then for
// each checked function its notes (function, then closures outer-to-inner)
// followed by its violations.
func Build(file string, checks []*regions.FnCheck, errs []*diagnostics.DiagnosticError, opts Options) *Report {
	r := &Report{File: file, Records: []Record{}}

	for _, err := range errs {
		r.Records = append(r.Records, Record{
			Severity: SeverityError,
			Code:     string(err.Code),
			Message:  err.Message(),
			File:     file,
			Line:     err.Token.Line,
			Column:   err.Token.Column,
		})
	}

	for _, check := range checks {
		if !opts.AnnotatedOnly || check.Annotated {
			for _, scope := range check.Scopes {
				r.Records = append(r.Records, scopeNote(file, check, scope, opts.Verbose))
			}
		}
		for _, j := range check.Violations() {
			v := check.Violation(j, opts.Verbose)
			r.Records = append(r.Records, Record{
				Severity: SeverityError,
				Message:  v.Error(),
				File:     file,
				Line:     v.Span.Line,
				Column:   v.Span.Column,
			})
		}
	}

	return r
}

func scopeNote(file string, check *regions.FnCheck, scope *regions.Scope, verbose bool) Record {
	headline := config.NoExternalRequirementsNote
	if len(scope.Requirements) > 0 {
		headline = config.ExternalRequirementsNote
	}

	notes := []string{
		"defining type: " + DefiningType(check.Ctx, scope.Defining, verbose),
		fmt.Sprintf("number of external vids: %d", scope.ExternalVids),
	}
	for _, req := range scope.Requirements {
		notes = append(notes, "where "+req.Render(check.Ctx, verbose))
	}

	return Record{
		Severity: SeverityNote,
		Message:  headline,
		File:     file,
		Line:     scope.Span.Line,
		Column:   scope.Span.Column,
		Notes:    notes,
	}
}

// DefiningType renders `supply with substs ['a, T]` or, for closures,
// `supply::{closure#0} with closure substs [...]`.
func DefiningType(ctx *regions.Context, dt regions.DefiningType, verbose bool) string {
	parts := make([]string, len(dt.Substs))
	for i, arg := range dt.Substs {
		parts[i] = arg.Render(ctx, verbose)
	}
	kind := "substs"
	if dt.Closure {
		kind = "closure substs"
	}
	return fmt.Sprintf("%s with %s [%s]", dt.Path, kind, strings.Join(parts, ", "))
}

// ErrorCount is the number of error records.
func (r *Report) ErrorCount() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Summary is the closing line of a report with n errors, or "" for none.
func Summary(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "aborting due to previous error"
	default:
		return fmt.Sprintf("aborting due to %d previous errors", n)
	}
}

// MarshalYAML encodes reports as a YAML sequence.
func MarshalYAML(reports []*Report) ([]byte, error) {
	out, err := yaml.Marshal(reports)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return out, nil
}

// UnmarshalYAML decodes what MarshalYAML produced.
func UnmarshalYAML(data []byte) ([]*Report, error) {
	var reports []*Report
	if err := yaml.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return reports, nil
}
