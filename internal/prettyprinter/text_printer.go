package prettyprinter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/report"
)

// ColorMode selects when ANSI colour is used.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always and never.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(s)); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	case "":
		return ColorAuto, nil
	}
	return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// UseColor resolves a mode against the file the report is written to.
func UseColor(mode ColorMode, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if f == nil {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[1;31m"
	ansiGreen = "\033[1;32m"
	ansiBlue  = "\033[1;34m"
)

type TextOptions struct {
	Color bool
	// Snippets prints the source line under each location.
	Snippets bool
	// AnonymizeLines prints LL instead of line numbers, as snapshots do.
	AnonymizeLines bool
	// DisplayPath replaces the record's file path when non-empty.
	DisplayPath string
}

// TextPrinter renders reports the way a compiler prints diagnostics.
type TextPrinter struct {
	buf  bytes.Buffer
	opts TextOptions
	src  []string
}

// NewTextPrinter prepares a printer for one file; source may be empty when
// snippets are off.
func NewTextPrinter(source string, opts TextOptions) *TextPrinter {
	p := &TextPrinter{opts: opts}
	if opts.Snippets {
		p.src = strings.Split(source, "\n")
	}
	return p
}

func (p *TextPrinter) paint(style, s string) string {
	if !p.opts.Color {
		return s
	}
	return style + s + ansiReset
}

func (p *TextPrinter) line(n int) string {
	if p.opts.AnonymizeLines {
		return config.LinePlaceholder
	}
	return strconv.Itoa(n)
}

// gutter is the width of the line-number column.
func (p *TextPrinter) gutter(r *report.Report) int {
	if p.opts.AnonymizeLines {
		return len(config.LinePlaceholder)
	}
	width := 1
	for _, rec := range r.Records {
		if w := len(strconv.Itoa(rec.Line)); w > width {
			width = w
		}
	}
	return width
}

// Print renders every record and, when the report has errors, the
// aborting summary.
func (p *TextPrinter) Print(r *report.Report) string {
	width := p.gutter(r)
	pad := strings.Repeat(" ", width)

	for _, rec := range r.Records {
		p.printRecord(rec, pad)
		p.buf.WriteString("\n")
	}

	if summary := report.Summary(r.ErrorCount()); summary != "" {
		p.buf.WriteString(p.paint(ansiRed, "error") + p.paint(ansiBold, ": "+summary) + "\n")
		p.buf.WriteString("\n")
	}
	return p.buf.String()
}

func (p *TextPrinter) printRecord(rec report.Record, pad string) {
	head := string(rec.Severity)
	style := ansiGreen
	if rec.Severity == report.SeverityError {
		style = ansiRed
		if rec.Code != "" {
			head += "[" + rec.Code + "]"
		}
	}
	p.buf.WriteString(p.paint(style, head) + p.paint(ansiBold, ": "+rec.Message) + "\n")

	path := rec.File
	if p.opts.DisplayPath != "" {
		path = p.opts.DisplayPath
	}
	fmt.Fprintf(&p.buf, "%s%s %s:%s:%d\n", pad, p.paint(ansiBlue, "-->"), path, p.line(rec.Line), rec.Column)

	bar := p.paint(ansiBlue, "|")
	if p.opts.Snippets && rec.Line >= 1 && rec.Line <= len(p.src) {
		text := strings.TrimRight(p.src[rec.Line-1], " \t\r")
		num := p.line(rec.Line)
		num = strings.Repeat(" ", len(pad)-len(num)) + num
		fmt.Fprintf(&p.buf, "%s %s\n", pad, bar)
		fmt.Fprintf(&p.buf, "%s %s %s\n", p.paint(ansiBlue, num), bar, expandTabs(text))
		caret := strings.Repeat(" ", caretOffset(text, rec.Column)) + p.paint(style, "^")
		fmt.Fprintf(&p.buf, "%s %s %s\n", pad, bar, caret)
	}

	if len(rec.Notes) > 0 {
		if p.opts.Snippets {
			fmt.Fprintf(&p.buf, "%s %s\n", pad, bar)
		}
		for _, note := range rec.Notes {
			fmt.Fprintf(&p.buf, "%s %s %s %s\n", pad, p.paint(ansiBlue, "="), p.paint(ansiBold, "note:"), note)
		}
	}
}

const tabWidth = 4

func expandTabs(line string) string {
	return strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
}

// caretOffset is the display width of the first column-1 characters of
// line once tabs are expanded.
func caretOffset(line string, column int) int {
	want := max(column-1, 0)
	width, seen := 0, 0
	for _, r := range line {
		if seen == want {
			break
		}
		if r == '\t' {
			width += tabWidth
		} else {
			width++
		}
		seen++
	}
	return width + want - seen
}

// WriteText renders r to w.
func WriteText(w io.Writer, r *report.Report, source string, opts TextOptions) error {
	_, err := io.WriteString(w, NewTextPrinter(source, opts).Print(r))
	return err
}
