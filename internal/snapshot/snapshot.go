// Package snapshot compares rendered reports with expected-output files that
// sit next to the sources, compiletest style.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/driver"
	"github.com/funvibe/regionck/internal/prettyprinter"
)

// Case is one source file and the snapshot path that belongs to it. The
// snapshot need not exist.
type Case struct {
	Source   string
	Snapshot string
}

type Status int

const (
	Pass Status = iota
	Fail
	Blessed
)

func (s Status) String() string {
	switch s {
	case Fail:
		return "FAIL"
	case Blessed:
		return "BLESSED"
	default:
		return "ok"
	}
}

type Outcome struct {
	Case   Case
	Status Status
	// Diff is a unified diff from expected to actual when Status is Fail.
	Diff string
}

// Discover finds every source file under dirs, sorted by path. A path that
// names a file is taken as is.
func Discover(dirs []string) ([]Case, error) {
	var cases []Case
	for _, root := range dirs {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || filepath.Ext(path) != config.SourceFileExt {
				return nil
			}
			cases = append(cases, CaseFor(path))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Source < cases[j].Source })
	return cases, nil
}

// CaseFor pairs a source with its sibling snapshot.
func CaseFor(source string) Case {
	return Case{
		Source:   source,
		Snapshot: strings.TrimSuffix(source, filepath.Ext(source)) + config.SnapshotFileExt,
	}
}

// Render prints a result the way snapshots store it: no colour, LL line
// numbers and the source directory replaced by $DIR.
func Render(res *driver.Result) string {
	if len(res.Report.Records) == 0 {
		return ""
	}
	out := prettyprinter.NewTextPrinter(res.Source, prettyprinter.TextOptions{
		Snippets:       true,
		AnonymizeLines: true,
		DisplayPath:    config.DirPlaceholder + "/" + filepath.Base(res.Path),
	}).Print(res.Report)
	return Normalize(out, filepath.Dir(res.Path))
}

// Normalize replaces remaining mentions of dir with $DIR.
func Normalize(output, dir string) string {
	if dir == "" || dir == "." {
		return output
	}
	return strings.ReplaceAll(output, filepath.ToSlash(dir)+"/", config.DirPlaceholder+"/")
}

// Compare checks actual output against the case's snapshot. A missing
// snapshot matches empty output.
func Compare(c Case, actual string) (Outcome, error) {
	expected, err := os.ReadFile(c.Snapshot)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Outcome{}, fmt.Errorf("reading snapshot: %w", err)
	}
	if string(expected) == actual {
		return Outcome{Case: c, Status: Pass}, nil
	}

	diff, err := Diff(c.Snapshot, string(expected), actual)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Case: c, Status: Fail, Diff: diff}, nil
}

// Bless rewrites the snapshot with actual, removing it when actual is empty.
func Bless(c Case, actual string) (Outcome, error) {
	current, err := os.ReadFile(c.Snapshot)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Outcome{}, fmt.Errorf("reading snapshot: %w", err)
	}
	if string(current) == actual && (exists || actual == "") {
		return Outcome{Case: c, Status: Pass}, nil
	}

	if actual == "" {
		if err := os.Remove(c.Snapshot); err != nil {
			return Outcome{}, fmt.Errorf("removing snapshot: %w", err)
		}
		return Outcome{Case: c, Status: Blessed}, nil
	}
	if err := os.WriteFile(c.Snapshot, []byte(actual), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("writing snapshot: %w", err)
	}
	return Outcome{Case: c, Status: Blessed}, nil
}

// Diff renders a unified diff between two outputs.
func Diff(name, expected, actual string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: name,
		ToFile:   "actual",
		Context:  3,
	})
}
