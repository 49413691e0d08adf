package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/funvibe/regionck/internal/cache"
	"github.com/funvibe/regionck/internal/driver"
	"github.com/funvibe/regionck/internal/prettyprinter"
	"github.com/funvibe/regionck/internal/report"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	var (
		format        string
		annotatedOnly bool
		noSnippets    bool
		useCache      bool
		cachePath     string
	)

	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Check files and print their reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.settings
			if format != "" {
				s.Format = format
			}
			if cmd.Flags().Changed("annotated-only") {
				s.AnnotatedOnly = annotatedOnly
			}
			if noSnippets {
				s.Snippets = false
			}
			if useCache {
				s.Cache.Enabled = true
			}
			if cachePath != "" {
				s.Cache.Path = cachePath
			}
			if err := s.Validate(); err != nil {
				return err
			}
			return c.runCheck(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "report format: text or yaml")
	cmd.Flags().BoolVar(&annotatedOnly, "annotated-only", false, "print notes only for #[regions] functions")
	cmd.Flags().BoolVar(&noSnippets, "no-snippets", false, "do not print source lines")
	cmd.Flags().BoolVar(&useCache, "cache", false, "reuse reports of unchanged files")
	cmd.Flags().StringVar(&cachePath, "cache-path", "", "SQLite file that persists the cache")

	return cmd
}

func (c *CLI) newDriver(ctx context.Context) (*driver.Driver, *cache.Cache, error) {
	s := c.settings
	opts := driver.Options{
		Report: report.Options{Verbose: s.Verbose, AnnotatedOnly: s.AnnotatedOnly},
		Jobs:   s.Jobs,
		Logger: c.logger,
	}

	var rc *cache.Cache
	if s.Cache.Enabled {
		var err error
		rc, err = cache.Open(ctx, s.Cache.Path, s.Cache.Size)
		if err != nil {
			return nil, nil, err
		}
		rc.Logger = c.logger
		opts.Cache = rc
	}

	d := driver.New(opts)
	c.logger.Debug("starting run", "run", d.RunID().String(), "jobs", s.Jobs, "cache", s.Cache.Enabled)
	return d, rc, nil
}

func (c *CLI) runCheck(ctx context.Context, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	d, rc, err := c.newDriver(ctx)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
	}

	results, err := d.CheckFiles(ctx, paths)
	if err != nil {
		return err
	}

	if c.settings.Format == "yaml" {
		reports := make([]*report.Report, len(results))
		for i, r := range results {
			reports[i] = r.Report
		}
		out, err := report.MarshalYAML(reports)
		if err != nil {
			return err
		}
		if _, err := c.stdout.Write(out); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	} else {
		mode, _ := prettyprinter.ParseColorMode(c.settings.Color)
		var out *os.File
		if f, ok := c.stdout.(*os.File); ok {
			out = f
		}
		opts := prettyprinter.TextOptions{
			Color:    prettyprinter.UseColor(mode, out),
			Snippets: c.settings.Snippets,
		}
		for _, r := range results {
			if err := prettyprinter.WriteText(c.stdout, r.Report, r.Source, opts); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}
	}

	if driver.ErrorCount(results) > 0 {
		return errFindings
	}
	return nil
}
