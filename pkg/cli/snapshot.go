package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funvibe/regionck/internal/snapshot"
)

func (c *CLI) newSnapshotCmd() *cobra.Command {
	var bless bool

	cmd := &cobra.Command{
		Use:   "snapshot DIR...",
		Short: "Compare reports with .stderr snapshots",
		Long: `snapshot checks every .rgn file under the given directories and compares
its report with the sibling .stderr file. Line numbers print as LL and the
directory as $DIR. With --bless the snapshots are rewritten instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshot(cmd.Context(), args, bless)
		},
	}
	cmd.Flags().BoolVar(&bless, "bless", false, "rewrite snapshots with the current output")
	return cmd
}

func (c *CLI) runSnapshot(ctx context.Context, dirs []string, bless bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cases, err := snapshot.Discover(dirs)
	if err != nil {
		return err
	}

	// Snapshots never depend on local configuration.
	c.settings.Verbose = false
	c.settings.AnnotatedOnly = false
	c.settings.Cache.Enabled = false

	d, _, err := c.newDriver(ctx)
	if err != nil {
		return err
	}
	paths := make([]string, len(cases))
	for i, tc := range cases {
		paths[i] = tc.Source
	}
	results, err := d.CheckFiles(ctx, paths)
	if err != nil {
		return err
	}

	failed := 0
	for i, tc := range cases {
		actual := snapshot.Render(results[i])
		var outcome snapshot.Outcome
		if bless {
			outcome, err = snapshot.Bless(tc, actual)
		} else {
			outcome, err = snapshot.Compare(tc, actual)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", tc.Source, err)
		}

		fmt.Fprintf(c.stdout, "%s ... %s\n", tc.Source, outcome.Status)
		if outcome.Status == snapshot.Fail {
			failed++
			fmt.Fprint(c.stdout, outcome.Diff)
		}
	}

	fmt.Fprintf(c.stdout, "\n%d passed; %d failed\n", len(cases)-failed, failed)
	if failed > 0 {
		return errFindings
	}
	return nil
}
