package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/funvibe/regionck/internal/cache"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent report cache",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete cache entries older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			path := c.settings.Cache.Path
			if path == "" {
				return errors.New("cache.path is not configured")
			}
			rc, err := cache.Open(ctx, path, c.settings.Cache.Size)
			if err != nil {
				return err
			}
			defer rc.Close()

			n, err := rc.Prune(ctx, olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "removed %d entries\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "minimum age of removed entries")

	cmd.AddCommand(prune)
	return cmd
}
