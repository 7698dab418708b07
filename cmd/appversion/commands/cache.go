package commands

import (
	"fmt"

	"github.com/gophersatwork/versioning"
	"github.com/spf13/cobra"
)

// NewClearCacheCommand creates the clear-cache command
func NewClearCacheCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Delete cached versions of every format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.svc.ClearCache(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return err
		},
	}
}

// NewPruneCommand creates the prune command
func NewPruneCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries from the file cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fc, ok := a.cache.(*versioning.FileCache)
			if !ok {
				return fmt.Errorf("prune needs the file cache backend, got %q", a.cfg.Cache.Backend)
			}
			n, err := fc.Prune()
			if err != nil {
				return fmt.Errorf("prune: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", n)
			return err
		},
	}
}

// NewFormatsCommand creates the formats command
func NewFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported version formats",
		Args:  cobra.NoArgs,
		// No service needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		PersistentPostRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, format := range versioning.Formats() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), format); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
