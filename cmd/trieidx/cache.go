package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errCacheDisabled = errors.New("cache is disabled in the configuration")

func newCacheCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached indexes",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List cached keys",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				if a.cache == nil {
					return errCacheDisabled
				}
				keys, err := a.cache.ListKeys(cmd.Context())
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <key>...",
			Short: "Remove cached keys",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				if a.cache == nil {
					return errCacheDisabled
				}
				for _, k := range args {
					if err := a.cache.Remove(cmd.Context(), k); err != nil {
						return err
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached key of the namespace",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				if a.cache == nil {
					return errCacheDisabled
				}
				return a.engine.ClearCache(cmd.Context())
			},
		},
	)

	return cmd
}
