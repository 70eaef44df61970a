package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/trieidx/codec"
)

func newSearchCmd(get func() *app) *cobra.Command {
	var (
		ds    datasetFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a cached dataset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if limit <= 0 {
				limit = a.cfg.Search.Limit
			}

			if _, err := a.engine.Load(cmd.Context(), dataset(ds.id, ds.fields, ds.returnFields, ds.records)); err != nil {
				return err
			}

			results, err := a.engine.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				item, err := codec.Default.Marshal(r.Item)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%.4f\t%s\t%s\n", r.Score, r.ID, item)
			}
			return nil
		},
	}

	ds.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default from config)")

	return cmd
}
