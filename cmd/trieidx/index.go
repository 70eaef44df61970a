package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/trieidx"
)

func newIndexCmd(get func() *app) *cobra.Command {
	var (
		ds    datasetFlags
		force bool
	)

	cmd := &cobra.Command{
		Use:   "index <records.json>",
		Short: "Build the index of a JSON records file and cache it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ds.records = args[0]

			var opts []trieidx.LoadOption
			if force {
				opts = append(opts, trieidx.WithForceRefresh())
			}

			res, err := a.engine.Load(cmd.Context(), dataset(ds.id, ds.fields, ds.returnFields, ds.records), opts...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "dataset=%s source=%s records=%d items=%d terms=%d cache=%s key=%s took=%s\n",
				res.DatasetID, res.Source, res.Records, res.Items, res.Terms, res.CacheStatus, res.CacheKey, res.Duration)
			return nil
		},
	}

	cmd.Flags().StringVarP(&ds.id, "dataset", "d", "", "dataset id")
	cmd.Flags().StringSliceVarP(&ds.fields, "fields", "f", nil, "fields to index")
	cmd.Flags().StringSliceVar(&ds.returnFields, "return-fields", nil, "fields returned with results")
	cmd.Flags().BoolVar(&force, "force", false, "rebuild even if the dataset is cached")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("fields")

	return cmd
}
