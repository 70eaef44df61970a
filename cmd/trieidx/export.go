package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/trieidx/snapshot"
)

func newExportCmd(get func() *app) *cobra.Command {
	var (
		ds  datasetFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the path-compressed export of a dataset as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()

			if _, err := a.engine.Load(cmd.Context(), dataset(ds.id, ds.fields, ds.returnFields, ds.records)); err != nil {
				return err
			}

			snap, err := a.engine.Export(cmd.Context())
			if err != nil {
				return err
			}
			data, err := snapshot.Encode(nil, snap)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			a.logger.Info("export written",
				"path", out,
				"bytes", len(data),
				"items", len(snap.Items),
				"nodes", snap.Trie.Count(),
			)
			return nil
		},
	}

	ds.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	return cmd
}
