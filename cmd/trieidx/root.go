package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/trieidx/internal/config"
)

// datasetFlags select the dataset a command works on.
type datasetFlags struct {
	id           string
	fields       []string
	returnFields []string
	records      string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.id, "dataset", "d", "", "dataset id")
	cmd.Flags().StringSliceVarP(&f.fields, "fields", "f", nil, "fields to index")
	cmd.Flags().StringSliceVar(&f.returnFields, "return-fields", nil, "fields returned with results")
	cmd.Flags().StringVarP(&f.records, "records", "r", "", "JSON records file used when the dataset is not cached")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("fields")
}

// newRootCmd builds the command tree. Subcommands receive an app built from
// the configuration in their PreRun; the returned func closes it.
func newRootCmd() (*cobra.Command, func()) {
	var (
		configPath string
		logLevel   string
		a          *app
	)

	root := &cobra.Command{
		Use:          "trieidx",
		Short:        "Prefix search over JSON records",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			a, err = newApp(cmd.Context(), cfg)
			return err
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	get := func() *app { return a }

	root.AddCommand(
		newIndexCmd(get),
		newSearchCmd(get),
		newExportCmd(get),
		newCacheCmd(get),
	)

	cleanup := func() {
		if a != nil {
			a.Close()
			a = nil
		}
	}

	return root, cleanup
}
