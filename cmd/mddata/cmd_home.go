package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdverse/mddata/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "home",
		Short: "Print the data home directory",
		Long: "Print the cache root. Defaults to ~/mddata and can be overridden " +
			"with the MDDATA_HOME environment variable.",
		Args: cobra.NoArgs,
		RunE: func(flags *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fmt.Fprintln(flags.OutOrStdout(), cfg.DataHome)
			return nil
		},
	}
	argparser.AddCommand(cmd)
}
