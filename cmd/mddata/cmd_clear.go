package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var flagAll bool
	cmd := &cobra.Command{
		Use:   "clear [flags] DATASET...",
		Short: "Remove cached datasets and their ledger records",
		Args:  cobra.ArbitraryArgs,
		RunE: func(flags *cobra.Command, args []string) error {
			if !flagAll && len(args) == 0 {
				return fmt.Errorf("name at least one dataset or pass --all")
			}
			if flagAll && len(args) > 0 {
				return fmt.Errorf("--all cannot be combined with dataset names")
			}

			ctx := flags.Context()
			a, shutdown, err := boot(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			if flagAll {
				return a.ClearAll()
			}
			return a.Clear(args)
		},
	}
	cmd.Flags().BoolVar(&flagAll, "all", false, "Clear every cached dataset under the data home")
	argparser.AddCommand(cmd)
}
