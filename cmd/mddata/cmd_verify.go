package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mdverse/mddata/internal/domain"
)

func init() {
	var flagAll bool
	cmd := &cobra.Command{
		Use:   "verify [flags] DATASET...",
		Short: "Re-hash cached files against their registry checksums",
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

			ids := args
			if flagAll {
				ids = nil
				for _, ds := range a.Datasets() {
					ids = append(ids, ds.ID)
				}
			}

			results, err := a.Verify(ctx, ids)
			if err != nil {
				return err
			}

			bad := 0
			dsIDs := make([]string, 0, len(results))
			for id := range results {
				dsIDs = append(dsIDs, id)
			}
			sort.Strings(dsIDs)

			out := flags.OutOrStdout()
			for _, id := range dsIDs {
				fmt.Fprintf(out, "%s:\n", id)
				for _, st := range results[id] {
					fmt.Fprintf(out, "  %-10s %s\n", st.State, st.Filename)
					if st.State == domain.FileStale {
						bad++
					}
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d file(s) failed verification", bad)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagAll, "all", false, "Verify every dataset in the catalog")
	argparser.AddCommand(cmd)
}
