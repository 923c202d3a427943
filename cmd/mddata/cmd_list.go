package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mdverse/mddata/internal/domain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog datasets and their cache state",
		Args:  cobra.NoArgs,
		RunE: func(flags *cobra.Command, _ []string) error {
			ctx := flags.Context()
			a, shutdown, err := boot(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			statuses, err := a.Status(nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(flags.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILES\tCACHED\tNAME")
			for _, ds := range a.Datasets() {
				cached := 0
				for _, st := range statuses[ds.ID] {
					if st.State != domain.FileMissing {
						cached++
					}
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", ds.ID, len(ds.Files), cached, ds.Name)
			}
			return w.Flush()
		},
	}
	argparser.AddCommand(cmd)
}
