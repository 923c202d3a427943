package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mdverse/mddata/internal/domain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status [DATASET...]",
		Short: "Summarize the data home and per-dataset cache usage",
		Args:  cobra.ArbitraryArgs,
		RunE: func(flags *cobra.Command, args []string) error {
			ctx := flags.Context()
			a, shutdown, err := boot(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			statuses, err := a.Status(args)
			if err != nil {
				return err
			}

			out := flags.OutOrStdout()
			fmt.Fprintf(out, "data home: %s\n\n", a.Home())

			ids := make([]string, 0, len(statuses))
			for id := range statuses {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATASET\tVERIFIED\tSTALE\tMISSING\tBYTES")
			var totalBytes int64
			for _, id := range ids {
				var verified, stale, missing int
				var bytes int64
				for _, st := range statuses[id] {
					switch st.State {
					case domain.FileVerified:
						verified++
					case domain.FileStale:
						stale++
					case domain.FileMissing:
						missing++
					}
					bytes += st.SizeBytes
				}
				totalBytes += bytes
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", id, verified, stale, missing, bytes)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\ntotal cached bytes: %d\n", totalBytes)
			return nil
		},
	}
	argparser.AddCommand(cmd)
}
