package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show DATASET",
		Short: "Show a dataset definition and its local cache state",
		Args:  cobra.ExactArgs(1),
		RunE: func(flags *cobra.Command, args []string) error {
			ctx := flags.Context()
			a, shutdown, err := boot(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			ds, err := a.Dataset(args[0])
			if err != nil {
				return err
			}
			statuses, err := a.Status([]string{ds.ID})
			if err != nil {
				return err
			}

			out := flags.OutOrStdout()
			fmt.Fprintf(out, "id:      %s\n", ds.ID)
			fmt.Fprintf(out, "name:    %s\n", ds.Name)
			if ds.License != "" {
				fmt.Fprintf(out, "license: %s\n", ds.License)
			}
			if ds.Source != "" {
				fmt.Fprintf(out, "source:  %s\n", ds.Source)
			}
			if ds.Description != "" {
				fmt.Fprintf(out, "\n%s\n", ds.Description)
			}

			fmt.Fprintf(out, "\nfiles:\n")
			for _, st := range statuses[ds.ID] {
				fmt.Fprintf(out, "  %s (%s)\n", st.Key, st.Filename)
				fmt.Fprintf(out, "    state: %s\n", st.State)
				fmt.Fprintf(out, "    path:  %s\n", st.Path)
				if f, ok := ds.File(st.Key); ok {
					fmt.Fprintf(out, "    sha256: %s\n", f.Checksum)
				}
			}
			return nil
		},
	}
	argparser.AddCommand(cmd)
}
