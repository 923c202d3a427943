package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mdverse/mddata/internal/domain"
	"github.com/mdverse/mddata/internal/fetch"
)

func init() {
	var (
		flagAll     bool
		flagOffline bool
		flagForce   bool
	)
	cmd := &cobra.Command{
		Use:   "fetch [flags] DATASET...",
		Short: "Download datasets into the local cache",
		Long: "Download the named datasets into the data home, verifying each file " +
			"against its SHA-256 checksum. Files already cached and verified are skipped.",
		Args: cobra.ArbitraryArgs,
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

			opts := fetch.Options{
				DownloadIfMissing: !flagOffline,
				Force:             flagForce,
			}

			var locals []domain.LocalDataset
			if flagAll {
				locals, err = a.FetchAll(ctx, opts)
			} else {
				locals, err = a.Fetch(ctx, args, opts)
			}

			for _, local := range locals {
				keys := make([]string, 0, len(local.Files))
				for k := range local.Files {
					keys = append(keys, k)
				}
				sort.Strings(keys)

				fmt.Fprintf(flags.OutOrStdout(), "%s:\n", local.ID)
				for _, k := range keys {
					fmt.Fprintf(flags.OutOrStdout(), "  %s: %s\n", k, local.Files[k])
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&flagAll, "all", false, "Fetch every dataset in the catalog")
	cmd.Flags().BoolVar(&flagOffline, "offline", false, "Never download; fail if a file is not already cached")
	cmd.Flags().BoolVar(&flagForce, "force", false, "Re-download files even when cached and verified")
	argparser.AddCommand(cmd)
}
