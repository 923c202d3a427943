package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mdverse/mddata/internal/config"
	"github.com/mdverse/mddata/internal/logger"
	"github.com/mdverse/mddata/pkg/remoteindex"
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan URL",
		Short: "Scan a remote HTML index for downloadable files",
		Long: "Fetch an HTML listing (directory index, archive landing page) and print " +
			"the file links it advertises as a YAML skeleton for a registry file. " +
			"Checksums must be pinned by hand after a first download.",
		Args: cobra.ExactArgs(1),
		RunE: func(flags *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if _, err := logger.Init(cfg); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Close()

			scanner := remoteindex.NewScanner(nil)
			links, err := scanner.Scan(flags.Context(), args[0])
			if err != nil {
				return err
			}
			if len(links) == 0 {
				return fmt.Errorf("no file links found at %s", args[0])
			}

			type fileEntry struct {
				Key      string `yaml:"key"`
				Filename string `yaml:"filename"`
				URL      string `yaml:"url"`
				Checksum string `yaml:"checksum"`
			}
			files := make([]fileEntry, 0, len(links))
			for _, l := range links {
				files = append(files, fileEntry{
					Key:      l.Name,
					Filename: l.Name,
					URL:      l.URL,
					Checksum: "", // pin after first download
				})
			}

			out, err := yaml.Marshal(map[string]any{"files": files})
			if err != nil {
				return fmt.Errorf("encode scan result: %w", err)
			}
			fmt.Fprint(flags.OutOrStdout(), string(out))
			return nil
		},
	}
	argparser.AddCommand(cmd)
}
