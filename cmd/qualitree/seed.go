package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlesng35/qualitree/internal/database"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML fixture dataset into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Fixtures.Path
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			loaded, err := loadFixtures(cmd.Context(), db, file)
			if err != nil {
				return err
			}
			if !loaded {
				fmt.Fprintln(cmd.OutOrStdout(), "database already contains projects; nothing loaded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fixtures loaded from %s\n", fixtureSource(file))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML fixture file (defaults to fixtures.path, then the built-in dataset)")
	return cmd
}
