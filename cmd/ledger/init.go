package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shopledger/internal/cli"
)

const defaultConfigPath = "ledger.yaml"

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file and create the tables",
		Long: `Init writes ledger.yaml (or the --config path) with default settings
unless the file already exists, then opens the configured storage, which
creates every missing table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configFile
			if path == "" {
				path = defaultConfigPath
			}
			written, err := cli.WriteDefaultConfig(path)
			if err != nil {
				return err
			}
			a.configFile = path
			if err := a.open(cmd); err != nil {
				return err
			}

			if written {
				fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			}
			_, err = fmt.Fprintf(a.stdout, "Ledger ready (%s backend, shops: %v)\n", a.cfg.DataBackend, a.books.Shops())
			return err
		},
	}
}
