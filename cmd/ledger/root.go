package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"shopledger/internal/backend"
	"shopledger/internal/cli"
	"shopledger/internal/config"
	"shopledger/internal/log"
	"shopledger/internal/services"
)

// app holds the state of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// Global flag values.
	configFile string
	jsonOut    bool

	// started is set once flag parsing and argument checks have passed.
	started bool

	cfg     *config.Config
	logger  *log.Logger
	books   *services.Books
	cleanup backend.CleanupFunc
	ctx     context.Context
	stop    context.CancelFunc
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, ctx: context.Background()}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger records shop sales and expenses",
		Long: `Ledger keeps one sales table per shop and a shared expense table,
and reports sales, expenses and their difference over a date range.

Dates are written DD.MM.YYYY (YYYY-MM-DD is accepted too). Configuration
comes from ledger.yaml, a .env file and LEDGER_* environment variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./ledger.yaml when present)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output as JSON")

	root.AddCommand(a.versionCmd())
	root.AddCommand(a.initCmd())
	root.AddCommand(a.saleCmd())
	root.AddCommand(a.expenseCmd())
	root.AddCommand(a.reportCmd())
	return root
}

// setup loads configuration, logging and storage for every command that
// needs them.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.started = true
	if cmd.Name() == "version" || cmd.Name() == "init" {
		return nil
	}
	return a.open(cmd)
}

func (a *app) open(cmd *cobra.Command) error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(a.configFile)
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(cfg, a.stderr)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	a.ctx, a.stop = cli.InvocationContext(logger, cmd.CommandPath())

	res, err := cli.InitBackend(a.ctx, logger, cfg)
	if err != nil {
		return err
	}
	a.books, a.cleanup = res.Books, res.Cleanup
	log.FromContext(a.ctx).DebugContext(a.ctx, "Command started", log.FieldBackend, cfg.DataBackend)
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil && a.logger != nil {
			a.logger.Error("Failed to close storage", log.FieldError, err)
		}
	}
	if a.stop != nil {
		a.stop()
	}
}
