package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/graft/internal/bootstrap"
	"github.com/roach88/graft/internal/capability"
	"github.com/roach88/graft/internal/config"
	"github.com/roach88/graft/internal/gateway"
	"github.com/roach88/graft/internal/ir"
	"github.com/roach88/graft/internal/logging"
	"github.com/roach88/graft/internal/store"
)

// journalAnnotation marks commands whose gateway records overrides. Such a
// command reads the journal path from its --db flag, else from the config.
const journalAnnotation = "graft/journal"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	cfg     *config.Config
	table   *capability.Table
	gateway *gateway.Gateway
	journal *store.Store
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the graft CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "graft",
		Short:   "graft - runtime capability extension",
		Long:    "Install shared capabilities, compose definitions from mixins and override loaded modules.",
		Version: ir.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := opts.Config()
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			level, format := cfg.Log.Level, cfg.Log.Format
			if opts.Verbose {
				level = "debug"
			}
			if opts.Format == "json" {
				format = "json"
			}
			if _, err := logging.Setup(logging.Options{
				Level:  level,
				Format: format,
				Writer: cmd.ErrOrStderr(),
			}); err != nil {
				return err
			}
			// Bootstrap completes before any command runs.
			_, err = opts.bootstrap(cmd)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Close()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: nearest graft.yaml or graft.toml)")

	cmd.AddCommand(NewCapabilitiesCommand(opts))
	cmd.AddCommand(NewComposeCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewOverrideCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// Config returns the loaded configuration, reading it on first use.
func (o *RootOptions) Config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// bootstrap installs the capability table once, with a gateway built from
// the configuration. Later calls return the same table. Failures are
// reported through cmd's formatter.
func (o *RootOptions) bootstrap(cmd *cobra.Command) (*capability.Table, error) {
	if o.table != nil {
		return o.table, nil
	}
	formatter := newFormatter(o, cmd)

	cfg, err := o.Config()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	gwOpts := cfg.GatewayOptions()
	if dbPath := journalPath(cmd, cfg); dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), map[string]string{"db": dbPath})
			return nil, WrapExitError(ExitCommandError, "open journal", err)
		}
		o.journal = st
		gwOpts = append(gwOpts, gateway.WithJournal(st))
		formatter.VerboseLog("Journaling overrides to %s", dbPath)
	}

	gw := gateway.New(gwOpts...)
	table := capability.NewTable()
	if err := bootstrap.Install(table, bootstrap.Deps{Gateway: gw}); err != nil {
		_ = o.Close()
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitFailure, "bootstrap failed", err)
	}
	formatter.VerboseLog("Installed %d capabilities across %d namespaces", table.Len(), len(ir.Namespaces))

	o.table, o.gateway = table, gw
	return table, nil
}

// journalPath returns the journal a command records overrides to, or "".
func journalPath(cmd *cobra.Command, cfg *config.Config) string {
	if _, ok := cmd.Annotations[journalAnnotation]; !ok {
		return ""
	}
	if f := cmd.Flags().Lookup("db"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	return cfg.Journal
}

// Close releases the override journal, if one was opened. The gateway
// holding it is dropped too, so a later command bootstraps afresh.
func (o *RootOptions) Close() error {
	if o.journal == nil {
		return nil
	}
	err := o.journal.Close()
	o.journal, o.table, o.gateway = nil, nil, nil
	return err
}

// newFormatter creates an OutputFormatter writing to cmd's streams.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
