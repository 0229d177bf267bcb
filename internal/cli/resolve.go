package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/graft/internal/gateway"
	"github.com/roach88/graft/internal/ir"
)

// ResolveOptions holds flags for the resolve and load commands.
type ResolveOptions struct {
	*RootOptions
	Origin string // origin hint for local paths
}

// LoadResultView is the JSON payload of the load command.
type LoadResultView struct {
	Identifier string         `json:"identifier"`
	Path       string         `json:"path"`
	Resolution ir.Resolution  `json:"resolution"`
	Digest     string         `json:"digest"`
	Export     gateway.Export `json:"export"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Show where a module identifier resolves",
		Long: `Probe the dependency roots for <id>; when no dependency matches, treat
<id> as a path relative to the working directory.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Origin, "origin", "", "origin hint for local paths")

	return cmd
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	return &cobra.Command{
		Use:           "load <id>",
		Short:         "Load a module and print its export",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}
}

func runResolve(opts *ResolveOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := opts.bootstrap(cmd); err != nil {
		return err
	}

	res, err := opts.gateway.Resolve(id, opts.Origin)
	if err != nil {
		return formatter.GatewayError(err)
	}

	return formatter.Render(res, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, formatResolved(res))
		return err
	})
}

func runLoad(opts *ResolveOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	table, err := opts.bootstrap(cmd)
	if err != nil {
		return err
	}

	exp, err := table.Static(ir.NamespaceGlobal, "_load", id)
	if err != nil {
		return formatter.GatewayError(err)
	}
	// _load already resolved and cached the module; this resolve is served
	// from the cache.
	res, err := opts.gateway.Resolve(id, "")
	if err != nil {
		return formatter.GatewayError(err)
	}
	digest, err := ir.ExportDigest(exp)
	if err != nil {
		_ = formatter.Error(ErrCodeUnloadable, err.Error(), nil)
		return WrapExitError(ExitFailure, "digest export", err)
	}
	formatter.VerboseLog("%s", formatResolved(res))

	view := LoadResultView{
		Identifier: id,
		Path:       res.Path,
		Resolution: res.Resolution,
		Digest:     digest,
		Export:     exp,
	}
	return formatter.Render(view, func(w io.Writer) error {
		return writeExport(w, exp)
	})
}

// formatResolved renders a resolution on one line.
func formatResolved(res gateway.Resolved) string {
	line := fmt.Sprintf("%-10s %s -> %s", res.Resolution, res.Identifier, res.Path)
	if res.Version != "" {
		line += fmt.Sprintf(" (%s)", res.Version)
	}
	return line
}

// writeExport prints an export as YAML.
func writeExport(w io.Writer, exp gateway.Export) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exp); err != nil {
		return err
	}
	return enc.Close()
}
