package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/graft/internal/gateway"
	"github.com/roach88/graft/internal/ir"
)

// OverrideOptions holds flags for the override command.
type OverrideOptions struct {
	*RootOptions
	Patch  string // patch document path
	Origin string // origin hint for local paths
	DB     string // journal path; defaults to the configured journal
}

// OverrideResult is the JSON payload of the override command.
type OverrideResult struct {
	Identifier string         `json:"identifier"`
	Path       string         `json:"path"`
	Resolution ir.Resolution  `json:"resolution"`
	Digest     string         `json:"digest"`
	Journaled  bool           `json:"journaled"`
	Export     gateway.Export `json:"export"`
}

// NewOverrideCommand creates the override command.
func NewOverrideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OverrideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Annotations: map[string]string{journalAnnotation: "true"},
		Use:         "override <id>",
		Short:       "Merge a patch into a module export",
		Long: `Resolve <id>, load its export and replace the cached export with the
export merged with the patch document (YAML, JSON, TOML or CUE). When a
journal is configured the override is recorded there.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverride(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Patch, "patch", "p", "", "patch document (required)")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "origin hint for local paths")
	cmd.Flags().StringVar(&opts.DB, "db", "", "override journal database (default: config journal)")
	_ = cmd.MarkFlagRequired("patch")

	return cmd
}

func runOverride(opts *OverrideOptions, id string, cmd *cobra.Command) error {
	defer opts.Close()
	formatter := newFormatter(opts.RootOptions, cmd)

	table, err := opts.bootstrap(cmd)
	if err != nil {
		return err
	}

	patch, err := readPatch(opts.Patch)
	if err != nil {
		_ = formatter.Error(ErrCodeBadPatch, err.Error(), map[string]string{"patch": opts.Patch})
		return WrapExitError(ExitCommandError, "read patch", err)
	}

	res, err := opts.gateway.Resolve(id, opts.Origin)
	if err != nil {
		return formatter.GatewayError(err)
	}
	exp, err := table.Static(ir.NamespaceGlobal, "__override", id, opts.Origin, gateway.Patch(patch))
	if err != nil {
		if exp != nil {
			// The override is installed; only the journal write failed.
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "journal override", err)
		}
		return formatter.GatewayError(err)
	}

	digest, err := ir.ExportDigest(exp)
	if err != nil {
		_ = formatter.Error(ErrCodeUnloadable, err.Error(), nil)
		return WrapExitError(ExitFailure, "digest export", err)
	}

	result := OverrideResult{
		Identifier: id,
		Path:       res.Path,
		Resolution: res.Resolution,
		Digest:     digest,
		Journaled:  opts.journal != nil,
		Export:     exp,
	}
	return formatter.Render(result, func(w io.Writer) error {
		fmt.Fprintf(w, "✓ overrode %s\n", formatResolved(res))
		return writeExport(w, exp)
	})
}

// readPatch decodes a patch document with the gateway's loader for its
// extension. The document must be a mapping.
func readPatch(path string) (map[string]any, error) {
	if path == "" {
		return nil, fmt.Errorf("--patch is required")
	}
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := gateway.DefaultLoaders()[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported patch format %q", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := loader(path, data)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	patch, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("patch must be a mapping, got %T", doc)
	}
	return patch, nil
}
