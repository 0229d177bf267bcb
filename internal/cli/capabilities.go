package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/graft/internal/ir"
)

// CapabilitiesOptions holds flags for the capabilities command.
type CapabilitiesOptions struct {
	*RootOptions
	Namespace string
}

// CapabilitiesResult is the JSON payload of the capabilities command.
type CapabilitiesResult struct {
	Digest       string              `json:"digest"`
	Count        int                 `json:"count"`
	Capabilities []ir.CapabilityInfo `json:"capabilities"`
}

// NewCapabilitiesCommand creates the capabilities command.
func NewCapabilitiesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CapabilitiesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "capabilities",
		Aliases: []string{"caps"},
		Short:   "List the bootstrapped capability table",
		Long: `List every capability installed by bootstrap with its namespace,
level and wrapping mode.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilities(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", "", "only list this namespace")

	return cmd
}

func runCapabilities(opts *CapabilitiesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var only ir.Namespace
	if opts.Namespace != "" {
		ns, err := ir.ParseNamespace(opts.Namespace)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), map[string]any{"namespaces": ir.Namespaces})
			return WrapExitError(ExitCommandError, "invalid namespace", err)
		}
		only = ns
	}

	table, err := opts.bootstrap(cmd)
	if err != nil {
		return err
	}

	infos := table.Snapshot()
	if only != "" {
		filtered := infos[:0]
		for _, info := range infos {
			if info.Namespace == only {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}

	digest, err := ir.CapabilitiesDigest(infos)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "digest capabilities", err)
	}

	result := CapabilitiesResult{
		Digest:       digest,
		Count:        len(infos),
		Capabilities: infos,
	}
	return formatter.Render(result, func(w io.Writer) error {
		writeCapabilities(w, infos)
		_, err := fmt.Fprintf(w, "\n%d capabilities\n", len(infos))
		return err
	})
}

// writeCapabilities prints one aligned line per capability.
func writeCapabilities(w io.Writer, infos []ir.CapabilityInfo) {
	for _, info := range infos {
		fmt.Fprintf(w, "%-10s %-8s %-24s %s\n", info.Namespace, info.Level, info.Name, info.Mode)
	}
}
