package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/graft/internal/compiler"
	"github.com/roach88/graft/internal/mixin"
)

// ComposeOptions holds flags for the compose command.
type ComposeOptions struct {
	*RootOptions
	Name string // only report this definition
}

// DefinitionSummary describes one built definition.
type DefinitionSummary struct {
	Name      string           `json:"name"`
	Params    []string         `json:"params,omitempty"`
	Composite bool             `json:"composite"`
	Inputs    []string         `json:"inputs,omitempty"`
	Lineage   []string         `json:"lineage,omitempty"`
	Parents   []string         `json:"parents,omitempty"`
	Instance  []string         `json:"instance"`
	Static    []string         `json:"static"`
	Conflicts []mixin.Conflict `json:"conflicts,omitempty"`
}

// ComposeResult is the JSON payload of the compose command.
type ComposeResult struct {
	Definitions []DefinitionSummary     `json:"definitions"`
	Warnings    []compiler.CycleWarning `json:"warnings,omitempty"`
}

// ValidationResult is the JSON payload of a failed document validation.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewComposeCommand creates the compose command.
func NewComposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComposeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compose <defs-dir>",
		Short: "Build definitions and mixes against the capability table",
		Long: `Load definition and mix documents from CUE files, validate them, bind
their capability references to the bootstrapped table and report the merged
capabilities and recorded lineage of every result.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "only report this definition or mix")

	return cmd
}

func runCompose(opts *ComposeOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrs := LoadDefinitions(dir, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadError(formatter, loadErrs)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", len(loadResult.Files), dir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			})
		}
	}
	validationErrors = append(validationErrors, compiler.Validate(loadResult.Definitions, loadResult.Mixes)...)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	warnings := compiler.AnalyzeCycles(loadResult.Definitions, loadResult.Mixes)
	for _, w := range warnings {
		formatter.VerboseLog("warning: %s", w.Message)
	}

	table, err := opts.bootstrap(cmd)
	if err != nil {
		return err
	}

	built, err := mixin.Build(table, loadResult.Definitions, loadResult.Mixes)
	if err != nil {
		_ = formatter.Error(ErrCodeComposeFailed, err.Error(), map[string]any{"warnings": warnings})
		return WrapExitError(ExitFailure, "compose failed", err)
	}

	var names []string
	if opts.Name != "" {
		if _, ok := built[opts.Name]; !ok {
			msg := fmt.Sprintf("no definition or mix named %q", opts.Name)
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		names = []string{opts.Name}
	} else {
		for name := range built {
			names = append(names, name)
		}
		slices.Sort(names)
	}

	result := ComposeResult{Warnings: warnings}
	for _, name := range names {
		result.Definitions = append(result.Definitions, summarize(built[name]))
	}

	return formatter.Render(result, func(w io.Writer) error {
		for _, cw := range warnings {
			fmt.Fprintf(w, "⚠ %s\n", cw.Message)
		}
		for i, s := range result.Definitions {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeSummary(w, s)
		}
		return nil
	})
}

// summarize reports d's shape by definition names.
func summarize(d *mixin.Definition) DefinitionSummary {
	s := DefinitionSummary{
		Name:      d.Name,
		Params:    d.Params,
		Composite: d.IsComposite(),
		Parents:   definitionNames(d.Parents),
		Inputs:    definitionNames(d.Inputs()),
		Lineage:   definitionNames(d.Lineage()),
		Instance:  d.InstanceNames(),
		Static:    d.StaticNames(),
	}
	if inputs := d.Inputs(); len(inputs) > 0 {
		s.Conflicts = mixin.Conflicts(inputs[0], inputs[1:]...)
	}
	return s
}

func definitionNames(defs []*mixin.Definition) []string {
	if len(defs) == 0 {
		return nil
	}
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func writeSummary(w io.Writer, s DefinitionSummary) {
	kind := "definition"
	if s.Composite {
		kind = "mix"
	}
	fmt.Fprintf(w, "%s %s\n", kind, s.Name)
	if len(s.Params) > 0 {
		fmt.Fprintf(w, "  params:   %s\n", strings.Join(s.Params, ", "))
	}
	if len(s.Parents) > 0 {
		fmt.Fprintf(w, "  extends:  %s\n", strings.Join(s.Parents, ", "))
	}
	if s.Composite {
		fmt.Fprintf(w, "  inputs:   %s\n", strings.Join(s.Inputs, " + "))
		fmt.Fprintf(w, "  lineage:  %s\n", strings.Join(s.Lineage, ", "))
	}
	fmt.Fprintf(w, "  instance: %s\n", listOrDash(s.Instance))
	fmt.Fprintf(w, "  static:   %s\n", listOrDash(s.Static))
	for _, c := range s.Conflicts {
		fmt.Fprintf(w, "  %s %q: %s overrides %s\n", c.Level, c.Name, c.Winner, strings.Join(c.Shadows, ", "))
	}
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// outputLoadError reports a fatal loading error (exit code 2).
func outputLoadError(formatter *OutputFormatter, errs []error) error {
	if len(errs) == 0 {
		_ = formatter.Error(ErrCodeGeneric, "loading definitions failed", nil)
		return NewExitError(ExitCommandError, "loading definitions failed")
	}
	var loadErr *LoadError
	if errors.As(errs[0], &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, loadErr.Code, loadErr)
	}
	_ = formatter.Error(ErrCodeGeneric, errs[0].Error(), nil)
	return WrapExitError(ExitCommandError, "loading definitions failed", errs[0])
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
