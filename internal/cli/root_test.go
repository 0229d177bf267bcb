package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graft/internal/gateway"
	"github.com/roach88/graft/internal/ir"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "graft", cmd.Use)
	assert.NotEmpty(t, cmd.Version)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"capabilities", "compose", "resolve", "load", "override", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Empty(t, configFlag.DefValue)
}

func TestOverrideCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	overrideCmd, _, err := cmd.Find([]string{"override"})
	require.NoError(t, err)

	patchFlag := overrideCmd.Flags().Lookup("patch")
	require.NotNil(t, patchFlag)
	assert.Equal(t, "p", patchFlag.Shorthand)
	assert.NotNil(t, overrideCmd.Flags().Lookup("db"))
	assert.NotNil(t, overrideCmd.Flags().Lookup("origin"))
}

func TestRootInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	_, err := execute(cmd, "--format", "xml", "capabilities")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootInvalidConfig(t *testing.T) {
	_, opts := newProject(t, "text", map[string]string{})
	cmd := NewRootCommand()
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	_, err := execute(cmd, "--config", opts.ConfigPath+".missing", "capabilities")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootRunsSubcommandWithConfig(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, opts := newProject(t, "text", map[string]string{})
	cmd := NewRootCommand()
	diag := &bytes.Buffer{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(diag)
	cmd.SetArgs([]string{"--config", opts.ConfigPath, "--verbose", "capabilities", "--namespace", "symbol"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "symbol")
	assert.Contains(t, out.String(), "isEqual")
	assert.Contains(t, diag.String(), "Installed", "verbose diagnostics go to stderr")
}

func TestRootJSONFormatSelectsJSONLogs(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	_, opts := newProject(t, "text", map[string]string{
		"modules/lib/index.cue": `name: "lib"`,
	})
	cmd := NewRootCommand()
	diag := &bytes.Buffer{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(diag)
	cmd.SetArgs([]string{"--config", opts.ConfigPath, "--format", "json", "--verbose", "load", "lib"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, diag.String(), `"level":"DEBUG"`)
	assert.Contains(t, diag.String(), `"msg":"resolved as dependency"`)
}

func TestBootstrapRunsOncePerInvocation(t *testing.T) {
	_, opts := newProject(t, "text", map[string]string{})
	cmd := NewCapabilitiesCommand(opts)

	first, err := opts.bootstrap(cmd)
	require.NoError(t, err)
	second, err := opts.bootstrap(cmd)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.True(t, first.Has(ir.NamespaceGlobal, ir.BindValue, "_load"))
	assert.NotNil(t, opts.gateway)
}

// load reads modules through the installed global._load, so replacing the
// capability changes what the command prints.
func TestLoadUsesInstalledCapability(t *testing.T) {
	_, opts := newProject(t, "json", map[string]string{
		"modules/lib/index.cue": `name: "lib"`,
	})
	cmd := NewLoadCommand(opts)
	table, err := opts.bootstrap(cmd)
	require.NoError(t, err)
	table.Install(ir.OperationBinding{
		Namespace: ir.NamespaceGlobal,
		Name:      "_load",
		Impl: func(id string) (gateway.Export, error) {
			return map[string]any{"replaced": id}, nil
		},
		Binding: ir.BindValue,
		Forward: ir.ForwardArgs,
		Install: ir.InstallWrapped,
	})

	out, err := execute(cmd, "lib")
	require.NoError(t, err)

	var resp struct {
		Data LoadResultView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, map[string]any{"replaced": "lib"}, resp.Data.Export)
}

func TestOverrideJournalOpenFailure(t *testing.T) {
	root, opts := newProject(t, "text", map[string]string{
		"modules/lib/index.cue": `name: "lib"`,
		"patch.yaml":            "name: x\n",
	})

	out, err := execute(NewOverrideCommand(opts), "lib",
		"--patch", filepath.Join(root, "patch.yaml"),
		"--db", filepath.Join(root, "missing", "dir", "journal.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E008]")
}
