package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/roach88/graft/internal/testutil"
)

// newProject writes files under a fresh root together with a graft.yaml
// pinning cwd to that root, and returns the root and matching options.
func newProject(t *testing.T, format string, files map[string]string) (string, *RootOptions) {
	t.Helper()
	root := testutil.WriteTree(t, files)
	cfgPath := filepath.Join(root, "graft.yaml")
	testutil.WriteFiles(t, root, map[string]string{
		"graft.yaml": "cwd: '" + root + "'\n",
	})
	return root, &RootOptions{Format: format, ConfigPath: cfgPath}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	testutil.WriteFiles(t, filepath.Dir(path), map[string]string{filepath.Base(path): content})
}
