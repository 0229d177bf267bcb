package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graft/internal/ir"
)

func TestResolveDependency(t *testing.T) {
	root, opts := newProject(t, "text", map[string]string{
		"modules/lib/index.cue": `name: "lib"`,
	})

	out, err := execute(NewResolveCommand(opts), "lib")
	require.NoError(t, err)
	assert.Contains(t, out, "dependency")
	assert.Contains(t, out, filepath.Join(root, "modules", "lib", "index.cue"))
}

func TestResolveLocalPathJSON(t *testing.T) {
	root, opts := newProject(t, "json", map[string]string{
		"conf/app.yaml": "port: 8080\n",
	})

	out, err := execute(NewResolveCommand(opts), "./conf/app.yaml")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Path       string        `json:"path"`
			Resolution ir.Resolution `json:"resolution"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ir.ResolvedAsLocalPath, resp.Data.Resolution)
	assert.Equal(t, filepath.Join(root, "conf", "app.yaml"), resp.Data.Path)
}

func TestLoadPrintsExportAsYAML(t *testing.T) {
	_, opts := newProject(t, "text", map[string]string{
		"modules/lib/index.cue": `name: "lib", tags: ["a", "b"]`,
	})

	out, err := execute(NewLoadCommand(opts), "lib")
	require.NoError(t, err)
	assert.Equal(t, "name: lib\ntags:\n  - a\n  - b\n", out)
}

func TestLoadJSONIncludesDigest(t *testing.T) {
	_, opts := newProject(t, "json", map[string]string{
		"modules/lib/index.json":  `{"name": "lib"}`,
		"modules/lib/module.yaml": "name: lib\nversion: 1.2.0\nmain: index.json\n",
	})

	out, err := execute(NewLoadCommand(opts), "lib")
	require.NoError(t, err)

	var resp struct {
		Data LoadResultView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ir.ResolvedAsDependency, resp.Data.Resolution)
	assert.Len(t, resp.Data.Digest, 64)
	assert.Equal(t, map[string]any{"name": "lib"}, resp.Data.Export)

	want, err := ir.ExportDigest(map[string]any{"name": "lib"})
	require.NoError(t, err)
	assert.Equal(t, want, resp.Data.Digest)
}

func TestLoadMissingModule(t *testing.T) {
	_, opts := newProject(t, "text", map[string]string{})

	out, err := execute(NewLoadCommand(opts), "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestLoadUnloadableModule(t *testing.T) {
	_, opts := newProject(t, "text", map[string]string{
		"modules/broken/index.cue": `name: `,
	})

	out, err := execute(NewLoadCommand(opts), "broken")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E011]")
}
