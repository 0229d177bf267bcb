package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const robotDefs = `
definition: Animal: {
	params: ["name"]
	instance: { shout: "text.capitalize@name" }
}
definition: Walker: {
	instance: { walk: "text.toKebabCase@name" }
}
`

const robotMix = `
definition: Talker: {
	instance: { shout: "text.toSnakeCase@name" }
	static: { kind: "object.isMap" }
}
mix: Robot: { base: "Animal", mixins: ["Walker", "Talker"] }
`

func TestComposeText(t *testing.T) {
	root, opts := newProject(t, "text", map[string]string{
		"defs/animals.cue":     robotDefs,
		"defs/mixes/robot.cue": robotMix,
	})

	out, err := execute(NewComposeCommand(opts), filepath.Join(root, "defs"), "--name", "Robot")
	require.NoError(t, err)

	assert.Contains(t, out, "mix Robot")
	assert.Contains(t, out, "inputs:   Animal + Walker + Talker")
	assert.Contains(t, out, "lineage:  Animal, Walker, Talker")
	assert.Contains(t, out, "instance: shout, walk")
	assert.Contains(t, out, "static:   kind")
	assert.Contains(t, out, `instance "shout": Talker overrides Animal`)
}

func TestComposeJSONListsEveryDefinition(t *testing.T) {
	root, opts := newProject(t, "json", map[string]string{
		"defs/animals.cue":     robotDefs,
		"defs/mixes/robot.cue": robotMix,
	})

	out, err := execute(NewComposeCommand(opts), filepath.Join(root, "defs"))
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ComposeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	var names []string
	for _, d := range resp.Data.Definitions {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Animal", "Robot", "Talker", "Walker"}, names)

	animal := resp.Data.Definitions[0]
	assert.False(t, animal.Composite)
	assert.Equal(t, []string{"name"}, animal.Params)
	assert.Empty(t, animal.Static)

	robot := resp.Data.Definitions[1]
	assert.True(t, robot.Composite)
	assert.Equal(t, []string{"Animal", "Walker", "Talker"}, robot.Lineage)
	require.Len(t, robot.Conflicts, 1)
	assert.Equal(t, "Talker", robot.Conflicts[0].Winner)
}

func TestComposeReportsCycles(t *testing.T) {
	root, opts := newProject(t, "text", map[string]string{
		"defs/a.cue": `
definition: A: { extends: ["B"] }
definition: B: { extends: ["A"] }
`,
	})

	out, err := execute(NewComposeCommand(opts), filepath.Join(root, "defs"))
	require.NoError(t, err, "ancestry cycles are warnings")
	assert.Contains(t, out, "ancestry cycle detected")
	assert.Contains(t, out, "definition A")
}

func TestComposeValidationFailure(t *testing.T) {
	root, opts := newProject(t, "text", map[string]string{
		"defs/a.cue": `
definition: A: {}
mix: M: { base: "A", mixins: ["Ghost"] }
`,
	})

	out, err := execute(NewComposeCommand(opts), filepath.Join(root, "defs"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E211")
}

func TestComposeCompileErrorCode(t *testing.T) {
	root, opts := newProject(t, "json", map[string]string{
		"defs/a.cue": `definition: Bad: { params: "name" }`,
	})

	out, err := execute(NewComposeCommand(opts), filepath.Join(root, "defs"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidParams, resp.Error.Code)
}

func TestComposeUnboundCapability(t *testing.T) {
	root, opts := newProject(t, "text", map[string]string{
		"defs/a.cue": `definition: A: { instance: { fly: "text.levitate" } }`,
	})

	out, err := execute(NewComposeCommand(opts), filepath.Join(root, "defs"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E012]")
	assert.Contains(t, out, "text.levitate")
}

func TestComposeMissingDirectory(t *testing.T) {
	root, opts := newProject(t, "text", map[string]string{})

	out, err := execute(NewComposeCommand(opts), filepath.Join(root, "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestComposeUnknownName(t *testing.T) {
	root, opts := newProject(t, "text", map[string]string{
		"defs/a.cue": `definition: A: {}`,
	})

	_, err := execute(NewComposeCommand(opts), filepath.Join(root, "defs"), "--name", "Z")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindCUEFilesRecursive(t *testing.T) {
	root, _ := newProject(t, "text", map[string]string{
		"defs/b.cue":       "",
		"defs/a.cue":       "",
		"defs/sub/c.cue":   "",
		"defs/sub/skip.md": "",
	})

	files, err := FindCUEFiles(filepath.Join(root, "defs"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "defs", "a.cue"),
		filepath.Join(root, "defs", "b.cue"),
		filepath.Join(root, "defs", "sub", "c.cue"),
	}, files)
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidCapRef, MapFieldToErrorCode("instance.walk"))
	assert.Equal(t, ErrCodeMixBaseRequired, MapFieldToErrorCode("base"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode("cue"))
}
