package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileDefinitionBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		definition: Walker: {
			params: ["name"]
			extends: ["Animal"]
			instance: { walk: "text.capitalize", label: "text.toKebabCase@name" }
			static: { kind: "text.toSnakeCase" }
			fields: { legs: 2, gait: "steady" }
		}
	`)
	require.NoError(t, v.Err())

	spec, err := CompileDefinition(v.LookupPath(cue.ParsePath("definition.Walker")))
	require.NoError(t, err)

	assert.Equal(t, "Walker", spec.Name)
	assert.Equal(t, []string{"name"}, spec.Params)
	assert.False(t, spec.Marker)
	assert.Equal(t, []string{"Animal"}, spec.Extends)
	assert.Equal(t, map[string]string{"walk": "text.capitalize", "label": "text.toKebabCase@name"}, spec.Instance)
	assert.Equal(t, map[string]string{"kind": "text.toSnakeCase"}, spec.Static)
	assert.Equal(t, "steady", spec.Fields["gait"])
	assert.Contains(t, spec.Fields, "legs")
}

func TestCompileDefinitionMarkerDefaults(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		definition: Empty: {}
		definition: Plain: { marker: false }
	`)
	require.NoError(t, v.Err())

	empty, err := CompileDefinition(v.LookupPath(cue.ParsePath("definition.Empty")))
	require.NoError(t, err)
	assert.True(t, empty.Marker, "a parameterless definition is marked")

	plain, err := CompileDefinition(v.LookupPath(cue.ParsePath("definition.Plain")))
	require.NoError(t, err)
	assert.False(t, plain.Marker)
}

func TestCompileDefinitionBadParams(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		definition: Bad: { params: "name" }
	`)
	require.NoError(t, v.Err())

	_, err := CompileDefinition(v.LookupPath(cue.ParsePath("definition.Bad")))
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "params", compileErr.Field)
	assert.Contains(t, err.Error(), "list of strings")
}

func TestCompileDefinitionBadReference(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		definition: Bad: { instance: { walk: 42 } }
	`)
	require.NoError(t, v.Err())

	_, err := CompileDefinition(v.LookupPath(cue.ParsePath("definition.Bad")))
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "instance.walk", compileErr.Field)
}

func TestCompileMix(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		mix: Robot: { base: "Walker", mixins: ["Talker", "Beeper"] }
	`)
	require.NoError(t, v.Err())

	spec, err := CompileMix(v.LookupPath(cue.ParsePath("mix.Robot")))
	require.NoError(t, err)
	assert.Equal(t, "Robot", spec.Name)
	assert.Equal(t, "Walker", spec.Base)
	assert.Equal(t, []string{"Talker", "Beeper"}, spec.Mixins)
}

func TestCompileMixMissingBase(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		mix: Robot: { mixins: ["Talker"] }
	`)
	require.NoError(t, v.Err())

	_, err := CompileMix(v.LookupPath(cue.ParsePath("mix.Robot")))
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "base", compileErr.Field)
}

func TestCompileDocumentsOrder(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		definition: Walker: { params: ["name"] }
		definition: Talker: {}
		definition: Beeper: {}
		mix: Robot: { base: "Walker", mixins: ["Talker", "Beeper"] }
	`)
	require.NoError(t, v.Err())

	defs, mixes, err := CompileDocuments(v)
	require.NoError(t, err)

	require.Len(t, defs, 3)
	assert.Equal(t, "Walker", defs[0].Name)
	assert.Equal(t, "Talker", defs[1].Name)
	assert.Equal(t, "Beeper", defs[2].Name)
	require.Len(t, mixes, 1)
	assert.Equal(t, "Robot", mixes[0].Name)
}

func TestCompileDocumentsEmpty(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`other: 1`)
	require.NoError(t, v.Err())

	defs, mixes, err := CompileDocuments(v)
	require.NoError(t, err)
	assert.Empty(t, defs)
	assert.Empty(t, mixes)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "base", Message: "base is required"}
	assert.Equal(t, "base: base is required", err.Error())
}
