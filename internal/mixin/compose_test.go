package mixin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graft/internal/capability"
)

func constant(v any) capability.Operation {
	return func(any, ...any) (any, error) { return v, nil }
}

func newDef(name string, instance, static map[string]capability.Operation) *Definition {
	return &Definition{Name: name, Marker: true, Instance: instance, Static: static}
}

func mustCompose(t *testing.T, base *Definition, mixins ...*Definition) *Definition {
	t.Helper()
	c, err := Compose(base, mixins...)
	require.NoError(t, err)
	return c
}

func TestComposeLineageIncludesAllInputs(t *testing.T) {
	base := newDef("Base", nil, nil)
	m1 := newDef("M1", nil, nil)
	m2 := newDef("M2", nil, nil)
	unrelated := newDef("Unrelated", nil, nil)

	c := mustCompose(t, base, m1, m2)

	assert.True(t, IncludesLineage(c, base))
	assert.True(t, IncludesLineage(c, m1))
	assert.True(t, IncludesLineage(c, m2))
	assert.True(t, IncludesLineage(c, c), "relation is reflexive")
	assert.False(t, IncludesLineage(c, unrelated))
	assert.False(t, IncludesLineage(base, c), "inputs do not include the composite")
	assert.Equal(t, []*Definition{base, m1, m2}, c.Lineage())
}

func TestComposeLineageIsTransitive(t *testing.T) {
	root := newDef("Root", nil, nil)
	base := &Definition{Name: "Base", Marker: true, Parents: []*Definition{root}}
	m1 := newDef("M1", nil, nil)
	m2 := newDef("M2", nil, nil)

	inner := mustCompose(t, base, m1)
	outer := mustCompose(t, inner, m2)

	assert.True(t, IncludesLineage(outer, inner))
	assert.True(t, IncludesLineage(outer, base))
	assert.True(t, IncludesLineage(outer, m1))
	assert.True(t, IncludesLineage(outer, m2))
	assert.True(t, IncludesLineage(outer, root), "declared ancestry is walked")
	assert.ElementsMatch(t, []*Definition{inner, m2, base, m1}, outer.Lineage())
}

func TestComposeRightMostWins(t *testing.T) {
	base := newDef("Base", map[string]capability.Operation{"foo": constant("base"), "bar": constant("base")}, nil)
	m1 := newDef("M1", map[string]capability.Operation{"foo": constant("m1")}, map[string]capability.Operation{"make": constant("m1")})
	m2 := newDef("M2", map[string]capability.Operation{"foo": constant("m2")}, map[string]capability.Operation{"make": constant("m2")})

	for range 5 {
		c := mustCompose(t, base, m1, m2)
		obj, err := c.New()
		require.NoError(t, err)

		foo, err := obj.Call("foo")
		require.NoError(t, err)
		assert.Equal(t, "m2", foo)

		bar, err := obj.Call("bar")
		require.NoError(t, err)
		assert.Equal(t, "base", bar)

		made, err := c.CallStatic("make")
		require.NoError(t, err)
		assert.Equal(t, "m2", made)
	}
}

func TestComposeZeroMixins(t *testing.T) {
	base := &Definition{
		Name:     "Point",
		Params:   []string{"x", "y"},
		Instance: map[string]capability.Operation{"sum": sumXY},
	}

	c := mustCompose(t, base)

	assert.Equal(t, []*Definition{base}, c.Lineage())
	assert.Equal(t, base.Params, c.Params)
	assert.Equal(t, base.InstanceNames(), c.InstanceNames())

	want, err := base.New(2, 3)
	require.NoError(t, err)
	got, err := c.New(2, 3)
	require.NoError(t, err)
	assert.Equal(t, want.Fields, got.Fields)

	sum, err := got.Call("sum")
	require.NoError(t, err)
	assert.Equal(t, 5, sum)
}

func sumXY(receiver any, _ ...any) (any, error) {
	obj := receiver.(*Object)
	return obj.Fields["x"].(int) + obj.Fields["y"].(int), nil
}

func TestComposeInitializersRunInOrderAfterBase(t *testing.T) {
	var order []string
	base := &Definition{
		Name:   "Base",
		Params: []string{"id"},
		Init: func(obj *Object) error {
			order = append(order, "base")
			return nil
		},
	}
	m1 := &Definition{Name: "M1", Marker: true, Init: func(obj *Object) error {
		order = append(order, "m1")
		obj.Set("m1", obj.Fields["id"])
		return nil
	}}
	m2 := &Definition{Name: "M2", Marker: true, Init: func(obj *Object) error {
		order = append(order, "m2")
		_, seen := obj.Get("m1")
		obj.Set("saw_m1", seen)
		return nil
	}}

	c := mustCompose(t, base, m1, m2)
	obj, err := c.New("abc")
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "m1", "m2"}, order)
	assert.Same(t, c, obj.Def, "identity is the composite")
	assert.Equal(t, "abc", obj.Fields["id"])
	assert.Equal(t, "abc", obj.Fields["m1"])
	assert.Equal(t, true, obj.Fields["saw_m1"])
	assert.True(t, obj.Is(base))
	assert.True(t, obj.Is(m2))
}

func TestComposeMixinConstructorIsNotCalled(t *testing.T) {
	base := &Definition{Name: "Base", Marker: true}
	mixin := &Definition{Name: "Mixin", Marker: true, Construct: func(*Definition, ...any) (*Object, error) {
		t.Fatal("mixin constructor must not run")
		return nil, nil
	}}

	_, err := mustCompose(t, base, mixin).New()
	require.NoError(t, err)
}

func TestComposeInitializerErrorPropagates(t *testing.T) {
	base := &Definition{Name: "Base", Marker: true}
	bad := &Definition{Name: "Bad", Marker: true, Init: func(*Object) error { return errors.New("boom") }}

	_, err := mustCompose(t, base, bad).New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad")
	assert.Contains(t, err.Error(), "boom")
}

func TestComposeCompositeMixinContributesAllInitializers(t *testing.T) {
	var order []string
	mk := func(name string) *Definition {
		return &Definition{Name: name, Marker: true, Init: func(*Object) error {
			order = append(order, name)
			return nil
		}}
	}
	base, a, b, c := mk("base"), mk("a"), mk("b"), mk("c")

	ab := mustCompose(t, a, b)
	_, err := mustCompose(t, base, ab, c).New()
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "a", "b", "c"}, order)
}

func TestComposeDoesNotMutateInputs(t *testing.T) {
	base := newDef("Base", map[string]capability.Operation{"foo": constant("base")}, nil)
	m := newDef("M", map[string]capability.Operation{"foo": constant("m"), "extra": constant("m")}, nil)

	mustCompose(t, base, m)

	assert.Equal(t, []string{"foo"}, base.InstanceNames())
	v, err := base.Instance["foo"](nil)
	require.NoError(t, err)
	assert.Equal(t, "base", v)
}

func TestConflicts(t *testing.T) {
	base := newDef("Base", map[string]capability.Operation{"foo": constant(1)}, nil)
	m1 := newDef("M1", map[string]capability.Operation{"foo": constant(2), "bar": constant(2)}, map[string]capability.Operation{"s": constant(2)})
	m2 := newDef("M2", map[string]capability.Operation{"foo": constant(3)}, map[string]capability.Operation{"s": constant(3)})

	got := Conflicts(base, m1, m2)
	assert.Equal(t, []Conflict{
		{Name: "foo", Level: "instance", Winner: "M2", Shadows: []string{"Base", "M1"}},
		{Name: "s", Level: "static", Winner: "M2", Shadows: []string{"M1"}},
	}, got)
}

func TestComposeName(t *testing.T) {
	c := mustCompose(t, newDef("A", nil, nil), newDef("B", nil, nil))
	assert.Equal(t, "A+B", c.Name)
	assert.True(t, c.IsComposite())
	assert.Len(t, c.Inputs(), 2)
}

func TestComposeRejectsNilInputs(t *testing.T) {
	_, err := Compose(nil)
	assert.ErrorIs(t, err, ErrNilDefinition)

	_, err = Compose(newDef("Base", nil, nil), newDef("M", nil, nil), nil)
	assert.ErrorIs(t, err, ErrNilDefinition)
	assert.Contains(t, err.Error(), "mixin 1")
}

func TestComposeCopiesParams(t *testing.T) {
	base := &Definition{Name: "Base", Params: []string{"name"}}
	c := mustCompose(t, base)

	c.Params[0] = "changed"
	assert.Equal(t, []string{"name"}, base.Params)
}

func TestNewRejectsNilObjectFromConstructor(t *testing.T) {
	d := &Definition{Name: "Empty", Marker: true, Construct: func(*Definition, ...any) (*Object, error) {
		return nil, nil
	}}

	_, err := d.New()
	assert.ErrorIs(t, err, ErrNilObject)

	_, err = mustCompose(t, d).New()
	assert.ErrorIs(t, err, ErrNilObject)
}
