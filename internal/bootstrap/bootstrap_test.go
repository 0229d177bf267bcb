package bootstrap

import (
	"context"
	"iter"
	"path/filepath"
	"regexp"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graft/internal/capability"
	"github.com/roach88/graft/internal/gateway"
	"github.com/roach88/graft/internal/ir"
	"github.com/roach88/graft/internal/leaf"
	"github.com/roach88/graft/internal/mixin"
	"github.com/roach88/graft/internal/testutil"
)

func newTable(t *testing.T, g *gateway.Gateway) *capability.Table {
	t.Helper()
	if g == nil {
		g = gateway.New(gateway.WithCwd(t.TempDir()))
	}
	table := capability.NewTable()
	require.NoError(t, Install(table, Deps{Gateway: g}))
	return table
}

func TestStepsFollowNamespaceOrder(t *testing.T) {
	var order []ir.Namespace
	for _, s := range Steps() {
		order = append(order, s.Namespace)
	}
	assert.Equal(t, ir.Namespaces, order)
}

func TestInstallPopulatesEveryNamespace(t *testing.T) {
	table := newTable(t, nil)

	expected := map[ir.Namespace]map[ir.BindingMode][]string{
		ir.NamespaceText: {ir.BindInstance: {
			"capitalize", "toCamelCase", "toStartCase", "toKebabCase", "toSnakeCase", "upperFirst",
			"words", "isEmpty", "asciiWords", "unicodeWords", "hasUnicodeWord", "isEqual", "compareTo",
		}},
		ir.NamespaceSequence: {ir.BindInstance: {
			"compact", "chunk", "toIterator", "isEmpty", "isNilArray", "isNumberArray", "isStringArray",
			"isIntegerArray", "isFunctionArray", "isBooleanArray", "isRegExpArray", "isConstructorArray",
			"random", "shuffle", "forOwn", "moveItems", "isEqual", "where",
		}},
		ir.NamespaceObject: {
			ir.BindValue:    {"parse", "isMap", "isSet", "clone", "objects"},
			ir.BindInstance: {"isEqual", "forOwn"},
		},
		ir.NamespaceBoolean: {
			ir.BindValue:    {"isTrue", "isFalse"},
			ir.BindInstance: {"isTrue", "isFalse"},
		},
		ir.NamespaceDefinition: {
			ir.BindValue:    {"isConstructor", "Mix"},
			ir.BindInstance: {"extendsClass", "isEqual"},
		},
		ir.NamespaceNumber:  {ir.BindInstance: {"toInteger"}},
		ir.NamespaceSymbol:  {ir.BindInstance: {"isEqual"}},
		ir.NamespacePattern: {ir.BindValue: {"Upper", "Lower", "Digit", "ZWJ"}},
		ir.NamespaceGlobal: {ir.BindValue: {
			"delay", "memoryUsage", "CacheMap", "__override", "_load", "Mix",
		}},
		ir.NamespaceProcess: {ir.BindValue: {"memoryUsage"}},
	}

	for ns, levels := range expected {
		for level, names := range levels {
			for _, name := range names {
				assert.True(t, table.Has(ns, level, name), "%s.%s (%s)", ns, name, level)
			}
		}
	}
	assert.Len(t, table.Names(ir.NamespacePattern, ir.BindValue), len(leaf.Patterns))
}

func TestInstallIsIdempotent(t *testing.T) {
	g := gateway.New(gateway.WithCwd(t.TempDir()))
	table := newTable(t, g)
	once, err := table.Digest()
	require.NoError(t, err)
	count := table.Len()

	require.NoError(t, Install(table, Deps{Gateway: g}))
	twice, err := table.Digest()
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, count, table.Len())
}

func TestTextCapabilities(t *testing.T) {
	table := newTable(t, nil)

	got, err := table.Method(ir.NamespaceText, "toKebabCase", "fooBar", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "foo-bar", got)

	got, err = table.Method(ir.NamespaceText, "compareTo", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, -1, got)

	got, err = table.Method(ir.NamespaceText, "isEqual", "a", "a")
	require.NoError(t, err)
	assert.Equal(t, true, got)

	_, err = table.Method(ir.NamespaceText, "compareTo", "a", 1)
	assert.ErrorIs(t, err, capability.ErrArgType)
}

func TestSequenceCapabilities(t *testing.T) {
	table := newTable(t, nil)
	items := []any{"a", "b", "c"}

	got, err := table.Method(ir.NamespaceSequence, "chunk", items)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"a"}, {"b"}, {"c"}}, got, "chunk binds with the receiver only")

	got, err = table.Method(ir.NamespaceSequence, "moveItems", items, leaf.Move{Old: 2, New: 0})
	require.NoError(t, err)
	assert.Equal(t, []any{"c", "a", "b"}, got)

	got, err = table.Method(ir.NamespaceSequence, "where",
		[]any{map[string]any{"id": 1}, map[string]any{"id": 2}},
		map[string]any{"id": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 2}, got)

	var keys []string
	_, err = table.Method(ir.NamespaceSequence, "forOwn", items, func(_ any, key string, coll any) {
		keys = append(keys, key)
		assert.Equal(t, items, coll)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, keys)

	walker := &mixin.Definition{Name: "Walker", Marker: true}
	got, err = table.Method(ir.NamespaceSequence, "isConstructorArray", []any{walker})
	require.NoError(t, err)
	assert.Equal(t, true, got)

	seq, err := table.Method(ir.NamespaceSequence, "toIterator", items)
	require.NoError(t, err)
	var collected []any
	for v := range seq.(iter.Seq[any]) {
		collected = append(collected, v)
	}
	assert.Equal(t, items, collected)
}

func TestObjectCapabilities(t *testing.T) {
	table := newTable(t, nil)

	got, err := table.Static(ir.NamespaceObject, "parse", map[string]any{"n": "1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": int64(1)}, got)

	got, err = table.Static(ir.NamespaceObject, "isSet", map[string]struct{}{})
	require.NoError(t, err)
	assert.Equal(t, true, got)

	objects, ok := table.Lookup(ir.NamespaceObject, ir.BindValue, "objects")
	require.True(t, ok)
	cloneAll := objects.(map[string]any)["clone"].(func(...any) []any)
	assert.Len(t, cloneAll([]int{1}, []int{2}), 2)

	got, err = table.Method(ir.NamespaceObject, "isEqual", map[string]any{"a": 1}, map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestBooleanAndNumberCapabilities(t *testing.T) {
	table := newTable(t, nil)

	got, err := table.Method(ir.NamespaceBoolean, "isTrue", true)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = table.Static(ir.NamespaceBoolean, "isFalse", "false")
	require.NoError(t, err)
	assert.Equal(t, false, got, "only the boolean false is false")

	got, err = table.Method(ir.NamespaceNumber, "toInteger", 4.8)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)
}

func TestDefinitionCapabilities(t *testing.T) {
	table := newTable(t, nil)
	base := &mixin.Definition{Name: "Base", Params: []string{"name"}}
	m1 := &mixin.Definition{Name: "M1", Marker: true}
	unrelated := &mixin.Definition{Name: "Unrelated", Marker: true}

	got, err := table.Static(ir.NamespaceDefinition, "Mix", base, m1)
	require.NoError(t, err)
	composite := got.(*mixin.Definition)

	ok, err := table.Method(ir.NamespaceDefinition, "extendsClass", composite, m1)
	require.NoError(t, err)
	assert.Equal(t, true, ok)

	ok, err = table.Method(ir.NamespaceDefinition, "extendsClass", composite, unrelated)
	require.NoError(t, err)
	assert.Equal(t, false, ok)

	ok, err = table.Static(ir.NamespaceDefinition, "isConstructor", composite)
	require.NoError(t, err)
	assert.Equal(t, true, ok)

	ok, err = table.Static(ir.NamespaceDefinition, "isConstructor", func() {})
	require.NoError(t, err)
	assert.Equal(t, false, ok)

	obj, err := composite.New("robo")
	require.NoError(t, err)
	ok, err = table.Method(ir.NamespaceDefinition, "isEqual", obj, composite)
	require.NoError(t, err)
	assert.Equal(t, true, ok)

	viaGlobal, err := table.Static(ir.NamespaceGlobal, "Mix", base)
	require.NoError(t, err)
	assert.Equal(t, []*mixin.Definition{base}, viaGlobal.(*mixin.Definition).Lineage())
}

func TestPatternCapabilities(t *testing.T) {
	table := newTable(t, nil)

	v, ok := table.Lookup(ir.NamespacePattern, ir.BindValue, "Upper")
	require.True(t, ok)
	re := v.(*regexp.Regexp)
	assert.True(t, re.MatchString("Q"))

	_, err := table.Static(ir.NamespacePattern, "Upper")
	assert.ErrorIs(t, err, capability.ErrNotCallable)
}

func TestGlobalCapabilities(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"modules/settings/index.cue": `mode: "dev"`,
	})
	table := newTable(t, gateway.New(gateway.WithCwd(root)))

	got, err := table.Static(ir.NamespaceGlobal, "__override", "settings", nil,
		func(exp gateway.Export) (gateway.Export, error) {
			m := leaf.Clone(exp).(map[string]any)
			m["mode"] = "prod"
			return m, nil
		})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"mode": "prod"}, got)

	got, err = table.Static(ir.NamespaceGlobal, "_load", "settings")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"mode": "prod"}, got)

	_, err = table.Static(ir.NamespaceGlobal, "_load", filepath.Join(root, "missing.json"))
	assert.True(t, gateway.IsNotFound(err))

	ctor, err := table.Static(ir.NamespaceGlobal, "CacheMap", 2)
	require.NoError(t, err)
	cache := ctor.(*leaf.CacheMap[any, any])
	cache.Set("k", "v")
	assert.True(t, cache.Has("k"))
	assert.Equal(t, 2, cache.Limit())

	got, err = table.Static(ir.NamespaceGlobal, "delay", context.Background(), time.Millisecond, "done")
	require.NoError(t, err)
	assert.Equal(t, "done", got)

	used, err := table.Static(ir.NamespaceProcess, "memoryUsage")
	require.NoError(t, err)
	assert.NotZero(t, used.(leaf.MemoryUsed).HeapUsed)
}

func TestDefaultRunsOnce(t *testing.T) {
	first, err := Default()
	require.NoError(t, err)
	second, err := Default()
	require.NoError(t, err)
	assert.Same(t, first, second)

	g, err := DefaultGateway()
	require.NoError(t, err)
	assert.NotNil(t, g)

	namespaces := make(map[ir.Namespace]bool)
	for _, info := range first.Snapshot() {
		namespaces[info.Namespace] = true
	}
	for _, ns := range ir.Namespaces {
		assert.True(t, namespaces[ns], "namespace %s populated", ns)
	}
	assert.True(t, slices.IsSorted(first.Names(ir.NamespaceText, ir.BindInstance)))
}
