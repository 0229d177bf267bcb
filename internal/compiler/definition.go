package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/graft/internal/ir"
)

// CompileDefinition parses a CUE value into a DefinitionSpec.
//
// The CUE value should be the definition struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`definition: Walker: { params: ["name"] }`)
//	spec, err := CompileDefinition(v.LookupPath(cue.ParsePath("definition.Walker")))
func CompileDefinition(v cue.Value) (*ir.DefinitionSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.DefinitionSpec{Name: labelOf(v)}

	var err error
	if spec.Params, err = stringList(v, "params"); err != nil {
		return nil, err
	}
	if spec.Extends, err = stringList(v, "extends"); err != nil {
		return nil, err
	}
	if spec.Instance, err = stringMap(v, "instance"); err != nil {
		return nil, err
	}
	if spec.Static, err = stringMap(v, "static"); err != nil {
		return nil, err
	}

	if markerVal := v.LookupPath(cue.ParsePath("marker")); markerVal.Exists() {
		marker, err := markerVal.Bool()
		if err != nil {
			return nil, &CompileError{Field: "marker", Message: "marker must be a bool", Pos: markerVal.Pos()}
		}
		spec.Marker = marker
	}

	// Definitions are explicit documents; without params they still count as
	// definitions unless marker is set to false.
	if len(spec.Params) == 0 && !v.LookupPath(cue.ParsePath("marker")).Exists() {
		spec.Marker = true
	}

	if fieldsVal := v.LookupPath(cue.ParsePath("fields")); fieldsVal.Exists() {
		var fields map[string]any
		if err := fieldsVal.Decode(&fields); err != nil {
			return nil, &CompileError{Field: "fields", Message: "fields must be a struct of concrete values", Pos: fieldsVal.Pos()}
		}
		spec.Fields = fields
	}

	return spec, nil
}

// CompileMix parses a CUE value into a MixSpec.
//
//	mix: Robot: { base: "Walker", mixins: ["Talker"] }
func CompileMix(v cue.Value) (*ir.MixSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.MixSpec{Name: labelOf(v)}

	baseVal := v.LookupPath(cue.ParsePath("base"))
	if !baseVal.Exists() {
		return nil, &CompileError{Field: "base", Message: "base is required", Pos: v.Pos()}
	}
	base, err := baseVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Base = base

	if spec.Mixins, err = stringList(v, "mixins"); err != nil {
		return nil, err
	}
	return spec, nil
}

func labelOf(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return labels[len(labels)-1].String()
}

// stringList decodes an optional list of strings.
func stringList(v cue.Value, field string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: field + " must be a list of strings", Pos: listVal.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: field + " must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// stringMap decodes an optional struct of string values.
func stringMap(v cue.Value, field string) (map[string]string, error) {
	structVal := v.LookupPath(cue.ParsePath(field))
	if !structVal.Exists() {
		return nil, nil
	}
	iter, err := structVal.Fields()
	if err != nil {
		return nil, &CompileError{Field: field, Message: field + " must be a struct", Pos: structVal.Pos()}
	}
	out := make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + iter.Selector().String(),
				Message: "capability reference must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		out[iter.Selector().String()] = s
	}
	return out, nil
}

// CompileDocuments compiles every entry under the top-level `definition` and
// `mix` fields of v, in declaration order.
func CompileDocuments(v cue.Value) ([]ir.DefinitionSpec, []ir.MixSpec, error) {
	if err := v.Err(); err != nil {
		return nil, nil, formatCUEError(err)
	}

	var defs []ir.DefinitionSpec
	if defsVal := v.LookupPath(cue.ParsePath("definition")); defsVal.Exists() {
		iter, err := defsVal.Fields()
		if err != nil {
			return nil, nil, formatCUEError(err)
		}
		for iter.Next() {
			spec, err := CompileDefinition(iter.Value())
			if err != nil {
				return nil, nil, err
			}
			defs = append(defs, *spec)
		}
	}

	var mixes []ir.MixSpec
	if mixesVal := v.LookupPath(cue.ParsePath("mix")); mixesVal.Exists() {
		iter, err := mixesVal.Fields()
		if err != nil {
			return nil, nil, formatCUEError(err)
		}
		for iter.Next() {
			spec, err := CompileMix(iter.Value())
			if err != nil {
				return nil, nil, err
			}
			mixes = append(mixes, *spec)
		}
	}
	return defs, mixes, nil
}
