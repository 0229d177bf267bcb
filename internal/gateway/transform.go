package gateway

import (
	"dario.cat/mergo"
	"github.com/cockroachdb/errors"

	"github.com/roach88/graft/internal/leaf"
)

// Identity returns the export unchanged.
func Identity(exp Export) (Export, error) {
	return exp, nil
}

// Chain applies transforms left to right.
func Chain(transforms ...Transform) Transform {
	return func(exp Export) (Export, error) {
		var err error
		for i, t := range transforms {
			exp, err = t(exp)
			if err != nil {
				return nil, errors.Wrapf(err, "transform %d", i)
			}
		}
		return exp, nil
	}
}

// Patch deep-merges patch into a copy of a map export. Patch values win and
// nested maps merge key by key.
func Patch(patch map[string]any) Transform {
	return func(exp Export) (Export, error) {
		base, ok := exp.(map[string]any)
		if !ok {
			return nil, errors.Newf("patch: export is %T, want map[string]any", exp)
		}
		out := leaf.Clone(base).(map[string]any)
		if out == nil {
			out = make(map[string]any)
		}
		if err := mergo.Merge(&out, leaf.Clone(patch).(map[string]any), mergo.WithOverride); err != nil {
			return nil, errors.Wrap(err, "patch")
		}
		return out, nil
	}
}
