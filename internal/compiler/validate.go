package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/graft/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrUnsupportedDocType = "E200" // unsupported document type for validation

	// DefinitionSpec errors (E201-E209)
	ErrDefinitionNameEmpty  = "E201" // name is required
	ErrDuplicateName        = "E202" // duplicate definition or mix name
	ErrUnknownParent        = "E203" // extends names an undeclared definition
	ErrInvalidCapabilityRef = "E204" // capability reference is not ns.name[@field]
	ErrUnknownNamespace     = "E205" // capability reference names an unknown namespace
	ErrDuplicateParam       = "E206" // params lists a name twice

	// MixSpec errors (E210-E219)
	ErrMixBaseMissing  = "E210" // base is required
	ErrUnknownMixInput = "E211" // base or mixin names an undeclared definition
	ErrMixSelfInput    = "E212" // a mix lists itself as an input
)

// ValidationError represents a document validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a set of compiled documents against each other.
// Returns all errors found (does not fail-fast).
func Validate(defs []ir.DefinitionSpec, mixes []ir.MixSpec) []ValidationError {
	var errs []ValidationError

	declared := make(map[string]bool, len(defs)+len(mixes))
	claim := func(kind, name string) {
		if declared[name] {
			errs = append(errs, ValidationError{
				Field:   kind + "." + name,
				Message: fmt.Sprintf("%q declared more than once", name),
				Code:    ErrDuplicateName,
			})
		}
		declared[name] = true
	}
	for _, d := range defs {
		claim("definition", d.Name)
	}
	for _, m := range mixes {
		claim("mix", m.Name)
	}

	for i := range defs {
		errs = append(errs, validateDefinition(&defs[i], declared)...)
	}
	for i := range mixes {
		errs = append(errs, validateMix(&mixes[i], declared)...)
	}
	return errs
}

// ValidateDocument validates a single document in isolation.
func ValidateDocument(v any) []ValidationError {
	switch doc := v.(type) {
	case *ir.DefinitionSpec:
		return validateDefinition(doc, nil)
	case ir.DefinitionSpec:
		return validateDefinition(&doc, nil)
	case *ir.MixSpec:
		return validateMix(doc, nil)
	case ir.MixSpec:
		return validateMix(&doc, nil)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported document type: %T", v),
			Code:    ErrUnsupportedDocType,
		}}
	}
}

// validateDefinition checks a definition; declared may be nil to skip
// cross-document checks.
func validateDefinition(spec *ir.DefinitionSpec, declared map[string]bool) []ValidationError {
	var errs []ValidationError
	prefix := "definition." + spec.Name

	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "definition",
			Message: "name is required and must be non-empty",
			Code:    ErrDefinitionNameEmpty,
		})
	}

	seen := make(map[string]bool, len(spec.Params))
	for _, p := range spec.Params {
		if seen[p] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".params",
				Message: fmt.Sprintf("parameter %q listed twice", p),
				Code:    ErrDuplicateParam,
			})
		}
		seen[p] = true
	}

	if declared != nil {
		for _, parent := range spec.Extends {
			if !declared[parent] {
				errs = append(errs, ValidationError{
					Field:   prefix + ".extends",
					Message: fmt.Sprintf("unknown definition %q", parent),
					Code:    ErrUnknownParent,
				})
			}
		}
	}

	errs = append(errs, validateRefs(prefix+".instance", spec.Instance)...)
	errs = append(errs, validateRefs(prefix+".static", spec.Static)...)
	return errs
}

func validateRefs(field string, refs map[string]string) []ValidationError {
	var errs []ValidationError
	for _, name := range ir.SortedKeys(refs) {
		ref := refs[name]
		path, _, _ := strings.Cut(ref, "@")
		nsName, capName, ok := strings.Cut(path, ".")
		if !ok || nsName == "" || capName == "" {
			errs = append(errs, ValidationError{
				Field:   field + "." + name,
				Message: fmt.Sprintf("invalid capability reference %q: want namespace.name", ref),
				Code:    ErrInvalidCapabilityRef,
			})
			continue
		}
		if _, err := ir.ParseNamespace(nsName); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + "." + name,
				Message: fmt.Sprintf("unknown namespace %q", nsName),
				Code:    ErrUnknownNamespace,
			})
		}
	}
	return errs
}

func validateMix(spec *ir.MixSpec, declared map[string]bool) []ValidationError {
	var errs []ValidationError
	prefix := "mix." + spec.Name

	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "mix",
			Message: "name is required and must be non-empty",
			Code:    ErrDefinitionNameEmpty,
		})
	}
	if spec.Base == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".base",
			Message: "base is required",
			Code:    ErrMixBaseMissing,
		})
	}

	inputs := append([]string{spec.Base}, spec.Mixins...)
	for i, in := range inputs {
		if in == "" {
			continue
		}
		field := prefix + ".base"
		if i > 0 {
			field = fmt.Sprintf("%s.mixins[%d]", prefix, i-1)
		}
		if in == spec.Name {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "mix lists itself as an input",
				Code:    ErrMixSelfInput,
			})
			continue
		}
		if declared != nil && !declared[in] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown definition %q", in),
				Code:    ErrUnknownMixInput,
			})
		}
	}
	return errs
}
