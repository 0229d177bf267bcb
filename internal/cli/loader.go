package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/graft/internal/compiler"
	"github.com/roach88/graft/internal/ir"
)

// LoadMode controls how errors are handled during definition loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// DefaultPattern selects the definition files under a directory.
const DefaultPattern = "**/*.cue"

// LoadResult contains the documents loaded from a directory.
type LoadResult struct {
	Definitions []ir.DefinitionSpec
	Mixes       []ir.MixSpec
	CUEValue    cue.Value // unified value of every file
	Files       []string
}

// LoadError represents an error that occurred during definition loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDefinitions compiles every definition and mix document found in the
// CUE files under dir. Files are unified into one value, so a document may be
// split across files.
func LoadDefinitions(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definitions directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing definitions directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	value := ctx.CompileString("{}")
	for _, path := range cueFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}}
		}
		fileVal := ctx.CompileBytes(data, cue.Filename(path))
		if err := fileVal.Err(); err != nil {
			return nil, []error{cueLoadError(ErrCodeLoadFailed, "loading CUE file", err)}
		}
		value = value.Unify(fileVal)
	}
	if err := value.Err(); err != nil {
		return nil, []error{cueLoadError(ErrCodeBuildFailed, "building CUE value", err)}
	}

	result := &LoadResult{
		CUEValue: value,
		Files:    cueFiles,
	}

	// Extract definitions
	defsVal := value.LookupPath(cue.ParsePath("definition"))
	if defsVal.Exists() {
		iter, iterErr := defsVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating definitions: %v", iterErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			for iter.Next() {
				spec, compileErr := compiler.CompileDefinition(iter.Value())
				if compileErr != nil {
					errs = append(errs, convertCompileError(compileErr, "definition."+iter.Selector().String()))
					if mode == LoadModeFailFast {
						return result, errs
					}
					continue
				}
				result.Definitions = append(result.Definitions, *spec)
			}
		}
	}

	// Extract mixes
	mixesVal := value.LookupPath(cue.ParsePath("mix"))
	if mixesVal.Exists() {
		iter, iterErr := mixesVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating mixes: %v", iterErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			for iter.Next() {
				spec, compileErr := compiler.CompileMix(iter.Value())
				if compileErr != nil {
					errs = append(errs, convertCompileError(compileErr, "mix."+iter.Selector().String()))
					if mode == LoadModeFailFast {
						return result, errs
					}
					continue
				}
				result.Mixes = append(result.Mixes, *spec)
			}
		}
	}

	if len(result.Definitions) == 0 && len(result.Mixes) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no definitions or mixes found"})
	}

	return result, errs
}

// FindCUEFiles returns the .cue files under dir in lexical order.
func FindCUEFiles(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), DefaultPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return files, nil
}

// cueLoadError converts a CUE error to a LoadError carrying its first position.
func cueLoadError(code, context string, err error) *LoadError {
	loadErr := &LoadError{Code: code, Message: fmt.Sprintf("%s: %v", context, err)}
	if list := cueerrors.Errors(err); len(list) > 0 {
		if positions := cueerrors.Positions(list[0]); len(positions) > 0 {
			loadErr.Pos = positions[0]
		}
	}
	return loadErr
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path or module not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeWriteFailed   = "E007" // Journal write error
	ErrCodeJournal       = "E008" // Journal open or read error
	ErrCodeBadPatch      = "E009" // Override patch unreadable
	ErrCodeTransform     = "E010" // Override transform failed
	ErrCodeUnloadable    = "E011" // Module could not be decoded
	ErrCodeComposeFailed = "E012" // Binding definitions to capabilities failed

	// Definition document errors
	ErrCodeInvalidParams   = "E101" // params is not a list of strings
	ErrCodeInvalidExtends  = "E102" // extends is not a list of strings
	ErrCodeInvalidCapRef   = "E103" // instance/static entry is not a reference string
	ErrCodeInvalidFields   = "E104" // fields are not concrete
	ErrCodeInvalidMarker   = "E105" // marker is not a bool
	ErrCodeMixBaseRequired = "E110" // mix has no base
	ErrCodeInvalidMixins   = "E111" // mixins is not a list of strings
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	head, _, _ := strings.Cut(field, ".")
	switch head {
	case "params":
		return ErrCodeInvalidParams
	case "extends":
		return ErrCodeInvalidExtends
	case "instance", "static":
		return ErrCodeInvalidCapRef
	case "fields":
		return ErrCodeInvalidFields
	case "marker":
		return ErrCodeInvalidMarker
	case "base":
		return ErrCodeMixBaseRequired
	case "mixins":
		return ErrCodeInvalidMixins
	default:
		return ErrCodeGeneric
	}
}
