package gateway

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loader decodes a module file's bytes into its export.
type Loader func(path string, data []byte) (Export, error)

// DefaultLoaders returns the loaders for the built-in module formats, keyed
// by file extension.
func DefaultLoaders() map[string]Loader {
	return map[string]Loader{
		".cue":  LoadCUE,
		".json": LoadJSON,
		".yaml": LoadYAML,
		".yml":  LoadYAML,
		".toml": LoadTOML,
	}
}

// LoadCUE evaluates a CUE file and decodes the resulting value.
func LoadCUE(path string, data []byte) (Export, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, errors.Wrap(err, "compile cue")
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.Wrap(err, "validate cue")
	}
	var out any
	if err := v.Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode cue")
	}
	return out, nil
}

// LoadJSON decodes a JSON document.
func LoadJSON(_ string, data []byte) (Export, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	return out, nil
}

// LoadYAML decodes a YAML document.
func LoadYAML(_ string, data []byte) (Export, error) {
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	return out, nil
}

// LoadTOML decodes a TOML document.
func LoadTOML(_ string, data []byte) (Export, error) {
	var out map[string]any
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode toml")
	}
	return out, nil
}

// readModule reads path and decodes it with the loader for its extension.
func readModule(loaders map[string]Loader, path string) (Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "read %s", path), ErrNotFound)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	load, ok := loaders[ext]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "no loader for %q", ext)
	}
	exp, err := load(path, data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return exp, nil
}
