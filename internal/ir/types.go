package ir

import "fmt"

// Namespace names a shared capability namespace.
type Namespace string

const (
	NamespaceText       Namespace = "text"
	NamespaceSequence   Namespace = "sequence"
	NamespaceObject     Namespace = "object"
	NamespaceBoolean    Namespace = "boolean"
	NamespaceNumber     Namespace = "number"
	NamespaceDefinition Namespace = "definition"
	NamespaceSymbol     Namespace = "symbol"
	NamespacePattern    Namespace = "pattern"
	NamespaceProcess    Namespace = "process"
	NamespaceGlobal     Namespace = "global"
)

// Namespaces lists every namespace in bootstrap order.
var Namespaces = []Namespace{
	NamespaceText,
	NamespaceSequence,
	NamespaceObject,
	NamespaceBoolean,
	NamespaceDefinition,
	NamespaceNumber,
	NamespaceSymbol,
	NamespacePattern,
	NamespaceGlobal,
	NamespaceProcess,
}

// ParseNamespace validates a namespace name.
func ParseNamespace(s string) (Namespace, error) {
	for _, ns := range Namespaces {
		if string(ns) == s {
			return ns, nil
		}
	}
	return "", fmt.Errorf("unknown namespace %q", s)
}

// BindingMode selects where a capability is attached.
type BindingMode int

const (
	// BindInstance attaches to every value of the namespace (receiver-bound).
	BindInstance BindingMode = iota
	// BindValue attaches to the namespace itself.
	BindValue
)

func (m BindingMode) String() string {
	if m == BindInstance {
		return "instance"
	}
	return "static"
}

// ForwardMode selects how call arguments reach a wrapped implementation.
type ForwardMode int

const (
	// WrapSingle calls the implementation with the receiver only.
	WrapSingle ForwardMode = iota
	// ForwardArgs forwards every call argument verbatim.
	ForwardArgs
)

func (m ForwardMode) String() string {
	if m == ForwardArgs {
		return "forward-args"
	}
	return "wrap-single"
}

// InstallMode selects whether the implementation is wrapped at all.
type InstallMode int

const (
	InstallWrapped InstallMode = iota
	InstallRaw
)

func (m InstallMode) String() string {
	if m == InstallRaw {
		return "raw"
	}
	return "wrapped"
}

// OperationBinding describes one capability installation.
// At most one implementation is active per (Namespace, Binding, Name).
type OperationBinding struct {
	Namespace Namespace
	Name      string
	Impl      any
	Binding   BindingMode
	Forward   ForwardMode
	Install   InstallMode
}

// CapabilityInfo is the serializable description of an installed capability.
type CapabilityInfo struct {
	Namespace Namespace `json:"namespace" yaml:"namespace"`
	Level     string    `json:"level" yaml:"level"` // "instance" | "static"
	Name      string    `json:"name" yaml:"name"`
	Mode      string    `json:"mode" yaml:"mode"` // "raw" | "forward-args" | "wrap-single"
	Kind      string    `json:"kind" yaml:"kind"` // Go type of the installed value
}

// DefinitionSpec is a compiled definition document.
type DefinitionSpec struct {
	Name     string            `json:"name"`
	Params   []string          `json:"params,omitempty"`
	Marker   bool              `json:"marker,omitempty"`
	Extends  []string          `json:"extends,omitempty"`
	Instance map[string]string `json:"instance,omitempty"` // capability name -> "namespace.name"
	Static   map[string]string `json:"static,omitempty"`
	Fields   map[string]any    `json:"fields,omitempty"` // initial instance fields
}

// MixSpec declares a composite built from a base and ordered mixins.
type MixSpec struct {
	Name   string   `json:"name"`
	Base   string   `json:"base"`
	Mixins []string `json:"mixins"`
}

// Resolution names the branch the gateway's resolution probe took.
type Resolution string

const (
	ResolvedAsDependency Resolution = "dependency"
	ResolvedAsLocalPath  Resolution = "local"
)

// OverrideRecord describes one completed module override.
type OverrideRecord struct {
	Seq               int64      `json:"seq"`
	ID                string     `json:"id"`
	Identifier        string     `json:"identifier"`
	OriginHint        string     `json:"origin_hint"`
	ResolvedPath      string     `json:"resolved_path"`
	Resolution        Resolution `json:"resolution"`
	OriginalDigest    string     `json:"original_digest"`
	TransformedDigest string     `json:"transformed_digest"`
}
