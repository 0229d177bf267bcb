package ir

// Version constants for graft.
const (
	// SchemaVersion is the version of the definition document schema.
	SchemaVersion = "1"

	// Version is the graft release version.
	Version = "0.1.0"
)
