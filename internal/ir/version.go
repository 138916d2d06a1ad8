package ir

// Version constants for the node-kind schema and the tool.
const (
	// SchemaVersion is the version of the exported node-kind schema. Bump it
	// whenever a field of the schema document changes meaning.
	SchemaVersion = "1"

	// ToolVersion is the irgraph version.
	ToolVersion = "0.1.0"
)
