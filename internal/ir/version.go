package ir

// Version constants for stored documents and the evaluator.
const (
	// SchemaVersion is the version of the canonical rule/result encoding.
	SchemaVersion = "1"

	// EngineVersion is the swapcheck evaluator version.
	EngineVersion = "0.1.0"
)
