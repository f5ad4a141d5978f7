package graph

const (
	defaultLinkWeight   = 1.0 // Weight for links without an explicit value
	defaultUntypedLabel = "Untyped"

	// SchemaConstraint is the range of dataset schema versions this build reads
	SchemaConstraint = ">= 1.0.0, < 2.0.0"
	// DefaultSchemaVersion is assumed when a dataset omits schema_version
	DefaultSchemaVersion = "1.0.0"
)
