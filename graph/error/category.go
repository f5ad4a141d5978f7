package grapherror

// Category is the main error category for projection engine failures
type Category string

const (
	// CategoryDataset indicates a dataset could not be loaded or validated
	CategoryDataset Category = "dataset"

	// CategoryProjection indicates a projector or view transition failed
	CategoryProjection Category = "projection"

	// CategoryTransport indicates renderer transport errors (websocket)
	CategoryTransport Category = "transport"

	// CategoryConfig indicates configuration errors
	CategoryConfig Category = "config"

	// CategoryInternal indicates internal errors
	CategoryInternal Category = "internal"
)

func (c Category) String() string {
	return string(c)
}

// Dataset subcategories
const (
	SubcategoryDatasetRead   = "read"
	SubcategoryDatasetSchema = "schema"
	SubcategoryDatasetLinks  = "links"
)

// Projection subcategories
const (
	SubcategoryProjectionUnknownMode = "unknown_mode"
	SubcategoryProjectionNoBounds    = "no_bounds"
	SubcategoryProjectionRestore     = "restore"
)

// Transport subcategories
const (
	SubcategoryTransportUpgrade = "upgrade"
	SubcategoryTransportRead    = "read"
	SubcategoryTransportWrite   = "write"
	SubcategoryTransportMessage = "message"
)

// Internal subcategories
const (
	// SubcategoryInternalPanic indicates a panic was recovered
	SubcategoryInternalPanic = "panic"

	// SubcategoryInternalState indicates invalid internal state
	SubcategoryInternalState = "invalid_state"
)
