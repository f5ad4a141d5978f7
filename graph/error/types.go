package grapherror

import (
	"time"

	"github.com/teranos/vista/errors"
)

// GraphError is an engine error carrying the structured context the
// renderer and the logs need
type GraphError struct {
	Err         error                  // Underlying error
	Category    Category               // Main category
	Subcategory string                 // Optional subcategory
	UserMessage string                 // Shown by the renderer
	Context     map[string]interface{} // Debugging context
	Timestamp   time.Time
}

func (e *GraphError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap returns the underlying error for errors.Is/As
func (e *GraphError) Unwrap() error {
	return e.Err
}

// New creates a GraphError in a category
func New(category Category, err error, userMsg string) *GraphError {
	return &GraphError{
		Err:         err,
		Category:    category,
		UserMessage: userMsg,
		Context:     make(map[string]interface{}),
		Timestamp:   time.Now(),
	}
}

// Newf creates a GraphError with a formatted underlying error
func Newf(category Category, userMsg, format string, args ...interface{}) *GraphError {
	return New(category, errors.Newf(format, args...), userMsg)
}

// FromPanic converts a recovered panic value into an internal/panic error
func FromPanic(recovered interface{}, userMsg string) *GraphError {
	var err error
	if e, ok := recovered.(error); ok {
		err = errors.Wrap(e, "recovered panic")
	} else {
		err = errors.Newf("recovered panic: %v", recovered)
	}
	return New(CategoryInternal, err, userMsg).WithSubcategory(SubcategoryInternalPanic)
}

func (e *GraphError) WithSubcategory(sub string) *GraphError {
	e.Subcategory = sub
	return e
}

// WithContext adds a key-value pair for debugging
func (e *GraphError) WithContext(key string, value interface{}) *GraphError {
	e.Context[key] = value
	return e
}

// As extracts a GraphError from an error chain
func As(err error) (*GraphError, bool) {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
