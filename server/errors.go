package server

import (
	"github.com/teranos/vista/errors"
	grapherror "github.com/teranos/vista/graph/error"
)

// Sentinel errors for common cases.
// Use these with errors.Is() for type-safe error checking.
var (
	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrServiceUnavailable indicates no engine is attached or the server is full
	ErrServiceUnavailable = errors.New("service unavailable")
)

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && errors.Is(err, ErrInvalidRequest)
}

// IsServiceUnavailableError checks if an error is or wraps ErrServiceUnavailable
func IsServiceUnavailableError(err error) bool {
	return err != nil && errors.Is(err, ErrServiceUnavailable)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return errors.Wrap(ErrInvalidRequest, errors.Newf(format, args...).Error())
}

// classify turns an engine error into the structured error sent in error frames
func classify(err error) *grapherror.GraphError {
	if ge, ok := grapherror.As(err); ok {
		return ge
	}
	switch {
	case errors.IsUnknownMode(err):
		return grapherror.New(grapherror.CategoryProjection, err, "Unknown view mode").
			WithSubcategory(grapherror.SubcategoryProjectionUnknownMode)
	case errors.IsInvalidConfig(err):
		return grapherror.New(grapherror.CategoryConfig, err, "")
	case errors.IsInvalidDataset(err):
		return grapherror.New(grapherror.CategoryDataset, err, "")
	case IsInvalidRequestError(err):
		return grapherror.New(grapherror.CategoryTransport, err, "Request rejected").
			WithSubcategory(grapherror.SubcategoryTransportMessage)
	case errors.Is(err, errors.ErrClosed), IsServiceUnavailableError(err):
		return grapherror.New(grapherror.CategoryInternal, err, "Engine is not running").
			WithSubcategory(grapherror.SubcategoryInternalState)
	default:
		return grapherror.New(grapherror.CategoryProjection, err, "")
	}
}
