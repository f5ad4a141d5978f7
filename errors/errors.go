// Package errors provides error handling for vista.
//
// This package re-exports github.com/cockroachdb/errors so every package
// wraps and inspects errors the same way:
//
//	if err := cfg.Validate(); err != nil {
//	    return errors.Wrap(err, "invalid view configuration")
//	}
//
//	if errors.Is(err, errors.ErrUnknownMode) {
//	    // reject the mode switch, keep the active projection
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing hints and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Join      = crdb.Join
)

// AssertionFailedf reports a violated internal invariant.
var AssertionFailedf = crdb.AssertionFailedf

// Sentinel errors shared across packages. Wrap them with context and
// check with Is.
var (
	// ErrUnknownMode indicates a view mode that has no dispatch entry
	ErrUnknownMode = New("unknown view mode")

	// ErrInvalidConfig indicates configuration values out of range
	ErrInvalidConfig = New("invalid configuration")

	// ErrInvalidDataset indicates a dataset that cannot be turned into a graph
	ErrInvalidDataset = New("invalid dataset")

	// ErrNoBounds indicates a projection was requested before bounds existed
	ErrNoBounds = New("bounds not computed")

	// ErrClosed indicates an operation on a stopped loop or server
	ErrClosed = New("closed")
)

// IsUnknownMode checks if an error is or wraps ErrUnknownMode
func IsUnknownMode(err error) bool {
	return err != nil && Is(err, ErrUnknownMode)
}

// IsInvalidConfig checks if an error is or wraps ErrInvalidConfig
func IsInvalidConfig(err error) bool {
	return err != nil && Is(err, ErrInvalidConfig)
}

// IsInvalidDataset checks if an error is or wraps ErrInvalidDataset
func IsInvalidDataset(err error) bool {
	return err != nil && Is(err, ErrInvalidDataset)
}

// NewInvalidConfigError creates an invalid-config error with a formatted message
func NewInvalidConfigError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidConfig, Newf(format, args...).Error())
}

// NewInvalidDatasetError creates an invalid-dataset error with a formatted message
func NewInvalidDatasetError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidDataset, Newf(format, args...).Error())
}
