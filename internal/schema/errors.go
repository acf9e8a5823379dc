package schema

import "errors"

var (
	// ErrFlattenMultiProcess is returned when flattening is forced on a
	// pipeline with more than one process.
	ErrFlattenMultiProcess = errors.New("cannot flatten process arguments for a multi-process pipeline")
	// ErrDuplicateFlag is returned when two options claim the same destination,
	// or one option would nest under another that is not a namespace.
	ErrDuplicateFlag = errors.New("option destination conflict")
	// ErrUnknownType is returned for an unregistered coercion type name.
	ErrUnknownType = errors.New("unknown option type")
	// ErrInvalidValue is returned when a value cannot be coerced to the
	// option's type or is not among its choices.
	ErrInvalidValue = errors.New("invalid option value")
)
