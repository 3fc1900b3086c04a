package housing

import "errors"

var (
	// ErrSchema is returned when a required column is absent.
	ErrSchema = errors.New("schema error")

	// ErrTypeCast is returned when a date or numeric value cannot be parsed.
	ErrTypeCast = errors.New("type cast error")

	// ErrLeakageGuard flags an excluded column that is marked as a usable predictor.
	ErrLeakageGuard = errors.New("leakage guard")
)
