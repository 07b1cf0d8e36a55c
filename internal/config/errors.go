package config

import "errors"

// Configuration errors are caught at pipeline construction and never at
// analysis time (spec §7).
var (
	ErrMissingKey            = errors.New("config: missing required key")
	ErrInvalidValue          = errors.New("config: invalid value")
	ErrWeightsNotNormalized  = errors.New("config: weights not normalized")
)
