package models

import "errors"

// ErrInvalidMetadata is returned when chunk metadata is missing required fields.
var ErrInvalidMetadata = errors.New("invalid chunk metadata")
