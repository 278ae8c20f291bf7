// Package wsi reads pyramidal whole-slide image files.
package wsi

import "errors"

// Common errors
var (
	ErrFormatMismatch    = errors.New("file does not match this format")
	ErrNoLevels          = errors.New("no pyramid levels found")
	ErrInvalidLevel      = errors.New("level index out of range")
	ErrClosed            = errors.New("slide is closed")
	ErrUnknownAssociated = errors.New("no such associated image")
)
