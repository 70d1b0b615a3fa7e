package model

import "errors"

var (
	// ErrInvalidInput is returned for empty text, malformed URLs or bad crawl bounds
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFile is returned for file types that cannot be read as text
	ErrUnsupportedFile = errors.New("unsupported file type")
)
