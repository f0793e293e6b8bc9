package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoLocation      = errors.New("no location given")
	ErrInvalidSpec     = errors.New("invalid property spec")
	ErrInvalidArtifact = errors.New("invalid artifact")
)
