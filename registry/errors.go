package registry

import "errors"

var (
	ErrProviderNotFound = errors.New("registry provider not found")
	ErrMalformedURL     = errors.New("malformed provider url")
)
