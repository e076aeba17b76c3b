package app

import "errors"

// Error taxonomy shared by the CLI and the HTTP API.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUpstream        = errors.New("upstream failure")
)
