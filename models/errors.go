package models

import "errors"

var (
	// ErrInvalidArgument marks bad caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUpstreamUnavailable marks a provider without credentials.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamError marks a non-success response from a provider.
	ErrUpstreamError = errors.New("upstream error")
	// ErrRenderFailure marks a template compile failure. Fatal to a run.
	ErrRenderFailure = errors.New("render failure")
	// ErrPersistenceUnavailable marks an unreachable store.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
