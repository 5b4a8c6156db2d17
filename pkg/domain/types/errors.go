package types

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidOption    = goerr.New("invalid option")
	ErrValidationFailed = goerr.New("validation failed")

	// ErrAuthFailed indicates the OAuth client-credential exchange failed.
	ErrAuthFailed = goerr.New("authentication failed")

	// ErrUpstream indicates a transport, HTTP status, or parse failure
	// while talking to the Bitbucket REST API.
	ErrUpstream = goerr.New("upstream request failed")

	// ErrBuildFailed indicates a snapshot build was aborted. The previous
	// snapshot stays published.
	ErrBuildFailed = goerr.New("snapshot build failed")

	// ErrRefreshRunning is returned when a refresh is requested while
	// another one is still in flight.
	ErrRefreshRunning = goerr.New("refresh already running")

	// ErrNoSnapshot is returned by queries before any snapshot has been
	// published or restored from disk.
	ErrNoSnapshot = goerr.New("no snapshot available")

	ErrNotFound = goerr.New("not found")
)
