package domain

import "github.com/cockroachdb/errors"

// Run error taxonomy. Adapters mark their errors with one of these so callers
// can classify them with errors.Is.
var (
	// ErrMalformedReport means the current report could not be parsed. Fatal.
	ErrMalformedReport = errors.New("malformed coverage report")
	// ErrBaselineUnavailable means the baseline report is missing or unparsable.
	// The run continues without a comparison.
	ErrBaselineUnavailable = errors.New("baseline unavailable")
	// ErrUnsupportedEvent means the run was not triggered by a pull request. Fatal.
	ErrUnsupportedEvent = errors.New("only pull_request events are supported")
	// ErrCollaborator wraps platform API and storage transport failures. Fatal, never retried.
	ErrCollaborator = errors.New("collaborator failure")
)
