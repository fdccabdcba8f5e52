package orchestrator

import "errors"

var (
	// ErrEmptyQuery is returned by Start for blank or whitespace-only queries.
	ErrEmptyQuery = errors.New("orchestrator: query is empty")

	// ErrBackendUnavailable is returned by Start when the connectivity probe
	// reports the analysis service unreachable.
	ErrBackendUnavailable = errors.New("orchestrator: analysis backend unavailable")

	// ErrRunInProgress is returned by Start and Reset while a run is running.
	ErrRunInProgress = errors.New("orchestrator: a run is already in progress")
)
