package simulation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrScenarioCountMismatch is a programming error: a result must carry exactly
// the requested number of scenarios.
var ErrScenarioCountMismatch = errors.New("scenario count does not match request")

// ValidationError reports a malformed request. It is raised before any sampling.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid simulation request: " + strings.Join(e.Problems, "; ")
}

// SimulationError wraps an unexpected failure during a run.
type SimulationError struct {
	Op  string
	Err error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("monte carlo simulation failed during %s: %v", e.Op, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}
