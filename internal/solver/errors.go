package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"energy-dispatch/internal/model"
)

// Error codes returned by Kind.
const (
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeInfeasible        = "INFEASIBLE"
	CodeUnbounded         = "UNBOUNDED"
	CodeSolverUnavailable = "SOLVER_UNAVAILABLE"
	CodeSolverTimeout     = "SOLVER_TIMEOUT"
	CodeInternal          = "INTERNAL"
)

// InfeasibleModelError means the constraint set admits no solution.
type InfeasibleModelError struct {
	Model  string
	Detail string
}

func (e *InfeasibleModelError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("model %s is infeasible", e.Model)
	}
	return fmt.Sprintf("model %s is infeasible: %s", e.Model, e.Detail)
}

// UnboundedModelError means the objective can decrease without limit.
type UnboundedModelError struct {
	Model string
}

func (e *UnboundedModelError) Error() string {
	return fmt.Sprintf("model %s is unbounded", e.Model)
}

// SolverUnavailableError means the requested backend does not exist,
// cannot handle the model class, or could not solve it reliably.
type SolverUnavailableError struct {
	Solver string
	Reason string
}

func (e *SolverUnavailableError) Error() string {
	return fmt.Sprintf("solver %q unavailable: %s", e.Solver, e.Reason)
}

// SolverTimeoutError means the time or node budget ran out before an optimal
// solution was proven. No values are reported.
type SolverTimeoutError struct {
	Solver  string
	Elapsed time.Duration
	Reason  string
}

func (e *SolverTimeoutError) Error() string {
	return fmt.Sprintf("solver %q stopped after %s: %s", e.Solver, e.Elapsed.Round(time.Millisecond), e.Reason)
}

var (
	errInfeasible  = errors.New("infeasible")
	errUnbounded   = errors.New("unbounded")
	errNodeLimit   = errors.New("node budget exhausted")
	errUnsupported = errors.New("unsupported model")
	errNumerical   = errors.New("numerical failure")
)

// classify converts backend errors into the exported error types.
func classify(solverName, modelName string, elapsed time.Duration, err error) error {
	switch {
	case errors.Is(err, errInfeasible):
		return &InfeasibleModelError{Model: modelName, Detail: err.Error()}
	case errors.Is(err, errUnbounded):
		return &UnboundedModelError{Model: modelName}
	case errors.Is(err, context.DeadlineExceeded):
		return &SolverTimeoutError{Solver: solverName, Elapsed: elapsed, Reason: "time budget exceeded"}
	case errors.Is(err, errNodeLimit):
		return &SolverTimeoutError{Solver: solverName, Elapsed: elapsed, Reason: err.Error()}
	case errors.Is(err, errUnsupported), errors.Is(err, errNumerical):
		return &SolverUnavailableError{Solver: solverName, Reason: err.Error()}
	}
	return fmt.Errorf("%s: %w", solverName, err)
}

// Kind maps err to a stable code. Unknown errors are CodeInternal.
func Kind(err error) string {
	var (
		cfg         *model.ConfigurationError
		infeasible  *InfeasibleModelError
		unbounded   *UnboundedModelError
		unavailable *SolverUnavailableError
		timeout     *SolverTimeoutError
	)
	switch {
	case errors.As(err, &cfg):
		return CodeInvalidConfig
	case errors.As(err, &infeasible):
		return CodeInfeasible
	case errors.As(err, &unbounded):
		return CodeUnbounded
	case errors.As(err, &unavailable):
		return CodeSolverUnavailable
	case errors.As(err, &timeout):
		return CodeSolverTimeout
	}
	return CodeInternal
}
