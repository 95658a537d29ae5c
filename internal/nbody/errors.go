package nbody

import (
	"errors"
	"fmt"
)

// Domain errors for simulation runs.
var (
	// ErrSingularConfiguration indicates two bodies at the same position.
	ErrSingularConfiguration = errors.New("nbody: singular configuration (zero separation between bodies)")

	// ErrInvalidConfiguration indicates a run that cannot start.
	ErrInvalidConfiguration = errors.New("nbody: invalid configuration")
)

// SimulationError wraps an error with the tick it happened on.
type SimulationError struct {
	Step    int
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// SingularError names the pair of bodies whose separation vanished.
type SingularError struct {
	I, J  int
	NameI string
	NameJ string
}

func (e *SingularError) Error() string {
	return fmt.Sprintf("%v: %q and %q", ErrSingularConfiguration, e.NameI, e.NameJ)
}

func (e *SingularError) Unwrap() error {
	return ErrSingularConfiguration
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
