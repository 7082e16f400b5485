package launcher

import "fmt"

// Phase names one step of the run. Every failure is wrapped with the phase
// it occurred in so diagnosis is unambiguous and the failing step can be
// reproduced in isolation via debug mode.
type Phase string

const (
	PhaseFetchDescriptor    Phase = "fetch-descriptor"
	PhaseSelectHost         Phase = "select-host"
	PhaseResolveRef         Phase = "resolve-ref"
	PhasePrepareRepository  Phase = "prepare-repository"
	PhasePrepareEnvironment Phase = "prepare-environment"
	PhaseBuildInvocation    Phase = "build-invocation"
	PhaseExecute            Phase = "execute"
)

// PhaseError wraps a failure with the phase it occurred in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

func phaseErr(phase Phase, err error) error {
	return &PhaseError{Phase: phase, Err: err}
}
