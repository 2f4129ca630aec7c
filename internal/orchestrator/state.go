package orchestrator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/steveyegge/skillscan/internal/logging"
)

// State is a phase of one run
type State string

const (
	StateIdle             State = "idle"              // Nothing started
	StateStackBuilt       State = "stack_built"       // Tech stack is available
	StateAnalyzersRunning State = "analyzers_running" // Analyzers launched
	StateAggregated       State = "aggregated"        // Every analyzer settled, report assembled
	StatePersisted        State = "persisted"         // Skills handed to the sink (or skipped)
	StateDone             State = "done"              // Terminal success
	StateFailed           State = "failed"            // Terminal failure
)

// ErrInvalidTransition is returned when a run tries to skip or revisit a phase
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines the run state machine.
//
//	idle → stack_built → analyzers_running → aggregated → persisted → done
//	  ↓         ↓
//	failed    failed
//
// Once analyzers are running the run always completes: analyzer failures are
// outcomes, not run failures.
func (s State) ValidTransitions() []State {
	switch s {
	case StateIdle:
		return []State{StateStackBuilt, StateFailed}
	case StateStackBuilt:
		return []State{StateAnalyzersRunning, StateFailed}
	case StateAnalyzersRunning:
		return []State{StateAggregated}
	case StateAggregated:
		return []State{StatePersisted}
	case StatePersisted:
		return []State{StateDone}
	default:
		return []State{} // Terminal
	}
}

// CanTransitionTo checks if a transition from this state to the target state is valid
func (s State) CanTransitionTo(target State) bool {
	return slices.Contains(s.ValidTransitions(), target)
}

// IsTerminal reports whether no further transitions are possible
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// machine tracks the current state and the trace of every state visited
type machine struct {
	state State
	trace []State
	log   logging.Logger
}

func newMachine(log logging.Logger) *machine {
	return &machine{state: StateIdle, trace: []State{StateIdle}, log: log}
}

func (m *machine) transition(to State) error {
	if !m.state.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
	}
	m.log.Debug("run state changed", "from", string(m.state), "to", string(to))
	m.state = to
	m.trace = append(m.trace, to)
	return nil
}

func (m *machine) states() []State {
	return slices.Clone(m.trace)
}
