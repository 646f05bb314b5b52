package relay

// State is a step of the escrow lifecycle. Operations are atomic, so states
// are never persisted; they are reported in receipts and logs.
type State uint8

const (
	StateIdle State = iota
	StateFunded
	StateDelegated
	StateBridged
	StateClaimed
	StatePayout
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFunded:
		return "funded"
	case StateDelegated:
		return "delegated"
	case StateBridged:
		return "bridged"
	case StateClaimed:
		return "claimed"
	case StatePayout:
		return "payout"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// trace records the states an operation passed through.
type trace struct {
	states []State
}

func newTrace() *trace { return &trace{states: []State{StateIdle}} }

func (t *trace) enter(s State) { t.states = append(t.states, s) }

func (t *trace) current() State { return t.states[len(t.states)-1] }
