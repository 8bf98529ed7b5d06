package shared

// Outcome reports whether a state transition changed anything or was an
// idempotent repeat. Operations declared idempotent-on-repeat (Ship, Deliver,
// Cancel of an already-cancelled aggregate, FillBackorder) return
// OutcomeAlreadyDone instead of a Conflict error so that at-least-once event
// redelivery is harmless. Conflict-on-repeat operations (Return, Complete,
// forward advance) do not use this type; they fail with KindConflict.
type Outcome int

const (
	// OutcomeApplied means the transition mutated the aggregate.
	OutcomeApplied Outcome = iota
	// OutcomeAlreadyDone means the aggregate was already in the target state
	// and the call was a no-op.
	OutcomeAlreadyDone
)

// Applied reports whether the transition mutated the aggregate
func (o Outcome) Applied() bool {
	return o == OutcomeApplied
}

// String returns a human-readable name for the outcome
func (o Outcome) String() string {
	if o == OutcomeAlreadyDone {
		return "AlreadyDone"
	}
	return "Applied"
}
