package pipeline

// State is a position in the audit pipeline state machine. Runs move
// strictly forward through the happy path; Rejected is reachable only from
// Classified, Failed from any non-terminal state.
type State string

const (
	StateExtracted    State = "extracted"
	StateClassified   State = "classified"
	StateRulesFetched State = "rules_fetched"
	StateAnalyzed     State = "analyzed"
	StateScored       State = "scored"
	StateReported     State = "reported"
	StateComplete     State = "complete"
	StateRejected     State = "rejected"
	StateFailed       State = "failed"
)

var transitions = map[State][]State{
	StateExtracted:    {StateClassified, StateFailed},
	StateClassified:   {StateRulesFetched, StateRejected, StateFailed},
	StateRulesFetched: {StateAnalyzed, StateFailed},
	StateAnalyzed:     {StateScored, StateFailed},
	StateScored:       {StateReported, StateFailed},
	StateReported:     {StateComplete, StateFailed},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state ends a pipeline run.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateRejected || s == StateFailed
}

func (s State) String() string { return string(s) }
