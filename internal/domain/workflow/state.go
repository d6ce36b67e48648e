package workflow

// State represents a state in one of the two expense-request lifecycles: the
// wizard's data-collection stages and the approval lifecycle of a persisted
// request.
type State string

// Wizard stages. The progression is strictly linear.
const (
	StageCostCenter   State = "COST_CENTER"
	StageWorker       State = "WORKER"
	StageExpenses     State = "EXPENSES"
	StageAttachments  State = "ATTACHMENTS"
	StageConfirmation State = "CONFIRMATION"
)

// Approval lifecycle states of a persisted request.
const (
	StatePending  State = "PENDING"
	StateApproved State = "APPROVED"
	StateRejected State = "REJECTED"
)

var validStates = map[State]bool{
	StageCostCenter:   true,
	StageWorker:       true,
	StageExpenses:     true,
	StageAttachments:  true,
	StageConfirmation: true,
	StatePending:      true,
	StateApproved:     true,
	StateRejected:     true,
}

// Terminal states of the approval lifecycle. Wizard stages are never
// terminal: even CONFIRMATION allows stepping back to revise the draft.
var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state belongs to one of the two lifecycles
func (s State) IsValid() bool {
	return validStates[s]
}
