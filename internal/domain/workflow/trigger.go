package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerNext advances the wizard to the following stage.
	TriggerNext Trigger = "NEXT"
	// TriggerPrev moves the wizard back to the previous stage.
	TriggerPrev Trigger = "PREV"
	// TriggerApprove moves a pending request to APPROVED.
	TriggerApprove Trigger = "APPROVE"
	// TriggerReject moves a pending request to REJECTED.
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
