package workflow

import (
	"context"

	"github.com/asanchezr/viaticos/internal/domain/draft"
	domainwf "github.com/asanchezr/viaticos/internal/domain/workflow"
)

// BuildWizardStateMachine creates the state machine for one wizard session's
// five-stage progression:
//
//	COST_CENTER -> WORKER -> EXPENSES -> ATTACHMENTS -> CONFIRMATION
//
// Linear, no branching, no skipping. NEXT is gated on the stage's completeness
// predicate over the session's draft; PREV is permitted from every stage after
// the first, except while a line item is mid-edit on the expenses stage.
// CONFIRMATION has no NEXT; leaving the wizard forward is the submit command.
func BuildWizardStateMachine(d *draft.Draft) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// COST_CENTER state transitions
	builder.Configure(domainwf.StageCostCenter).
		PermitIf(domainwf.TriggerNext, domainwf.StageWorker, func(ctx context.Context) bool {
			return d.CostCenter != nil
		})

	// WORKER state transitions
	builder.Configure(domainwf.StageWorker).
		PermitIf(domainwf.TriggerNext, domainwf.StageExpenses, func(ctx context.Context) bool {
			return d.Worker != nil
		}).
		Permit(domainwf.TriggerPrev, domainwf.StageCostCenter)

	// EXPENSES state transitions: advancing needs at least one item and no
	// item mid-edit; going back also requires the open edit to be resolved
	builder.Configure(domainwf.StageExpenses).
		PermitIf(domainwf.TriggerNext, domainwf.StageAttachments, func(ctx context.Context) bool {
			return d.Ledger.Len() > 0 && !d.ItemEditing()
		}).
		PermitIf(domainwf.TriggerPrev, domainwf.StageWorker, func(ctx context.Context) bool {
			return !d.ItemEditing()
		})

	// ATTACHMENTS state transitions: attachments are optional, NEXT is ungated
	builder.Configure(domainwf.StageAttachments).
		Permit(domainwf.TriggerNext, domainwf.StageConfirmation).
		Permit(domainwf.TriggerPrev, domainwf.StageExpenses)

	// CONFIRMATION state transitions: no NEXT, but the user can still step
	// back to revise the draft before submitting
	builder.Configure(domainwf.StageConfirmation).
		Permit(domainwf.TriggerPrev, domainwf.StageAttachments)

	return builder.Build(domainwf.StageCostCenter)
}

// BuildApprovalStateMachine creates the approval lifecycle machine for a
// persisted request at the given state. PENDING is the only state with
// outgoing transitions; APPROVED and REJECTED are terminal.
func BuildApprovalStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StatePending).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// APPROVED and REJECTED are terminal states - no outgoing transitions

	return builder.Build(initialState)
}
