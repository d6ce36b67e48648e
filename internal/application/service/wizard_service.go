package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/asanchezr/viaticos/internal/application/port"
	appwf "github.com/asanchezr/viaticos/internal/application/workflow"
	"github.com/asanchezr/viaticos/internal/domain/draft"
	"github.com/asanchezr/viaticos/internal/domain/entity"
	domainwf "github.com/asanchezr/viaticos/internal/domain/workflow"
)

// LoadOutcome tags the result of loading an existing request into a session.
// Load failures are surfaced, never silently turned into a creation draft.
type LoadOutcome string

const (
	// LoadOutcomeNew means the session started from an empty draft
	LoadOutcomeNew LoadOutcome = "NEW"
	// LoadOutcomeLoaded means the draft was pre-populated from a persisted request
	LoadOutcomeLoaded LoadOutcome = "LOADED"
	// LoadOutcomeNotFound means the requested id did not resolve
	LoadOutcomeNotFound LoadOutcome = "NOT_FOUND"
)

// Session is one open wizard: a draft, its stage machine, and the submission
// token that makes submitting this session idempotent.
type Session struct {
	ID    string
	token string

	draft   *draft.Draft
	machine domainwf.StateMachine

	mu sync.Mutex
}

// Stage returns the session's current wizard stage.
func (s *Session) Stage() domainwf.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// SessionState is a read-only snapshot of a session for the HTTP layer.
type SessionState struct {
	ID           string             `json:"id"`
	Stage        string             `json:"stage"`
	RequestID    int64              `json:"request_id,omitempty"`
	CostCenter   *entity.CostCenter `json:"cost_center,omitempty"`
	Worker       *entity.Worker     `json:"worker,omitempty"`
	Items        []*draft.LineItem  `json:"items"`
	Total        decimal.Decimal    `json:"total"`
	ItemEditing  bool               `json:"item_editing"`
	HasSignature bool               `json:"has_signature"`
}

// WizardService owns the wizard sessions and drives each session's
// data-collection stages
type WizardService interface {
	StartSession(ctx context.Context, requestID int64) (*SessionState, LoadOutcome, error)
	CloseSession(sessionID string) error
	GetSession(sessionID string) (*SessionState, error)

	Next(ctx context.Context, sessionID string) (*SessionState, error)
	Prev(ctx context.Context, sessionID string) (*SessionState, error)

	SelectCostCenter(ctx context.Context, sessionID, code string) error
	SelectWorker(ctx context.Context, sessionID string, workerID int64) error

	AddItem(ctx context.Context, sessionID string, candidate draft.LineItem) (*draft.LineItem, error)
	UpdateItem(ctx context.Context, sessionID, itemID string, candidate draft.LineItem) error
	RemoveItem(ctx context.Context, sessionID, itemID string) error
	BeginItemEdit(sessionID string) error
	CancelItemEdit(sessionID string) error

	CaptureSignature(sessionID string, data []byte, declaredType string) error
	RemoveSignature(sessionID string) error

	Submit(ctx context.Context, sessionID string) (*entity.ExpenseRequest, error)
}

type wizardServiceImpl struct {
	requestRepo   port.RequestRepository
	referenceRepo port.ReferenceRepository
	submission    SubmissionService
	logger        Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewWizardService creates a new WizardService
func NewWizardService(
	requestRepo port.RequestRepository,
	referenceRepo port.ReferenceRepository,
	submission SubmissionService,
	logger Logger,
) WizardService {
	return &wizardServiceImpl{
		requestRepo:   requestRepo,
		referenceRepo: referenceRepo,
		submission:    submission,
		logger:        logger,
		sessions:      make(map[string]*Session),
	}
}

// StartSession opens a wizard session. With requestID zero the draft starts
// empty; otherwise the persisted request is re-fetched and pre-populates the
// draft. An id that does not resolve reports LoadOutcomeNotFound and opens no
// session, and a fetch failure is returned as an error.
func (s *wizardServiceImpl) StartSession(ctx context.Context, requestID int64) (*SessionState, LoadOutcome, error) {
	var d *draft.Draft
	outcome := LoadOutcomeNew

	if requestID != 0 {
		req, err := s.requestRepo.GetByID(ctx, requestID)
		if err != nil {
			s.logger.Error("Failed to load request for edit", "error", err, "request_id", requestID)
			return nil, "", fmt.Errorf("load request %d: %w", requestID, err)
		}
		if req == nil {
			return nil, LoadOutcomeNotFound, nil
		}

		costCenter, err := s.referenceRepo.GetCostCenter(ctx, req.CostCenterCode)
		if err != nil {
			return nil, "", fmt.Errorf("load cost center %s: %w", req.CostCenterCode, err)
		}
		worker, err := s.referenceRepo.GetWorker(ctx, req.WorkerID)
		if err != nil {
			return nil, "", fmt.Errorf("load worker %d: %w", req.WorkerID, err)
		}

		d = draft.FromRequest(req, costCenter, worker)
		outcome = LoadOutcomeLoaded
	} else {
		d = draft.New()
	}

	session := &Session{
		ID:    uuid.NewString(),
		token: uuid.NewString(),
		draft: d,
	}
	session.machine = appwf.BuildWizardStateMachine(d)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("Wizard session started", "session_id", session.ID, "outcome", string(outcome), "request_id", requestID)
	return snapshot(session), outcome, nil
}

// CloseSession discards the session's draft. No partial save.
func (s *wizardServiceImpl) CloseSession(sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.mu.Lock()
	session.draft.Reset()
	session.mu.Unlock()

	s.logger.Info("Wizard session closed", "session_id", sessionID)
	return nil
}

// GetSession returns a snapshot of the session.
func (s *wizardServiceImpl) GetSession(sessionID string) (*SessionState, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return snapshot(session), nil
}

// Next advances the session one stage if the current stage is complete.
func (s *wizardServiceImpl) Next(ctx context.Context, sessionID string) (*SessionState, error) {
	return s.fire(ctx, sessionID, domainwf.TriggerNext)
}

// Prev moves the session back one stage unless an item edit is open.
func (s *wizardServiceImpl) Prev(ctx context.Context, sessionID string) (*SessionState, error) {
	return s.fire(ctx, sessionID, domainwf.TriggerPrev)
}

func (s *wizardServiceImpl) fire(ctx context.Context, sessionID string, trigger domainwf.Trigger) (*SessionState, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.machine.Fire(ctx, trigger); err != nil {
		if errors.Is(err, domainwf.ErrGuardFailed) {
			return nil, fmt.Errorf("%w: %s at stage %s", ErrStageIncomplete, trigger, session.machine.State())
		}
		return nil, err
	}

	return snapshotLocked(session), nil
}

// SelectCostCenter sets the draft's cost center from reference data.
func (s *wizardServiceImpl) SelectCostCenter(ctx context.Context, sessionID, code string) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	costCenter, err := s.referenceRepo.GetCostCenter(ctx, code)
	if err != nil {
		return fmt.Errorf("get cost center %s: %w", code, err)
	}
	if costCenter == nil {
		return fmt.Errorf("%w: %s", ErrCostCenterNotFound, code)
	}

	session.mu.Lock()
	session.draft.CostCenter = costCenter
	session.mu.Unlock()
	return nil
}

// SelectWorker sets the draft's worker from reference data.
func (s *wizardServiceImpl) SelectWorker(ctx context.Context, sessionID string, workerID int64) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	worker, err := s.referenceRepo.GetWorker(ctx, workerID)
	if err != nil {
		return fmt.Errorf("get worker %d: %w", workerID, err)
	}
	if worker == nil {
		return fmt.Errorf("%w: %d", ErrWorkerNotFound, workerID)
	}

	session.mu.Lock()
	session.draft.Worker = worker
	session.mu.Unlock()
	return nil
}

// AddItem validates and inserts a line item, resolving any open item edit.
func (s *wizardServiceImpl) AddItem(ctx context.Context, sessionID string, candidate draft.LineItem) (*draft.LineItem, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	item, err := session.draft.Ledger.Add(candidate)
	if err != nil {
		return nil, err
	}
	session.draft.EndItemEdit()
	return item, nil
}

// UpdateItem validates and replaces the line item, resolving any open item edit.
func (s *wizardServiceImpl) UpdateItem(ctx context.Context, sessionID, itemID string, candidate draft.LineItem) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := session.draft.Ledger.Update(itemID, candidate); err != nil {
		return err
	}
	session.draft.EndItemEdit()
	return nil
}

// RemoveItem removes a line item by id.
func (s *wizardServiceImpl) RemoveItem(ctx context.Context, sessionID, itemID string) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	session.draft.Ledger.Remove(itemID)
	session.mu.Unlock()
	return nil
}

// BeginItemEdit marks the session's draft as having an item mid-edit.
func (s *wizardServiceImpl) BeginItemEdit(sessionID string) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	session.draft.BeginItemEdit()
	session.mu.Unlock()
	return nil
}

// CancelItemEdit resolves an open item edit without saving it.
func (s *wizardServiceImpl) CancelItemEdit(sessionID string) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	session.draft.EndItemEdit()
	session.mu.Unlock()
	return nil
}

// CaptureSignature stores the signature image on the draft.
func (s *wizardServiceImpl) CaptureSignature(sessionID string, data []byte, declaredType string) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.draft.CaptureSignature(data, declaredType)
}

// RemoveSignature clears the draft's signature.
func (s *wizardServiceImpl) RemoveSignature(sessionID string) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	session.draft.RemoveSignature()
	session.mu.Unlock()
	return nil
}

// Submit persists the session's draft. Only permitted once the wizard reached
// the confirmation stage; repeats with the same session are de-duplicated by
// the session's submission token. The session is closed on success.
func (s *wizardServiceImpl) Submit(ctx context.Context, sessionID string) (*entity.ExpenseRequest, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.machine.State() != domainwf.StageConfirmation {
		return nil, fmt.Errorf("%w: at stage %s", ErrNotConfirmation, session.machine.State())
	}

	req, err := s.submission.Submit(ctx, session.draft, session.token)
	if err != nil {
		s.logger.Error("Submission failed", "error", err, "session_id", sessionID)
		return nil, err
	}

	session.draft.Reset()
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	s.logger.Info("Wizard session submitted", "session_id", sessionID, "request_id", req.ID, "ticket_number", req.TicketNumber)
	return req, nil
}

func (s *wizardServiceImpl) lookup(sessionID string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func snapshot(session *Session) *SessionState {
	session.mu.Lock()
	defer session.mu.Unlock()
	return snapshotLocked(session)
}

// snapshotLocked builds a session view. Caller holds session.mu.
func snapshotLocked(session *Session) *SessionState {
	d := session.draft
	items := make([]*draft.LineItem, len(d.Ledger.Items()))
	copy(items, d.Ledger.Items())

	return &SessionState{
		ID:           session.ID,
		Stage:        session.machine.State().String(),
		RequestID:    d.RequestID,
		CostCenter:   d.CostCenter,
		Worker:       d.Worker,
		Items:        items,
		Total:        d.Ledger.Total(),
		ItemEditing:  d.ItemEditing(),
		HasSignature: d.Signature != nil,
	}
}
