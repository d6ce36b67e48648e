package service

import (
	"context"
	"fmt"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/domain/entity"
)

// Mock repositories

type mockRequestRepo struct {
	createFunc            func(ctx context.Context, req *entity.ExpenseRequest) error
	updateFunc            func(ctx context.Context, req *entity.ExpenseRequest, expectedVersion int64) error
	getByIDFunc           func(ctx context.Context, id int64) (*entity.ExpenseRequest, error)
	getByTicketNumberFunc func(ctx context.Context, ticket string) (*entity.ExpenseRequest, error)
	listByStateFunc       func(ctx context.Context, state string, limit, offset int) ([]*entity.ExpenseRequest, error)
	updateStateFunc       func(ctx context.Context, id int64, state string, expectedVersion int64) error
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.ExpenseRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	req.ID = 1
	req.Version = 1
	return nil
}

func (m *mockRequestRepo) Update(ctx context.Context, req *entity.ExpenseRequest, expectedVersion int64) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, req, expectedVersion)
	}
	req.Version = expectedVersion + 1
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.ExpenseRequest{ID: id, State: "PENDING", Version: 1}, nil
}

func (m *mockRequestRepo) GetByTicketNumber(ctx context.Context, ticket string) (*entity.ExpenseRequest, error) {
	if m.getByTicketNumberFunc != nil {
		return m.getByTicketNumberFunc(ctx, ticket)
	}
	return nil, nil
}

func (m *mockRequestRepo) ListByState(ctx context.Context, state string, limit, offset int) ([]*entity.ExpenseRequest, error) {
	if m.listByStateFunc != nil {
		return m.listByStateFunc(ctx, state, limit, offset)
	}
	return []*entity.ExpenseRequest{}, nil
}

func (m *mockRequestRepo) UpdateState(ctx context.Context, id int64, state string, expectedVersion int64) error {
	if m.updateStateFunc != nil {
		return m.updateStateFunc(ctx, id, state, expectedVersion)
	}
	return nil
}

type mockHistoryRepo struct {
	createFunc         func(ctx context.Context, history *entity.ApprovalHistory) error
	getByRequestIDFunc func(ctx context.Context, requestID int64) ([]*entity.ApprovalHistory, error)
	entries            []*entity.ApprovalHistory
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.ApprovalHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, history)
	}
	m.entries = append(m.entries, history)
	return nil
}

func (m *mockHistoryRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalHistory, error) {
	if m.getByRequestIDFunc != nil {
		return m.getByRequestIDFunc(ctx, requestID)
	}
	return m.entries, nil
}

type mockReferenceRepo struct {
	listCostCentersFunc func(ctx context.Context) ([]*entity.CostCenter, error)
	getCostCenterFunc   func(ctx context.Context, code string) (*entity.CostCenter, error)
	listWorkersFunc     func(ctx context.Context) ([]*entity.Worker, error)
	getWorkerFunc       func(ctx context.Context, id int64) (*entity.Worker, error)
}

func (m *mockReferenceRepo) ListCostCenters(ctx context.Context) ([]*entity.CostCenter, error) {
	if m.listCostCentersFunc != nil {
		return m.listCostCentersFunc(ctx)
	}
	return []*entity.CostCenter{}, nil
}

func (m *mockReferenceRepo) GetCostCenter(ctx context.Context, code string) (*entity.CostCenter, error) {
	if m.getCostCenterFunc != nil {
		return m.getCostCenterFunc(ctx, code)
	}
	return &entity.CostCenter{Code: code, Name: "Operations", ManagerID: 9}, nil
}

func (m *mockReferenceRepo) ListWorkers(ctx context.Context) ([]*entity.Worker, error) {
	if m.listWorkersFunc != nil {
		return m.listWorkersFunc(ctx)
	}
	return []*entity.Worker{}, nil
}

func (m *mockReferenceRepo) GetWorker(ctx context.Context, id int64) (*entity.Worker, error) {
	if m.getWorkerFunc != nil {
		return m.getWorkerFunc(ctx, id)
	}
	return &entity.Worker{ID: id, Name: "Maria", LastName: "Vargas", Email: "maria@example.com"}, nil
}

type mockTicketAllocator struct {
	allocated int
	allocFunc func(ctx context.Context) (string, error)
}

func (m *mockTicketAllocator) AllocateTicket(ctx context.Context) (string, error) {
	if m.allocFunc != nil {
		return m.allocFunc(ctx)
	}
	m.allocated++
	return fmt.Sprintf("TCK-%04d", m.allocated), nil
}

type mockTokenRepo struct {
	consumed    map[string]int64
	consumeFunc func(ctx context.Context, token string) (int64, error)
	bindFunc    func(ctx context.Context, token string, requestID int64) error
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{consumed: make(map[string]int64)}
}

func (m *mockTokenRepo) Consume(ctx context.Context, token string) (int64, error) {
	if m.consumeFunc != nil {
		return m.consumeFunc(ctx, token)
	}
	if id, ok := m.consumed[token]; ok {
		return id, port.ErrDuplicateToken
	}
	m.consumed[token] = 0
	return 0, nil
}

func (m *mockTokenRepo) Bind(ctx context.Context, token string, requestID int64) error {
	if m.bindFunc != nil {
		return m.bindFunc(ctx, token, requestID)
	}
	m.consumed[token] = requestID
	return nil
}

// mockTxManager runs the function directly, no transaction semantics
type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockMailer struct {
	sent     int
	lastReq  *entity.ExpenseRequest
	sendFunc func(ctx context.Context, req *entity.ExpenseRequest, worker, manager *entity.Worker, costCenter *entity.CostCenter) error
}

func (m *mockMailer) SendApprovalRequest(ctx context.Context, req *entity.ExpenseRequest, worker *entity.Worker, manager *entity.Worker, costCenter *entity.CostCenter) error {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, req, worker, manager, costCenter)
	}
	m.sent++
	m.lastReq = req
	return nil
}

type mockRenderer struct {
	renderFunc func(ctx context.Context, html string) ([]byte, error)
}

func (m *mockRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	if m.renderFunc != nil {
		return m.renderFunc(ctx, html)
	}
	return []byte("%PDF-1.4"), nil
}

// noopLogger discards all log output
type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}
