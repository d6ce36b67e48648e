package service

import (
	"context"
	"fmt"

	"github.com/asanchezr/viaticos/internal/application/port"
	"github.com/asanchezr/viaticos/internal/domain/entity"
	"github.com/asanchezr/viaticos/internal/domain/workflow"
	"github.com/asanchezr/viaticos/internal/export"
)

// ExportService renders approved requests as downloadable documents. Export is
// gated server-side: any request not in APPROVED state is refused regardless
// of what the caller's UI offered.
type ExportService interface {
	ExportExcel(ctx context.Context, id int64) ([]byte, string, error)
	ExportPDF(ctx context.Context, id int64) ([]byte, string, error)
}

type exportServiceImpl struct {
	requestRepo   port.RequestRepository
	referenceRepo port.ReferenceRepository
	renderer      port.PDFRenderer
	companyName   string
	logger        Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	requestRepo port.RequestRepository,
	referenceRepo port.ReferenceRepository,
	renderer port.PDFRenderer,
	companyName string,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		requestRepo:   requestRepo,
		referenceRepo: referenceRepo,
		renderer:      renderer,
		companyName:   companyName,
		logger:        logger,
	}
}

// ExportExcel renders the request as an xlsx workbook and returns the bytes
// with a download filename.
func (s *exportServiceImpl) ExportExcel(ctx context.Context, id int64) ([]byte, string, error) {
	req, costCenter, worker, err := s.loadApproved(ctx, id)
	if err != nil {
		return nil, "", err
	}

	data, err := export.BuildWorkbook(req, costCenter, worker, s.companyName)
	if err != nil {
		s.logger.Error("Failed to build workbook", "error", err, "id", id)
		return nil, "", fmt.Errorf("build workbook: %w", err)
	}

	filename := fmt.Sprintf("%s.xlsx", req.TicketNumber)
	s.logger.Info("Excel export generated", "id", id, "ticket_number", req.TicketNumber)
	return data, filename, nil
}

// ExportPDF renders the request as a PDF document and returns the bytes with
// a download filename.
func (s *exportServiceImpl) ExportPDF(ctx context.Context, id int64) ([]byte, string, error) {
	req, costCenter, worker, err := s.loadApproved(ctx, id)
	if err != nil {
		return nil, "", err
	}

	html := export.BuildApprovalHTML(req, costCenter, worker, s.companyName)
	data, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		s.logger.Error("Failed to render PDF", "error", err, "id", id)
		return nil, "", fmt.Errorf("render pdf: %w", err)
	}

	filename := fmt.Sprintf("%s.pdf", req.TicketNumber)
	s.logger.Info("PDF export generated", "id", id, "ticket_number", req.TicketNumber)
	return data, filename, nil
}

// loadApproved fetches the request and its reference data, refusing any
// request whose state is not APPROVED.
func (s *exportServiceImpl) loadApproved(ctx context.Context, id int64) (*entity.ExpenseRequest, *entity.CostCenter, *entity.Worker, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get request for export", "error", err, "id", id)
		return nil, nil, nil, err
	}
	if req == nil {
		return nil, nil, nil, fmt.Errorf("%w: %d", ErrRequestNotFound, id)
	}
	if req.State != workflow.StateApproved.String() {
		return nil, nil, nil, fmt.Errorf("%w: request %d is %s", ErrNotApproved, id, req.State)
	}

	costCenter, err := s.referenceRepo.GetCostCenter(ctx, req.CostCenterCode)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get cost center: %w", err)
	}
	worker, err := s.referenceRepo.GetWorker(ctx, req.WorkerID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get worker: %w", err)
	}

	return req, costCenter, worker, nil
}
