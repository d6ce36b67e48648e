package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/asanchezr/viaticos/internal/domain/entity"
)

func approvedRequest(id int64) *entity.ExpenseRequest {
	return &entity.ExpenseRequest{
		ID:             id,
		TicketNumber:   "TCK-0042",
		CostCenterCode: "CC-100",
		WorkerID:       3,
		SpentValue:     decimal.NewFromInt(130),
		EmissionDate:   time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
		State:          "APPROVED",
		Version:        2,
		Details: []*entity.ExpenseDetail{
			{
				Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
				DayRate:     decimal.NewFromInt(50),
				DayCount:    2,
				Category:    "Lodging",
				Description: "Hotel two nights",
				Destination: "Arequipa",
			},
		},
	}
}

func TestExportService_ExportExcel(t *testing.T) {
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return approvedRequest(id), nil
		},
	}

	svc := NewExportService(requestRepo, &mockReferenceRepo{}, &mockRenderer{}, "Viaticos SA", noopLogger{})

	data, filename, err := svc.ExportExcel(context.Background(), 42)
	if err != nil {
		t.Fatalf("ExportExcel() error = %v", err)
	}
	if filename != "TCK-0042.xlsx" {
		t.Errorf("filename = %v, want TCK-0042.xlsx", filename)
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("workbook bytes do not look like a zip archive")
	}
}

func TestExportService_ExportPDF(t *testing.T) {
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return approvedRequest(id), nil
		},
	}
	var rendered string
	renderer := &mockRenderer{
		renderFunc: func(ctx context.Context, html string) ([]byte, error) {
			rendered = html
			return []byte("%PDF-1.4"), nil
		},
	}

	svc := NewExportService(requestRepo, &mockReferenceRepo{}, renderer, "Viaticos SA", noopLogger{})

	data, filename, err := svc.ExportPDF(context.Background(), 42)
	if err != nil {
		t.Fatalf("ExportPDF() error = %v", err)
	}
	if filename != "TCK-0042.pdf" {
		t.Errorf("filename = %v, want TCK-0042.pdf", filename)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("unexpected pdf bytes: %q", data)
	}
	if rendered == "" || !bytes.Contains([]byte(rendered), []byte("TCK-0042")) {
		t.Errorf("rendered HTML does not mention the ticket number")
	}
}

func TestExportService_RefusesUndecidedRequest(t *testing.T) {
	for _, state := range []string{"PENDING", "REJECTED"} {
		t.Run(state, func(t *testing.T) {
			requestRepo := &mockRequestRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
					req := approvedRequest(id)
					req.State = state
					return req, nil
				},
			}

			svc := NewExportService(requestRepo, &mockReferenceRepo{}, &mockRenderer{}, "Viaticos SA", noopLogger{})

			if _, _, err := svc.ExportExcel(context.Background(), 42); !errors.Is(err, ErrNotApproved) {
				t.Errorf("ExportExcel() error = %v, want ErrNotApproved", err)
			}
			if _, _, err := svc.ExportPDF(context.Background(), 42); !errors.Is(err, ErrNotApproved) {
				t.Errorf("ExportPDF() error = %v, want ErrNotApproved", err)
			}
		})
	}
}

func TestExportService_NotFound(t *testing.T) {
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ExpenseRequest, error) {
			return nil, nil
		},
	}

	svc := NewExportService(requestRepo, &mockReferenceRepo{}, &mockRenderer{}, "Viaticos SA", noopLogger{})

	if _, _, err := svc.ExportExcel(context.Background(), 42); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("ExportExcel() error = %v, want ErrRequestNotFound", err)
	}
}
