package port

import (
	"context"

	"github.com/asanchezr/viaticos/internal/domain/entity"
)

// Mailer sends the out-of-band approval-request notification to the manager
// responsible for a cost center
type Mailer interface {
	SendApprovalRequest(ctx context.Context, req *entity.ExpenseRequest, worker *entity.Worker, manager *entity.Worker, costCenter *entity.CostCenter) error
}

// PDFRenderer converts an HTML document into PDF bytes
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}
