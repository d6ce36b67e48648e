package email

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/asanchezr/viaticos/internal/domain/entity"
)

// Config holds SMTP configuration
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	SenderName string
}

// Sender delivers the approval-request notification to the responsible
// manager over SMTP.
type Sender struct {
	cfg    Config
	dial   func(m ...*gomail.Message) error
	logger *zap.Logger
}

// NewSender creates a new email sender
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Sender{
		cfg:    cfg,
		dial:   dialer.DialAndSend,
		logger: logger,
	}
}

// SendApprovalRequest emails the manager that a pending request awaits their
// decision, embedding the worker's signature image as visual proof.
func (s *Sender) SendApprovalRequest(ctx context.Context, req *entity.ExpenseRequest, worker *entity.Worker, manager *entity.Worker, costCenter *entity.CostCenter) error {
	if manager.Email == "" {
		return fmt.Errorf("manager %d has no email address", manager.ID)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.SenderName)
	m.SetHeader("To", manager.Email)
	m.SetHeader("Subject", fmt.Sprintf("Expense request %s awaiting approval", req.TicketNumber))
	m.SetBody("text/html", s.buildBody(req, worker, costCenter))

	if err := s.dial(m); err != nil {
		s.logger.Error("Failed to send approval email",
			zap.String("ticket_number", req.TicketNumber),
			zap.String("to", manager.Email),
			zap.Error(err))
		return fmt.Errorf("send approval email: %w", err)
	}

	s.logger.Info("Approval email sent",
		zap.String("ticket_number", req.TicketNumber),
		zap.String("to", manager.Email))
	return nil
}

func (s *Sender) buildBody(req *entity.ExpenseRequest, worker *entity.Worker, costCenter *entity.CostCenter) string {
	var b strings.Builder

	b.WriteString("<html><body style=\"font-family:Arial,sans-serif;color:#222\">")
	b.WriteString("<h2>Travel expense request awaiting approval</h2>")
	b.WriteString("<table cellpadding=\"4\">")
	fmt.Fprintf(&b, "<tr><td><b>Ticket</b></td><td>%s</td></tr>", req.TicketNumber)
	if worker != nil {
		fmt.Fprintf(&b, "<tr><td><b>Requested by</b></td><td>%s</td></tr>", worker.FullName())
	}
	if costCenter != nil {
		fmt.Fprintf(&b, "<tr><td><b>Cost center</b></td><td>%s - %s</td></tr>", costCenter.Code, costCenter.Name)
	}
	fmt.Fprintf(&b, "<tr><td><b>Amount</b></td><td>%s</td></tr>", req.SpentValue.StringFixed(2))
	fmt.Fprintf(&b, "<tr><td><b>Emission date</b></td><td>%s</td></tr>", req.EmissionDate.Format("2006-01-02"))
	b.WriteString("</table>")

	if req.SignatureData != "" {
		fmt.Fprintf(&b, "<p>Worker signature:</p><img src=\"data:%s;base64,%s\" style=\"max-height:90px\"/>",
			req.SignatureMime, req.SignatureData)
	}

	b.WriteString("<p>Please review the request in the approvals queue.</p>")
	b.WriteString("</body></html>")
	return b.String()
}
