package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/asanchezr/viaticos/internal/domain/entity"
)

// BuildApprovalHTML renders an expense request as a standalone HTML document
// for PDF conversion. The worker's signature image is embedded inline when
// present, as the visual proof of the request.
func BuildApprovalHTML(req *entity.ExpenseRequest, costCenter *entity.CostCenter, worker *entity.Worker, companyName string) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:Helvetica,Arial,sans-serif;margin:40px;color:#222}")
	b.WriteString("h1{font-size:20px}h2{font-size:15px;color:#555}")
	b.WriteString("table{border-collapse:collapse;width:100%;margin-top:16px}")
	b.WriteString("th,td{border:1px solid #999;padding:6px 8px;font-size:12px;text-align:left}")
	b.WriteString("th{background:#eee}.total td{font-weight:bold}")
	b.WriteString(".meta td{border:none;padding:2px 8px 2px 0}")
	b.WriteString("img.signature{max-height:90px;margin-top:24px}")
	b.WriteString("</style></head><body>")

	fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(companyName))
	fmt.Fprintf(&b, "<h2>Travel Expense Reimbursement %s</h2>", html.EscapeString(req.TicketNumber))

	b.WriteString("<table class=\"meta\">")
	writeMetaRow(&b, "Emission date", req.EmissionDate.Format("2006-01-02"))
	if costCenter != nil {
		writeMetaRow(&b, "Cost center", fmt.Sprintf("%s - %s", costCenter.Code, costCenter.Name))
	} else {
		writeMetaRow(&b, "Cost center", req.CostCenterCode)
	}
	if worker != nil {
		writeMetaRow(&b, "Worker", worker.FullName())
	}
	writeMetaRow(&b, "State", req.State)
	b.WriteString("</table>")

	b.WriteString("<table><tr><th>Date</th><th>Destination</th><th>Category</th><th>Description</th><th>Day rate</th><th>Days</th><th>Subtotal</th></tr>")
	for _, detail := range req.Details {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>",
			detail.Date.Format("2006-01-02"),
			html.EscapeString(detail.Destination),
			html.EscapeString(detail.Category),
			html.EscapeString(detail.Description),
			detail.DayRate.StringFixed(2),
			detail.DayCount,
			detail.Subtotal().StringFixed(2),
		)
	}
	fmt.Fprintf(&b, "<tr class=\"total\"><td colspan=\"6\">Total</td><td>%s</td></tr>", req.SpentValue.StringFixed(2))
	b.WriteString("</table>")

	if req.SignatureData != "" {
		fmt.Fprintf(&b, "<img class=\"signature\" src=\"data:%s;base64,%s\" alt=\"signature\"/>",
			html.EscapeString(req.SignatureMime), req.SignatureData)
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeMetaRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td></tr>", html.EscapeString(label), html.EscapeString(value))
}
