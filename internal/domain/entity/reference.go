package entity

// CostCenter is an accounting unit an expense request is charged against.
// Reference data: fetched read-only and selected, never mutated, by the wizard.
type CostCenter struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	ManagerID int64  `json:"manager_id"`
}

// Worker is the employee a reimbursement is requested for. Reference data,
// same role as CostCenter.
type Worker struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	DNI      string `json:"dni"`
	Email    string `json:"email"`
}

// FullName returns the worker's display name.
func (w *Worker) FullName() string {
	if w.LastName == "" {
		return w.Name
	}
	return w.Name + " " + w.LastName
}
