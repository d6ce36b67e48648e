package draft

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidItem is returned when a line-item candidate fails a validation rule
	ErrInvalidItem = errors.New("invalid line item")

	// ErrItemNotFound is returned when updating a line item whose id is not in the ledger
	ErrItemNotFound = errors.New("line item not found")
)

var (
	destinationPattern = regexp.MustCompile(`^[a-zA-Z ]+$`)
	descriptionPattern = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)
)

// LineItem is one dated expense entry held in a draft. The id is a
// client-generated temporary identifier; it only exists until submission,
// after which items become immutable detail records on the server.
type LineItem struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	DayRate     decimal.Decimal `json:"trip_amount"`
	DayCount    int             `json:"day_amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Destination string          `json:"destination"`
}

// Subtotal returns day rate times day count, zero for malformed entries.
func (i *LineItem) Subtotal() decimal.Decimal {
	if i.DayCount <= 0 || i.DayRate.Sign() < 0 {
		return decimal.Zero
	}
	return i.DayRate.Mul(decimal.NewFromInt(int64(i.DayCount)))
}

// Ledger is the in-memory collection of a draft's expense line items.
type Ledger struct {
	items []*LineItem
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Validate checks a candidate against the line-item rules and returns
// ErrInvalidItem naming the first failed rule.
func (l *Ledger) Validate(candidate LineItem) error {
	if candidate.DayCount <= 0 {
		return fmt.Errorf("%w: day count must be positive", ErrInvalidItem)
	}
	if candidate.Subtotal().Sign() <= 0 {
		return fmt.Errorf("%w: subtotal must be positive", ErrInvalidItem)
	}
	if !destinationPattern.MatchString(candidate.Destination) {
		return fmt.Errorf("%w: destination must contain letters and spaces only", ErrInvalidItem)
	}
	if len(candidate.Description) <= 5 || !descriptionPattern.MatchString(candidate.Description) {
		return fmt.Errorf("%w: description must be alphanumeric and longer than 5 characters", ErrInvalidItem)
	}
	if candidate.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidItem)
	}
	return nil
}

// Add validates the candidate and inserts it with a fresh temporary id.
// Rejected candidates are not inserted.
func (l *Ledger) Add(candidate LineItem) (*LineItem, error) {
	if err := l.Validate(candidate); err != nil {
		return nil, err
	}

	item := candidate
	item.ID = uuid.NewString()
	l.items = append(l.items, &item)
	return &item, nil
}

// Update validates the candidate and replaces the entry matching id in place.
func (l *Ledger) Update(id string, candidate LineItem) error {
	if err := l.Validate(candidate); err != nil {
		return err
	}

	for idx, existing := range l.items {
		if existing.ID == id {
			item := candidate
			item.ID = id
			l.items[idx] = &item
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// Remove deletes the entry matching id. Unknown ids are ignored.
func (l *Ledger) Remove(id string) {
	for idx, existing := range l.items {
		if existing.ID == id {
			l.items = append(l.items[:idx], l.items[idx+1:]...)
			return
		}
	}
}

// Items returns the current entries in insertion order.
func (l *Ledger) Items() []*LineItem {
	return l.items
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.items)
}

// Total sums day rate times day count over all entries. Entries whose product
// is not representable as a non-negative amount contribute zero.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range l.items {
		sub := item.Subtotal()
		if sub.Sign() < 0 {
			continue
		}
		total = total.Add(sub)
	}
	return total
}
