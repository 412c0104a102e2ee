package fulfillment

import (
	"time"

	"github.com/shopspring/decimal"

	"hotel-backoffice/internal/models"
)

// CommitStatus is the aggregate outcome of a commit. A commit is never a
// bare boolean: callers must inspect the per-call outcomes to know which
// side effects actually took place.
type CommitStatus string

const (
	StatusCommitted          CommitStatus = "committed"
	StatusPartiallyCommitted CommitStatus = "partially_committed"
	StatusRejected           CommitStatus = "rejected"
)

// DeductionOutcome records one stock-deduction attempt, in the order it
// was issued. A nil Err means the deduction was applied by the backend.
type DeductionOutcome struct {
	ItemID   string
	ItemName string
	Quantity int
	Err      error
}

// GroupOutcome records one group order, in routing order. Destination is
// "local" for categories with no downstream mapping; those produce no
// order-creation call and cannot fail. A nil Err on a routed group means
// the downstream order was created and DownstreamID identifies it.
type GroupOutcome struct {
	Category     models.Category
	Destination  string
	DownstreamID string
	Subtotal     decimal.Decimal
	Err          error
}

// Result is the full commit report. Already-applied deductions and
// already-created group orders are never rolled back on partial failure;
// staff re-issue the missing calls from the journal.
type Result struct {
	Status      CommitStatus
	OrderNumber string
	Breakdown   models.PricingBreakdown
	Deductions  []DeductionOutcome
	Groups      []GroupOutcome
	CommittedAt time.Time
}

// Succeeded reports whether every deduction and every group call worked.
func (r *Result) Succeeded() bool {
	return r.Status == StatusCommitted
}

// FailedDeductions returns the deduction outcomes that carry an error.
func (r *Result) FailedDeductions() []DeductionOutcome {
	var failed []DeductionOutcome
	for _, d := range r.Deductions {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}

// FailedGroups returns the group outcomes that carry an error.
func (r *Result) FailedGroups() []GroupOutcome {
	var failed []GroupOutcome
	for _, g := range r.Groups {
		if g.Err != nil {
			failed = append(failed, g)
		}
	}
	return failed
}

// CommitEvent is the message published to the fulfillment topic exchange
// after every attempted commit, partial failures included.
type CommitEvent struct {
	OrderNumber      string    `json:"order_number"`
	Status           string    `json:"status"`
	RoomNumber       string    `json:"room_number"`
	GuestName        string    `json:"guest_name"`
	ServiceType      string    `json:"service_type"`
	GrandTotal       string    `json:"grand_total"`
	FailedItems      []string  `json:"failed_items,omitempty"`
	FailedCategories []string  `json:"failed_categories,omitempty"`
	CommittedAt      time.Time `json:"committed_at"`
}

// NewCommitEvent builds the event for a finished commit attempt.
func NewCommitEvent(draft models.DraftOrder, result *Result) *CommitEvent {
	event := &CommitEvent{
		OrderNumber: result.OrderNumber,
		Status:      string(result.Status),
		RoomNumber:  draft.Context.RoomNumber,
		GuestName:   draft.Context.GuestName,
		ServiceType: draft.Context.ServiceType,
		GrandTotal:  result.Breakdown.GrandTotal.StringFixed(2),
		CommittedAt: result.CommittedAt,
	}
	for _, d := range result.FailedDeductions() {
		event.FailedItems = append(event.FailedItems, d.ItemID)
	}
	for _, g := range result.FailedGroups() {
		event.FailedCategories = append(event.FailedCategories, string(g.Category))
	}
	return event
}
