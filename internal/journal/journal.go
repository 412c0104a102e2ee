// Package journal persists commit attempts and status changes to
// postgres. There is no rollback logic anywhere in fulfillment, so the
// journal is what staff work from when re-issuing the missing calls of
// a partially committed order.
package journal

import (
	"context"
	"fmt"
	"time"

	"hotel-backoffice/internal/database"
	"hotel-backoffice/internal/fulfillment"
	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
)

// Journal writes the commit and status audit tables.
type Journal struct {
	db     *database.DB
	logger *logger.Logger
}

// New creates a journal over the given database.
func New(db *database.DB, log *logger.Logger) *Journal {
	return &Journal{db: db, logger: log}
}

// RecordCommit persists one commit attempt with its per-line and
// per-group outcomes. All rows are written in a single transaction so a
// half-recorded attempt never appears in the journal.
func (j *Journal) RecordCommit(ctx context.Context, draft models.DraftOrder, result *fulfillment.Result) error {
	tx, err := j.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var commitID int
	var createdAt time.Time
	err = tx.QueryRow(ctx, database.InsertCommitSQL,
		result.OrderNumber,
		draft.Context.RoomNumber,
		draft.Context.GuestName,
		draft.Context.GRCNo,
		draft.Context.ServiceType,
		result.Breakdown.Subtotal.StringFixed(2),
		result.Breakdown.TaxAmount.StringFixed(2),
		result.Breakdown.ServiceChargeAmount.StringFixed(2),
		result.Breakdown.GrandTotal.StringFixed(2),
		string(result.Status),
	).Scan(&commitID, &createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert commit row: %w", err)
	}

	for i, line := range draft.Lines {
		var deductionErr *string
		if i < len(result.Deductions) && result.Deductions[i].Err != nil {
			msg := result.Deductions[i].Err.Error()
			deductionErr = &msg
		}

		_, err = tx.Exec(ctx, database.InsertCommitLineSQL,
			commitID,
			line.ItemID,
			line.ItemName,
			line.Quantity,
			line.UnitPrice.StringFixed(2),
			string(line.Category),
			nilIfEmpty(line.Notes),
			deductionErr,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line outcome: %w", err)
		}
	}

	for _, group := range result.Groups {
		var creationErr *string
		if group.Err != nil {
			msg := group.Err.Error()
			creationErr = &msg
		}

		_, err = tx.Exec(ctx, database.InsertCommitGroupSQL,
			commitID,
			string(group.Category),
			group.Destination,
			nilIfEmpty(group.DownstreamID),
			group.Subtotal.StringFixed(2),
			creationErr,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group outcome: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	j.logger.Debug("commit_journaled", "Commit attempt journaled", "", map[string]interface{}{
		"order_number": result.OrderNumber,
		"status":       string(result.Status),
		"line_count":   len(draft.Lines),
	})
	return nil
}

// RecordStatusChange appends one audited staff transition.
func (j *Journal) RecordStatusChange(ctx context.Context, orderID string, from, to models.OrderStatus, changedBy, notes string) error {
	return j.db.Exec(ctx, database.InsertStatusChangeSQL,
		orderID, string(from), string(to), changedBy, nilIfEmpty(notes))
}

// StatusChange is one entry of an order's transition audit trail.
type StatusChange struct {
	FromStatus models.OrderStatus `json:"from_status"`
	ToStatus   models.OrderStatus `json:"to_status"`
	ChangedBy  string             `json:"changed_by"`
	Notes      *string            `json:"notes,omitempty"`
	ChangedAt  time.Time          `json:"changed_at"`
}

// StatusHistory returns the audit trail for one order, oldest first.
func (j *Journal) StatusHistory(ctx context.Context, orderID string) ([]StatusChange, error) {
	rows, err := j.db.Query(ctx, database.GetStatusHistorySQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []StatusChange
	for rows.Next() {
		var change StatusChange
		if err := rows.Scan(&change.FromStatus, &change.ToStatus, &change.ChangedBy, &change.Notes, &change.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		history = append(history, change)
	}
	return history, rows.Err()
}

// FailedCommit summarizes one partially committed order for the manual
// recovery screen.
type FailedCommit struct {
	OrderNumber  string        `json:"order_number"`
	RoomNumber   string        `json:"room_number"`
	GuestName    string        `json:"guest_name"`
	ServiceType  string        `json:"service_type"`
	GrandTotal   string        `json:"grand_total"`
	CreatedAt    time.Time     `json:"created_at"`
	FailedItems  []FailedItem  `json:"failed_items,omitempty"`
	FailedGroups []FailedGroup `json:"failed_groups,omitempty"`
}

// FailedItem is one stock deduction that needs re-issuing.
type FailedItem struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
	Error    string `json:"error"`
}

// FailedGroup is one group order that needs re-issuing.
type FailedGroup struct {
	Category    string `json:"category"`
	Destination string `json:"destination"`
	Error       string `json:"error"`
}

// FailedCommits lists the most recent partially committed orders with
// the calls that did not take effect.
func (j *Journal) FailedCommits(ctx context.Context, limit int) ([]FailedCommit, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.Query(ctx, database.GetFailedCommitsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed commits: %w", err)
	}
	defer rows.Close()

	type commitRow struct {
		id     int
		commit FailedCommit
	}
	var commits []commitRow
	for rows.Next() {
		var row commitRow
		var status string
		if err := rows.Scan(&row.id, &row.commit.OrderNumber, &row.commit.RoomNumber,
			&row.commit.GuestName, &row.commit.ServiceType, &row.commit.GrandTotal,
			&status, &row.commit.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit row: %w", err)
		}
		commits = append(commits, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]FailedCommit, 0, len(commits))
	for _, row := range commits {
		items, err := j.failedItems(ctx, row.id)
		if err != nil {
			return nil, err
		}
		groups, err := j.failedGroups(ctx, row.id)
		if err != nil {
			return nil, err
		}
		row.commit.FailedItems = items
		row.commit.FailedGroups = groups
		results = append(results, row.commit)
	}
	return results, nil
}

func (j *Journal) failedItems(ctx context.Context, commitID int) ([]FailedItem, error) {
	rows, err := j.db.Query(ctx, database.GetCommitLineFailuresSQL, commitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line failures: %w", err)
	}
	defer rows.Close()

	var items []FailedItem
	for rows.Next() {
		var item FailedItem
		if err := rows.Scan(&item.ItemID, &item.ItemName, &item.Quantity, &item.Error); err != nil {
			return nil, fmt.Errorf("failed to scan line failure: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (j *Journal) failedGroups(ctx context.Context, commitID int) ([]FailedGroup, error) {
	rows, err := j.db.Query(ctx, database.GetCommitGroupFailuresSQL, commitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group failures: %w", err)
	}
	defer rows.Close()

	var groups []FailedGroup
	for rows.Next() {
		var group FailedGroup
		if err := rows.Scan(&group.Category, &group.Destination, &group.Error); err != nil {
			return nil, fmt.Errorf("failed to scan group failure: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
