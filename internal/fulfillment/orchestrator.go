// Package fulfillment turns a non-empty draft order into persisted
// downstream effects: stock deductions against the inventory backend and
// one group order per routed category. Calls are issued strictly
// sequentially so every failure in the report is attributable to a
// specific line item or group, and execution continues past per-call
// failures; there is no rollback or compensating transaction.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hotel-backoffice/internal/builder"
	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
	"hotel-backoffice/internal/pricing"
)

// ErrEmptyOrder means commit was requested for a draft with no lines.
// No network call is issued in that case.
var ErrEmptyOrder = errors.New("draft order has no line items")

// StockAdjuster issues stock-delta requests to the inventory backend.
// Satisfied by *clients.InventoryClient.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, itemID string, delta int, reason, notes string) error
}

// GroupOrder carries all line items sharing one routing category to a
// single downstream order-creation call.
type GroupOrder struct {
	OrderNumber string
	Category    models.Category
	Context     models.GuestContext
	Lines       []models.DraftLineItem
	Subtotal    decimal.Decimal
}

// Destination is one downstream order system.
type Destination interface {
	Name() string
	CreateGroupOrder(ctx context.Context, group GroupOrder) (string, error)
}

// Router is the fixed category-to-destination mapping. Categories with
// no entry stay local: their lines are journaled but no downstream order
// is created for them.
type Router map[models.Category]Destination

// CommitRecorder persists commit attempts so staff can re-issue the
// missing calls after a partial failure. Satisfied by *journal.Journal.
type CommitRecorder interface {
	RecordCommit(ctx context.Context, draft models.DraftOrder, result *Result) error
}

// EventPublisher pushes commit events to the message broker.
// Satisfied by *messaging.Publisher.
type EventPublisher interface {
	PublishCommit(ctx context.Context, event interface{}, routingKey string) error
}

// SnapshotRefresher re-pulls the catalog snapshot after a full success,
// when local stock figures are guaranteed stale. Satisfied by
// *catalog.Index.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) error
}

// Orchestrator commits drafts. Journal and broker problems never fail a
// commit; the downstream side effects are what counts.
type Orchestrator struct {
	inventory StockAdjuster
	router    Router
	journal   CommitRecorder
	publisher EventPublisher
	catalog   SnapshotRefresher
	rates     pricing.Rates
	logger    *logger.Logger
}

// NewOrchestrator wires an orchestrator. Publisher and journal may be
// nil in trimmed-down deployments; all other collaborators are required.
func NewOrchestrator(
	inventory StockAdjuster,
	router Router,
	journal CommitRecorder,
	publisher EventPublisher,
	catalog SnapshotRefresher,
	rates pricing.Rates,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		inventory: inventory,
		router:    router,
		journal:   journal,
		publisher: publisher,
		catalog:   catalog,
		rates:     rates,
		logger:    log,
	}
}

// Commit executes the fulfillment workflow for the builder's draft:
//
//  1. reject an empty draft before any network effect,
//  2. recompute the pricing breakdown authoritatively,
//  3. deduct stock per line, sequentially, continuing on failure,
//  4. create one downstream order per routed category group,
//  5. journal and publish the aggregate report,
//  6. on full success clear the draft and refresh the catalog snapshot.
//
// The returned Result enumerates every per-call outcome in issue order.
func (o *Orchestrator) Commit(ctx context.Context, b *builder.Builder, requestID string) (*Result, error) {
	draft := b.Draft()
	if len(draft.Lines) == 0 {
		return &Result{Status: StatusRejected}, ErrEmptyOrder
	}

	result := &Result{
		OrderNumber: models.GenerateOrderNumber(time.Now(), shortCommitID()),
		Breakdown:   pricing.Compute(draft.Lines, o.rates),
		CommittedAt: time.Now().UTC(),
	}

	o.logger.Info("commit_started", "Committing draft order", requestID, map[string]interface{}{
		"order_number": result.OrderNumber,
		"line_count":   len(draft.Lines),
		"room_number":  draft.Context.RoomNumber,
		"grand_total":  result.Breakdown.GrandTotal.StringFixed(2),
	})

	o.deductStock(ctx, draft, result, requestID)
	o.createGroupOrders(ctx, draft, result, requestID)

	if len(result.FailedDeductions()) == 0 && len(result.FailedGroups()) == 0 {
		result.Status = StatusCommitted
	} else {
		result.Status = StatusPartiallyCommitted
	}

	if o.journal != nil {
		if err := o.journal.RecordCommit(ctx, draft, result); err != nil {
			o.logger.Error("journal_write_failed", "Failed to journal commit", requestID, err, map[string]interface{}{
				"order_number": result.OrderNumber,
			})
		}
	}

	if o.publisher != nil {
		event := NewCommitEvent(draft, result)
		if err := o.publisher.PublishCommit(ctx, event, commitRoutingKey(draft.Context.ServiceType, result.Status)); err != nil {
			o.logger.Error("event_publish_failed", "Failed to publish commit event", requestID, err, map[string]interface{}{
				"order_number": result.OrderNumber,
			})
		}
	}

	if result.Succeeded() {
		b.Clear()
		if err := o.catalog.Refresh(ctx); err != nil {
			o.logger.Error("catalog_refresh_failed", "Failed to refresh catalog after commit", requestID, err, nil)
		}
	}

	o.logger.Info("commit_finished", "Commit finished", requestID, map[string]interface{}{
		"order_number":      result.OrderNumber,
		"status":            string(result.Status),
		"failed_items":      len(result.FailedDeductions()),
		"failed_categories": len(result.FailedGroups()),
	})

	return result, nil
}

// deductStock issues one stock-deduction call per line, in draft order.
// A failure is recorded and the remaining lines are still attempted, so
// one out-of-stock race does not void every other valid deduction.
func (o *Orchestrator) deductStock(ctx context.Context, draft models.DraftOrder, result *Result, requestID string) {
	reason := fmt.Sprintf("%s - Room %s", draft.Context.ServiceType, draft.Context.RoomNumber)
	notes := fmt.Sprintf("Order by %s", guestLabel(draft.Context))

	for _, line := range draft.Lines {
		err := o.inventory.AdjustStock(ctx, line.ItemID, -line.Quantity, reason, notes)
		result.Deductions = append(result.Deductions, DeductionOutcome{
			ItemID:   line.ItemID,
			ItemName: line.ItemName,
			Quantity: line.Quantity,
			Err:      err,
		})
		if err != nil {
			o.logger.Error("stock_deduction_failed", "Stock deduction failed, continuing with remaining lines", requestID, err, map[string]interface{}{
				"order_number": result.OrderNumber,
				"item_id":      line.ItemID,
				"quantity":     line.Quantity,
			})
		}
	}
}

// createGroupOrders partitions lines by category (first-seen order) and
// issues exactly one order-creation call per routed, non-empty group.
func (o *Orchestrator) createGroupOrders(ctx context.Context, draft models.DraftOrder, result *Result, requestID string) {
	for _, group := range partitionByCategory(draft.Lines) {
		outcome := GroupOutcome{
			Category: group.category,
			Subtotal: pricing.Subtotal(group.lines),
		}

		dest, routed := o.router[group.category]
		if !routed {
			outcome.Destination = "local"
			result.Groups = append(result.Groups, outcome)
			continue
		}

		outcome.Destination = dest.Name()
		downstreamID, err := dest.CreateGroupOrder(ctx, GroupOrder{
			OrderNumber: result.OrderNumber,
			Category:    group.category,
			Context:     draft.Context,
			Lines:       group.lines,
			Subtotal:    outcome.Subtotal,
		})
		outcome.DownstreamID = downstreamID
		outcome.Err = err
		result.Groups = append(result.Groups, outcome)

		if err != nil {
			o.logger.Error("group_order_failed", "Group order creation failed, continuing with remaining groups", requestID, err, map[string]interface{}{
				"order_number": result.OrderNumber,
				"category":     string(group.category),
				"destination":  outcome.Destination,
			})
		}
	}
}

type categoryGroup struct {
	category models.Category
	lines    []models.DraftLineItem
}

// partitionByCategory splits lines into per-category groups, keeping
// categories in first-seen order and lines in draft order within each.
func partitionByCategory(lines []models.DraftLineItem) []categoryGroup {
	index := make(map[models.Category]int, 4)
	var groups []categoryGroup
	for _, line := range lines {
		i, seen := index[line.Category]
		if !seen {
			i = len(groups)
			index[line.Category] = i
			groups = append(groups, categoryGroup{category: line.Category})
		}
		groups[i].lines = append(groups[i].lines, line)
	}
	return groups
}

func guestLabel(guest models.GuestContext) string {
	if guest.GuestName != "" {
		return guest.GuestName
	}
	return "Guest"
}

func commitRoutingKey(serviceType string, status CommitStatus) string {
	slug := strings.ReplaceAll(strings.ToLower(serviceType), " ", "_")
	if slug == "" {
		slug = "unspecified"
	}
	return fmt.Sprintf("fulfillment.%s.%s", slug, status)
}

func shortCommitID() string {
	return strings.Split(uuid.New().String(), "-")[0]
}
