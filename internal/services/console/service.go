// Package console is the staff-facing HTTP service: catalog browsing,
// draft composition, commit, and order lifecycle actions.
package console

import (
	"context"
	"errors"
	"fmt"

	"hotel-backoffice/internal/builder"
	"hotel-backoffice/internal/catalog"
	"hotel-backoffice/internal/clients"
	"hotel-backoffice/internal/fulfillment"
	"hotel-backoffice/internal/journal"
	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
	"hotel-backoffice/internal/pricing"
	"hotel-backoffice/internal/status"
)

// ErrItemNotFound means the requested item is not in the catalog snapshot.
var ErrItemNotFound = errors.New("item not found in catalog")

// Committer runs the fulfillment workflow for a draft.
// Satisfied by *fulfillment.Orchestrator.
type Committer interface {
	Commit(ctx context.Context, b *builder.Builder, requestID string) (*fulfillment.Result, error)
}

// OrderGateway is the backend order API surface the console needs.
// Satisfied by *clients.OrdersClient.
type OrderGateway interface {
	GetOrder(ctx context.Context, orderID string) (*clients.BackendOrder, error)
	ListOrders(ctx context.Context, status models.OrderStatus, roomNumber string) ([]clients.BackendOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID string, newStatus models.OrderStatus) error
	DeleteOrder(ctx context.Context, orderID string) error
}

// StatusRecorder appends staff transitions to the local audit table.
// Satisfied by *journal.Journal.
type StatusRecorder interface {
	RecordStatusChange(ctx context.Context, orderID string, from, to models.OrderStatus, changedBy, notes string) error
	StatusHistory(ctx context.Context, orderID string) ([]journal.StatusChange, error)
	FailedCommits(ctx context.Context, limit int) ([]journal.FailedCommit, error)
}

// Notifier pushes status updates to the notifications fanout exchange.
// Satisfied by *messaging.Publisher.
type Notifier interface {
	PublishNotification(ctx context.Context, msg interface{}) error
}

// Service implements the console operations over the shared catalog
// index, the in-memory draft store, and the fulfillment orchestrator.
type Service struct {
	index        *catalog.Index
	drafts       *DraftStore
	orchestrator Committer
	orders       OrderGateway
	journal      StatusRecorder
	notifier     Notifier
	rates        pricing.Rates
	logger       *logger.Logger
}

// NewService wires the console service. Journal and notifier may be nil.
func NewService(
	index *catalog.Index,
	orchestrator Committer,
	orders OrderGateway,
	jrnl StatusRecorder,
	notifier Notifier,
	rates pricing.Rates,
	log *logger.Logger,
) *Service {
	return &Service{
		index:        index,
		drafts:       NewDraftStore(),
		orchestrator: orchestrator,
		orders:       orders,
		journal:      jrnl,
		notifier:     notifier,
		rates:        rates,
		logger:       log,
	}
}

// Catalog returns the snapshot items matching the optional category and
// search text filters.
func (s *Service) Catalog(category models.Category, searchText string) []models.CatalogItem {
	var items []models.CatalogItem
	for item := range s.index.Filter(category, searchText) {
		items = append(items, item)
	}
	return items
}

// Categories returns the distinct catalog categories in first-seen order.
func (s *Service) Categories() []models.Category {
	return s.index.Categories()
}

// RefreshCatalog re-pulls the catalog snapshot from the inventory backend.
func (s *Service) RefreshCatalog(ctx context.Context) error {
	return s.index.Refresh(ctx)
}

// OpenDraft starts a new draft for the given guest context.
func (s *Service) OpenDraft(guest models.GuestContext, requestID string) (string, error) {
	if guest.RoomNumber == "" {
		return "", fmt.Errorf("room number is required")
	}
	if guest.ServiceType == "" {
		guest.ServiceType = "Room Service"
	}

	draftID := s.drafts.Create(guest)

	s.logger.Info("draft_opened", "Draft order opened", requestID, map[string]interface{}{
		"draft_id":    draftID,
		"room_number": guest.RoomNumber,
	})
	return draftID, nil
}

// DraftView is a draft plus its current pricing quote. The quote is
// recomputed from the lines on every read and never stored.
type DraftView struct {
	DraftID   string                  `json:"draft_id"`
	Context   models.GuestContext     `json:"context"`
	Lines     []models.DraftLineItem  `json:"lines"`
	Breakdown models.PricingBreakdown `json:"breakdown"`
}

// Draft returns the current state of a draft with its quote.
func (s *Service) Draft(draftID string) (*DraftView, error) {
	var view *DraftView
	err := s.drafts.With(draftID, func(b *builder.Builder) error {
		draft := b.Draft()
		view = &DraftView{
			DraftID:   draftID,
			Context:   draft.Context,
			Lines:     draft.Lines,
			Breakdown: pricing.Compute(draft.Lines, s.rates),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AddLine looks the item up in the catalog snapshot and appends it to
// the draft at the requested quantity.
func (s *Service) AddLine(draftID, itemID string, quantity int, notes, requestID string) (*DraftView, error) {
	item, ok := s.index.Find(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	err := s.drafts.With(draftID, func(b *builder.Builder) error {
		return b.AddItem(item, quantity, notes)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("line_added", "Line item added to draft", requestID, map[string]interface{}{
		"draft_id": draftID,
		"item_id":  itemID,
		"quantity": quantity,
	})
	return s.Draft(draftID)
}

// RemoveLine deletes the line at the given position from the draft.
func (s *Service) RemoveLine(draftID string, index int, requestID string) (*DraftView, error) {
	err := s.drafts.With(draftID, func(b *builder.Builder) error {
		return b.RemoveItem(index)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("line_removed", "Line item removed from draft", requestID, map[string]interface{}{
		"draft_id": draftID,
		"index":    index,
	})
	return s.Draft(draftID)
}

// CancelDraft discards an open draft without any downstream effect.
func (s *Service) CancelDraft(draftID string, requestID string) {
	s.drafts.Delete(draftID)
	s.logger.Info("draft_cancelled", "Draft order discarded", requestID, map[string]interface{}{
		"draft_id": draftID,
	})
}

// CommitDraft runs the fulfillment workflow for the draft. On a full
// success the draft session is closed; after a partial failure the draft
// stays open so staff can inspect what remains to be re-issued.
func (s *Service) CommitDraft(ctx context.Context, draftID, requestID string) (*fulfillment.Result, error) {
	b, ok := s.drafts.Get(draftID)
	if !ok {
		return nil, ErrDraftNotFound
	}

	result, err := s.orchestrator.Commit(ctx, b, requestID)
	if err != nil {
		return result, err
	}

	if result.Succeeded() {
		s.drafts.Delete(draftID)
	}
	return result, nil
}

// TransitionOrder applies a staff status action to a backend order:
// validate the transition locally, patch the backend, then audit and
// notify. Audit and notification failures are logged but do not undo an
// already-applied backend change.
func (s *Service) TransitionOrder(ctx context.Context, orderID string, newStatus models.OrderStatus, changedBy, notes, requestID string) (*clients.BackendOrder, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	if err := status.Validate(order.Status, newStatus); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("status_changed", "Order status updated", requestID, map[string]interface{}{
		"order_id":   orderID,
		"old_status": string(order.Status),
		"new_status": string(newStatus),
		"changed_by": changedBy,
	})

	if s.journal != nil {
		if err := s.journal.RecordStatusChange(ctx, orderID, order.Status, newStatus, changedBy, notes); err != nil {
			s.logger.Error("status_audit_failed", "Failed to record status change", requestID, err, map[string]interface{}{
				"order_id": orderID,
			})
		}
	}

	if s.notifier != nil {
		msg := models.CreateStatusUpdateMessage(orderID, order.Number, order.RoomNumber, order.Status, newStatus, changedBy)
		if err := s.notifier.PublishNotification(ctx, msg); err != nil {
			s.logger.Error("notification_publish_failed", "Failed to publish status update", requestID, err, map[string]interface{}{
				"order_id": orderID,
			})
		}
	}

	order.Status = newStatus
	return order, nil
}

// Order fetches one backend order.
func (s *Service) Order(ctx context.Context, orderID string) (*clients.BackendOrder, error) {
	return s.orders.GetOrder(ctx, orderID)
}

// Orders lists backend orders, optionally filtered by status and room.
func (s *Service) Orders(ctx context.Context, st models.OrderStatus, roomNumber string) ([]clients.BackendOrder, error) {
	return s.orders.ListOrders(ctx, st, roomNumber)
}

// RemoveOrder deletes a backend order.
func (s *Service) RemoveOrder(ctx context.Context, orderID, requestID string) error {
	if err := s.orders.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	s.logger.Info("order_deleted", "Order deleted", requestID, map[string]interface{}{
		"order_id": orderID,
	})
	return nil
}

// StatusHistory returns the local transition audit trail for an order.
func (s *Service) StatusHistory(ctx context.Context, orderID string) ([]journal.StatusChange, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.StatusHistory(ctx, orderID)
}

// FailedCommits lists partially committed orders awaiting manual re-issue.
func (s *Service) FailedCommits(ctx context.Context, limit int) ([]journal.FailedCommit, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.FailedCommits(ctx, limit)
}
