// Package builder accumulates catalog items into a draft order. A draft
// belongs to exactly one staff session, so the builder itself is not
// safe for concurrent use; callers that share builders across requests
// must serialize access.
package builder

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"hotel-backoffice/internal/models"
)

var (
	// ErrInsufficientStock means the requested quantity exceeds the
	// last-known snapshot stock. The check is advisory: the real race
	// is settled by the deduction call at commit time.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidQuantity means the requested quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrIndexOutOfRange means the line index does not exist in the draft.
	ErrIndexOutOfRange = errors.New("line index out of range")
)

// Builder composes one draft order.
type Builder struct {
	context models.GuestContext
	lines   []models.DraftLineItem
}

// New creates a builder for the given guest context.
func New(context models.GuestContext) *Builder {
	return &Builder{context: context}
}

// AddItem appends a line item for the given catalog item. Unit price and
// category are captured from the item at this instant; later catalog
// refreshes do not retroactively alter the line. Fails without touching
// the draft when the quantity is not positive or exceeds snapshot stock.
func (b *Builder) AddItem(item models.CatalogItem, quantity int, notes string) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if quantity > item.Stock {
		return fmt.Errorf("%w: only %d of %q available", ErrInsufficientStock, item.Stock, item.Name)
	}

	b.lines = append(b.lines, models.DraftLineItem{
		ItemID:     item.ID,
		ItemName:   item.Name,
		Quantity:   quantity,
		UnitPrice:  item.UnitPrice,
		TotalPrice: item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Category:   item.Category,
		Notes:      notes,
	})
	return nil
}

// RemoveItem deletes the line at the given position, preserving the
// relative order of the remaining lines.
func (b *Builder) RemoveItem(index int) error {
	if index < 0 || index >= len(b.lines) {
		return fmt.Errorf("%w: index %d, draft has %d lines", ErrIndexOutOfRange, index, len(b.lines))
	}
	b.lines = append(b.lines[:index], b.lines[index+1:]...)
	return nil
}

// Clear empties the draft unconditionally. Used after a successful
// commit or an explicit cancel.
func (b *Builder) Clear() {
	b.lines = nil
}

// Len reports the number of lines currently in the draft.
func (b *Builder) Len() int {
	return len(b.lines)
}

// Context returns the guest context the draft was opened with.
func (b *Builder) Context() models.GuestContext {
	return b.context
}

// Draft returns a copy of the current draft. Mutating the returned value
// does not affect the builder.
func (b *Builder) Draft() models.DraftOrder {
	lines := make([]models.DraftLineItem, len(b.lines))
	copy(lines, b.lines)
	return models.DraftOrder{Context: b.context, Lines: lines}
}
