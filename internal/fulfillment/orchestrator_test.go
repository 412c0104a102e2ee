package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"hotel-backoffice/internal/builder"
	"hotel-backoffice/internal/logger"
	"hotel-backoffice/internal/models"
	"hotel-backoffice/internal/pricing"
)

type stockCall struct {
	itemID string
	delta  int
	reason string
	notes  string
}

// fakeInventory fails deductions for item IDs listed in failFor and
// records every call in issue order.
type fakeInventory struct {
	calls   []stockCall
	failFor map[string]error
}

func (f *fakeInventory) AdjustStock(ctx context.Context, itemID string, delta int, reason, notes string) error {
	f.calls = append(f.calls, stockCall{itemID: itemID, delta: delta, reason: reason, notes: notes})
	if err, ok := f.failFor[itemID]; ok {
		return err
	}
	return nil
}

type fakeDestination struct {
	name   string
	groups []GroupOrder
	err    error
}

func (f *fakeDestination) Name() string { return f.name }

func (f *fakeDestination) CreateGroupOrder(ctx context.Context, group GroupOrder) (string, error) {
	f.groups = append(f.groups, group)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("%s-%d", f.name, len(f.groups)), nil
}

type fakeJournal struct {
	records int
	err     error
}

func (f *fakeJournal) RecordCommit(ctx context.Context, draft models.DraftOrder, result *Result) error {
	f.records++
	return f.err
}

type fakePublisher struct {
	routingKeys []string
}

func (f *fakePublisher) PublishCommit(ctx context.Context, event interface{}, routingKey string) error {
	f.routingKeys = append(f.routingKeys, routingKey)
	return nil
}

type fakeRefresher struct {
	refreshes int
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.refreshes++
	return nil
}

type fixture struct {
	inventory  *fakeInventory
	restaurant *fakeDestination
	laundry    *fakeDestination
	journal    *fakeJournal
	publisher  *fakePublisher
	refresher  *fakeRefresher
	orch       *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		inventory:  &fakeInventory{failFor: map[string]error{}},
		restaurant: &fakeDestination{name: "restaurant"},
		laundry:    &fakeDestination{name: "laundry"},
		journal:    &fakeJournal{},
		publisher:  &fakePublisher{},
		refresher:  &fakeRefresher{},
	}
	router := Router{
		models.CategoryRestaurant: f.restaurant,
		models.CategoryLaundry:    f.laundry,
	}
	f.orch = NewOrchestrator(f.inventory, router, f.journal, f.publisher, f.refresher, pricing.DefaultRates(), logger.New("test"))
	return f
}

func item(id, name string, category models.Category, price string, stock int) models.CatalogItem {
	return models.CatalogItem{
		ID:        id,
		Name:      name,
		Category:  category,
		UnitPrice: decimal.RequireFromString(price),
		Stock:     stock,
	}
}

func newDraft(t *testing.T) *builder.Builder {
	t.Helper()
	b := builder.New(models.GuestContext{
		RoomNumber:  "204",
		GuestName:   "Anshu",
		ServiceType: "Room Service",
	})
	adds := []struct {
		item models.CatalogItem
		qty  int
	}{
		{item("i1", "Club Sandwich", models.CategoryRestaurant, "100", 10), 2},
		{item("i2", "Shirt Ironing", models.CategoryLaundry, "50", 10), 1},
		{item("i3", "Masala Chai", models.CategoryRestaurant, "40", 10), 3},
	}
	for _, a := range adds {
		if err := b.AddItem(a.item, a.qty, ""); err != nil {
			t.Fatalf("AddItem(%s) error: %v", a.item.ID, err)
		}
	}
	return b
}

func TestCommitEmptyDraft(t *testing.T) {
	f := newFixture()
	b := builder.New(models.GuestContext{RoomNumber: "101", ServiceType: "Room Service"})

	result, err := f.orch.Commit(context.Background(), b, "req-1")
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("Commit() error = %v, want ErrEmptyOrder", err)
	}
	if result.Status != StatusRejected {
		t.Errorf("result status = %s, want rejected", result.Status)
	}
	if len(f.inventory.calls) != 0 || len(f.restaurant.groups) != 0 || f.journal.records != 0 {
		t.Error("rejected commit issued collaborator calls")
	}
}

func TestCommitFullSuccess(t *testing.T) {
	f := newFixture()
	b := newDraft(t)

	result, err := f.orch.Commit(context.Background(), b, "req-1")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if result.Status != StatusCommitted {
		t.Fatalf("result status = %s, want committed", result.Status)
	}

	// Deductions issued sequentially, one per line, in draft order.
	wantCalls := []stockCall{
		{itemID: "i1", delta: -2, reason: "Room Service - Room 204", notes: "Order by Anshu"},
		{itemID: "i2", delta: -1, reason: "Room Service - Room 204", notes: "Order by Anshu"},
		{itemID: "i3", delta: -3, reason: "Room Service - Room 204", notes: "Order by Anshu"},
	}
	if len(f.inventory.calls) != len(wantCalls) {
		t.Fatalf("inventory calls = %d, want %d", len(f.inventory.calls), len(wantCalls))
	}
	for i, want := range wantCalls {
		if f.inventory.calls[i] != want {
			t.Errorf("call %d = %+v, want %+v", i, f.inventory.calls[i], want)
		}
	}

	// One group order per category, carrying that group's own subtotal.
	if len(f.restaurant.groups) != 1 {
		t.Fatalf("restaurant groups = %d, want 1", len(f.restaurant.groups))
	}
	restaurantGroup := f.restaurant.groups[0]
	if len(restaurantGroup.Lines) != 2 {
		t.Errorf("restaurant group lines = %d, want 2", len(restaurantGroup.Lines))
	}
	if !restaurantGroup.Subtotal.Equal(decimal.RequireFromString("320")) {
		t.Errorf("restaurant subtotal = %s, want 320", restaurantGroup.Subtotal)
	}
	if len(f.laundry.groups) != 1 {
		t.Fatalf("laundry groups = %d, want 1", len(f.laundry.groups))
	}
	if !f.laundry.groups[0].Subtotal.Equal(decimal.RequireFromString("50")) {
		t.Errorf("laundry subtotal = %s, want 50", f.laundry.groups[0].Subtotal)
	}

	// Breakdown recomputed authoritatively: subtotal 370 at 18%/10%.
	if !result.Breakdown.Subtotal.Equal(decimal.RequireFromString("370")) {
		t.Errorf("subtotal = %s, want 370", result.Breakdown.Subtotal)
	}
	if !result.Breakdown.GrandTotal.Equal(decimal.RequireFromString("473.60")) {
		t.Errorf("grand total = %s, want 473.60", result.Breakdown.GrandTotal)
	}

	// Full success clears the draft, refreshes the snapshot, journals
	// and publishes.
	if b.Len() != 0 {
		t.Errorf("draft has %d lines after successful commit, want 0", b.Len())
	}
	if f.refresher.refreshes != 1 {
		t.Errorf("catalog refreshes = %d, want 1", f.refresher.refreshes)
	}
	if f.journal.records != 1 {
		t.Errorf("journal records = %d, want 1", f.journal.records)
	}
	if len(f.publisher.routingKeys) != 1 || f.publisher.routingKeys[0] != "fulfillment.room_service.committed" {
		t.Errorf("published routing keys = %v", f.publisher.routingKeys)
	}
	if !strings.HasPrefix(result.OrderNumber, "HBO_") {
		t.Errorf("order number = %q, want HBO_ prefix", result.OrderNumber)
	}
}

func TestCommitPartialDeductionFailure(t *testing.T) {
	f := newFixture()
	f.inventory.failFor["i2"] = errors.New("item out of stock")
	b := newDraft(t)

	result, err := f.orch.Commit(context.Background(), b, "req-1")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if result.Status != StatusPartiallyCommitted {
		t.Fatalf("result status = %s, want partially_committed", result.Status)
	}

	// All three deductions were still attempted.
	if len(f.inventory.calls) != 3 {
		t.Errorf("inventory calls = %d, want 3 (continue on error)", len(f.inventory.calls))
	}

	// Exactly the failed item is enumerated.
	failed := result.FailedDeductions()
	if len(failed) != 1 || failed[0].ItemID != "i2" {
		t.Fatalf("failed deductions = %+v, want exactly i2", failed)
	}

	// No rollback: the successful deductions were not reversed.
	for _, call := range f.inventory.calls {
		if call.delta > 0 {
			t.Errorf("compensating adjustment issued for %s", call.itemID)
		}
	}

	// Group orders are independent outcomes and were still created,
	// including for the category of the failed deduction.
	if len(f.laundry.groups) != 1 {
		t.Errorf("laundry groups = %d, want 1", len(f.laundry.groups))
	}

	// Draft is kept for manual recovery; snapshot not refreshed.
	if b.Len() != 3 {
		t.Errorf("draft has %d lines after partial failure, want 3", b.Len())
	}
	if f.refresher.refreshes != 0 {
		t.Errorf("catalog refreshes = %d, want 0", f.refresher.refreshes)
	}

	// The attempt is journaled and published either way.
	if f.journal.records != 1 {
		t.Errorf("journal records = %d, want 1", f.journal.records)
	}
	if len(f.publisher.routingKeys) != 1 || f.publisher.routingKeys[0] != "fulfillment.room_service.partially_committed" {
		t.Errorf("published routing keys = %v", f.publisher.routingKeys)
	}
}

func TestCommitPartialFailureIsReproducible(t *testing.T) {
	run := func() []string {
		f := newFixture()
		f.inventory.failFor["i2"] = errors.New("item out of stock")
		result, err := f.orch.Commit(context.Background(), newDraft(t), "req-1")
		if err != nil {
			t.Fatalf("Commit() error: %v", err)
		}
		var ids []string
		for _, d := range result.FailedDeductions() {
			ids = append(ids, d.ItemID)
		}
		return ids
	}

	first := run()
	second := run()
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("failure sets differ across identical runs: %v vs %v", first, second)
	}
}

func TestCommitGroupOrderFailure(t *testing.T) {
	f := newFixture()
	f.restaurant.err = errors.New("restaurant backend 503")
	b := newDraft(t)

	result, err := f.orch.Commit(context.Background(), b, "req-1")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if result.Status != StatusPartiallyCommitted {
		t.Fatalf("result status = %s, want partially_committed", result.Status)
	}

	failed := result.FailedGroups()
	if len(failed) != 1 || failed[0].Category != models.CategoryRestaurant {
		t.Fatalf("failed groups = %+v, want exactly Restaurant", failed)
	}

	// The laundry group was still attempted after the restaurant failure.
	if len(f.laundry.groups) != 1 {
		t.Errorf("laundry groups = %d, want 1", len(f.laundry.groups))
	}
	if b.Len() != 3 {
		t.Errorf("draft has %d lines, want 3 (kept for recovery)", b.Len())
	}
}

func TestCommitUnroutedCategoryStaysLocal(t *testing.T) {
	f := newFixture()
	b := builder.New(models.GuestContext{RoomNumber: "301", GuestName: "Anshu", ServiceType: "Room Service"})
	if err := b.AddItem(item("m1", "Soda Water", models.CategoryMinibar, "60", 12), 2, ""); err != nil {
		t.Fatalf("AddItem() error: %v", err)
	}

	result, err := f.orch.Commit(context.Background(), b, "req-1")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if result.Status != StatusCommitted {
		t.Fatalf("result status = %s, want committed", result.Status)
	}

	if len(result.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(result.Groups))
	}
	group := result.Groups[0]
	if group.Destination != "local" || group.Err != nil || group.DownstreamID != "" {
		t.Errorf("unrouted group = %+v, want local destination with no call", group)
	}
	if len(f.restaurant.groups) != 0 || len(f.laundry.groups) != 0 {
		t.Error("unrouted category reached a downstream destination")
	}

	// Stock is still deducted for local-only categories.
	if len(f.inventory.calls) != 1 || f.inventory.calls[0].delta != -2 {
		t.Errorf("inventory calls = %+v, want single -2 deduction", f.inventory.calls)
	}
}

func TestCommitJournalFailureDoesNotFailCommit(t *testing.T) {
	f := newFixture()
	f.journal.err = errors.New("journal db down")
	b := newDraft(t)

	result, err := f.orch.Commit(context.Background(), b, "req-1")
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if result.Status != StatusCommitted {
		t.Errorf("result status = %s, want committed despite journal failure", result.Status)
	}
}

func TestPartitionByCategory(t *testing.T) {
	lines := []models.DraftLineItem{
		{ItemID: "a", Category: models.CategoryRestaurant},
		{ItemID: "b", Category: models.CategoryLaundry},
		{ItemID: "c", Category: models.CategoryRestaurant},
		{ItemID: "d", Category: models.CategoryMinibar},
	}

	groups := partitionByCategory(lines)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if groups[0].category != models.CategoryRestaurant || len(groups[0].lines) != 2 {
		t.Errorf("group 0 = %+v, want Restaurant with 2 lines", groups[0])
	}
	if groups[0].lines[0].ItemID != "a" || groups[0].lines[1].ItemID != "c" {
		t.Errorf("restaurant group order = [%s %s], want [a c]", groups[0].lines[0].ItemID, groups[0].lines[1].ItemID)
	}
	if groups[1].category != models.CategoryLaundry || groups[2].category != models.CategoryMinibar {
		t.Errorf("group order = [%s %s %s], want first-seen order", groups[0].category, groups[1].category, groups[2].category)
	}
}
