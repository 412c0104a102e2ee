package console

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"hotel-backoffice/internal/builder"
	"hotel-backoffice/internal/models"
)

// ErrDraftNotFound means no open draft exists for the given ID.
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore holds the open drafts of active staff sessions. Builders
// are not safe for concurrent use on their own, so every access goes
// through the store's lock.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[string]*builder.Builder
}

// NewDraftStore creates an empty draft store.
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]*builder.Builder)}
}

// Create opens a new draft for the given guest context and returns its ID.
func (s *DraftStore) Create(guest models.GuestContext) string {
	id := uuid.New().String()

	s.mu.Lock()
	s.drafts[id] = builder.New(guest)
	s.mu.Unlock()

	return id
}

// With runs fn against the draft's builder while holding the store lock.
func (s *DraftStore) With(draftID string, fn func(b *builder.Builder) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.drafts[draftID]
	if !ok {
		return ErrDraftNotFound
	}
	return fn(b)
}

// Get returns the draft's builder. Used for commit, which must not run
// under the store lock: the fulfillment calls can take seconds and would
// stall every other session. A draft belongs to one staff session, so
// edits racing its own commit are the session's problem, not the store's.
func (s *DraftStore) Get(draftID string) (*builder.Builder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.drafts[draftID]
	return b, ok
}

// Delete discards the draft. Deleting an unknown ID is a no-op.
func (s *DraftStore) Delete(draftID string) {
	s.mu.Lock()
	delete(s.drafts, draftID)
	s.mu.Unlock()
}

// Len reports the number of open drafts.
func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}
