package bookings

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/prism-crm/internal/leads"
)

// MemoryStore keeps bookings in process memory next to an in-memory lead
// repository. Transactions are serialized; a rolled back transaction removes
// the leads it created and discards its bookings.
type MemoryStore struct {
	mu       sync.Mutex
	leads    *leads.InMemoryRepository
	bookings []*Booking
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore creates a store sharing repo with the leads handlers.
func NewMemoryStore(repo *leads.InMemoryRepository) *MemoryStore {
	if repo == nil {
		repo = leads.NewInMemoryRepository()
	}
	return &MemoryStore{
		leads:  repo,
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithTx runs fn with staged writes that are published only on success.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s}
	if err := fn(tx); err != nil {
		for _, id := range tx.createdLeads {
			_ = s.leads.Delete(ctx, id)
		}
		return err
	}
	s.bookings = append(s.bookings, tx.staged...)
	return nil
}

// TakenSlots lists booked tour times for a building and date.
func (s *MemoryStore) TakenSlots(ctx context.Context, building, date string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := []string{}
	for _, b := range s.bookings {
		if b.Building == building && b.TourDate == date && b.Status != StatusCancelled {
			slots = append(slots, b.TourTime)
		}
	}
	return slots, nil
}

// ListByLead returns a lead's bookings, oldest first.
func (s *MemoryStore) ListByLead(ctx context.Context, leadID int64) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*Booking{}
	for _, b := range s.bookings {
		if b.LeadID == leadID {
			c := *b
			out = append(out, &c)
		}
	}
	return out, nil
}

type memoryTx struct {
	store        *MemoryStore
	createdLeads []int64
	staged       []*Booking
}

func (t *memoryTx) FindLeadByContact(ctx context.Context, email, phone string) (*leads.Lead, error) {
	return t.store.leads.FindByContact(ctx, email, phone)
}

func (t *memoryTx) CreateLead(ctx context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error) {
	lead, err := t.store.leads.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	t.createdLeads = append(t.createdLeads, lead.ID)
	return lead, nil
}

// InsertBooking assigns the id immediately. Ids of rolled back bookings are
// not reused.
func (t *memoryTx) InsertBooking(ctx context.Context, b *Booking) (*Booking, error) {
	stored := *b
	stored.ID = t.store.nextID
	stored.CreatedAt = t.store.now()
	t.store.nextID++
	t.staged = append(t.staged, &stored)

	out := stored
	return &out, nil
}
