package leads

import (
	"context"
	"sync"
	"time"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id int64) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
	// FindByContact returns the lowest-id lead whose email or phone equals
	// the given value. Blank values never match.
	FindByContact(ctx context.Context, email, phone string) (*Lead, error)
}

// InMemoryRepository keeps leads in process memory. It backs local runs with
// STORAGE_DRIVER=memory and handler tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	leads  []*Lead
	nextID int64
	now    func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the creation timestamp source.
func (r *InMemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Create stores a new lead and assigns its id.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	lead := req.toLead(r.nextID, r.now())
	r.nextID++
	r.leads = append(r.leads, lead)
	return cloneLead(lead), nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.leads {
		if l.ID == id {
			return cloneLead(l), nil
		}
	}
	return nil, ErrLeadNotFound
}

// List returns one filtered, sorted page.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	page := filter.apply(r.leads)
	out := make([]*Lead, len(page))
	for i, l := range page {
		out[i] = cloneLead(l)
	}
	r.mu.RUnlock()
	return out, nil
}

// FindByContact scans in id order, so the first hit is the lowest id.
func (r *InMemoryRepository) FindByContact(ctx context.Context, email, phone string) (*Lead, error) {
	if email == "" && phone == "" {
		return nil, ErrLeadNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.leads {
		if (email != "" && deref(l.Email) == email) || (phone != "" && deref(l.Phone) == phone) {
			return cloneLead(l), nil
		}
	}
	return nil, ErrLeadNotFound
}

// Delete removes a lead. The in-memory booking store uses it to undo a lead
// created inside a transaction that did not commit.
func (r *InMemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, l := range r.leads {
		if l.ID == id {
			r.leads = append(r.leads[:i], r.leads[i+1:]...)
			return nil
		}
	}
	return ErrLeadNotFound
}

func cloneLead(l *Lead) *Lead {
	c := *l
	return &c
}
