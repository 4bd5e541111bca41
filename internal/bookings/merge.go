package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/prism-crm/internal/leads"
)

// ContactStore is the lead access the merge step needs.
type ContactStore interface {
	FindLeadByContact(ctx context.Context, email, phone string) (*leads.Lead, error)
	CreateLead(ctx context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error)
}

// ResolveLead returns the existing lead sharing the contact's email or phone,
// or creates a website lead when none matches. An existing lead is returned
// unchanged; the submitted name only applies to new leads.
func ResolveLead(ctx context.Context, store ContactStore, c Contact) (*leads.Lead, bool, error) {
	lead, err := store.FindLeadByContact(ctx, c.Email, c.Phone)
	if err == nil {
		return lead, false, nil
	}
	if !errors.Is(err, leads.ErrLeadNotFound) {
		return nil, false, fmt.Errorf("bookings: find lead: %w", err)
	}

	lead, err = store.CreateLead(ctx, &leads.CreateLeadRequest{
		Name:   c.Name,
		Email:  c.Email,
		Phone:  c.Phone,
		Source: leads.SourceWebsiteBooking,
		Status: leads.StatusNew,
	})
	if err != nil {
		return nil, false, fmt.Errorf("bookings: create lead: %w", err)
	}
	return lead, true, nil
}
