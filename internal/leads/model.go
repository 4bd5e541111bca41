package leads

import (
	"strings"
	"time"
)

const (
	// StatusNew is the workflow status every lead starts in.
	StatusNew = "New"

	// SourceWebsiteBooking labels leads created by the tour booking form.
	SourceWebsiteBooking = "Website Booking"

	// UnknownProspectName is stored when an inbound payload carries no name.
	UnknownProspectName = "Unknown Prospect"
)

// Lead is a prospect record. Optional fields are nil when the source did not
// provide them and serialize as null.
type Lead struct {
	ID                int64     `json:"id"`
	Name              string    `json:"prospect_name"`
	Email             *string   `json:"email"`
	Phone             *string   `json:"phone"`
	Source            string    `json:"source"`
	IntegrationSource *string   `json:"integration_source"`
	PropertyName      *string   `json:"property_name"`
	City              *string   `json:"city"`
	Beds              *string   `json:"beds"`
	Baths             *string   `json:"baths"`
	MoveInDate        *string   `json:"move_in_date"`
	Promotion         *string   `json:"promotion"`
	Status            string    `json:"status"`
	Debug1            *string   `json:"debug_1"`
	Debug2            *string   `json:"debug_2"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateLeadRequest carries the fields of a lead that has not been stored yet.
// Blank optional fields are persisted as NULL.
type CreateLeadRequest struct {
	Name              string
	Email             string
	Phone             string
	Source            string
	IntegrationSource string
	PropertyName      string
	City              string
	Beds              string
	Baths             string
	MoveInDate        string
	Promotion         string
	Status            string
	Debug1            string
	Debug2            string
}

// Validate validates the create lead request
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	return nil
}

func (r *CreateLeadRequest) status() string {
	if strings.TrimSpace(r.Status) == "" {
		return StatusNew
	}
	return r.Status
}

// toLead builds the stored representation once the store has assigned the
// identity columns.
func (r *CreateLeadRequest) toLead(id int64, createdAt time.Time) *Lead {
	return &Lead{
		ID:                id,
		Name:              r.Name,
		Email:             optional(r.Email),
		Phone:             optional(r.Phone),
		Source:            r.Source,
		IntegrationSource: optional(r.IntegrationSource),
		PropertyName:      optional(r.PropertyName),
		City:              optional(r.City),
		Beds:              optional(r.Beds),
		Baths:             optional(r.Baths),
		MoveInDate:        optional(r.MoveInDate),
		Promotion:         optional(r.Promotion),
		Status:            r.status(),
		Debug1:            optional(r.Debug1),
		Debug2:            optional(r.Debug2),
		CreatedAt:         createdAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
