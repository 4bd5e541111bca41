package rentsync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/prism-crm/internal/leads"
)

// SourceLabel is the lead source stored for every RentSync delivery.
const SourceLabel = "RentSync"

// missingSentAt fills debug_2 when the payload carries no send time.
const missingSentAt = "None"

// ErrMalformedPayload is returned when the body is not a JSON object.
var ErrMalformedPayload = errors.New("payload is not a JSON object")

// document is one level of the payload. Missing or non-object sections decode
// as an empty document so lookups simply miss.
type document map[string]any

func (d document) section(key string) document {
	if sub, ok := d[key].(map[string]any); ok {
		return sub
	}
	return document{}
}

// str returns the value at key when it is a non-empty string or a non-zero
// number. Anything else counts as absent.
func (d document) str(key string) string {
	switch v := d[key].(type) {
	case string:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return ""
		}
		return v.String()
	default:
		return ""
	}
}

// firstOf returns the first present value.
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Normalize maps a RentSync webhook body onto a new lead. Missing fields are
// tolerated; only a body that is not a JSON object is an error.
func Normalize(body []byte, source string) (*leads.CreateLeadRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if root == nil {
		return nil, ErrMalformedPayload
	}

	payload := document(root)
	data := payload.section("data")
	customer := payload.section("customer")
	origin := payload.section("source")

	name := firstOf(data.str("fullname"), customer.str("full_name"))
	if name == "" {
		first := firstOf(data.str("firstName"), customer.str("first_name"))
		last := firstOf(data.str("lastName"), customer.str("last_name"))
		name = strings.TrimSpace(first + " " + last)
	}
	if name == "" {
		name = leads.UnknownProspectName
	}

	var raw bytes.Buffer
	if err := json.Compact(&raw, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	sentAt := firstOf(data.str("sentAt"), payload.str("sent_at"), missingSentAt)

	return &leads.CreateLeadRequest{
		Name:              name,
		Email:             firstOf(data.str("email"), customer.str("email")),
		Phone:             firstOf(data.str("phone"), customer.str("phone")),
		Source:            source,
		IntegrationSource: firstOf(data.str("source"), origin.str("name")),
		PropertyName:      firstOf(data.str("propertyName"), origin.str("ad_title")),
		City:              firstOf(data.str("city"), origin.str("city")),
		Beds:              data.str("beds"),
		Baths:             data.str("baths"),
		MoveInDate:        data.str("moveInDate"),
		Promotion:         data.str("promotionType"),
		Status:            leads.StatusNew,
		Debug1:            raw.String(),
		Debug2:            "SentAt Raw: " + sentAt,
	}, nil
}
