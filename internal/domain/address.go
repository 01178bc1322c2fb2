package domain

import (
	"fmt"
	"strings"
)

// Address is the shipping/billing address attached to an order. It is stored
// as a JSON document, not a separate table.
type Address struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Apartment string `json:"apartment,omitempty"`
}

// Validate checks that every required field is present.
func (a Address) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: address field %q is required", ErrValidation, f.name)
		}
	}
	return nil
}
