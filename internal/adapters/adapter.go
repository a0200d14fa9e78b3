// Package adapters turns raw vendor payloads into canonical price records.
// Each vendor publishes a different shape; one adapter per shape, registered
// by brand. Parse failures never propagate past the brand boundary.
package adapters

import (
	"context"
	"fmt"

	"car-intel/internal/fetch"
	"car-intel/internal/models"
)

// Payload kinds.
const (
	PayloadJSON = "json"
	PayloadXML  = "xml"
	PayloadHTML = "html"
	PayloadPDF  = "pdf"
)

// Fragment is one positioned text run extracted from a print document page.
type Fragment struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Payload is the tagged raw input an adapter parses. Exactly one of Body or
// Pages is populated depending on Kind; Model carries the sub-resource hint
// for vendors that publish one document per model.
type Payload struct {
	Kind  string
	Body  []byte
	Pages [][]Fragment
	Model string
}

// Adapter is the per-vendor contract. Sources resolves and fetches the raw
// payloads for a collection run, sequentially for multi-resource vendors;
// Parse converts one payload into canonical records and is pure, so it can
// be tested without network access.
type Adapter interface {
	Brand() string
	Sources(ctx context.Context, f fetch.Fetcher) ([]Payload, error)
	Parse(p Payload) ([]models.PriceRecord, error)
}

// Registry maps brands to adapters. Brand onboarding is a Register call, not
// an edit to a central dispatch switch.
type Registry struct {
	byBrand map[string]Adapter
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{byBrand: map[string]Adapter{}}
}

// Register adds an adapter. Re-registering a brand replaces the previous
// adapter but keeps its position in the run order.
func (r *Registry) Register(a Adapter) {
	if _, exists := r.byBrand[a.Brand()]; !exists {
		r.order = append(r.order, a.Brand())
	}
	r.byBrand[a.Brand()] = a
}

// Get returns the adapter for a brand.
func (r *Registry) Get(brand string) (Adapter, error) {
	a, ok := r.byBrand[brand]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for brand %q", brand)
	}
	return a, nil
}

// Brands returns registered brands in registration order, which is also the
// sequential collection order.
func (r *Registry) Brands() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
