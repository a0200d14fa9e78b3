// Package pdftext extracts positioned text fragments from PDF price lists.
// It is the production PageExtractor behind the print-document adapters.
package pdftext

import (
	"bytes"
	"fmt"
	"sort"

	"car-intel/internal/adapters"

	"github.com/ledongthuc/pdf"
)

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

// ExtractPages reads every page and returns its text runs with their
// positions. PDF y grows upward while the row clustering expects reading
// order, so y is flipped against the page origin.
func (e *Extractor) ExtractPages(data []byte) ([][]adapters.Fragment, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := make([][]adapters.Fragment, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		runs := mergeRuns(content.Text)
		maxY := 0.0
		for _, t := range runs {
			if t.Y > maxY {
				maxY = t.Y
			}
		}
		frags := make([]adapters.Fragment, 0, len(runs))
		for _, t := range runs {
			if t.S == "" {
				continue
			}
			frags = append(frags, adapters.Fragment{
				X:    t.X,
				Y:    maxY - t.Y,
				Text: t.S,
			})
		}
		pages = append(pages, frags)
	}
	return pages, nil
}

// mergeRuns joins per-glyph text items into word runs. Items on the same
// baseline whose horizontal gap is under half the font size belong to the
// same run; a larger gap is a cell boundary the adapter must see.
func mergeRuns(items []pdf.Text) []pdf.Text {
	if len(items) == 0 {
		return nil
	}
	sorted := append([]pdf.Text(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var runs []pdf.Text
	cur := sorted[0]
	for _, t := range sorted[1:] {
		gap := t.X - (cur.X + cur.W)
		maxGap := cur.FontSize * 0.5
		if maxGap <= 0 {
			maxGap = 2.0
		}
		if t.Y == cur.Y && gap <= maxGap {
			cur.S += t.S
			cur.W = t.X + t.W - cur.X
			continue
		}
		runs = append(runs, cur)
		cur = t
	}
	runs = append(runs, cur)
	return runs
}
