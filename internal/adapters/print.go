package adapters

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"car-intel/internal/fetch"
	"car-intel/internal/models"
	"car-intel/internal/normalize"

	"go.uber.org/zap"
)

// RowTolerance is the maximum y distance between fragments that still belong
// to one visual row. Print layouts jitter baselines by a few units; anything
// further apart is a different line.
const RowTolerance = 8.0

// PageExtractor turns a raw print document into positioned text fragments,
// one slice per page. The concrete implementation lives outside the adapter
// so parsing stays testable with synthetic fragments.
type PageExtractor interface {
	ExtractPages(data []byte) ([][]Fragment, error)
}

// Keyword tables for scoring candidate data rows. A qualifying row needs a
// currency-formatted token plus at least one keyword hit.
var (
	printTrimKeywords = []string{
		"comfort", "style", "elegance", "premium", "prestige", "urban",
		"street", "touch", "icon", "joy", "flame", "passion", "dream",
		"vision", "techno", "esprit", "evolution", "lounge", "cross",
		"gsr", "gt-line", "exclusive", "platinum", "elite", "smart",
	}
	printEnginePattern = regexp.MustCompile(`(?i)\b\d\.\d\b|\b\d{2,3}\s?(hp|ps|bg|kw)\b|(?:tce|dci|tsi|tdi|gdi|crdi|mpi|bluehdi|puretech|ecoboost|multijet|firefly|hybrid)`)
)

// PrintAdapter reconstructs tabular price lists from print documents where
// extraction yields only positionally-scattered text fragments. Rows are
// recovered geometrically, then scanned with a small state machine that
// tracks the current model section and engine context.
type PrintAdapter struct {
	brand         string
	docURL        string
	modelPatterns []*regexp.Regexp
	extractor     PageExtractor
	logger        *zap.Logger
}

type PrintAdapterConfig struct {
	Brand         string
	DocURL        string
	ModelPatterns []string // section headers that open a model's data section
}

func NewPrintAdapter(cfg PrintAdapterConfig, extractor PageExtractor, logger *zap.Logger) *PrintAdapter {
	patterns := make([]*regexp.Regexp, 0, len(cfg.ModelPatterns))
	for _, p := range cfg.ModelPatterns {
		patterns = append(patterns, regexp.MustCompile("(?i)"+p))
	}
	return &PrintAdapter{
		brand:         cfg.Brand,
		docURL:        cfg.DocURL,
		modelPatterns: patterns,
		extractor:     extractor,
		logger:        logger,
	}
}

func (a *PrintAdapter) Brand() string { return a.brand }

// Sources fetches the single price-list document.
func (a *PrintAdapter) Sources(ctx context.Context, f fetch.Fetcher) ([]Payload, error) {
	body, err := f.Get(ctx, a.docURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s price document: %w", a.brand, err)
	}
	return []Payload{{Kind: PayloadPDF, Body: body}}, nil
}

// Parse reconstructs rows from the document's fragments and extracts records.
// Payloads may carry pre-extracted Pages (tests) or the raw document Body.
func (a *PrintAdapter) Parse(p Payload) ([]models.PriceRecord, error) {
	if p.Kind != PayloadPDF {
		return nil, fmt.Errorf("%s adapter: unexpected payload kind %q", a.brand, p.Kind)
	}
	pages := p.Pages
	if pages == nil {
		if a.extractor == nil {
			return nil, fmt.Errorf("%s adapter: no page extractor configured", a.brand)
		}
		var err error
		pages, err = a.extractor.ExtractPages(p.Body)
		if err != nil {
			return nil, fmt.Errorf("%s adapter: extract pages: %w", a.brand, err)
		}
	}

	var records []models.PriceRecord
	for _, page := range pages {
		records = append(records, a.parsePage(page)...)
	}
	return dedupe(records), nil
}

// Section-scan states.
const (
	stateSeekingSection = iota
	stateInData
)

func (a *PrintAdapter) parsePage(frags []Fragment) []models.PriceRecord {
	rows := ClusterRows(frags, RowTolerance)

	var records []models.PriceRecord
	state := stateSeekingSection
	currentModel := ""
	currentEngine := ""

	for _, row := range rows {
		joined := rowText(row)

		if model, ok := a.matchModel(joined); ok {
			currentModel = model
			currentEngine = "" // engine context never crosses a section
			state = stateInData
			continue
		}
		if state != stateInData {
			continue
		}
		if printEnginePattern.MatchString(joined) && !hasCurrencyToken(row) {
			// Engine header line, applies to the data rows beneath it.
			currentEngine = strings.TrimSpace(joined)
			continue
		}
		rec, ok := a.scoreDataRow(row, currentModel, currentEngine)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (a *PrintAdapter) matchModel(text string) (string, bool) {
	for _, p := range a.modelPatterns {
		if m := p.FindString(text); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

// scoreDataRow decides whether a reconstructed row is a price row. The first
// qualifying currency token becomes the list price; cells are then matched
// against the trim, transmission and fuel keyword tables.
func (a *PrintAdapter) scoreDataRow(row []Fragment, model, engine string) (models.PriceRecord, bool) {
	if model == "" {
		return models.PriceRecord{}, false
	}

	price := int64(0)
	display := ""
	trim := ""
	transmission := ""
	fuel := ""
	score := 0

	for _, f := range row {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		if price == 0 {
			if v, ok := normalize.Price(text); ok {
				price = v
				display = text
				score++
				continue
			}
		}
		lower := strings.ToLower(text)
		if transmission == "" && normalize.Transmission(lower) != models.TransmissionUnknown {
			transmission = text
			score++
			continue
		}
		if fuel == "" && normalize.Fuel(lower) != models.FuelUnknown {
			fuel = text
			score++
			continue
		}
		if trim == "" && isTrimCell(lower) {
			trim = text
			score++
		}
	}

	if price == 0 || score < 2 {
		return models.PriceRecord{}, false
	}
	if trim == "" {
		// Some layouts print the trim as the leftmost plain-text cell.
		for _, f := range row {
			text := strings.TrimSpace(f.Text)
			if text != "" && text != display && text != transmission && text != fuel {
				trim = text
				break
			}
		}
	}
	if trim == "" {
		return models.PriceRecord{}, false
	}
	if eng := printEnginePattern.FindString(rowText(row)); eng != "" {
		engine = eng
	}
	return models.PriceRecord{
		Brand:        a.brand,
		Model:        model,
		Trim:         trim,
		Engine:       engine,
		Transmission: transmission,
		Fuel:         fuel,
		DisplayPrice: display,
		Price:        price,
	}, true
}

func isTrimCell(lower string) bool {
	for _, kw := range printTrimKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func hasCurrencyToken(row []Fragment) bool {
	for _, f := range row {
		if _, ok := normalize.Price(f.Text); ok {
			return true
		}
	}
	return false
}

func rowText(row []Fragment) string {
	parts := make([]string, 0, len(row))
	for _, f := range row {
		if t := strings.TrimSpace(f.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// ClusterRows groups fragments into visual rows: sort by y, start a new row
// whenever a fragment's y is more than tolerance below the row's anchor, then
// sort each row left to right.
func ClusterRows(frags []Fragment, tolerance float64) [][]Fragment {
	if len(frags) == 0 {
		return nil
	}
	sorted := append([]Fragment(nil), frags...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	var rows [][]Fragment
	anchor := sorted[0].Y
	current := []Fragment{sorted[0]}
	for _, f := range sorted[1:] {
		if f.Y-anchor > tolerance {
			rows = append(rows, current)
			current = nil
			anchor = f.Y
		}
		current = append(current, f)
	}
	rows = append(rows, current)

	for _, row := range rows {
		row := row
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
	}
	return rows
}

// dedupe suppresses duplicate rows keyed on (model, trim, engine, price);
// print layouts repeat rows across page boundaries.
func dedupe(records []models.PriceRecord) []models.PriceRecord {
	seen := map[string]bool{}
	out := records[:0]
	for _, r := range records {
		key := fmt.Sprintf("%s|%s|%s|%d", r.Model, r.Trim, r.Engine, r.Price)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
