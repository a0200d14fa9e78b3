package adapters

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"car-intel/internal/fetch"
	"car-intel/internal/models"
	"car-intel/internal/normalize"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Column keyword sets for header matching, lowest-common-denominator across
// the vendors that render price tables as HTML. Turkish first, English second.
var htmlColumnKeywords = map[string][]string{
	"model":        {"model"},
	"trim":         {"donanım", "donanim", "versiyon", "trim", "paket"},
	"engine":       {"motor", "engine"},
	"transmission": {"vites", "şanzıman", "sanziman", "transmission"},
	"fuel":         {"yakıt", "yakit", "fuel"},
	"price":        {"fiyat", "price", "tl"},
}

// HTMLAdapter recovers price tables from rendered markup. The vendor gives no
// schema, so the adapter scores every table's header row against the column
// keyword sets and parses the best-scoring table.
type HTMLAdapter struct {
	brand         string
	pageURLs      map[string]string // model name -> page URL
	modelOrder    []string
	pricePriority string
	logger        *zap.Logger
}

type HTMLAdapterConfig struct {
	Brand         string
	Pages         map[string]string
	ModelOrder    []string
	PricePriority string
}

func NewHTMLAdapter(cfg HTMLAdapterConfig, logger *zap.Logger) *HTMLAdapter {
	order := cfg.ModelOrder
	if len(order) == 0 {
		for m := range cfg.Pages {
			order = append(order, m)
		}
	}
	return &HTMLAdapter{
		brand:         cfg.Brand,
		pageURLs:      cfg.Pages,
		modelOrder:    order,
		pricePriority: cfg.PricePriority,
		logger:        logger,
	}
}

func (a *HTMLAdapter) Brand() string { return a.brand }

// Sources fetches one rendered page per model, sequentially.
func (a *HTMLAdapter) Sources(ctx context.Context, f fetch.Fetcher) ([]Payload, error) {
	payloads := make([]Payload, 0, len(a.modelOrder))
	for _, model := range a.modelOrder {
		url, ok := a.pageURLs[model]
		if !ok {
			continue
		}
		body, err := f.Get(ctx, url)
		if err != nil {
			a.logger.Warn("page fetch failed, skipping model",
				zap.String("brand", a.brand),
				zap.String("model", model),
				zap.Error(err))
			continue
		}
		payloads = append(payloads, Payload{Kind: PayloadHTML, Body: body, Model: model})
	}
	return payloads, nil
}

// Parse locates the price table in one model page and extracts its rows.
func (a *HTMLAdapter) Parse(p Payload) ([]models.PriceRecord, error) {
	if p.Kind != PayloadHTML {
		return nil, fmt.Errorf("%s adapter: unexpected payload kind %q", a.brand, p.Kind)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("%s adapter: parse html for %q: %w", a.brand, p.Model, err)
	}

	table, columns := a.bestTable(doc)
	if table == nil {
		return nil, fmt.Errorf("%s adapter: no price table recognized for %q", a.brand, p.Model)
	}

	var records []models.PriceRecord
	table.Find("tbody tr, tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return // header row
		}
		texts := make([]string, cells.Length())
		cells.Each(func(i int, c *goquery.Selection) {
			texts[i] = strings.TrimSpace(c.Text())
		})
		rec, ok := a.rowToRecord(p.Model, columns, texts)
		if !ok {
			return
		}
		records = append(records, rec)
	})
	return dedupe(records), nil
}

// bestTable scores every table's header cells against the column keywords
// and returns the winner with its column mapping. Requires at least a trim
// column and a price column to qualify.
func (a *HTMLAdapter) bestTable(doc *goquery.Document) (*goquery.Selection, map[string]int) {
	var best *goquery.Selection
	var bestCols map[string]int
	bestScore := 0

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		headers := table.Find("th")
		if headers.Length() == 0 {
			headers = table.Find("tr").First().Find("td")
		}
		cols := map[string]int{}
		headers.Each(func(i int, h *goquery.Selection) {
			text := strings.ToLower(strings.TrimSpace(h.Text()))
			for field, keywords := range htmlColumnKeywords {
				if _, taken := cols[field]; taken {
					continue
				}
				for _, kw := range keywords {
					if strings.Contains(text, kw) {
						cols[field] = i
						break
					}
				}
			}
		})
		if _, ok := cols["price"]; !ok {
			return
		}
		if _, ok := cols["trim"]; !ok {
			return
		}
		if len(cols) > bestScore {
			bestScore = len(cols)
			best = table
			bestCols = cols
		}
	})
	return best, bestCols
}

func (a *HTMLAdapter) rowToRecord(model string, cols map[string]int, texts []string) (models.PriceRecord, bool) {
	cell := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(texts) {
			return ""
		}
		return texts[i]
	}
	display := cell("price")
	price, ok := normalize.Price(display)
	if !ok {
		return models.PriceRecord{}, false
	}
	trim := cell("trim")
	if trim == "" {
		return models.PriceRecord{}, false
	}
	if m := cell("model"); m != "" {
		model = m
	}
	return models.PriceRecord{
		Brand:        a.brand,
		Model:        model,
		Trim:         trim,
		Engine:       cell("engine"),
		Transmission: cell("transmission"),
		Fuel:         cell("fuel"),
		DisplayPrice: display,
		Price:        price,
	}, true
}
