package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"car-intel/internal/fetch"
	"car-intel/internal/models"
	"car-intel/internal/normalize"

	"go.uber.org/zap"
)

// Price selection per brand. Configured per vendor, never "whichever appears
// first": list-first brands publish the campaign figure as an extension,
// campaign-first brands sell at the campaign figure when one exists.
const (
	PriceListFirst     = "list_first"
	PriceCampaignFirst = "campaign_first"
)

// apiVersionDoc is the wire shape of one model document on the data API.
type apiVersionDoc struct {
	Model    string `json:"model"`
	Versions []struct {
		Name          string  `json:"name"`
		Engine        string  `json:"engine"`
		Transmission  string  `json:"transmission"`
		Fuel          string  `json:"fuel"`
		Price         string  `json:"price"`
		CampaignPrice string  `json:"campaignPrice"`
		ModelYear     int     `json:"modelYear"`
		TaxRate       float64 `json:"taxRate"`
	} `json:"versions"`
}

// APIAdapter collects from vendors that publish per-model JSON documents.
// When the data URL embeds a deployment-specific build identifier, the
// adapter first fetches the public page and extracts the identifier before
// constructing the real endpoint.
type APIAdapter struct {
	brand          string
	pageURL        string
	endpointFormat string // fmt verbs: build id (optional), model code
	buildIDPattern *regexp.Regexp
	modelCodes     []string
	pricePriority  string
	logger         *zap.Logger
}

type APIAdapterConfig struct {
	Brand          string
	PageURL        string
	EndpointFormat string
	BuildIDPattern string // empty when the endpoint needs no discovery
	ModelCodes     []string
	PricePriority  string
}

func NewAPIAdapter(cfg APIAdapterConfig, logger *zap.Logger) *APIAdapter {
	a := &APIAdapter{
		brand:          cfg.Brand,
		pageURL:        cfg.PageURL,
		endpointFormat: cfg.EndpointFormat,
		modelCodes:     cfg.ModelCodes,
		pricePriority:  cfg.PricePriority,
		logger:         logger,
	}
	if cfg.BuildIDPattern != "" {
		a.buildIDPattern = regexp.MustCompile(cfg.BuildIDPattern)
	}
	if a.pricePriority == "" {
		a.pricePriority = PriceListFirst
	}
	return a
}

func (a *APIAdapter) Brand() string { return a.brand }

// Sources fetches one payload per model code, sequentially. A failed model
// fetch is logged and skipped; the brand still gets the models that worked.
func (a *APIAdapter) Sources(ctx context.Context, f fetch.Fetcher) ([]Payload, error) {
	buildID := ""
	if a.buildIDPattern != nil {
		page, err := f.Get(ctx, a.pageURL)
		if err != nil {
			return nil, fmt.Errorf("discover %s endpoint: %w", a.brand, err)
		}
		m := a.buildIDPattern.FindSubmatch(page)
		if len(m) < 2 {
			return nil, fmt.Errorf("discover %s endpoint: build id not found in page", a.brand)
		}
		buildID = string(m[1])
	}

	payloads := make([]Payload, 0, len(a.modelCodes))
	for _, code := range a.modelCodes {
		url := a.endpointURL(buildID, code)
		body, err := f.Get(ctx, url)
		if err != nil {
			a.logger.Warn("model fetch failed, skipping",
				zap.String("brand", a.brand),
				zap.String("model_code", code),
				zap.Error(err))
			continue
		}
		payloads = append(payloads, Payload{Kind: PayloadJSON, Body: body, Model: code})
	}
	return payloads, nil
}

func (a *APIAdapter) endpointURL(buildID, code string) string {
	if a.buildIDPattern != nil {
		return fmt.Sprintf(a.endpointFormat, buildID, code)
	}
	return fmt.Sprintf(a.endpointFormat, code)
}

// Parse decodes one model document. Versions without a parseable price are
// skipped rather than failing the document.
func (a *APIAdapter) Parse(p Payload) ([]models.PriceRecord, error) {
	if p.Kind != PayloadJSON {
		return nil, fmt.Errorf("%s adapter: unexpected payload kind %q", a.brand, p.Kind)
	}
	var doc apiVersionDoc
	if err := json.Unmarshal(p.Body, &doc); err != nil {
		return nil, fmt.Errorf("%s adapter: decode model document %q: %w", a.brand, p.Model, err)
	}
	model := doc.Model
	if model == "" {
		model = p.Model
	}

	var records []models.PriceRecord
	for _, v := range doc.Versions {
		listPrice, okList := normalize.Price(v.Price)
		campaignPrice, okCampaign := normalize.Price(v.CampaignPrice)
		rec := models.PriceRecord{
			Brand:        a.brand,
			Model:        model,
			Trim:         v.Name,
			Engine:       v.Engine,
			Transmission: v.Transmission,
			Fuel:         v.Fuel,
			ModelYear:    v.ModelYear,
			TaxRate:      v.TaxRate,
		}
		if okCampaign {
			rec.CampaignPrice = campaignPrice
		}
		switch {
		case a.pricePriority == PriceCampaignFirst && okCampaign:
			rec.Price = campaignPrice
			rec.DisplayPrice = v.CampaignPrice
		case okList:
			rec.Price = listPrice
			rec.DisplayPrice = v.Price
		default:
			a.logger.Warn("version without parseable price, skipping",
				zap.String("brand", a.brand),
				zap.String("model", model),
				zap.String("trim", v.Name))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
