package adapters

import (
	"context"
	"encoding/xml"
	"fmt"

	"car-intel/internal/fetch"
	"car-intel/internal/models"
	"car-intel/internal/normalize"

	"go.uber.org/zap"
)

// xmlFeed is the wire shape of a whole-brand XML price feed: every model and
// version in one document.
type xmlFeed struct {
	XMLName xml.Name `xml:"priceList"`
	Models  []struct {
		Name     string `xml:"name,attr"`
		Versions []struct {
			Name          string `xml:"name,attr"`
			Engine        string `xml:"engine"`
			Transmission  string `xml:"transmission"`
			Fuel          string `xml:"fuel"`
			Price         string `xml:"price"`
			CampaignPrice string `xml:"campaignPrice"`
			ModelYear     int    `xml:"modelYear"`
		} `xml:"version"`
	} `xml:"model"`
}

// XMLAdapter collects from vendors that publish one XML feed covering the
// whole brand.
type XMLAdapter struct {
	brand         string
	feedURL       string
	pricePriority string
	logger        *zap.Logger
}

type XMLAdapterConfig struct {
	Brand         string
	FeedURL       string
	PricePriority string
}

func NewXMLAdapter(cfg XMLAdapterConfig, logger *zap.Logger) *XMLAdapter {
	priority := cfg.PricePriority
	if priority == "" {
		priority = PriceListFirst
	}
	return &XMLAdapter{
		brand:         cfg.Brand,
		feedURL:       cfg.FeedURL,
		pricePriority: priority,
		logger:        logger,
	}
}

func (a *XMLAdapter) Brand() string { return a.brand }

// Sources fetches the single brand-wide feed.
func (a *XMLAdapter) Sources(ctx context.Context, f fetch.Fetcher) ([]Payload, error) {
	body, err := f.Get(ctx, a.feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s feed: %w", a.brand, err)
	}
	return []Payload{{Kind: PayloadXML, Body: body}}, nil
}

// Parse decodes the feed. Versions without a parseable price are skipped
// rather than failing the document.
func (a *XMLAdapter) Parse(p Payload) ([]models.PriceRecord, error) {
	if p.Kind != PayloadXML {
		return nil, fmt.Errorf("%s adapter: unexpected payload kind %q", a.brand, p.Kind)
	}
	var feed xmlFeed
	if err := xml.Unmarshal(p.Body, &feed); err != nil {
		return nil, fmt.Errorf("%s adapter: decode feed: %w", a.brand, err)
	}

	var records []models.PriceRecord
	for _, m := range feed.Models {
		for _, v := range m.Versions {
			listPrice, okList := normalize.Price(v.Price)
			campaignPrice, okCampaign := normalize.Price(v.CampaignPrice)
			rec := models.PriceRecord{
				Brand:        a.brand,
				Model:        m.Name,
				Trim:         v.Name,
				Engine:       v.Engine,
				Transmission: v.Transmission,
				Fuel:         v.Fuel,
				ModelYear:    v.ModelYear,
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
					zap.String("model", m.Name),
					zap.String("trim", v.Name))
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}
