package adapters

import (
	"go.uber.org/zap"
)

// DefaultRegistry wires the production brand set. Onboarding a brand is one
// Register call with its source shape and price priority.
func DefaultRegistry(extractor PageExtractor, logger *zap.Logger) *Registry {
	r := NewRegistry()

	r.Register(NewAPIAdapter(APIAdapterConfig{
		Brand:          "renault",
		PageURL:        "https://www.renault.com.tr/fiyat-listesi.html",
		EndpointFormat: "https://www.renault.com.tr/_next/data/%s/fiyat-listesi/%s.json",
		BuildIDPattern: `"buildId":"([^"]+)"`,
		ModelCodes:     []string{"clio", "taliant", "captur", "austral", "megane-e-tech"},
		PricePriority:  PriceCampaignFirst,
	}, logger))

	r.Register(NewAPIAdapter(APIAdapterConfig{
		Brand:          "hyundai",
		PageURL:        "",
		EndpointFormat: "https://www.hyundai.com/tr/api/price-list/%s",
		ModelCodes:     []string{"i10", "i20", "bayon", "elantra", "kona", "tucson"},
		PricePriority:  PriceListFirst,
	}, logger))

	r.Register(NewHTMLAdapter(HTMLAdapterConfig{
		Brand: "volkswagen",
		Pages: map[string]string{
			"Polo":   "https://www.vw.com.tr/tr/modeller/polo/fiyat-listesi.html",
			"Golf":   "https://www.vw.com.tr/tr/modeller/golf/fiyat-listesi.html",
			"Passat": "https://www.vw.com.tr/tr/modeller/passat/fiyat-listesi.html",
			"T-Roc":  "https://www.vw.com.tr/tr/modeller/t-roc/fiyat-listesi.html",
			"Tiguan": "https://www.vw.com.tr/tr/modeller/tiguan/fiyat-listesi.html",
		},
		ModelOrder:    []string{"Polo", "Golf", "Passat", "T-Roc", "Tiguan"},
		PricePriority: PriceListFirst,
	}, logger))

	r.Register(NewHTMLAdapter(HTMLAdapterConfig{
		Brand: "fiat",
		Pages: map[string]string{
			"Egea": "https://www.fiat.com.tr/egea/fiyat-listesi",
		},
		ModelOrder:    []string{"Egea"},
		PricePriority: PriceCampaignFirst,
	}, logger))

	r.Register(NewPrintAdapter(PrintAdapterConfig{
		Brand:  "toyota",
		DocURL: "https://www.toyota.com.tr/fiyat-listesi/guncel-fiyat-listesi.pdf",
		ModelPatterns: []string{
			`corolla cross`, `corolla`, `yaris cross`, `yaris`, `c-hr`,
			`rav4`, `hilux`, `proace city`,
		},
	}, extractor, logger))

	r.Register(NewXMLAdapter(XMLAdapterConfig{
		Brand:         "ford",
		FeedURL:       "https://www.ford.com.tr/content/feeds/fiyat-listesi.xml",
		PricePriority: PriceListFirst,
	}, logger))

	r.Register(NewPrintAdapter(PrintAdapterConfig{
		Brand:  "dacia",
		DocURL: "https://www.dacia.com.tr/binek-fiyat-listesi.pdf",
		ModelPatterns: []string{
			`sandero stepway`, `sandero`, `jogger`, `duster`, `spring`,
		},
	}, extractor, logger))

	return r
}
