package adapters

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubFetcher serves canned responses keyed by URL and records the order of
// requests it saw.
type stubFetcher struct {
	responses map[string][]byte
	requested []string
}

func (s *stubFetcher) Get(_ context.Context, url string) ([]byte, error) {
	s.requested = append(s.requested, url)
	body, ok := s.responses[url]
	if !ok {
		return nil, fmt.Errorf("no response for %s", url)
	}
	return body, nil
}

func TestAPISourcesDiscoversBuildID(t *testing.T) {
	a := NewAPIAdapter(APIAdapterConfig{
		Brand:          "renault",
		PageURL:        "https://example.com/fiyat-listesi",
		EndpointFormat: "https://example.com/_next/data/%s/models/%s.json",
		BuildIDPattern: `"buildId":"([^"]+)"`,
		ModelCodes:     []string{"clio", "megane"},
	}, zap.NewNop())

	f := &stubFetcher{responses: map[string][]byte{
		"https://example.com/fiyat-listesi":                        []byte(`<script>{"buildId":"abc123","page":"/"}</script>`),
		"https://example.com/_next/data/abc123/models/clio.json":   []byte(`{"model":"Clio","versions":[]}`),
		"https://example.com/_next/data/abc123/models/megane.json": []byte(`{"model":"Megane","versions":[]}`),
	}}

	payloads, err := a.Sources(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, "clio", payloads[0].Model)
	assert.Equal(t, "megane", payloads[1].Model)
	assert.Equal(t, []string{
		"https://example.com/fiyat-listesi",
		"https://example.com/_next/data/abc123/models/clio.json",
		"https://example.com/_next/data/abc123/models/megane.json",
	}, f.requested)
}

func TestAPISourcesBuildIDMissing(t *testing.T) {
	a := NewAPIAdapter(APIAdapterConfig{
		Brand:          "renault",
		PageURL:        "https://example.com/fiyat-listesi",
		EndpointFormat: "https://example.com/_next/data/%s/models/%s.json",
		BuildIDPattern: `"buildId":"([^"]+)"`,
		ModelCodes:     []string{"clio"},
	}, zap.NewNop())

	f := &stubFetcher{responses: map[string][]byte{
		"https://example.com/fiyat-listesi": []byte(`<html>no script payload here</html>`),
	}}

	_, err := a.Sources(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build id not found")
}

func TestAPISourcesSkipsFailedModel(t *testing.T) {
	a := NewAPIAdapter(APIAdapterConfig{
		Brand:          "hyundai",
		PageURL:        "https://example.com",
		EndpointFormat: "https://example.com/api/models/%s",
		ModelCodes:     []string{"i20", "tucson", "kona"},
	}, zap.NewNop())

	f := &stubFetcher{responses: map[string][]byte{
		"https://example.com/api/models/i20":  []byte(`{"model":"i20","versions":[]}`),
		"https://example.com/api/models/kona": []byte(`{"model":"Kona","versions":[]}`),
	}}

	payloads, err := a.Sources(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.Equal(t, "i20", payloads[0].Model)
	assert.Equal(t, "kona", payloads[1].Model)
}

func TestAPIParseCampaignFirstPriority(t *testing.T) {
	body := []byte(`{"model":"Clio","versions":[
		{"name":"Touch","engine":"1.0 TCe","transmission":"Manuel","fuel":"Benzin",
		 "price":"1.400.000 TL","campaignPrice":"1.350.000 TL"},
		{"name":"Icon","engine":"1.0 TCe","transmission":"Otomatik","fuel":"Benzin",
		 "price":"1.550.000 TL","campaignPrice":""}
	]}`)

	a := NewAPIAdapter(APIAdapterConfig{
		Brand:         "renault",
		PricePriority: PriceCampaignFirst,
	}, zap.NewNop())

	records, err := a.Parse(Payload{Kind: PayloadJSON, Body: body, Model: "clio"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Campaign figure wins when present.
	assert.Equal(t, int64(1_350_000), records[0].Price)
	assert.Equal(t, "1.350.000 TL", records[0].DisplayPrice)
	assert.Equal(t, int64(1_350_000), records[0].CampaignPrice)

	// Falls back to the list price when no campaign is running.
	assert.Equal(t, int64(1_550_000), records[1].Price)
	assert.Equal(t, int64(0), records[1].CampaignPrice)
}

func TestAPIParseListFirstKeepsCampaignAside(t *testing.T) {
	body := []byte(`{"model":"Tucson","versions":[
		{"name":"Elite","engine":"1.6 T-GDI","transmission":"Otomatik","fuel":"Benzin",
		 "price":"2.600.000","campaignPrice":"2.500.000","modelYear":2026,"taxRate":80}
	]}`)

	a := NewAPIAdapter(APIAdapterConfig{Brand: "hyundai"}, zap.NewNop())

	records, err := a.Parse(Payload{Kind: PayloadJSON, Body: body, Model: "tucson"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, int64(2_600_000), records[0].Price)
	assert.Equal(t, int64(2_500_000), records[0].CampaignPrice)
	assert.Equal(t, 2026, records[0].ModelYear)
	assert.Equal(t, 80.0, records[0].TaxRate)
}

func TestAPIParseSkipsUnpriceableVersion(t *testing.T) {
	body := []byte(`{"model":"Kona","versions":[
		{"name":"Smart","price":"Bayinize danışınız"},
		{"name":"Elite","price":"2.200.000 TL"}
	]}`)

	a := NewAPIAdapter(APIAdapterConfig{Brand: "hyundai"}, zap.NewNop())

	records, err := a.Parse(Payload{Kind: PayloadJSON, Body: body, Model: "kona"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Elite", records[0].Trim)
}

func TestAPIParseFallsBackToPayloadModel(t *testing.T) {
	body := []byte(`{"versions":[{"name":"Joy","price":"1.100.000"}]}`)

	a := NewAPIAdapter(APIAdapterConfig{Brand: "hyundai"}, zap.NewNop())

	records, err := a.Parse(Payload{Kind: PayloadJSON, Body: body, Model: "i10"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "i10", records[0].Model)
}
