package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClusterRowsTolerance(t *testing.T) {
	frags := []Fragment{
		{X: 10, Y: 100, Text: "Street"},
		{X: 200, Y: 104, Text: "1.400.000"},
		{X: 10, Y: 130, Text: "Urban"},
	}
	rows := ClusterRows(frags, RowTolerance)
	require.Len(t, rows, 2)

	require.Len(t, rows[0], 2)
	assert.Equal(t, "Street", rows[0][0].Text)
	assert.Equal(t, "1.400.000", rows[0][1].Text)

	require.Len(t, rows[1], 1)
	assert.Equal(t, "Urban", rows[1][0].Text)
}

func TestClusterRowsSortsWithinRowByX(t *testing.T) {
	frags := []Fragment{
		{X: 300, Y: 50, Text: "third"},
		{X: 10, Y: 52, Text: "first"},
		{X: 150, Y: 48, Text: "second"},
	}
	rows := ClusterRows(frags, RowTolerance)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0][0].Text)
	assert.Equal(t, "second", rows[0][1].Text)
	assert.Equal(t, "third", rows[0][2].Text)
}

func testPrintAdapter() *PrintAdapter {
	return NewPrintAdapter(PrintAdapterConfig{
		Brand:         "toyota",
		DocURL:        "https://example.com/prices.pdf",
		ModelPatterns: []string{`corolla cross`, `corolla`, `yaris`},
	}, nil, zap.NewNop())
}

func TestPrintParseSectionStateMachine(t *testing.T) {
	a := testPrintAdapter()

	page := []Fragment{
		// Preamble before any section header must be ignored.
		{X: 10, Y: 10, Text: "Vision 2.000.000"},
		// Section header opens the Corolla data section.
		{X: 10, Y: 40, Text: "COROLLA"},
		// Engine context line.
		{X: 10, Y: 60, Text: "1.8 Hybrid e-CVT"},
		// Data rows.
		{X: 10, Y: 80, Text: "Vision"},
		{X: 120, Y: 82, Text: "Otomatik"},
		{X: 220, Y: 81, Text: "Hibrit"},
		{X: 320, Y: 80, Text: "1.800.000"},
		{X: 10, Y: 100, Text: "Passion"},
		{X: 120, Y: 101, Text: "Otomatik"},
		{X: 220, Y: 102, Text: "Hibrit"},
		{X: 320, Y: 100, Text: "2.000.000"},
	}
	records, err := a.Parse(Payload{Kind: PayloadPDF, Pages: [][]Fragment{page}})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "COROLLA", records[0].Model)
	assert.Equal(t, "Vision", records[0].Trim)
	assert.Equal(t, "1.8 Hybrid e-CVT", records[0].Engine)
	assert.Equal(t, int64(1_800_000), records[0].Price)
	assert.Equal(t, "Passion", records[1].Trim)
	assert.Equal(t, int64(2_000_000), records[1].Price)
}

func TestPrintParseResetsEngineAcrossSections(t *testing.T) {
	a := testPrintAdapter()

	page := []Fragment{
		{X: 10, Y: 20, Text: "COROLLA"},
		{X: 10, Y: 40, Text: "1.8 Hybrid e-CVT"},
		{X: 10, Y: 60, Text: "Vision"},
		{X: 120, Y: 60, Text: "Otomatik"},
		{X: 320, Y: 60, Text: "1.800.000"},
		// New section: the Corolla engine context must not leak here.
		{X: 10, Y: 90, Text: "YARIS"},
		{X: 10, Y: 110, Text: "Flame"},
		{X: 120, Y: 110, Text: "Otomatik"},
		{X: 320, Y: 110, Text: "1.500.000"},
	}
	records, err := a.Parse(Payload{Kind: PayloadPDF, Pages: [][]Fragment{page}})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1.8 Hybrid e-CVT", records[0].Engine)
	assert.Equal(t, "", records[1].Engine)
	assert.Equal(t, "YARIS", records[1].Model)
}

func TestPrintParseDuplicateSuppression(t *testing.T) {
	a := testPrintAdapter()

	row := []Fragment{
		{X: 10, Y: 60, Text: "Vision"},
		{X: 120, Y: 60, Text: "Otomatik"},
		{X: 320, Y: 60, Text: "1.800.000"},
	}
	header := Fragment{X: 10, Y: 20, Text: "COROLLA"}

	pageOne := append([]Fragment{header}, row...)
	pageTwo := append([]Fragment{header}, row...) // repeated across pages

	records, err := a.Parse(Payload{Kind: PayloadPDF, Pages: [][]Fragment{pageOne, pageTwo}})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPrintParseRejectsUnscoredRows(t *testing.T) {
	a := testPrintAdapter()

	page := []Fragment{
		{X: 10, Y: 20, Text: "COROLLA"},
		// A lone number with no keyword support is not a data row.
		{X: 10, Y: 60, Text: "1.800.000"},
		// Keywords with no price are not a data row either.
		{X: 10, Y: 90, Text: "Vision"},
		{X: 120, Y: 90, Text: "Otomatik"},
	}
	records, err := a.Parse(Payload{Kind: PayloadPDF, Pages: [][]Fragment{page}})
	require.NoError(t, err)
	assert.Empty(t, records)
}
