// Package export writes the latest price list and the change-event log into
// a spreadsheet for offline analysis.
package export

import (
	"context"
	"fmt"
	"strconv"

	"car-intel/internal/analytics"
	"car-intel/internal/store"

	"github.com/xuri/excelize/v2"
)

// Workbook builds an xlsx with a Prices sheet (latest records across brands)
// and an Events sheet (the full change log), and saves it to path.
func Workbook(ctx context.Context, st store.Store, topN int, path string) error {
	rollup, err := analytics.BuildLatestRollup(ctx, st)
	if err != nil {
		return fmt.Errorf("build latest rollup: %w", err)
	}
	events, err := analytics.BuildEvents(ctx, st, topN)
	if err != nil {
		return fmt.Errorf("build events: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	prices := "Prices"
	f.SetSheetName("Sheet1", prices)
	priceHeader := []interface{}{
		"Brand", "Model", "Trim", "Engine", "Transmission", "Fuel",
		"Price", "Campaign Price", "Snapshot Date", "Fallback",
	}
	if err := f.SetSheetRow(prices, "A1", &priceHeader); err != nil {
		return err
	}
	rowNum := 2
	for _, brand := range rollup.Brands {
		for _, r := range brand.Records {
			row := []interface{}{
				r.Brand, r.Model, r.Trim, r.Engine, r.Transmission, r.Fuel,
				r.Price, r.CampaignPrice, brand.Date, brand.IsFallback,
			}
			cell := "A" + strconv.Itoa(rowNum)
			if err := f.SetSheetRow(prices, cell, &row); err != nil {
				return err
			}
			rowNum++
		}
	}

	sheet := "Events"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	eventHeader := []interface{}{
		"Type", "Brand", "Model", "Trim", "Date", "Prev Date",
		"Old Price", "New Price", "Delta", "Percent", "From Fallback",
	}
	if err := f.SetSheetRow(sheet, "A1", &eventHeader); err != nil {
		return err
	}
	for i, e := range events.Events {
		row := []interface{}{
			e.Type, e.Brand, e.Model, e.Trim, e.Date, e.PrevDate,
			e.OldPrice, e.NewPrice, e.Delta, e.Percent, e.FromFallback,
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
