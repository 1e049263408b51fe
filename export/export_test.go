package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/pricelens/stparts-scraper/models"
)

func offer(brand, article string, price float64, provider string, quantity int) models.Offer {
	return models.Offer{
		Brand:    brand,
		Article:  article,
		Name:     "Item " + provider,
		Price:    &price,
		Quantity: &quantity,
		Provider: provider,
	}
}

func TestReportColumnsShape(t *testing.T) {
	columns := ReportColumns()
	if len(columns) != 52 {
		t.Fatalf("got %d columns, want 52", len(columns))
	}
	if columns[0] != "brand" || columns[1] != "article" {
		t.Fatalf("leading columns = %v", columns[:2])
	}
	if columns[2] != "price 1" || columns[6] != "name 1" {
		t.Fatalf("first group = %v", columns[2:7])
	}
	if columns[47] != "price 10" || columns[51] != "name 10" {
		t.Fatalf("last group = %v", columns[47:])
	}
}

func TestPivotOffersGroupsAndResorts(t *testing.T) {
	offers := []models.Offer{
		offer("BrandA", "CODE1", 20.0, "WH2", 3),
		offer("BrandA", "CODE1", 10.0, "WH1", 5),
		offer("BrandB", "CODE2", 7.5, "WH3", 1),
	}

	rows := PivotOffers(offers)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first[0] != "BrandA" || first[1] != "CODE1" {
		t.Fatalf("row 0 key = %v %v", first[0], first[1])
	}
	// Re-sorted within the group: the 10.0 offer takes the first slot.
	if first[2] != 10.0 || first[3] != "WH1" {
		t.Fatalf("row 0 first slot = %v %v, want 10 WH1", first[2], first[3])
	}
	if first[7] != 20.0 || first[8] != "WH2" {
		t.Fatalf("row 0 second slot = %v %v, want 20 WH2", first[7], first[8])
	}
	if rows[1][0] != "BrandB" {
		t.Fatalf("insertion order lost: %v", rows[1][0])
	}
}

func TestPivotOffersCapsAtTenSlots(t *testing.T) {
	var offers []models.Offer
	for i := 1; i <= 12; i++ {
		offers = append(offers, offer("Brand", "CODE", float64(i), "WH", i))
	}

	rows := PivotOffers(offers)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if len(row) != 52 {
		t.Fatalf("row has %d cells, want 52", len(row))
	}
	if row[47] != 10.0 {
		t.Fatalf("price 10 = %v, want 10", row[47])
	}
}

func TestPivotOffersEmpty(t *testing.T) {
	if rows := PivotOffers(nil); len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestWriteReportProducesFormattedWorkbook(t *testing.T) {
	dir := t.TempDir()
	runID := uuid.New()
	rows := PivotOffers([]models.Offer{
		offer("Brand", "CODE1", 38.07, "WH-MAIN", 243),
	})

	path, err := WriteReport(runID, "stparts", rows, dir)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if filepath.Base(path) != "stparts_"+runID.String()+".xlsx" {
		t.Fatalf("unexpected file name %q", filepath.Base(path))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue("stparts", "A1")
	if err != nil || title != "Source: stparts" {
		t.Fatalf("title = %q, err %v", title, err)
	}
	header, _ := f.GetCellValue("stparts", "A2")
	if header != "brand" {
		t.Fatalf("header A2 = %q, want brand", header)
	}
	article, _ := f.GetCellValue("stparts", "B3")
	if article != "CODE1" {
		t.Fatalf("B3 = %q, want CODE1", article)
	}
	price, _ := f.GetCellValue("stparts", "C3")
	if price == "" {
		t.Fatalf("price cell is empty")
	}
}

func TestWriteReportHeadersOnlyForEmptyRun(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteReport(uuid.New(), "stparts", nil, dir)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	cols, err := f.GetCols("stparts")
	if err != nil {
		t.Fatalf("read columns: %v", err)
	}
	if len(cols) != len(ReportColumns()) {
		t.Fatalf("got %d columns, want %d", len(cols), len(ReportColumns()))
	}
	if data, _ := f.GetCellValue("stparts", "A3"); data != "" {
		t.Fatalf("expected no data rows, got %q", data)
	}
}

func TestDeleteOldReports(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "stparts_old.xlsx")
	freshFile := filepath.Join(dir, "stparts_fresh.xlsx")
	otherFile := filepath.Join(dir, "notes.txt")
	for _, path := range []string{oldFile, freshFile, otherFile} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	stale := time.Now().Add(-10 * 24 * time.Hour)
	if err := os.Chtimes(oldFile, stale, stale); err != nil {
		t.Fatalf("age fixture: %v", err)
	}
	if err := os.Chtimes(otherFile, stale, stale); err != nil {
		t.Fatalf("age fixture: %v", err)
	}

	if deleted := DeleteOldReports(dir, 5*24*time.Hour); deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Fatalf("old report still present")
	}
	if _, err := os.Stat(freshFile); err != nil {
		t.Fatalf("fresh report removed: %v", err)
	}
	if _, err := os.Stat(otherFile); err != nil {
		t.Fatalf("non-xlsx file removed: %v", err)
	}

	if deleted := DeleteOldReports(filepath.Join(dir, "missing"), time.Hour); deleted != 0 {
		t.Fatalf("missing dir deleted = %d, want 0", deleted)
	}
}
