package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/pricelens/stparts-scraper/config"
	"github.com/pricelens/stparts-scraper/models"
	"github.com/pricelens/stparts-scraper/pipeline"
	"github.com/pricelens/stparts-scraper/proxydir"
	"github.com/pricelens/stparts-scraper/scraper"
)

type fakeSource struct {
	mu     sync.Mutex
	pages  map[string][]models.Offer
	errors map[string]error
}

func (f *fakeSource) Offers(_ context.Context, _ *scraper.Session, article string, _ bool) ([]models.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errors[article]; err != nil {
		return nil, err
	}
	return f.pages[article], nil
}

type nullReporter struct{}

func (nullReporter) ReportStep(string, pipeline.StepStatus, map[string]string) {}
func (nullReporter) ReportPercentage(string, int)                             {}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Concurrency = 2
	cfg.ExportDir = t.TempDir()
	return cfg
}

func testDirectory() proxydir.Directory {
	return &proxydir.Static{Proxies: []models.Proxy{
		{Address: "127.0.0.1", Port: 8080, Username: "user", Password: "password"},
	}}
}

func writeInputFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "articles.txt")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestRunProducesReportAndCollectsFailures(t *testing.T) {
	price := 38.07
	source := &fakeSource{
		pages: map[string][]models.Offer{
			"CODE1": {{Brand: "Brand", Article: "CODE1", Price: &price, Provider: "WH"}},
		},
		errors: map[string]error{
			"FAIL_CODE": errors.New("connection reset by proxy"),
		},
	}
	input := writeInputFile(t, "article\nCODE1\nFAIL_CODE\n")
	cfg := testConfig(t)

	svc := New(cfg, testDirectory(), source, scraper.NewMetrics())
	result, err := svc.Run(context.Background(), input, nullReporter{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.ArticleCount != 2 {
		t.Fatalf("article count = %d, want 2", result.ArticleCount)
	}
	if len(result.Offers) != 1 {
		t.Fatalf("offers = %d, want 1", len(result.Offers))
	}
	if len(result.FailedArticles) != 1 || result.FailedArticles[0] != "FAIL_CODE" {
		t.Fatalf("failed articles = %v, want [FAIL_CODE]", result.FailedArticles)
	}
	if _, err := os.Stat(result.ExportPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	if result.EndTime.Before(result.StartTime) {
		t.Fatalf("end before start")
	}
}

func TestRunFailsOnUnreadableInput(t *testing.T) {
	cfg := testConfig(t)
	svc := New(cfg, testDirectory(), &fakeSource{}, nil)

	if _, err := svc.Run(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), nullReporter{}); err == nil {
		t.Fatalf("expected error for missing input file")
	}
}

func TestReadArticlesPlainText(t *testing.T) {
	input := writeInputFile(t, "article\nCODE1\n\n  CODE2  \n")

	articles, err := ReadArticles(input)
	if err != nil {
		t.Fatalf("read articles: %v", err)
	}
	want := []string{"CODE1", "CODE2"}
	if len(articles) != len(want) || articles[0] != want[0] || articles[1] != want[1] {
		t.Fatalf("articles = %v, want %v", articles, want)
	}
}

func TestReadArticlesEmptyFile(t *testing.T) {
	input := writeInputFile(t, "article\n\n")

	if _, err := ReadArticles(input); !errors.Is(err, ErrNoArticles) {
		t.Fatalf("error = %v, want ErrNoArticles", err)
	}
}

func TestReadArticlesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "comment")
	f.SetCellValue(sheet, "B1", "article")
	f.SetCellValue(sheet, "B2", "CODE1")
	f.SetCellValue(sheet, "B3", " CODE2 ")
	f.SetCellValue(sheet, "A4", "row without article cell")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	f.Close()

	articles, err := ReadArticles(path)
	if err != nil {
		t.Fatalf("read articles: %v", err)
	}
	if len(articles) != 2 || articles[0] != "CODE1" || articles[1] != "CODE2" {
		t.Fatalf("articles = %v, want [CODE1 CODE2]", articles)
	}
}

func TestReadArticlesXLSXMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "code")
	f.SetCellValue(sheet, "A2", "CODE1")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	f.Close()

	if _, err := ReadArticles(path); err == nil {
		t.Fatalf("expected error for missing article column")
	}
}
