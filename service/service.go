// Package service runs the end-to-end stparts job: read the input
// file, fetch and rank offers, write the xlsx report.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pricelens/stparts-scraper/config"
	"github.com/pricelens/stparts-scraper/export"
	"github.com/pricelens/stparts-scraper/models"
	"github.com/pricelens/stparts-scraper/pipeline"
	"github.com/pricelens/stparts-scraper/proxydir"
	"github.com/pricelens/stparts-scraper/scraper"
)

const reportSource = "stparts"

// Service wires the pipeline to input reading and report writing.
type Service struct {
	cfg     *config.Config
	dir     proxydir.Directory
	source  pipeline.Source
	metrics *scraper.Metrics
}

// New builds a service. A nil source defaults to the live site when the
// pipeline is constructed.
func New(cfg *config.Config, dir proxydir.Directory, source pipeline.Source, metrics *scraper.Metrics) *Service {
	return &Service{cfg: cfg, dir: dir, source: source, metrics: metrics}
}

// Run executes one job against the given input file and returns the
// run outcome. Per-article failures are collected into the result, not
// raised; a failure to read the input or write the report aborts the
// run with a reported FAILURE step.
func (s *Service) Run(ctx context.Context, inputPath string, reporter pipeline.Reporter) (*models.RunResult, error) {
	if reporter == nil {
		reporter = pipeline.ConsoleReporter{}
	}
	runID := uuid.New()
	start := time.Now()

	reporter.ReportStep(pipeline.StepReadingInput, pipeline.StatusInProgress, nil)
	articles, err := ReadArticles(inputPath)
	if err != nil {
		reporter.ReportStep(pipeline.StepReadingInput, pipeline.StatusFailure, map[string]string{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("read articles: %w", err)
	}
	reporter.ReportStep(pipeline.StepReadingInput, pipeline.StatusSuccess, nil)

	collector := pipeline.NewFailureCollector(reporter)
	offers, err := pipeline.New(s.cfg, s.dir, s.source, collector, s.metrics).Run(ctx, articles)
	if err != nil {
		reporter.ReportStep(pipeline.StepFetching, pipeline.StatusFailure, map[string]string{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	reporter.ReportStep(pipeline.StepWritingReport, pipeline.StatusInProgress, nil)
	exportPath, err := export.WriteReport(runID, reportSource, export.PivotOffers(offers), s.cfg.ExportDir)
	if err != nil {
		reporter.ReportStep(pipeline.StepWritingReport, pipeline.StatusFailure, map[string]string{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("write report: %w", err)
	}
	reporter.ReportStep(pipeline.StepWritingReport, pipeline.StatusSuccess, nil)

	result := &models.RunResult{
		Offers:         offers,
		FailedArticles: collector.FailedArticles(),
		StartTime:      start,
		EndTime:        time.Now(),
		ArticleCount:   len(articles),
		ExportPath:     exportPath,
	}
	slog.Info("run finished",
		slog.String("run_id", runID.String()),
		slog.Int("articles", result.ArticleCount),
		slog.Int("offers", len(result.Offers)),
		slog.Int("failed", len(result.FailedArticles)),
		slog.Duration("elapsed", result.EndTime.Sub(result.StartTime)),
	)
	return result, nil
}
