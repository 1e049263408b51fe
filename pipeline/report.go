package pipeline

import (
	"log/slog"
	"sync"
)

// StepStatus is the lifecycle state of a reported pipeline step.
type StepStatus string

const (
	StatusInProgress StepStatus = "IN_PROGRESS"
	StatusSuccess    StepStatus = "SUCCESS"
	StatusFailure    StepStatus = "FAILURE"
)

// Step names reported by the pipeline and the surrounding service.
const (
	StepReadingInput  = "READING_INPUT"
	StepFetching      = "FETCHING"
	StepFiltering     = "FILTERING"
	StepWritingReport = "WRITING_REPORT"
)

// Reporter receives progress events from a run. Implementations are
// supplied by the caller; per-article FAILURE reports carry the
// failing article code and an error string in details.
type Reporter interface {
	ReportStep(step string, status StepStatus, details map[string]string)
	ReportPercentage(step string, progress int)
}

// ConsoleReporter logs progress events; it is the default when no
// caller-supplied reporter exists.
type ConsoleReporter struct{}

func (ConsoleReporter) ReportStep(step string, status StepStatus, details map[string]string) {
	if len(details) > 0 {
		slog.Info("pipeline step",
			slog.String("step", step),
			slog.String("status", string(status)),
			slog.Any("details", details),
		)
		return
	}
	slog.Info("pipeline step",
		slog.String("step", step),
		slog.String("status", string(status)),
	)
}

func (ConsoleReporter) ReportPercentage(step string, progress int) {
	slog.Info("pipeline progress",
		slog.String("step", step),
		slog.Int("progress", progress),
	)
}

// FailureCollector wraps a Reporter and records the article codes of
// per-article FAILURE reports so a caller can aggregate which articles
// failed.
type FailureCollector struct {
	next Reporter

	mu     sync.Mutex
	seen   map[string]struct{}
	failed []string
}

// NewFailureCollector wraps next; a nil next drops forwarded events.
func NewFailureCollector(next Reporter) *FailureCollector {
	return &FailureCollector{
		next: next,
		seen: make(map[string]struct{}),
	}
}

func (fc *FailureCollector) ReportStep(step string, status StepStatus, details map[string]string) {
	if status == StatusFailure {
		if article := details["article"]; article != "" {
			fc.mu.Lock()
			if _, ok := fc.seen[article]; !ok {
				fc.seen[article] = struct{}{}
				fc.failed = append(fc.failed, article)
			}
			fc.mu.Unlock()
		}
	}
	if fc.next != nil {
		fc.next.ReportStep(step, status, details)
	}
}

func (fc *FailureCollector) ReportPercentage(step string, progress int) {
	if fc.next != nil {
		fc.next.ReportPercentage(step, progress)
	}
}

// FailedArticles returns the unique failed article codes in first-seen
// order.
func (fc *FailureCollector) FailedArticles() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]string, len(fc.failed))
	copy(out, fc.failed)
	return out
}
