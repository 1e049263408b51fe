package scraper

import "fmt"

// StatusError indicates an unrecoverable HTTP status. These are
// content/policy conditions and are never retried.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unrecoverable status %d", e.URL, e.StatusCode)
}

// ExhaustedError indicates that every retry attempt for a URL failed.
type ExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts to fetch %s failed: %v", e.Attempts, e.URL, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
