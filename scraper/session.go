// Package scraper performs proxied HTTP retrieval against stparts.ru.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/pricelens/stparts-scraper/config"
	"github.com/pricelens/stparts-scraper/models"
)

const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9"

// Session binds one colly collector to a single upstream proxy and
// performs fetches with retry/backoff. A session serializes its
// requests; concurrency comes from rotating over many sessions.
type Session struct {
	proxy     models.Proxy
	collector *colly.Collector
	transport *http.Transport
	metrics   *Metrics

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleep       func(context.Context, time.Duration) error

	mu sync.Mutex
	// capture slots written by collector callbacks; valid only while
	// mu is held across one Visit
	body        []byte
	statusCode  int
	retryAfter  string
	gotResponse bool
}

// NewSession builds a session whose transport routes through the given
// proxy, with browser-equivalent headers and the two seed cookies the
// target site reads as "returning visitor".
func NewSession(proxy models.Proxy, cfg *config.Config, metrics *Metrics) (*Session, error) {
	proxyURL, err := url.Parse(proxy.URL())
	if err != nil {
		return nil, fmt.Errorf("parse proxy url for %s: %w", proxy.Key(), err)
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	collector.SetRequestTimeout(cfg.RequestTimeout)

	transport := &http.Transport{
		Proxy: http.ProxyURL(proxyURL),
		DialContext: (&net.Dialer{
			Timeout:   20 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	collector.WithTransport(transport)

	if err := collector.SetCookies(cfg.BaseURL, []*http.Cookie{
		{Name: "visited", Value: "1"},
		{Name: "visited_locale", Value: "1"},
	}); err != nil {
		return nil, fmt.Errorf("seed cookies: %w", err)
	}

	s := &Session{
		proxy:       proxy,
		collector:   collector,
		transport:   transport,
		metrics:     metrics,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.RetryBaseDelay,
		maxDelay:    cfg.RetryMaxDelay,
		sleep:       sleepContext,
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9,ru;q=0.8")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		r.Ctx.Put("start", time.Now())
		s.metrics.IncRequest("started")
	})
	collector.OnResponse(func(r *colly.Response) {
		s.body = append(s.body[:0], r.Body...)
		s.statusCode = r.StatusCode
		s.gotResponse = true
		if start, ok := r.Ctx.GetAny("start").(time.Time); ok {
			s.metrics.ObserveDuration(time.Since(start))
		}
	})
	collector.OnError(func(r *colly.Response, _ error) {
		if r == nil {
			return
		}
		s.statusCode = r.StatusCode
		if r.Headers != nil {
			s.retryAfter = r.Headers.Get("Retry-After")
		}
	})

	return s, nil
}

// Proxy returns the proxy this session is bound to.
func (s *Session) Proxy() models.Proxy {
	return s.proxy
}

// FetchHTML performs a GET and returns the response body. Rate-limit
// (429) and temporarily-unavailable (503) statuses are retried with
// exponential backoff and jitter; 429 additionally honors Retry-After
// as a floor. Any other HTTP error fails immediately. Network errors
// are retried within the same attempt budget.
func (s *Session) FetchHTML(ctx context.Context, rawURL string, params url.Values) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		s.resetCapture()

		err := s.collector.Visit(target)
		if err == nil && s.gotResponse {
			return string(s.body), nil
		}
		if err == nil {
			err = fmt.Errorf("no response received for %s", target)
		}
		lastErr = err

		switch {
		case s.statusCode == http.StatusTooManyRequests || s.statusCode == http.StatusServiceUnavailable:
			delay := s.backoff(attempt)
			if s.statusCode == http.StatusTooManyRequests {
				if floor := parseRetryAfter(s.retryAfter); floor > delay {
					delay = floor
				}
			}
			slog.Warn("transient status, backing off",
				slog.String("url", target),
				slog.String("proxy", s.proxy.Key()),
				slog.Int("status", s.statusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
			)
			s.metrics.IncRetries()
			if err := s.sleep(ctx, delay); err != nil {
				return "", err
			}
		case s.statusCode >= http.StatusBadRequest:
			s.metrics.IncError("http_status")
			slog.Error("unrecoverable status",
				slog.String("url", target),
				slog.Int("status", s.statusCode),
			)
			return "", &StatusError{URL: target, StatusCode: s.statusCode}
		default:
			s.metrics.IncError("network")
			slog.Error("request failed",
				slog.String("url", target),
				slog.String("proxy", s.proxy.Key()),
				slog.Any("error", err),
			)
			if attempt >= s.maxAttempts-1 {
				return "", fmt.Errorf("fetch %s: %w", target, err)
			}
			s.metrics.IncRetries()
			if err := s.sleep(ctx, s.backoff(attempt)); err != nil {
				return "", err
			}
		}
	}

	return "", &ExhaustedError{URL: target, Attempts: s.maxAttempts, Err: lastErr}
}

func (s *Session) resetCapture() {
	s.body = s.body[:0]
	s.statusCode = 0
	s.retryAfter = ""
	s.gotResponse = false
}

// backoff doubles the base delay each attempt, adds jitter in [0,1)
// seconds, and caps the result at the configured maximum.
func (s *Session) backoff(attempt int) time.Duration {
	delay := s.baseDelay*time.Duration(1<<attempt) + time.Duration(rand.Float64()*float64(time.Second))
	if delay > s.maxDelay {
		delay = s.maxDelay
	}
	return delay
}

func (s *Session) close() {
	if s.transport != nil {
		s.transport.CloseIdleConnections()
	}
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
