package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

// PortalScraper authenticates against the student portal using a
// caller-supplied session cookie and forwards grades/schedule lookups
// to its JSON endpoints. It implements interfaces.PortalScraper.
type PortalScraper struct {
	baseURL      string
	gradesPath   string
	schedulePath string
	timeout      time.Duration
	retry        *RetryPolicy
	logger       arbor.ILogger
}

var _ interfaces.PortalScraper = (*PortalScraper)(nil)

// NewPortalScraper builds a scraper against the given base URL.
func NewPortalScraper(baseURL, gradesPath, schedulePath string, timeout time.Duration, logger arbor.ILogger) *PortalScraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PortalScraper{
		baseURL:      strings.TrimRight(baseURL, "/"),
		gradesPath:   gradesPath,
		schedulePath: schedulePath,
		timeout:      timeout,
		retry:        NewRetryPolicy(),
		logger:       logger,
	}
}

// GetGrades fetches the grades payload for the session identified by cookie.
func (s *PortalScraper) GetGrades(ctx context.Context, cookie string) (*interfaces.Grades, error) {
	var body []byte
	if err := s.getJSON(ctx, s.gradesPath, cookie, &body); err != nil {
		return nil, err
	}

	var grades interfaces.Grades
	if err := json.Unmarshal(body, &grades); err != nil {
		return nil, fmt.Errorf("decode grades response: %w", err)
	}
	return &grades, nil
}

// GetSchedule fetches the schedule payload for the session identified by cookie.
func (s *PortalScraper) GetSchedule(ctx context.Context, cookie string) (*interfaces.Schedule, error) {
	var body []byte
	if err := s.getJSON(ctx, s.schedulePath, cookie, &body); err != nil {
		return nil, err
	}

	var schedule interfaces.Schedule
	if err := json.Unmarshal(body, &schedule); err != nil {
		return nil, fmt.Errorf("decode schedule response: %w", err)
	}
	return &schedule, nil
}

// getJSON performs an authenticated GET, retrying transient failures, and
// leaves the raw response body in *out.
func (s *PortalScraper) getJSON(ctx context.Context, path, cookie string, out *[]byte) error {
	client, err := s.sessionClient(cookie)
	if err != nil {
		return err
	}

	reqURL := s.baseURL + path
	_, err = s.retry.ExecuteWithRetry(ctx, s.logger, func() (int, error) {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return resp.StatusCode, readErr
		}
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, fmt.Errorf("portal returned %s", resp.Status)
		}

		*out = body
		return resp.StatusCode, nil
	})
	return err
}

// sessionClient builds a cookie-jar client with the session cookie scoped
// to the portal's domain, following the working domain-grouped approach
// rather than setting cookies on the bare base URL.
func (s *PortalScraper) sessionClient(cookie string) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse portal base url: %w", err)
	}

	jar.SetCookies(base, []*http.Cookie{
		{
			Name:   "session",
			Value:  cookie,
			Path:   "/",
			Domain: base.Hostname(),
			Secure: base.Scheme == "https",
		},
	})

	return &http.Client{Jar: jar, Timeout: s.timeout}, nil
}
