package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/metrics"
	"github.com/policy-whisperer/backend/pkg/logger"
	"github.com/policy-whisperer/backend/pkg/utils"
)

// Minimum usable length after tag stripping; shorter results mean the page
// had no real text content.
const minContentLength = 10

var (
	ErrEmptyInput          = errors.New("input text is empty")
	ErrContentTooShort     = errors.New("extracted content is too short")
	ErrUnsupportedFileType = errors.New("unsupported file type, only plain text and markdown are accepted")
)

// FetchError reports a non-2xx status from the target URL.
type FetchError struct {
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch URL: %s", e.Status)
}

// URLCache is the advisory content cache consulted before fetching.
type URLCache interface {
	GetURLContent(ctx context.Context, urlHash string) (string, bool, error)
	SetURLContent(ctx context.Context, urlHash, content string, ttl time.Duration) error
}

type Acquirer struct {
	httpClient *http.Client
	cache      URLCache
	cacheTTL   time.Duration
	maxSize    int64
}

func NewAcquirer(fetchTimeoutSec, maxDocumentSize int) *Acquirer {
	if fetchTimeoutSec <= 0 {
		fetchTimeoutSec = 15
	}
	if maxDocumentSize <= 0 {
		maxDocumentSize = 5 * 1024 * 1024
	}

	return &Acquirer{
		httpClient: &http.Client{
			Timeout: time.Duration(fetchTimeoutSec) * time.Second,
		},
		maxSize: int64(maxDocumentSize),
	}
}

// WithCache enables the URL content cache.
func (a *Acquirer) WithCache(cache URLCache, ttl time.Duration) *Acquirer {
	a.cache = cache
	a.cacheTTL = ttl
	return a
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// FromURL downloads the page, strips markup when it is HTML, and returns
// ASCII-safe plain text.
func (a *Acquirer) FromURL(ctx context.Context, urlStr string) (string, error) {
	if a.cache != nil {
		cached, ok, err := a.cache.GetURLContent(ctx, utils.HashString(urlStr))
		if err != nil {
			logger.Warn("URL cache lookup failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	logger.Info("Fetching URL content", zap.String("url", urlStr))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		metrics.URLFetches.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.URLFetches.WithLabelValues("error").Inc()
		return "", &FetchError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxSize))
	if err != nil {
		metrics.URLFetches.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	metrics.URLFetches.WithLabelValues("ok").Inc()

	contentType := resp.Header.Get("Content-Type")

	var text string
	if strings.Contains(contentType, "text/html") {
		text = extractTextFromHTML(string(body))
	} else {
		text = strings.TrimSpace(string(body))
	}

	if len(text) < minContentLength {
		return "", ErrContentTooShort
	}

	sanitized := Sanitize(text)

	if a.cache != nil {
		if err := a.cache.SetURLContent(ctx, utils.HashString(urlStr), sanitized, a.cacheTTL); err != nil {
			logger.Warn("Failed to cache URL content", zap.Error(err))
		}
	}

	return sanitized, nil
}

// FromFile accepts only text-like files. Binary formats were never reliably
// supported upstream and are rejected outright.
func (a *Acquirer) FromFile(filename, contentType string, data []byte) (string, error) {
	if !isTextLike(filename, contentType) {
		return "", ErrUnsupportedFileType
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrEmptyInput
	}

	return Sanitize(text), nil
}

// FromText passes pasted text through unchanged apart from sanitization.
func (a *Acquirer) FromText(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}

	return Sanitize(text), nil
}

func extractTextFromHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	text = whitespacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// ExtractHTMLTitle picks the page title for URL-sourced documents.
func ExtractHTMLTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	title := doc.Find("title").First().Text()
	if title == "" {
		title = doc.Find("h1").First().Text()
	}

	return strings.TrimSpace(title)
}

func isTextLike(filename, contentType string) bool {
	if strings.HasPrefix(contentType, "text/") {
		return true
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown":
		return true
	}

	return false
}
