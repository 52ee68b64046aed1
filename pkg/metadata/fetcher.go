package metadata

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/valyala/fasthttp"

	"roomy-listing/pkg/logger"
)

const (
	// DefaultTimeout is the wall-clock budget for one fetch, redirects included
	DefaultTimeout = 10 * time.Second
	// DefaultMaxRedirects caps the redirect chain of one fetch
	DefaultMaxRedirects = 5

	blockScanChars = 5000
)

// Matched case-insensitively against the first blockScanChars characters.
var blockIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)captcha`),
	regexp.MustCompile(`(?i)robot`),
	regexp.MustCompile(`(?i)blocked`),
	regexp.MustCompile(`(?i)access denied`),
	regexp.MustCompile(`(?i)please verify`),
	regexp.MustCompile(`(?i)unusual traffic`),
}

// Options configures a Fetcher. Zero values fall back to the defaults; a
// negative MaxRedirects disables redirect following.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int
	Dial         fasthttp.DialFunc
	Logger       *logger.Logger
}

// Fetcher retrieves public Open Graph metadata for a listing page. It holds no
// per-request state and is safe for concurrent use. Every call makes at most
// one logical request and never retries.
type Fetcher struct {
	client    *HTTPClient
	timeout   time.Duration
	secureLog *logger.SecurityLogger
}

// NewFetcher creates a fetcher
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	return &Fetcher{
		client: NewHTTPClient(ClientConfig{
			MaxRedirects: opts.MaxRedirects,
			MaxBodyBytes: opts.MaxBodyBytes,
			Dial:         opts.Dial,
		}),
		timeout:   opts.Timeout,
		secureLog: logger.NewSecurityLogger(opts.Logger.WithComponent("metadata_fetcher")),
	}
}

// FetchListingMetadata downloads targetURL and extracts its OG tags. Failures
// are reported in the result, never as a panic or a separate error. The fetch
// is bounded by the fetcher timeout or the context deadline, whichever is
// earlier.
func (f *Fetcher) FetchListingMetadata(ctx context.Context, targetURL, listingID string) *MetadataResult {
	start := time.Now()
	deadline := start.Add(f.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if ctx.Err() != nil {
		return failureResult(listingID, TimeoutError())
	}

	resp, err := f.client.Get(ctx, targetURL, deadline)
	if err != nil {
		metaErr := classifyTransportError(err)
		f.secureLog.WarnWithURL("Listing fetch failed", targetURL, map[string]interface{}{
			"listing_id": listingID,
			"code":       string(metaErr.Code),
			"error":      f.secureLog.MaskLogMessage(err.Error()),
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return failureResult(listingID, metaErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metaErr := ErrorFromStatus(resp.StatusCode)
		f.secureLog.WarnWithURL("Listing fetch returned error status", targetURL, map[string]interface{}{
			"listing_id":  listingID,
			"status_code": resp.StatusCode,
			"code":        string(metaErr.Code),
		})
		return failureResult(listingID, metaErr)
	}

	html := decodeBody(resp.Body, resp.ContentType)
	if isBlockedContent(html) {
		f.secureLog.WarnWithURL("Listing page looks like a bot check", targetURL, map[string]interface{}{
			"listing_id": listingID,
		})
		return failureResult(listingID, blockedContentError())
	}

	meta := ParseOGTags(html)
	f.secureLog.DebugWithURL("Listing metadata extracted", targetURL, map[string]interface{}{
		"listing_id": listingID,
		"has_title":  meta.Title != nil,
		"has_image":  meta.ImageURL != nil,
		"redirects":  resp.Redirects,
		"final_url":  f.secureLog.MaskURL(resp.FinalURL),
		"bytes":      len(resp.Body),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return successResult(listingID, meta)
}

// classifyTransportError separates deadline expiry from every other failure
func classifyTransportError(err error) *MetadataError {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, fasthttp.ErrTimeout) ||
		errors.Is(err, fasthttp.ErrDialTimeout) {
		return TimeoutError()
	}

	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return TimeoutError()
	}

	return networkError()
}

// isBlockedContent scans the start of the page for captcha and bot-wall markers
func isBlockedContent(html string) bool {
	head := firstChars(html, blockScanChars)
	for _, re := range blockIndicators {
		if re.MatchString(head) {
			return true
		}
	}
	return false
}

func firstChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
