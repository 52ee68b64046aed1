package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
)

// Request headers sent with every listing fetch.
const (
	headerUserAgent      = "Mozilla/5.0 (compatible; RoomyBot/1.0; +https://roomy.app)"
	headerAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	headerAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
	headerCacheControl   = "no-cache"
)

var errTooManyRedirects = errors.New("too many redirects")

// ClientConfig tunes the fasthttp client behind the fetcher
type ClientConfig struct {
	MaxRedirects   int
	MaxBodyBytes   int
	ReadBufferSize int

	// Dial overrides the dialer, for tests
	Dial fasthttp.DialFunc
}

// HTTPClient issues a single logical GET, following redirects itself so the
// whole chain shares one deadline
type HTTPClient struct {
	client       *fasthttp.Client
	maxRedirects int
}

// Response is a copy of what the final hop returned
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	FinalURL    string
	Redirects   int
}

// NewHTTPClient creates the shared client for listing fetches
func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	if cfg.MaxRedirects < 0 {
		cfg.MaxRedirects = 0
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 << 20
	}
	if cfg.ReadBufferSize <= 0 {
		// Airbnb sends large CSP and cookie headers
		cfg.ReadBufferSize = 64 << 10
	}

	return &HTTPClient{
		client: &fasthttp.Client{
			Name:                     headerUserAgent,
			MaxResponseBodySize:      cfg.MaxBodyBytes,
			ReadBufferSize:           cfg.ReadBufferSize,
			Dial:                     cfg.Dial,
			NoDefaultUserAgentHeader: true,

			// one attempt per hop, no transparent retries
			MaxIdemponentCallAttempts: 1,
		},
		maxRedirects: cfg.MaxRedirects,
	}
}

// Get fetches targetURL. A 3xx without a Location header is returned as-is so
// the caller can classify it by status. Cancelling ctx abandons the hop in
// flight and returns ctx.Err().
func (h *HTTPClient) Get(ctx context.Context, targetURL string, deadline time.Time) (*Response, error) {
	current := targetURL
	for hop := 0; ; hop++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := h.doHop(ctx, current, deadline)
		if err != nil {
			return nil, err
		}

		if !fasthttp.StatusCodeIsRedirect(res.StatusCode) || res.location == "" {
			res.FinalURL = current
			res.Redirects = hop
			return &res.Response, nil
		}

		if hop >= h.maxRedirects {
			return nil, fmt.Errorf("%w after %d hops", errTooManyRedirects, hop)
		}

		next, err := resolveLocation(current, res.location)
		if err != nil {
			return nil, fmt.Errorf("invalid redirect location: %w", err)
		}
		current = next
	}
}

type hopResult struct {
	Response
	location string
}

// doHop runs one request in its own goroutine so ctx can abandon it. The
// goroutine owns req and resp and releases them once fasthttp returns.
func (h *HTTPClient) doHop(ctx context.Context, target string, deadline time.Time) (*hopResult, error) {
	type outcome struct {
		res *hopResult
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(target)
		req.Header.SetMethod(fasthttp.MethodGet)
		setRequestHeaders(req)

		if err := h.client.DoDeadline(req, resp, deadline); err != nil {
			done <- outcome{err: fmt.Errorf("request failed: %w", err)}
			return
		}
		res, err := copyResponse(resp)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func setRequestHeaders(req *fasthttp.Request) {
	req.Header.SetUserAgent(headerUserAgent)
	req.Header.Set(fasthttp.HeaderAccept, headerAccept)
	req.Header.Set(fasthttp.HeaderAcceptLanguage, headerAcceptLanguage)
	req.Header.Set(fasthttp.HeaderCacheControl, headerCacheControl)
}

func copyResponse(resp *fasthttp.Response) (*hopResult, error) {
	res := &hopResult{
		Response: Response{
			StatusCode:  resp.StatusCode(),
			ContentType: string(resp.Header.ContentType()),
		},
		location: string(resp.Header.Peek(fasthttp.HeaderLocation)),
	}
	if fasthttp.StatusCodeIsRedirect(res.StatusCode) && res.location != "" {
		return res, nil
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	res.Body = append([]byte(nil), body...)
	return res, nil
}

func resolveLocation(base, location string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}
