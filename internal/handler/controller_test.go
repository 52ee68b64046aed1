package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomy-listing/internal/service"
	"roomy-listing/pkg/logger"
	"roomy-listing/pkg/metadata"
)

type stubFetcher struct {
	errs map[string]*metadata.MetadataError
}

func (s stubFetcher) FetchListingMetadata(_ context.Context, _ string, listingID string) *metadata.MetadataResult {
	if e, ok := s.errs[listingID]; ok {
		return &metadata.MetadataResult{ListingID: listingID, Error: e}
	}
	title := "Hanok stay in Bukchon"
	return &metadata.MetadataResult{
		Success:   true,
		ListingID: listingID,
		Metadata:  &metadata.ListingMetadata{Title: &title},
	}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	fetcher := stubFetcher{errs: map[string]*metadata.MetadataError{
		"403403": metadata.ErrorFromStatus(403),
		"404404": metadata.ErrorFromStatus(404),
		"999999": metadata.TimeoutError(),
	}}
	svc := service.NewListingService(fetcher, nil, nil, logger.Nop())
	return NewApp(ControllerConfig{Listings: svc, Logger: logger.Nop(), EnableMetrics: true})
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	e, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "missing error object: %v", body)
	return e["code"].(string)
}

func TestHealth(t *testing.T) {
	status, body := doJSON(t, newTestApp(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ServiceName, body["service"])
}

func TestRequestIDHeader(t *testing.T) {
	resp, err := newTestApp(t).Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}

func TestParseEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/api/airbnb/parse",
		`{"url":"https://www.airbnb.co.kr/rooms/12345678?adults=2"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "12345678", body["listingId"])
	assert.Equal(t, "https://www.airbnb.co.kr/rooms/12345678", body["cleanUrl"])

	status, body = doJSON(t, app, http.MethodPost, "/api/airbnb/parse", `{"url":"https://booking.com/x"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NOT_AIRBNB_URL", errorCode(t, body))
}

func TestParseEndpoint_MalformedBody(t *testing.T) {
	status, body := doJSON(t, newTestApp(t), http.MethodPost, "/api/airbnb/parse", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_URL", errorCode(t, body))
}

func TestMetadataEndpoint(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		url    string
		status int
		code   string
	}{
		{"success", "https://www.airbnb.com/rooms/12345678", http.StatusOK, ""},
		{"parse error", "https://www.airbnb.com/s/Seoul", http.StatusBadRequest, "NO_LISTING_ID"},
		{"blocked", "https://www.airbnb.com/rooms/403403", http.StatusBadGateway, "BLOCKED"},
		{"not found", "https://www.airbnb.com/rooms/404404", http.StatusBadGateway, "FETCH_FAILED"},
		{"timeout", "https://www.airbnb.com/rooms/999999", http.StatusGatewayTimeout, "TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, http.MethodPost, "/api/airbnb/metadata", `{"url":"`+tt.url+`"}`)
			assert.Equal(t, tt.status, status)
			if tt.code == "" {
				assert.Equal(t, true, body["success"])
				assert.Equal(t, true, body["valid"])
				meta := body["metadata"].(map[string]interface{})
				assert.Equal(t, "Hanok stay in Bukchon", meta["title"])
				assert.Contains(t, meta, "description")
				assert.Nil(t, meta["description"])
				return
			}
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}
}

func TestBuildEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/api/airbnb/build?listingId=12345678", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "https://www.airbnb.co.kr/rooms/12345678", body["url"])

	status, body = doJSON(t, app, http.MethodGet, "/api/airbnb/build?listingId=12345678&locale=ja-JP", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "https://www.airbnb.co.jp/rooms/12345678", body["url"])

	status, body = doJSON(t, app, http.MethodGet, "/api/airbnb/build", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NO_LISTING_ID", errorCode(t, body))
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	doJSON(t, app, http.MethodPost, "/api/airbnb/parse", `{"url":"https://www.airbnb.com/rooms/12345678"}`)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "roomy_listing_parse_total")
}

func TestUnknownRoute(t *testing.T) {
	status, body := doJSON(t, newTestApp(t), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}
