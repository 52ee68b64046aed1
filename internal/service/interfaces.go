package service

import (
	"context"

	"roomy-listing/pkg/metadata"
)

// MetadataFetcher downloads listing metadata. *metadata.Fetcher satisfies it.
type MetadataFetcher interface {
	FetchListingMetadata(ctx context.Context, targetURL, listingID string) *metadata.MetadataResult
}

// ListingService backs the listing import form.
type ListingService interface {
	Parse(raw string) *ParseResponse
	Lookup(ctx context.Context, raw string) *LookupResponse
}

// ErrorBody is the error shape returned to clients. Code is a parse error
// code or a metadata error code.
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
}

type ParseResponse struct {
	Success     bool       `json:"success"`
	ListingID   string     `json:"listingId,omitempty"`
	OriginalURL string     `json:"originalUrl,omitempty"`
	CleanURL    string     `json:"cleanUrl,omitempty"`
	Error       *ErrorBody `json:"error,omitempty"`
}

type LookupResponse struct {
	Success   bool                      `json:"success"`
	ListingID string                    `json:"listingId,omitempty"`
	Metadata  *metadata.ListingMetadata `json:"metadata"`
	Valid     bool                      `json:"valid"`
	Cached    bool                      `json:"cached"`
	Error     *ErrorBody                `json:"error,omitempty"`
}
