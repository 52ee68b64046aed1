package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"roomy-listing/pkg/airbnb"
	"roomy-listing/pkg/logger"
	"roomy-listing/pkg/metadata"
	"roomy-listing/pkg/metrics"
	"roomy-listing/pkg/storage"
)

const resultOK = "ok"

type listingService struct {
	fetcher   MetadataFetcher
	cache     storage.ResultCache
	limiter   *rate.Limiter
	log       *logger.Logger
	secureLog *logger.SecurityLogger
}

// NewListingService wires the parser, cache, limiter and fetcher together.
// A nil cache disables caching and a nil limiter disables rate limiting.
func NewListingService(fetcher MetadataFetcher, cache storage.ResultCache, limiter *rate.Limiter, log *logger.Logger) ListingService {
	if cache == nil {
		cache = storage.NoopResultCache{}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithComponent("listing_service")

	return &listingService{
		fetcher:   fetcher,
		cache:     cache,
		limiter:   limiter,
		log:       log,
		secureLog: logger.NewSecurityLogger(log),
	}
}

func (s *listingService) Parse(raw string) *ParseResponse {
	parsed, perr := s.parse(raw)
	if perr != nil {
		return &ParseResponse{Success: false, Error: perr}
	}
	return &ParseResponse{
		Success:     true,
		ListingID:   parsed.ListingID,
		OriginalURL: parsed.OriginalURL,
		CleanURL:    airbnb.CleanURL(parsed.OriginalURL),
	}
}

func (s *listingService) Lookup(ctx context.Context, raw string) *LookupResponse {
	parsed, perr := s.parse(raw)
	if perr != nil {
		return &LookupResponse{Success: false, Error: perr}
	}
	listingID := parsed.ListingID

	if cached, ok := s.cachedResult(ctx, listingID); ok {
		return lookupFromResult(cached, true)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.log.WithField("listing_id", listingID).WithError(err).Warn("Rate limiter wait aborted")
		metrics.RecordFetch(string(metadata.ErrCodeTimeout), 0)
		return lookupFromResult(&metadata.MetadataResult{
			ListingID: listingID,
			Error:     metadata.TimeoutError(),
		}, false)
	}

	target := airbnb.CleanURL(parsed.OriginalURL)
	start := time.Now()
	result := s.fetcher.FetchListingMetadata(ctx, target, listingID)
	elapsed := time.Since(start).Seconds()

	if !result.Success {
		code := metadata.ErrCodeFetchFailed
		if result.Error != nil {
			code = result.Error.Code
		}
		metrics.RecordFetch(string(code), elapsed)
		s.secureLog.WarnWithURL("Listing metadata fetch failed", target, map[string]interface{}{
			"listing_id": listingID,
			"code":       string(code),
		})
		return lookupFromResult(result, false)
	}

	metrics.RecordFetch(resultOK, elapsed)
	if err := s.cache.Set(ctx, listingID, result); err != nil {
		metrics.RecordCacheError()
		s.log.WithField("listing_id", listingID).WithError(err).Warn("Failed to cache listing metadata")
	}

	return lookupFromResult(result, false)
}

func (s *listingService) parse(raw string) (*airbnb.ParsedListing, *ErrorBody) {
	parsed, err := airbnb.ParseURL(raw)
	if err != nil {
		var perr *airbnb.ParseError
		if !errors.As(err, &perr) {
			perr = &airbnb.ParseError{Code: airbnb.ErrCodeInvalidURL, Message: err.Error()}
		}
		metrics.RecordParse(string(perr.Code))
		return nil, &ErrorBody{Code: string(perr.Code), Message: perr.Message}
	}
	metrics.RecordParse(resultOK)
	return parsed, nil
}

// cachedResult treats backend failures as misses
func (s *listingService) cachedResult(ctx context.Context, listingID string) (*metadata.MetadataResult, bool) {
	result, ok, err := s.cache.Get(ctx, listingID)
	switch {
	case err != nil:
		metrics.RecordCacheError()
		s.log.WithField("listing_id", listingID).WithError(err).Warn("Result cache lookup failed")
		return nil, false
	case !ok || result == nil || !result.Success:
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	return result, true
}

func lookupFromResult(result *metadata.MetadataResult, cached bool) *LookupResponse {
	resp := &LookupResponse{
		Success:   result.Success,
		ListingID: result.ListingID,
		Metadata:  result.Metadata,
		Valid:     metadata.IsValidMetadata(result.Metadata),
		Cached:    cached,
	}
	if result.Error != nil {
		resp.Error = &ErrorBody{
			Code:       string(result.Error.Code),
			Message:    result.Error.Message,
			StatusCode: result.Error.StatusCode,
		}
	}
	return resp
}
