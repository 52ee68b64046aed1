package metadata

import (
	"fmt"
	"net/http"
)

// ListingMetadata holds the Open Graph fields of a listing page. Each field is
// nil when the page does not expose it.
type ListingMetadata struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	URL         *string `json:"url"`
	SiteName    *string `json:"siteName"`
}

// MetadataErrorCode classifies a failed fetch
type MetadataErrorCode string

const (
	// ErrCodeBlocked covers explicit denials, captcha pages and rate limiting.
	ErrCodeBlocked MetadataErrorCode = "BLOCKED"
	// ErrCodeTimeout means the deadline fired; safe to retry.
	ErrCodeTimeout MetadataErrorCode = "TIMEOUT"
	// ErrCodeFetchFailed covers 404, 5xx, transport failures and everything else.
	ErrCodeFetchFailed MetadataErrorCode = "FETCH_FAILED"
)

// User-facing messages, shown verbatim in the import form.
const (
	msgForbidden      = "에어비앤비에서 접근을 차단했습니다. 잠시 후 다시 시도하거나 숙소 정보를 직접 입력해주세요."
	msgRateLimited    = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."
	msgNotFound       = "숙소를 찾을 수 없습니다. 삭제되었거나 비공개로 전환된 숙소일 수 있습니다."
	msgServerError    = "에어비앤비 서버에 일시적인 문제가 발생했습니다. 잠시 후 다시 시도해주세요."
	msgUnexpectedHTTP = "숙소 정보를 가져오지 못했습니다. (HTTP %d)"
	msgBlockedContent = "에어비앤비 보안 확인 페이지가 표시되어 정보를 가져올 수 없습니다. 숙소 정보를 직접 입력해주세요."
	msgTimeout        = "숙소 정보를 가져오는 데 시간이 너무 오래 걸립니다. 잠시 후 다시 시도해주세요."
	msgNetworkError   = "숙소 정보를 가져오는 중 네트워크 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
)

// MetadataError describes why a fetch failed. StatusCode is set only when the
// failure came from an HTTP status.
type MetadataError struct {
	Code       MetadataErrorCode `json:"code"`
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode,omitempty"`
}

func (e *MetadataError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MetadataResult is built fresh for every fetch and never reused
type MetadataResult struct {
	Success   bool             `json:"success"`
	ListingID string           `json:"listingId"`
	Metadata  *ListingMetadata `json:"metadata"`
	Error     *MetadataError   `json:"error,omitempty"`
}

func successResult(listingID string, meta *ListingMetadata) *MetadataResult {
	return &MetadataResult{Success: true, ListingID: listingID, Metadata: meta}
}

func failureResult(listingID string, err *MetadataError) *MetadataResult {
	return &MetadataResult{Success: false, ListingID: listingID, Error: err}
}

// ErrorFromStatus maps a non-2xx HTTP status to a MetadataError.
// 429 is reported as BLOCKED rather than as a retry signal.
func ErrorFromStatus(status int) *MetadataError {
	switch status {
	case http.StatusForbidden:
		return &MetadataError{Code: ErrCodeBlocked, Message: msgForbidden, StatusCode: status}
	case http.StatusTooManyRequests:
		return &MetadataError{Code: ErrCodeBlocked, Message: msgRateLimited, StatusCode: status}
	case http.StatusNotFound:
		return &MetadataError{Code: ErrCodeFetchFailed, Message: msgNotFound, StatusCode: status}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &MetadataError{Code: ErrCodeFetchFailed, Message: msgServerError, StatusCode: status}
	default:
		return &MetadataError{Code: ErrCodeFetchFailed, Message: fmt.Sprintf(msgUnexpectedHTTP, status), StatusCode: status}
	}
}

func blockedContentError() *MetadataError {
	return &MetadataError{Code: ErrCodeBlocked, Message: msgBlockedContent}
}

// TimeoutError is the failure reported when a deadline fires before a
// response arrives. Callers waiting on their own budgets reuse it.
func TimeoutError() *MetadataError {
	return &MetadataError{Code: ErrCodeTimeout, Message: msgTimeout}
}

func networkError() *MetadataError {
	return &MetadataError{Code: ErrCodeFetchFailed, Message: msgNetworkError}
}
