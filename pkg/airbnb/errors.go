package airbnb

import "fmt"

// ParseErrorCode identifies why a URL could not be parsed as a listing
type ParseErrorCode string

const (
	ErrCodeInvalidURL   ParseErrorCode = "INVALID_URL"
	ErrCodeNotAirbnbURL ParseErrorCode = "NOT_AIRBNB_URL"
	ErrCodeNoListingID  ParseErrorCode = "NO_LISTING_ID"
)

// User-facing messages, shown verbatim in the import form.
const (
	msgInvalidURL   = "올바른 URL 형식이 아닙니다. URL을 다시 확인해주세요."
	msgNotAirbnbURL = "에어비앤비 숙소 URL만 지원합니다. airbnb.co.kr 또는 airbnb.com 링크를 입력해주세요."
	msgNoListingID  = "URL에서 숙소 ID를 찾을 수 없습니다. 숙소 상세 페이지의 URL을 입력해주세요."
)

// ParseError is returned by ParseURL for every rejected input
type ParseError struct {
	Code    ParseErrorCode `json:"code"`
	Message string         `json:"message"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewParseError returns the ParseError for code with its user-facing message
func NewParseError(code ParseErrorCode) *ParseError {
	var msg string
	switch code {
	case ErrCodeInvalidURL:
		msg = msgInvalidURL
	case ErrCodeNotAirbnbURL:
		msg = msgNotAirbnbURL
	case ErrCodeNoListingID:
		msg = msgNoListingID
	}
	return &ParseError{Code: code, Message: msg}
}
