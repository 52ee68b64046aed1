// Package airbnb recognises Airbnb listing URLs and extracts listing identifiers.
// Nothing in this package performs network access.
package airbnb

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// DefaultLocale is used by BuildURL when no locale is given
const DefaultLocale = "ko-KR"

// ParsedListing is the successful outcome of ParseURL
type ParsedListing struct {
	ListingID   string `json:"listingId"`
	OriginalURL string `json:"originalUrl"`
	IsValid     bool   `json:"isValid"`
}

// Tried in order, first match wins. The first capture group is the listing
// id; canonical room paths must stay ahead of short-link tokens.
var listingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)airbnb\.[a-z.]+/rooms/(\d+)`),
	regexp.MustCompile(`(?i)airbnb\.[a-z.]+/h/homes/(\d+)`),
	regexp.MustCompile(`(?i)abnb\.me/([a-zA-Z0-9]+)`),
}

var listingIDPattern = regexp.MustCompile(`^\d{6,15}$`)

var localeDomains = map[string]string{
	"ko-KR": "airbnb.co.kr",
	"ja-JP": "airbnb.co.jp",
	"zh-CN": "airbnb.cn",
	"en-US": "airbnb.com",
	"en-GB": "airbnb.co.uk",
}

// parseAbsoluteURL accepts only strings with a scheme and an authority or
// opaque part, mirroring what a browser URL constructor accepts.
func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("missing scheme")
	}
	if u.Host == "" && u.Opaque == "" {
		return nil, fmt.Errorf("missing host")
	}
	return u, nil
}

// IsAirbnbURL reports whether raw parses as a URL whose host looks like an
// Airbnb domain. The check is a substring match on "airbnb.", so hosts such
// as "airbnb.example.com" are also accepted.
func IsAirbnbURL(raw string) bool {
	u, err := parseAbsoluteURL(strings.TrimSpace(raw))
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	return strings.Contains(host, "airbnb.") || host == "abnb.me" || host == "www.abnb.me"
}

// ParseURL validates raw and extracts the listing id. The returned error, when
// non-nil, is always a *ParseError.
func ParseURL(raw string) (*ParsedListing, error) {
	if raw == "" {
		return nil, NewParseError(ErrCodeInvalidURL)
	}

	trimmed := strings.TrimSpace(raw)
	if _, err := parseAbsoluteURL(trimmed); err != nil {
		return nil, NewParseError(ErrCodeInvalidURL)
	}

	if !IsAirbnbURL(trimmed) {
		return nil, NewParseError(ErrCodeNotAirbnbURL)
	}

	for _, re := range listingPatterns {
		if m := re.FindStringSubmatch(trimmed); len(m) > 1 && m[1] != "" {
			return &ParsedListing{
				ListingID:   m[1],
				OriginalURL: trimmed,
				IsValid:     true,
			}, nil
		}
	}

	return nil, NewParseError(ErrCodeNoListingID)
}

// BuildURL formats the canonical room URL for listingID on the locale's
// regional domain. Unknown locales fall back to airbnb.com. listingID is
// not validated.
func BuildURL(listingID, locale string) string {
	if locale == "" {
		locale = DefaultLocale
	}
	domain, ok := localeDomains[locale]
	if !ok {
		domain = "airbnb.com"
	}
	return fmt.Sprintf("https://www.%s/rooms/%s", domain, listingID)
}

// CleanURL drops the query string and fragment. Unparseable input is
// returned unchanged.
func CleanURL(raw string) string {
	u, err := parseAbsoluteURL(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	scheme := strings.ToLower(u.Scheme)
	return fmt.Sprintf("%s://%s%s", scheme, originHost(scheme, u), path)
}

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// originHost lowercases the host and drops the port when it is the scheme default
func originHost(scheme string, u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || port == defaultPorts[scheme] {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// IsValidListingID reports whether id is a numeric room id of 6 to 15 digits.
// Short-link tokens returned by ParseURL do not pass this check.
func IsValidListingID(id string) bool {
	return listingIDPattern.MatchString(id)
}
