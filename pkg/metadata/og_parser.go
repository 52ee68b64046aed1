// Package metadata fetches a listing page and extracts its Open Graph tags.
package metadata

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// metaPatterns matches <meta property|name="<prop>" content="..."> in both
// attribute orders. Single- and double-quoted values land in groups 1 and 2.
func metaPatterns(property string) []*regexp.Regexp {
	prop := regexp.QuoteMeta(property)
	content := `content\s*=\s*(?:"([^"]*)"|'([^']*)')`
	key := `(?:property|name)\s*=\s*["']` + prop + `["']`

	return []*regexp.Regexp{
		regexp.MustCompile(`(?is)<meta\s(?:[^>]*?\s)?` + key + `[^>]*?\s` + content),
		regexp.MustCompile(`(?is)<meta\s(?:[^>]*?\s)?` + content + `[^>]*?\s` + key),
	}
}

var (
	titlePatterns = append(metaPatterns("og:title"),
		regexp.MustCompile(`(?is)<title[^>]*>([^<]+)</title>`))
	descriptionPatterns = metaPatterns("og:description")
	imagePatterns       = metaPatterns("og:image")
	urlPatterns         = metaPatterns("og:url")
	siteNamePatterns    = metaPatterns("og:site_name")
)

// Applied in order. &amp; goes first, so "&amp;lt;" decodes all the way to "<".
var namedEntities = []struct {
	entity string
	char   string
}{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&apos;", "'"},
	{"&#x27;", "'"},
	{"&#x2F;", "/"},
	{"&#47;", "/"},
	{"&nbsp;", " "},
}

var (
	decimalEntity = regexp.MustCompile(`&#(\d+);`)
	hexEntity     = regexp.MustCompile(`&#[xX]([0-9a-fA-F]+);`)
)

// ParseOGTags extracts the Open Graph fields from raw HTML. Each field is
// resolved independently; a missing tag leaves only that field nil.
func ParseOGTags(html string) *ListingMetadata {
	return &ListingMetadata{
		Title:       extractFirst(html, titlePatterns),
		Description: extractFirst(html, descriptionPatterns),
		ImageURL:    extractFirst(html, imagePatterns),
		URL:         extractFirst(html, urlPatterns),
		SiteName:    extractFirst(html, siteNamePatterns),
	}
}

// extractFirst returns the first non-blank capture of the first matching
// pattern, trimmed and entity-decoded.
func extractFirst(html string, patterns []*regexp.Regexp) *string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		for _, group := range m[1:] {
			if value := strings.TrimSpace(group); value != "" {
				decoded := DecodeHTMLEntities(value)
				return &decoded
			}
		}
	}
	return nil
}

// DecodeHTMLEntities replaces the common named entities, then decimal and
// hexadecimal numeric references. Numeric references outside the Unicode
// range are left untouched.
func DecodeHTMLEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	for _, e := range namedEntities {
		s = strings.ReplaceAll(s, e.entity, e.char)
	}

	s = decimalEntity.ReplaceAllStringFunc(s, func(match string) string {
		return decodeCodePoint(match, decimalEntity, 10)
	})
	return hexEntity.ReplaceAllStringFunc(s, func(match string) string {
		return decodeCodePoint(match, hexEntity, 16)
	})
}

func decodeCodePoint(match string, re *regexp.Regexp, base int) string {
	m := re.FindStringSubmatch(match)
	if len(m) < 2 {
		return match
	}
	n, err := strconv.ParseInt(m[1], base, 32)
	if err != nil || n > utf8.MaxRune {
		return match
	}
	return string(rune(n))
}

// IsValidMetadata reports whether meta has a non-blank title, the minimum
// needed to show the import preview.
func IsValidMetadata(meta *ListingMetadata) bool {
	return meta != nil && meta.Title != nil && strings.TrimSpace(*meta.Title) != ""
}
