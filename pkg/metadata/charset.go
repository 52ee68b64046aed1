package metadata

import (
	"mime"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// charsetSniffLimit bounds how far into the document <meta charset> is searched
const charsetSniffLimit = 2048

var metaCharset = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-zA-Z0-9_\-:.]+)`)

// decodeBody converts body to UTF-8 using the charset from the Content-Type
// header, falling back to a <meta charset> declaration. Unknown or broken
// encodings leave the bytes as they are.
func decodeBody(body []byte, contentType string) string {
	name := charsetFromContentType(contentType)
	if name == "" {
		name = sniffMetaCharset(body)
	}
	if name == "" {
		return string(body)
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(body)
	}
	if canonical, err := htmlindex.Name(enc); err == nil && canonical == "utf-8" {
		return string(body)
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(params["charset"])
}

func sniffMetaCharset(body []byte) string {
	head := body
	if len(head) > charsetSniffLimit {
		head = head[:charsetSniffLimit]
	}
	if m := metaCharset.FindSubmatch(head); len(m) > 1 {
		return string(m[1])
	}
	return ""
}
