package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestParseOGTags_TitleOnly(t *testing.T) {
	meta := ParseOGTags(`<meta property="og:title" content="Cozy Loft">`)

	assert.Equal(t, strPtr("Cozy Loft"), meta.Title)
	assert.Nil(t, meta.Description)
	assert.Nil(t, meta.ImageURL)
	assert.Nil(t, meta.URL)
	assert.Nil(t, meta.SiteName)
}

func TestParseOGTags_FullPage(t *testing.T) {
	html := `<!DOCTYPE html>
<html lang="ko">
<head>
  <meta charset="utf-8">
  <title>Fallback Title - Airbnb</title>
  <meta property="og:site_name" content="Airbnb" />
  <meta property="og:title" content="서울 한옥 스테이 · ★4.95" />
  <meta content="조용한 골목의 전통 한옥" property="og:description" />
  <meta property="og:image" content="https://a0.muscache.com/im/pictures/abc.jpg?im_w=1200" />
  <meta property="og:image:width" content="1200" />
  <meta property="og:url" content='https://www.airbnb.co.kr/rooms/12345678' />
</head>
<body></body>
</html>`

	meta := ParseOGTags(html)

	tests := []struct {
		field string
		got   *string
		want  string
	}{
		{"title", meta.Title, "서울 한옥 스테이 · ★4.95"},
		{"description", meta.Description, "조용한 골목의 전통 한옥"},
		{"imageUrl", meta.ImageURL, "https://a0.muscache.com/im/pictures/abc.jpg?im_w=1200"},
		{"url", meta.URL, "https://www.airbnb.co.kr/rooms/12345678"},
		{"siteName", meta.SiteName, "Airbnb"},
	}
	for _, tt := range tests {
		assert.Equal(t, strPtr(tt.want), tt.got, tt.field)
	}
}

func TestParseOGTags_Alternatives(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		title *string
	}{
		{
			name:  "content before property",
			html:  `<meta content="Reversed" property="og:title">`,
			title: strPtr("Reversed"),
		},
		{
			name:  "name attribute",
			html:  `<meta name="og:title" content="Named">`,
			title: strPtr("Named"),
		},
		{
			name:  "single quotes with apostrophe-free content",
			html:  `<meta property='og:title' content='Single'>`,
			title: strPtr("Single"),
		},
		{
			name:  "double quoted content containing apostrophe",
			html:  `<meta property="og:title" content="Jerry's Place">`,
			title: strPtr("Jerry's Place"),
		},
		{
			name:  "uppercase tag",
			html:  `<META PROPERTY="og:title" CONTENT="Loud">`,
			title: strPtr("Loud"),
		},
		{
			name:  "title tag fallback",
			html:  `<head><title>  Plain Title  </title></head>`,
			title: strPtr("Plain Title"),
		},
		{
			name:  "og title wins over title tag",
			html:  `<title>Plain</title><meta property="og:title" content="OG">`,
			title: strPtr("OG"),
		},
		{
			name:  "blank og title falls back to title tag",
			html:  `<meta property="og:title" content="   "><title>Fallback</title>`,
			title: strPtr("Fallback"),
		},
		{
			name:  "multiline tag",
			html:  "<meta\n  property=\"og:title\"\n  content=\"Wrapped\"\n/>",
			title: strPtr("Wrapped"),
		},
		{
			name:  "no title anywhere",
			html:  `<meta property="og:description" content="Only description">`,
			title: nil,
		},
		{
			name:  "empty document",
			html:  ``,
			title: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ParseOGTags(tt.html)
			assert.Equal(t, tt.title, meta.Title)
		})
	}
}

func TestParseOGTags_ImageIgnoresSubProperties(t *testing.T) {
	meta := ParseOGTags(`<meta property="og:image:secure_url" content="https://x/secure.jpg"><meta property="og:image" content="https://x/main.jpg">`)
	assert.Equal(t, strPtr("https://x/main.jpg"), meta.ImageURL)
}

func TestParseOGTags_DecodesEntities(t *testing.T) {
	meta := ParseOGTags(`<meta property="og:title" content="Tom &amp; Jerry&#39;s House">`)
	assert.Equal(t, strPtr("Tom & Jerry's House"), meta.Title)
}

func TestDecodeHTMLEntities(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"Tom &amp; Jerry&#39;s House", "Tom & Jerry's House"},
		{"&lt;b&gt;bold&lt;/b&gt;", "<b>bold</b>"},
		{"&quot;quoted&quot; &apos;single&apos;", `"quoted" 'single'`},
		{"it&#x27;s a&#x2F;b&#47;c", "it's a/b/c"},
		{"a&nbsp;b", "a b"},
		{"&#54620;&#50725;", "한옥"},
		{"&#xD55C;&#xc625;", "한옥"},
		{"&#X41;", "A"},
		{"&amp;lt;", "<"},
		{"&#99999999999;", "&#99999999999;"},
		{"&unknown;", "&unknown;"},
		{"fish & chips", "fish & chips"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeHTMLEntities(tt.in))
		})
	}
}

func TestIsValidMetadata(t *testing.T) {
	tests := []struct {
		name string
		meta *ListingMetadata
		want bool
	}{
		{name: "nil metadata", meta: nil, want: false},
		{name: "nil title", meta: &ListingMetadata{Description: strPtr("d")}, want: false},
		{name: "empty title", meta: &ListingMetadata{Title: strPtr("")}, want: false},
		{name: "whitespace title", meta: &ListingMetadata{Title: strPtr("  ")}, want: false},
		{name: "title only", meta: &ListingMetadata{Title: strPtr("X")}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidMetadata(tt.meta))
		})
	}
}
