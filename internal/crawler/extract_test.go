package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractorTitleAndDescription(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `
<html>
<head>
	<title>  Store Front  </title>
	<meta name="description" content=" All the things. ">
</head>
<body></body>
</html>`)

	e := NewExtractor(ExtractorConfig{})
	require.Equal(t, "Store Front", e.Title(doc))

	desc := e.Description(doc)
	require.NotNil(t, desc)
	require.Equal(t, "All the things.", *desc)
}

func TestExtractorDescriptionNilWhenAbsent(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><head><title>t</title></head><body></body></html>`)
	e := NewExtractor(ExtractorConfig{})
	require.Nil(t, e.Description(doc))
}

func TestExtractorCustomSelectors(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `
<html><body>
	<h1 class="headline">Breaking</h1>
	<p class="standfirst">A summary.</p>
</body></html>`)

	e := NewExtractor(ExtractorConfig{
		TitleSelector:       "h1.headline",
		DescriptionSelector: "p.standfirst",
	})
	require.Equal(t, "Breaking", e.Title(doc))
	desc := e.Description(doc)
	require.NotNil(t, desc)
	require.Equal(t, "A summary.", *desc)
}

func TestExtractorLinksScopeFilter(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `
<html><body>
	<a href="/products">in scope, relative</a>
	<a href="https://example.com/about">in scope, absolute</a>
	<a href="https://other.org/away">out of scope</a>
	<a href="HTTPS://EXAMPLE.COM/caps#frag">in scope after normalization</a>
	<a href="">empty</a>
	<a>no href at all is not matched</a>
</body></html>`)

	e := NewExtractor(ExtractorConfig{})
	links, err := e.Links(doc, "https://example.com/start", "https://example.com")
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://example.com/products",
		"https://example.com/about",
		"https://example.com/caps",
	}, links)
}

func TestExtractorLinksDoesNotDeduplicate(t *testing.T) {
	t.Parallel()

	// Dedup belongs to the frontier's uniqueness constraint, not here.
	doc := parseDoc(t, `
<html><body>
	<a href="/a">one</a>
	<a href="/a">two</a>
</body></html>`)

	e := NewExtractor(ExtractorConfig{})
	links, err := e.Links(doc, "https://example.com", "https://example.com")
	require.NoError(t, err)
	require.Len(t, links, 2)
}

func TestExtractorLinksEmptyPage(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body><p>nothing to follow</p></body></html>`)
	e := NewExtractor(ExtractorConfig{})
	links, err := e.Links(doc, "https://example.com", "https://example.com")
	require.NoError(t, err)
	require.Empty(t, links)
}
