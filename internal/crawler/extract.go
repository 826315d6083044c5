package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractorConfig holds the selector expressions used to pull page metadata.
type ExtractorConfig struct {
	TitleSelector       string
	DescriptionSelector string
}

// Extractor evaluates selectors against parsed documents and collects
// in-scope outbound links.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor builds an Extractor, filling selector defaults.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.TitleSelector == "" {
		cfg.TitleSelector = "title"
	}
	if cfg.DescriptionSelector == "" {
		cfg.DescriptionSelector = `meta[name="description"]`
	}
	return &Extractor{cfg: cfg}
}

// Title returns the trimmed text of the first title-selector match.
func (e *Extractor) Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find(e.cfg.TitleSelector).First().Text())
}

// Description returns the page description, or nil when the selector matches
// nothing. For meta tags the content attribute is used; for anything else the
// element text.
func (e *Extractor) Description(doc *goquery.Document) *string {
	sel := doc.Find(e.cfg.DescriptionSelector).First()
	if sel.Length() == 0 {
		return nil
	}
	text, exists := sel.Attr("content")
	if !exists {
		text = sel.Text()
	}
	text = strings.TrimSpace(text)
	return &text
}

// Links returns all anchor hrefs in doc, resolved against base and
// normalized, whose string form starts with the scope prefix. The output is
// not deduplicated; the frontier's uniqueness constraint handles that.
func (e *Extractor) Links(doc *goquery.Document, base, scope string) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved, err := NormalizeURL(baseURL.ResolveReference(ref).String())
		if err != nil {
			return
		}
		if !strings.HasPrefix(resolved, scope) {
			return
		}
		links = append(links, resolved)
	})
	return links, nil
}
