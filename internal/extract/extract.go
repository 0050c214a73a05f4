// Package extract turns fetched HTML into page text and outbound links.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

var (
	ErrEmptyBody = errors.New("empty body")
	ErrNotHTML   = errors.New("content is not html")
)

// ParseError means the page was fetched but could not be turned into text and links.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Page is what a fetched document contributes to the crawl.
type Page struct {
	Title string
	Text  string
	Links []string // absolute http(s) URLs, first occurrence order
}

// Extractor pulls body text and links out of HTML documents.
type Extractor struct {
	// ResolveRelative resolves relative hrefs against the page URL.
	// When false only hrefs that are already absolute http(s) URLs are kept.
	ResolveRelative bool
}

// New returns an Extractor.
func New(resolveRelative bool) *Extractor {
	return &Extractor{ResolveRelative: resolveRelative}
}

// Extract parses body as HTML. contentType may be empty, in which case the
// document is assumed to be HTML and its charset is sniffed.
func (e *Extractor) Extract(baseURL string, body []byte, contentType string) (Page, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Page{}, &ParseError{URL: baseURL, Err: ErrEmptyBody}
	}
	if !isHTML(contentType) {
		return Page{}, &ParseError{URL: baseURL, Err: fmt.Errorf("%w: %s", ErrNotHTML, contentType)}
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return Page{}, &ParseError{URL: baseURL, Err: fmt.Errorf("decode charset: %w", err)}
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, &ParseError{URL: baseURL, Err: err}
	}

	page := Page{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Links: e.links(doc, baseURL),
	}

	bodySel := doc.Find("body")
	bodySel.Find("script, style, noscript, template").Remove()
	page.Text = strings.Join(strings.Fields(bodySel.Text()), " ")
	return page, nil
}

func (e *Extractor) links(doc *goquery.Document, baseURL string) []string {
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link := absoluteLink(href)
		if link == "" && e.ResolveRelative {
			link = ResolveLink(baseURL, href)
		}
		if link == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}

func isHTML(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return true
	}
	return false
}

// Snippet returns at most n runes of text.
func Snippet(text string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
