// Package dom exposes a rendered page as a queryable handle. Fetch adapters
// build a Page from the HTML they retrieved; the crawl pipeline only ever
// reads it through selectors.
package dom

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/profile-crawler/pkg/utils"
)

// Page is an immutable, parsed snapshot of one rendered document.
type Page struct {
	url *url.URL
	doc *goquery.Document
}

// New parses html fetched from pageURL. pageURL should be the final URL after
// redirects since relative links resolve against it.
func New(pageURL, html string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html of %s: %w", pageURL, err)
	}
	return &Page{url: u, doc: doc}, nil
}

// URL returns the address the page was loaded from.
func (p *Page) URL() string {
	return p.url.String()
}

// Text returns the trimmed text of the first element matching selector.
// ok is false when nothing matches; a match with empty text is still ok.
func (p *Page) Text(selector string) (text string, ok bool) {
	sel := p.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// Count returns how many elements match selector.
func (p *Page) Count(selector string) int {
	return p.doc.Find(selector).Length()
}

// Links returns the absolute href targets of every element matching selector,
// in document order. Elements without a usable http(s) href are left out;
// duplicates are kept.
func (p *Page) Links(selector string) []string {
	links := []string{}
	p.doc.Find(selector).Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		href = strings.TrimSpace(href)
		if !exists || href == "" {
			return
		}
		abs, err := utils.ToAbsoluteURL(p.url, href)
		if err != nil {
			return
		}
		links = append(links, abs)
	})
	return links
}
