package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// showAllAnchorText is the visible text of the link stparts.ru renders
// when a search matched more offers than the short result page shows.
const showAllAnchorText = "показать все варианты"

// Fetcher encapsulates the two-step retrieval idiom of stparts.ru:
// fetch the search endpoint, then follow the "show all options" link
// when the page carries one.
type Fetcher struct {
	baseURL string
}

// NewFetcher builds a fetcher rooted at the marketplace base URL.
func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{baseURL: strings.TrimRight(baseURL, "/")}
}

// FetchArticle retrieves the final result page for one article code.
// It returns the HTML to parse together with the URL it actually came
// from, which the parser needs to re-derive the article code.
func (f *Fetcher) FetchArticle(ctx context.Context, session *Session, article string) (string, string, error) {
	searchURL := f.baseURL + "/search"
	params := url.Values{"pcode": []string{article}}
	sourceURL := searchURL + "?" + params.Encode()

	html, err := session.FetchHTML(ctx, searchURL, params)
	if err != nil {
		return "", "", err
	}

	href := findShowAllHref(html)
	if href == "" {
		return html, sourceURL, nil
	}
	if strings.HasPrefix(href, "/") {
		href = f.baseURL + href
	}

	html, err = session.FetchHTML(ctx, href, nil)
	if err != nil {
		return "", "", err
	}
	return html, href, nil
}

func findShowAllHref(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(anchor.Text()))
		if strings.Contains(text, showAllAnchorText) {
			href = anchor.AttrOr("href", "")
			return false
		}
		return true
	})
	return href
}
