package scraper

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
)

const redirectPage = `<a href="/final-results-page">Показать все варианты</a>`

const finalResultsPage = `
<table id="searchResultsTable">
    <tbody>
        <tr class="resultTr2" data-brand="Brand" data-output-price="99.00"
            data-availability="10" data-deadline="24" data-is-analog="0">
            <td class="resultDescription">Final Item</td>
            <td class="resultWarehouse">WH-FINAL</td>
        </tr>
    </tbody>
</table>
`

func TestFetchArticleFollowsShowAllLink(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://stparts.test/search?pcode=TESTCODE",
		htmlResponder(redirectPage))
	transport.RegisterResponder("GET", "http://stparts.test/final-results-page",
		htmlResponder(finalResultsPage))

	session, _ := newTestSession(t, transport)
	fetcher := NewFetcher("http://stparts.test")

	html, sourceURL, err := fetcher.FetchArticle(context.Background(), session, "TESTCODE")
	if err != nil {
		t.Fatalf("fetch article: %v", err)
	}
	if sourceURL != "http://stparts.test/final-results-page" {
		t.Fatalf("source url = %q, want the followed page", sourceURL)
	}
	if !strings.Contains(html, "Final Item") {
		t.Fatalf("expected the followed page content, got %q", html)
	}
	if info := transport.GetCallCountInfo(); len(info) != 2 {
		t.Fatalf("expected both pages fetched, got %v", info)
	}
}

func TestFetchArticleWithoutRedirectParsesFirstPage(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://stparts.test/search?pcode=TESTCODE",
		htmlResponder(finalResultsPage))

	session, _ := newTestSession(t, transport)
	fetcher := NewFetcher("http://stparts.test")

	html, sourceURL, err := fetcher.FetchArticle(context.Background(), session, "TESTCODE")
	if err != nil {
		t.Fatalf("fetch article: %v", err)
	}
	if sourceURL != "http://stparts.test/search?pcode=TESTCODE" {
		t.Fatalf("source url = %q, want the search url", sourceURL)
	}
	if !strings.Contains(html, "Final Item") {
		t.Fatalf("unexpected page content: %q", html)
	}
}

func TestFindShowAllHrefIsCaseInsensitiveAndTrimmed(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "mixed case with padding",
			html: `<a href="/all">  ПОКАЗАТЬ ВСЕ ВАРИАНТЫ  </a>`,
			want: "/all",
		},
		{
			name: "absent",
			html: `<a href="/other">другая ссылка</a>`,
			want: "",
		},
		{
			name: "no anchors",
			html: `<p>ничего</p>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findShowAllHref(tt.html); got != tt.want {
				t.Fatalf("findShowAllHref = %q, want %q", got, tt.want)
			}
		})
	}
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return httpmock.ResponderFromResponse(resp)
}
