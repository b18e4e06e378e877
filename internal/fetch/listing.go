package fetch

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/exampapers/internal/catalog"
	"github.com/jonathan/exampapers/internal/types"
)

const (
	// YearFilterName is the name of the listing's year dropdown
	YearFilterName = "field_year_target_id"
	// SubjectFilterName is the name of the listing's subject dropdown
	SubjectFilterName = "field_subject_target_id"
	// PageParam is the listing's pagination query parameter
	PageParam = "page"
)

// RowSelectors returns row selectors from most to least specific.
func RowSelectors() []string {
	return []string{
		"table.views-table tbody tr",
		"table tbody tr",
		"tr",
	}
}

// ParseRows extracts listing rows from HTML. Cell links are resolved
// against pageURL so records always carry absolute URLs.
func ParseRows(html, pageURL string) ([]catalog.Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %s: %w", pageURL, err)
	}

	var selection *goquery.Selection
	for _, selector := range RowSelectors() {
		if s := doc.Find(selector); s.Length() > 0 {
			selection = s
			break
		}
	}
	if selection == nil {
		return nil, nil
	}

	rows := make([]catalog.Row, 0, selection.Length())
	selection.Each(func(_ int, tr *goquery.Selection) {
		var row catalog.Row
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cell := catalog.Cell{Text: strings.Join(strings.Fields(td.Text()), " ")}
			if href, ok := td.Find("a[href]").First().Attr("href"); ok {
				cell.Href = resolveHref(base, href)
			}
			row.Cells = append(row.Cells, cell)
		})
		rows = append(rows, row)
	})
	return rows, nil
}

func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// ParseFilterOptions reads the year and subject dropdowns of a listing page.
// Empty and "All" values are skipped.
func ParseFilterOptions(html string) (years, subjects []types.FilterOption, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return selectOptions(doc, YearFilterName), selectOptions(doc, SubjectFilterName), nil
}

func selectOptions(doc *goquery.Document, name string) []types.FilterOption {
	var out []types.FilterOption
	doc.Find(fmt.Sprintf("select[name=%q] option", name)).Each(func(_ int, opt *goquery.Selection) {
		value, _ := opt.Attr("value")
		value = strings.TrimSpace(value)
		if value == "" || value == "All" {
			return
		}
		out = append(out, types.FilterOption{
			Value: value,
			Text:  strings.TrimSpace(opt.Text()),
		})
	})
	return out
}

// WithPageParam returns urlStr with its page query parameter set to page.
func WithPageParam(urlStr string, page int) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("invalid URL %s: %w", urlStr, err)
	}
	q := parsed.Query()
	q.Set(PageParam, strconv.Itoa(page))
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// FilteredListingURL builds the listing URL for one year and subject.
func FilteredListingURL(listingURL, yearValue, subjectValue string) (string, error) {
	parsed, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %s: %w", listingURL, err)
	}
	q := parsed.Query()
	q.Set(YearFilterName, yearValue)
	q.Set(SubjectFilterName, subjectValue)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// Listing reads listing pages over HTTP, optionally re-rendering pages that
// yield no rows in a headless browser.
type Listing struct {
	client     *Client
	useBrowser bool
	verbose    bool
}

// NewListing creates a listing reader.
func NewListing(client *Client, useBrowser, verbose bool) *Listing {
	return &Listing{client: client, useBrowser: useBrowser, verbose: verbose}
}

// Rows fetches pageURL and returns its table rows.
func (l *Listing) Rows(ctx context.Context, pageURL string) ([]catalog.Row, error) {
	html, err := l.html(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	rows, err := ParseRows(html, pageURL)
	if err != nil {
		return nil, err
	}
	if l.verbose {
		log.Printf("[VERBOSE] %s: %d rows", pageURL, len(rows))
	}

	if l.useBrowser && ShouldUseBrowser(len(rows)) {
		if l.verbose {
			log.Printf("[VERBOSE] No rows over HTTP, falling back to browser rendering...")
		}
		rendered, browserErr := BrowserSimple(ctx, pageURL, l.verbose)
		if browserErr != nil {
			if l.verbose {
				log.Printf("[VERBOSE] Browser rendering failed: %v, using HTTP content", browserErr)
			}
			return rows, nil
		}
		return ParseRows(rendered, pageURL)
	}

	return rows, nil
}

// FilterOptions fetches pageURL and returns its year and subject dropdowns.
func (l *Listing) FilterOptions(ctx context.Context, pageURL string) (years, subjects []types.FilterOption, err error) {
	html, err := l.html(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}
	return ParseFilterOptions(html)
}

func (l *Listing) html(ctx context.Context, pageURL string) (string, error) {
	result, err := l.client.Page(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if l.verbose {
		log.Printf("[VERBOSE] Fetched HTML: %d bytes", len(result.HTML))
	}
	return result.HTML, nil
}
