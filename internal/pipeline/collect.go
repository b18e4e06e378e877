package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/exampapers/internal/catalog"
	"github.com/jonathan/exampapers/internal/fetch"
)

// collect fills a catalog from the listing. With year filter values it
// visits one filtered page per in-range year, newest first; otherwise it
// paginates the listing until a page has no rows or MaxPages is reached.
// A page that cannot be fetched is logged and skipped. The returned catalog
// is never nil.
func (p *Pipeline) collect(ctx context.Context, opts *RunOptions, runID uuid.UUID) (*catalog.Catalog, error) {
	cat := catalog.New(opts.Range, catalog.DefaultLayout())

	if len(opts.YearOptions) > 0 {
		return cat, p.collectByYear(ctx, opts, runID, cat)
	}

	log.Printf("[PIPELINE] No year filters found, falling back to pagination")
	return cat, p.collectByPage(ctx, opts, runID, cat)
}

func (p *Pipeline) collectByYear(ctx context.Context, opts *RunOptions, runID uuid.UUID, cat *catalog.Catalog) error {
	targets := catalog.FilterOptionsInRange(opts.YearOptions, opts.Range)
	if len(targets) == 0 {
		log.Printf("[PIPELINE] No year filter falls between %s and %s", opts.StartText, opts.EndText)
		return nil
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageURL, err := fetch.FilteredListingURL(opts.ListingURL, target.Option.Value, opts.Subject.Value)
		if err != nil {
			return err
		}

		if opts.Verbose {
			log.Printf("[VERBOSE] Processing %s: %s", target.Option.Text, pageURL)
		}
		p.addPage(ctx, opts, runID, cat, pageURL, target.Option.Text)
	}
	return nil
}

func (p *Pipeline) collectByPage(ctx context.Context, opts *RunOptions, runID uuid.UUID, cat *catalog.Catalog) error {
	for page := 0; page < opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageURL, err := fetch.WithPageParam(opts.ListingURL, page)
		if err != nil {
			return err
		}

		if opts.Verbose {
			log.Printf("[VERBOSE] Scraping page %d: %s", page, pageURL)
		}
		rows, ok := p.addPage(ctx, opts, runID, cat, pageURL, fmt.Sprintf("page %d", page))
		if ok && rows == 0 {
			break
		}
	}
	return nil
}

// addPage fetches one listing page into the catalog. It returns the number
// of rows read and whether the page could be fetched at all.
func (p *Pipeline) addPage(ctx context.Context, opts *RunOptions, runID uuid.UUID, cat *catalog.Catalog, pageURL, name string) (int, bool) {
	rows, err := p.source.Rows(ctx, pageURL)
	if err != nil {
		log.Printf("[PIPELINE] Error fetching %s: %v", name, err)
		return 0, false
	}

	result := cat.AddPage(rows)
	log.Printf("[CATALOG] %s: %d rows, %d in range", name, len(rows), result.Accepted)
	if opts.Verbose {
		for _, d := range result.Decisions {
			log.Printf("[VERBOSE] %q -> %s", d.Label, d.Reason)
		}
	}

	emitProgress(opts, runID, StateCollecting, CategoryCollection,
		fmt.Sprintf("%s: %d sessions in range", name, result.Accepted), result.Stats)
	return len(rows), true
}
