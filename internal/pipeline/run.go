// Package pipeline provides the high-level orchestration of a download run:
// collect sessions from the listing, order them newest first, download and
// validate each document, then merge the survivors into one PDF.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/exampapers/internal/catalog"
	"github.com/jonathan/exampapers/internal/fetch"
	"github.com/jonathan/exampapers/internal/materialize"
	"github.com/jonathan/exampapers/internal/merge"
	"github.com/jonathan/exampapers/internal/observability"
	"github.com/jonathan/exampapers/internal/types"
	"github.com/jonathan/exampapers/internal/validation"
)

const (
	// DefaultMaxPages bounds pagination when the listing has no year filter
	DefaultMaxPages = 21
	// DefaultPrefix starts every merged output file name
	DefaultPrefix = "Actuaries"
)

var (
	// ErrNoSessionsInRange ends a run whose listing has nothing in the requested range.
	ErrNoSessionsInRange = errors.New("no sessions found in the date range")
	// ErrNoValidDownloads ends a run in which every download failed or was corrupt.
	ErrNoValidDownloads = errors.New("no valid PDFs downloaded")
)

// Progress categories
const (
	CategoryCollection = "collection"
	CategoryDownload   = "download"
	CategoryMerge      = "merge"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// ListingSource yields the rows and filter dropdowns of listing pages.
type ListingSource interface {
	Rows(ctx context.Context, pageURL string) ([]catalog.Row, error)
	FilterOptions(ctx context.Context, pageURL string) (years, subjects []types.FilterOption, err error)
}

// SessionMaterializer downloads and validates the documents of one session.
type SessionMaterializer interface {
	MaterializeSession(ctx context.Context, session *types.SessionRecord, folder string) materialize.SessionResult
}

// Merger concatenates local PDFs in order.
type Merger interface {
	Merge(paths []string, outputName, folder string) (*types.MergedOutput, error)
}

// RunOptions holds configuration for one run
type RunOptions struct {
	ListingURL string
	OutputDir  string
	Range      types.DateRange
	// StartText and EndText are the range as the user typed it; they name the output file.
	StartText string
	EndText   string
	Subject   types.FilterOption
	// YearOptions are the listing's year filter values. When empty the
	// listing is paginated instead.
	YearOptions []types.FilterOption
	MaxPages    int
	Prefix      string
	Verbose     bool
	Now         func() time.Time
	OnProgress  ProgressCallback
}

func (o RunOptions) withDefaults() RunOptions {
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.StartText == "" {
		o.StartText = o.Range.Start.Label()
	}
	if o.EndText == "" {
		o.EndText = o.Range.End.Label()
	}
	return o
}

// Result is everything a run produced, whether or not it succeeded.
type Result struct {
	Manifest     *types.RunManifest
	RunFolder    string
	ManifestPath string
	Skipped      []materialize.SkippedURL
	Stats        catalog.Stats
	History      []State
}

// Pipeline runs downloads against one listing.
type Pipeline struct {
	source       ListingSource
	materializer SessionMaterializer
	merger       Merger
	printer      *observability.Printer
}

// New creates a pipeline from its collaborators. A nil printer discards output.
func New(source ListingSource, materializer SessionMaterializer, merger Merger, printer *observability.Printer) *Pipeline {
	if printer == nil {
		printer = observability.NewPrinter(io.Discard)
	}
	return &Pipeline{
		source:       source,
		materializer: materializer,
		merger:       merger,
		printer:      printer,
	}
}

// NewDefault wires a pipeline over HTTP with pdfcpu validation and merging.
// progress receives download progress bars and out receives summaries.
func NewDefault(client *fetch.Client, useBrowser, verbose bool, progress, out io.Writer) *Pipeline {
	validator := validation.NewPDFValidator()
	return New(
		fetch.NewListing(client, useBrowser, verbose),
		materialize.New(client, validator, materialize.Options{Progress: progress, Verbose: verbose}),
		merge.NewEngine(validator, merge.NewPDFCPUSink()),
		observability.NewPrinter(out),
	)
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, runID uuid.UUID, step State, category, message string, content any) {
	if opts.OnProgress != nil {
		event := ProgressEvent{
			Step:     string(step),
			Category: category,
			Message:  message,
			Content:  content,
		}
		if runID != uuid.Nil {
			event.RunID = runID.String()
		}
		opts.OnProgress(event)
	}
}

// Sessions collects the listing and returns the sessions in range, newest
// first, without downloading anything.
func (p *Pipeline) Sessions(ctx context.Context, opts RunOptions) ([]types.SessionRecord, catalog.Stats, error) {
	opts = opts.withDefaults()
	cat, err := p.collect(ctx, &opts, uuid.Nil)
	if err != nil {
		return nil, catalog.Stats{}, err
	}
	if cat.Len() == 0 {
		return nil, cat.Stats(), ErrNoSessionsInRange
	}
	return catalog.Order(cat.Records()), cat.Stats(), nil
}

// Run executes one download run. The returned Result is never nil and
// reflects how far the run got; the manifest is written whenever a run
// folder was created.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	opts = opts.withDefaults()
	r := &run{
		pipeline: p,
		opts:     &opts,
		machine:  NewMachine(),
		result: &Result{
			Manifest: &types.RunManifest{
				RunID:       uuid.New(),
				CreatedAt:   opts.Now().UTC(),
				Subject:     opts.Subject,
				SubjectCode: types.SubjectCode(opts.Subject.Text),
				Range:       types.NewManifestRange(opts.Range),
				State:       string(StateIdle),
			},
		},
	}
	return r.execute(ctx)
}

// run carries the mutable state of one Run call.
type run struct {
	pipeline *Pipeline
	opts     *RunOptions
	machine  *Machine
	result   *Result
}

func (r *run) runID() uuid.UUID {
	return r.result.Manifest.RunID
}

func (r *run) advance(next State, category, message string) error {
	if err := r.machine.Transition(next); err != nil {
		return err
	}
	r.result.Manifest.State = string(next)
	if r.opts.Verbose {
		log.Printf("[PIPELINE] %s: %s", next, message)
	}
	emitProgress(r.opts, r.runID(), next, category, message, nil)
	return nil
}

func (r *run) fail(err error) (*Result, error) {
	r.machine.Fail()
	r.result.Manifest.State = string(r.machine.Current())
	r.result.Manifest.Error = err.Error()
	r.result.History = r.machine.History()
	log.Printf("[PIPELINE] Run %s failed: %v", r.runID(), err)
	emitProgress(r.opts, r.runID(), StateFailed, "", err.Error(), nil)
	r.finish()
	return r.result, err
}

func (r *run) finish() {
	if r.result.RunFolder == "" {
		return
	}
	path, err := WriteManifest(r.result.RunFolder, r.result.Manifest)
	if err != nil {
		log.Printf("[PIPELINE] Warning: failed to write manifest: %v", err)
		return
	}
	r.result.ManifestPath = path
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	p := r.pipeline
	manifest := r.result.Manifest

	if r.opts.Range.Start.After(r.opts.Range.End) {
		return r.fail(types.ErrInvalidRange)
	}

	// Collecting
	if err := r.advance(StateCollecting, CategoryCollection,
		fmt.Sprintf("Collecting sessions from %s to %s", r.opts.StartText, r.opts.EndText)); err != nil {
		return r.fail(err)
	}
	cat, err := p.collect(ctx, r.opts, r.runID())
	r.result.Stats = cat.Stats()
	if err != nil {
		return r.fail(err)
	}
	if cat.Len() == 0 {
		return r.fail(ErrNoSessionsInRange)
	}

	// Sequenced
	manifest.Sessions = catalog.Order(cat.Records())
	if err := r.advance(StateSequenced, CategoryCollection,
		fmt.Sprintf("Found %d sessions in range", len(manifest.Sessions))); err != nil {
		return r.fail(err)
	}
	if r.opts.Verbose {
		p.printer.PrintCatalogStats(r.result.Stats)
		p.printer.PrintSessions(manifest.Sessions)
	}

	runFolder, individuals, err := CreateRunFolder(r.opts.OutputDir, r.opts.Now())
	if err != nil {
		return r.fail(err)
	}
	r.result.RunFolder = runFolder

	// Materializing
	if err := r.advance(StateMaterializing, CategoryDownload,
		fmt.Sprintf("Downloading %d sessions into %s", len(manifest.Sessions), individuals)); err != nil {
		return r.fail(err)
	}
	for i := range manifest.Sessions {
		if err := ctx.Err(); err != nil {
			return r.fail(err)
		}
		session := &manifest.Sessions[i]
		log.Printf("[PIPELINE] Processing %s (%s)", session.Label, session.DateString())

		sessionResult := p.materializer.MaterializeSession(ctx, session, individuals)
		manifest.Artifacts = append(manifest.Artifacts, sessionResult.Artifacts...)
		r.result.Skipped = append(r.result.Skipped, sessionResult.Skipped...)
		emitProgress(r.opts, r.runID(), StateMaterializing, CategoryDownload,
			fmt.Sprintf("%s: %d downloaded, %d skipped", session.Label, len(sessionResult.Artifacts), len(sessionResult.Skipped)),
			sessionResult.Artifacts)
	}
	if len(manifest.Artifacts) == 0 {
		return r.fail(ErrNoValidDownloads)
	}

	// Merging
	if err := r.advance(StateMerging, CategoryMerge,
		fmt.Sprintf("Merging %d PDFs", len(manifest.Artifacts))); err != nil {
		return r.fail(err)
	}
	paths := make([]string, 0, len(manifest.Artifacts))
	for _, artifact := range manifest.Artifacts {
		paths = append(paths, artifact.LocalPath)
	}
	outputName := OutputFileName(r.opts.Prefix, manifest.SubjectCode, r.opts.StartText, r.opts.EndText)
	merged, err := p.merger.Merge(paths, outputName, runFolder)
	if err != nil {
		return r.fail(err)
	}
	manifest.Merged = merged

	if err := r.advance(StateDone, CategoryMerge, fmt.Sprintf("Merged PDF saved: %s", merged.Path)); err != nil {
		return r.fail(err)
	}
	r.result.History = r.machine.History()
	r.finish()
	return r.result, nil
}
