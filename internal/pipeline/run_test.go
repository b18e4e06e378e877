package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/exampapers/internal/catalog"
	"github.com/jonathan/exampapers/internal/fetch"
	"github.com/jonathan/exampapers/internal/materialize"
	"github.com/jonathan/exampapers/internal/merge"
	"github.com/jonathan/exampapers/internal/pdftest"
	"github.com/jonathan/exampapers/internal/schemas"
	"github.com/jonathan/exampapers/internal/types"
	"github.com/jonathan/exampapers/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingURL = "https://www.example.org/question-paper-solutions"

var fixedNow = func() time.Time { return time.Date(2025, time.March, 4, 9, 15, 30, 0, time.UTC) }

func sessionRow(label, questionURL, solutionURL string) catalog.Row {
	return catalog.Row{Cells: []catalog.Cell{
		{Text: "1"},
		{Text: "CS1"},
		{Text: label},
		{Text: "Question", Href: questionURL},
		{Text: "Solution", Href: solutionURL},
	}}
}

func mustRange(t *testing.T, start, end types.CalendarPoint) types.DateRange {
	t.Helper()
	r, err := types.NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

// fakeSource serves canned rows per URL and records visits.
type fakeSource struct {
	pages   map[string][]catalog.Row
	errs    map[string]error
	visited []string
}

func (s *fakeSource) Rows(_ context.Context, pageURL string) ([]catalog.Row, error) {
	s.visited = append(s.visited, pageURL)
	if err := s.errs[pageURL]; err != nil {
		return nil, err
	}
	return s.pages[pageURL], nil
}

func (s *fakeSource) FilterOptions(context.Context, string) ([]types.FilterOption, []types.FilterOption, error) {
	return nil, nil, nil
}

// fakeMaterializer turns every URL into an artifact at folder/<name>.
type fakeMaterializer struct {
	failURLs map[string]bool
	sessions []string
}

func (m *fakeMaterializer) MaterializeSession(_ context.Context, session *types.SessionRecord, folder string) materialize.SessionResult {
	m.sessions = append(m.sessions, session.Label)
	var result materialize.SessionResult
	for _, doc := range []struct {
		kind types.ArtifactKind
		url  string
	}{{types.ArtifactQuestion, session.QuestionURL}, {types.ArtifactSolution, session.SolutionURL}} {
		if doc.url == "" {
			continue
		}
		if m.failURLs[doc.url] {
			result.Skipped = append(result.Skipped, materialize.SkippedURL{Session: session.Label, Kind: doc.kind, URL: doc.url})
			continue
		}
		result.Artifacts = append(result.Artifacts, types.DownloadedArtifact{
			SourceURL: doc.url,
			LocalPath: filepath.Join(folder, doc.kind.FileName(session)),
			Kind:      doc.kind,
			Session:   session,
		})
	}
	return result
}

// fakeMerger records its inputs.
type fakeMerger struct {
	paths []string
	name  string
	err   error
}

func (m *fakeMerger) Merge(paths []string, outputName, folder string) (*types.MergedOutput, error) {
	m.paths = paths
	m.name = outputName
	if m.err != nil {
		return nil, m.err
	}
	return &types.MergedOutput{Path: filepath.Join(folder, outputName), Inputs: paths}, nil
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestRun_PaginatedListingMergesNewestFirst(t *testing.T) {
	page0, _ := fetch.WithPageParam(listingURL, 0)
	page1, _ := fetch.WithPageParam(listingURL, 1)
	page2, _ := fetch.WithPageParam(listingURL, 2)

	source := &fakeSource{pages: map[string][]catalog.Row{
		page0: {
			sessionRow("June 2019", "q-jun19", "s-jun19"),
			sessionRow("May 2015", "q-may15", "s-may15"),
		},
		page1: {
			sessionRow("Jan 2025", "q-jan25", ""),
			sessionRow("TBD", "q-tbd", "s-tbd"),
			{Cells: []catalog.Cell{{Text: "short"}}},
		},
	}}
	materializer := &fakeMaterializer{}
	merger := &fakeMerger{}

	var events []ProgressEvent
	opts := RunOptions{
		ListingURL: listingURL,
		OutputDir:  t.TempDir(),
		Range:      mustRange(t, types.NewCalendarPoint(2019, time.June), types.NewCalendarPoint(2025, time.May)),
		StartText:  "Jun 2019",
		EndText:    "May-2025",
		Subject:    types.FilterOption{Value: "7", Text: "CS1: Actuarial Statistics"},
		Now:        fixedNow,
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	}

	result, err := New(source, materializer, merger, nil).Run(context.Background(), opts)
	require.NoError(t, err)

	// Pagination stops at the first empty page
	assert.Equal(t, []string{page0, page1, page2}, source.visited)

	assert.Equal(t, []string{"Jan 2025", "June 2019"}, materializer.sessions)
	assert.Equal(t, []string{"Jan_2025_Question.pdf", "June_2019_Question.pdf", "June_2019_Solution.pdf"}, baseNames(merger.paths))
	assert.Equal(t, "Actuaries_CS1_Jun2019_to_May2025_Merged.pdf", merger.name)

	assert.Equal(t, catalog.Stats{Accepted: 2, OutOfRange: 1, UnparseableDate: 1, Malformed: 1}, result.Stats)
	assert.Equal(t, []State{StateIdle, StateCollecting, StateSequenced, StateMaterializing, StateMerging, StateDone}, result.History)
	assert.Equal(t, string(StateDone), result.Manifest.State)
	assert.Equal(t, "CS1", result.Manifest.SubjectCode)
	require.NotNil(t, result.Manifest.Merged)
	assert.Equal(t, filepath.Join(result.RunFolder, "Actuaries_CS1_Jun2019_to_May2025_Merged.pdf"), result.Manifest.Merged.Path)

	assert.Equal(t, filepath.Join(opts.OutputDir, "session_20250304_091530"), result.RunFolder)
	assert.DirExists(t, filepath.Join(result.RunFolder, IndividualsDir))

	require.NotEmpty(t, events)
	assert.Equal(t, string(StateCollecting), events[0].Step)
	assert.Equal(t, string(StateDone), events[len(events)-1].Step)
	assert.Equal(t, result.Manifest.RunID.String(), events[0].RunID)
}

func TestRun_PaginationSkipsFailingPagesAndHonoursMaxPages(t *testing.T) {
	source := &fakeSource{pages: map[string][]catalog.Row{}, errs: map[string]error{}}
	for page := 0; page < 10; page++ {
		u, _ := fetch.WithPageParam(listingURL, page)
		source.pages[u] = []catalog.Row{sessionRow(fmt.Sprintf("June %d", 2010+page), "q", "")}
	}
	failing, _ := fetch.WithPageParam(listingURL, 1)
	source.errs[failing] = errors.New("connection reset")

	opts := RunOptions{
		ListingURL: listingURL,
		OutputDir:  t.TempDir(),
		Range:      mustRange(t, types.NewCalendarPoint(2000, time.January), types.NewCalendarPoint(2030, time.December)),
		MaxPages:   4,
		Now:        fixedNow,
	}

	sessions, stats, err := New(source, &fakeMaterializer{}, &fakeMerger{}, nil).Sessions(context.Background(), opts)
	require.NoError(t, err)

	assert.Len(t, source.visited, 4)
	assert.Equal(t, 3, stats.Accepted)
	labels := make([]string, len(sessions))
	for i, s := range sessions {
		labels[i] = s.Label
	}
	assert.Equal(t, []string{"June 2013", "June 2012", "June 2010"}, labels)
}

func TestRun_YearFiltersVisitInRangeYearsNewestFirst(t *testing.T) {
	years := []types.FilterOption{
		{Value: "10", Text: "June 2005"},
		{Value: "30", Text: "Sep 2018"},
		{Value: "20", Text: "Dec 2010"},
		{Value: "99", Text: "Archive"},
		{Value: "40", Text: "May 2024"},
	}
	subject := types.FilterOption{Value: "7", Text: "CS1: Actuarial Statistics"}

	url2018, _ := fetch.FilteredListingURL(listingURL, "30", "7")
	url2010, _ := fetch.FilteredListingURL(listingURL, "20", "7")
	url2005, _ := fetch.FilteredListingURL(listingURL, "10", "7")

	source := &fakeSource{pages: map[string][]catalog.Row{
		url2018: {sessionRow("Sep 2018", "q18", "s18")},
		url2010: {sessionRow("Dec 2010", "q10", "s10")},
		url2005: {sessionRow("June 2005", "q05", "")},
	}}
	merger := &fakeMerger{}

	opts := RunOptions{
		ListingURL:  listingURL,
		OutputDir:   t.TempDir(),
		Range:       mustRange(t, types.NewCalendarPoint(2005, time.June), types.NewCalendarPoint(2018, time.September)),
		StartText:   "Jun 2005",
		EndText:     "Sep 2018",
		Subject:     subject,
		YearOptions: years,
		Prefix:      "IAI",
		Now:         fixedNow,
	}

	result, err := New(source, &fakeMaterializer{}, merger, nil).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{url2018, url2010, url2005}, source.visited)
	assert.Equal(t, []string{
		"Sep_2018_Question.pdf", "Sep_2018_Solution.pdf",
		"Dec_2010_Question.pdf", "Dec_2010_Solution.pdf",
		"June_2005_Question.pdf",
	}, baseNames(merger.paths))
	assert.Equal(t, "IAI_CS1_Jun2005_to_Sep2018_Merged.pdf", merger.name)
	assert.Len(t, result.Manifest.Sessions, 3)
}

func TestRun_NoSessionsInRange(t *testing.T) {
	page0, _ := fetch.WithPageParam(listingURL, 0)
	source := &fakeSource{pages: map[string][]catalog.Row{
		page0: {sessionRow("June 2010", "q", "s")},
	}}
	materializer := &fakeMaterializer{}
	merger := &fakeMerger{}
	outDir := t.TempDir()

	result, err := New(source, materializer, merger, nil).Run(context.Background(), RunOptions{
		ListingURL: listingURL,
		OutputDir:  outDir,
		Range:      mustRange(t, types.NewCalendarPoint(2019, time.January), types.NewCalendarPoint(2020, time.January)),
		Now:        fixedNow,
	})

	assert.ErrorIs(t, err, ErrNoSessionsInRange)
	require.NotNil(t, result)
	assert.Equal(t, []State{StateIdle, StateCollecting, StateFailed}, result.History)
	assert.Equal(t, string(StateFailed), result.Manifest.State)
	assert.Equal(t, ErrNoSessionsInRange.Error(), result.Manifest.Error)
	assert.Empty(t, materializer.sessions)
	assert.Nil(t, merger.paths)

	// Nothing is written for a run that never reached downloading
	assert.Empty(t, result.RunFolder)
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_NoValidDownloads(t *testing.T) {
	page0, _ := fetch.WithPageParam(listingURL, 0)
	source := &fakeSource{pages: map[string][]catalog.Row{
		page0: {sessionRow("June 2019", "q", "s")},
	}}
	materializer := &fakeMaterializer{failURLs: map[string]bool{"q": true, "s": true}}
	merger := &fakeMerger{}

	result, err := New(source, materializer, merger, nil).Run(context.Background(), RunOptions{
		ListingURL: listingURL,
		OutputDir:  t.TempDir(),
		Range:      mustRange(t, types.NewCalendarPoint(2019, time.January), types.NewCalendarPoint(2020, time.January)),
		Now:        fixedNow,
	})

	assert.ErrorIs(t, err, ErrNoValidDownloads)
	assert.Nil(t, merger.paths)
	assert.Len(t, result.Skipped, 2)
	assert.Equal(t, StateFailed, result.History[len(result.History)-1])
	assert.FileExists(t, result.ManifestPath)
}

func TestRun_SinkFailureFailsRun(t *testing.T) {
	page0, _ := fetch.WithPageParam(listingURL, 0)
	source := &fakeSource{pages: map[string][]catalog.Row{
		page0: {sessionRow("June 2019", "q", "s")},
	}}
	sinkErr := &merge.SinkWriteError{Path: "out.pdf", Cause: errors.New("disk full")}

	result, err := New(source, &fakeMaterializer{}, &fakeMerger{err: sinkErr}, nil).Run(context.Background(), RunOptions{
		ListingURL: listingURL,
		OutputDir:  t.TempDir(),
		Range:      mustRange(t, types.NewCalendarPoint(2019, time.January), types.NewCalendarPoint(2020, time.January)),
		Now:        fixedNow,
	})

	var writeErr *merge.SinkWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, []State{StateIdle, StateCollecting, StateSequenced, StateMaterializing, StateMerging, StateFailed}, result.History)
	assert.Nil(t, result.Manifest.Merged)
	assert.Contains(t, result.Manifest.Error, "disk full")
}

func TestRun_InvalidRange(t *testing.T) {
	source := &fakeSource{}
	result, err := New(source, &fakeMaterializer{}, &fakeMerger{}, nil).Run(context.Background(), RunOptions{
		ListingURL: listingURL,
		OutputDir:  t.TempDir(),
		Range: types.DateRange{
			Start: types.NewCalendarPoint(2020, time.January),
			End:   types.NewCalendarPoint(2019, time.January),
		},
	})

	assert.ErrorIs(t, err, types.ErrInvalidRange)
	assert.Equal(t, []State{StateIdle, StateFailed}, result.History)
	assert.Empty(t, source.visited)
}

func TestRun_CancelledContext(t *testing.T) {
	source := &fakeSource{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(source, &fakeMaterializer{}, &fakeMerger{}, nil).Run(ctx, RunOptions{
		ListingURL: listingURL,
		OutputDir:  t.TempDir(),
		Range:      mustRange(t, types.NewCalendarPoint(2019, time.January), types.NewCalendarPoint(2020, time.January)),
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, result.History[len(result.History)-1])
	assert.Empty(t, source.visited)
}

func TestOutputFileName(t *testing.T) {
	tests := []struct {
		name               string
		prefix, code       string
		startText, endText string
		want               string
	}{
		{"default prefix", "", "CS1", "Jun 2005", "Sep 2018", "Actuaries_CS1_Jun2005_to_Sep2018_Merged.pdf"},
		{"dashes removed", "Actuaries", "CM1", "Jun-2005", "Sep-2018", "Actuaries_CM1_Jun2005_to_Sep2018_Merged.pdf"},
		{"custom prefix", "IFoA", "CB2", "jan 2020", "dec 2021", "IFoA_CB2_jan2020_to_dec2021_Merged.pdf"},
		{"no subject", "Actuaries", "", "Jan 2020", "Dec 2021", "Actuaries_All_Jan2020_to_Dec2021_Merged.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputFileName(tt.prefix, tt.code, tt.startText, tt.endText))
		})
	}
}

func TestCreateRunFolder(t *testing.T) {
	base := t.TempDir()
	runFolder, individuals, err := CreateRunFolder(base, fixedNow())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "session_20250304_091530"), runFolder)
	assert.Equal(t, filepath.Join(runFolder, "individuals"), individuals)
	assert.DirExists(t, individuals)

	// Existing folders are reused
	_, _, err = CreateRunFolder(base, fixedNow())
	assert.NoError(t, err)
}

func TestCreateRunFolder_Unwritable(t *testing.T) {
	base := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0644))

	_, _, err := CreateRunFolder(base, fixedNow())
	assert.Error(t, err)
}

// listingServer serves a paginated listing whose rows link to PDFs on the
// same server. Page 0 carries two sessions, later pages are empty.
func listingServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/question-paper-solutions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "0" {
			_, _ = w.Write([]byte(`<html><body><p>No results</p></body></html>`))
			return
		}
		_, _ = w.Write([]byte(`<html><body><table class="views-table"><tbody>
			<tr><td>1</td><td>CS1</td><td>Dec 2019</td>
				<td><a href="/files/dec19_q.pdf">Q</a></td><td><a href="/files/dec19_s.pdf">S</a></td></tr>
			<tr><td>2</td><td>CS1</td><td>June 2019</td>
				<td><a href="/files/jun19_q.pdf">Q</a></td><td><a href="/files/missing.pdf">S</a></td></tr>
			<tr><td>3</td><td>CS1</td><td>June 2015</td>
				<td><a href="/files/jun15_q.pdf">Q</a></td><td></td></tr>
		</tbody></table></body></html>`))
	})
	mux.HandleFunc("/files/dec19_q.pdf", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write(pdftest.Build(2, 200)) })
	mux.HandleFunc("/files/dec19_s.pdf", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write(pdftest.Garbage()) })
	mux.HandleFunc("/files/jun19_q.pdf", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write(pdftest.Build(3, 300)) })
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunDefault_EndToEnd(t *testing.T) {
	server := listingServer(t)

	clientOpts := fetch.DefaultOptions()
	clientOpts.RequestInterval = 0
	client := fetch.NewClient(clientOpts)

	var out strings.Builder
	p := NewDefault(client, false, true, nil, &out)

	result, err := p.Run(context.Background(), RunOptions{
		ListingURL: server.URL + "/question-paper-solutions",
		OutputDir:  t.TempDir(),
		Range:      mustRange(t, types.NewCalendarPoint(2019, time.January), types.NewCalendarPoint(2019, time.December)),
		StartText:  "Jan 2019",
		EndText:    "Dec 2019",
		Subject:    types.FilterOption{Value: "7", Text: "CS1 - Actuarial Statistics"},
		Verbose:    true,
		Now:        fixedNow,
	})
	require.NoError(t, err)

	// Dec 2019 solution is corrupt and June 2019 solution is a 404
	require.Len(t, result.Manifest.Artifacts, 2)
	assert.Equal(t, "Dec_2019_Question.pdf", filepath.Base(result.Manifest.Artifacts[0].LocalPath))
	assert.Equal(t, "June_2019_Question.pdf", filepath.Base(result.Manifest.Artifacts[1].LocalPath))
	assert.Len(t, result.Skipped, 2)
	assert.NoFileExists(t, filepath.Join(result.RunFolder, IndividualsDir, "Dec_2019_Solution.pdf"))

	require.NotNil(t, result.Manifest.Merged)
	assert.Equal(t, "Actuaries_CS1_Jan2019_to_Dec2019_Merged.pdf", filepath.Base(result.Manifest.Merged.Path))
	pages, err := validation.CountPDFPages(result.Manifest.Merged.Path)
	require.NoError(t, err)
	assert.Equal(t, 5, pages)

	assert.Contains(t, out.String(), "SESSIONS IN RANGE")
	assert.Contains(t, out.String(), "LISTING SCAN")

	// The manifest on disk matches the schema and the result
	require.FileExists(t, result.ManifestPath)
	assert.NoError(t, schemas.ValidateManifest(result.ManifestPath))

	data, err := os.ReadFile(result.ManifestPath)
	require.NoError(t, err)
	var manifest types.RunManifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, result.Manifest.RunID, manifest.RunID)
	assert.Equal(t, "done", manifest.State)
	assert.Equal(t, types.ManifestRange{Start: "2019-01", End: "2019-12"}, manifest.Range)
}
