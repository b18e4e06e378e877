// Package materialize downloads session documents and keeps only the ones
// that decode as valid PDFs.
package materialize

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jonathan/exampapers/internal/types"
	"github.com/jonathan/exampapers/internal/validation"
)

// Downloader streams a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, urlStr, destPath string, progress io.Writer) (int64, error)
}

// Materializer turns URLs into trusted local files.
type Materializer struct {
	downloader Downloader
	validator  validation.Validator
	progress   io.Writer
	verbose    bool
}

// Options configures a Materializer.
type Options struct {
	// Progress receives a byte progress bar per download; nil disables it.
	Progress io.Writer
	Verbose  bool
}

// New creates a Materializer.
func New(downloader Downloader, validator validation.Validator, opts Options) *Materializer {
	return &Materializer{
		downloader: downloader,
		validator:  validator,
		progress:   opts.Progress,
		verbose:    opts.Verbose,
	}
}

// Materialize downloads rawURL to folder/name and validates it.
//
// It returns ("", nil) without touching the network when rawURL is empty,
// and ("", nil) after deleting the file when it is not a valid PDF. Transfer
// failures are returned as errors for the caller to skip.
func (m *Materializer) Materialize(ctx context.Context, rawURL, name, folder string) (string, error) {
	if rawURL == "" {
		return "", nil
	}

	path := filepath.Join(folder, name)
	n, err := m.downloader.Download(ctx, rawURL, path, m.progress)
	if err != nil {
		return "", err
	}
	if m.verbose {
		log.Printf("[MATERIALIZE] Downloaded %s: %d bytes", name, n)
	}

	if err := m.validator.Validate(path); err != nil {
		log.Printf("[MATERIALIZE] Invalid/corrupt PDF detected: %s (%s), skipping: %v", name, rawURL, err)
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("[MATERIALIZE] Failed to remove %s: %v", path, rmErr)
		}
		return "", nil
	}

	return path, nil
}

// SkippedURL records a URL that could not be materialized.
type SkippedURL struct {
	Session string
	Kind    types.ArtifactKind
	URL     string
	Err     error // nil when the download was discarded as corrupt
}

func (s SkippedURL) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s %s (%s): %v", s.Session, s.Kind, s.URL, s.Err)
	}
	return fmt.Sprintf("%s %s (%s): invalid PDF", s.Session, s.Kind, s.URL)
}

// SessionResult holds what one session produced.
type SessionResult struct {
	Artifacts []types.DownloadedArtifact
	Skipped   []SkippedURL
}

// MaterializeSession downloads the question paper, then the solution, of one
// session. A failure on one document never prevents the other.
func (m *Materializer) MaterializeSession(ctx context.Context, session *types.SessionRecord, folder string) SessionResult {
	var result SessionResult
	for _, doc := range []struct {
		kind types.ArtifactKind
		url  string
	}{
		{types.ArtifactQuestion, session.QuestionURL},
		{types.ArtifactSolution, session.SolutionURL},
	} {
		if doc.url == "" {
			continue
		}

		path, err := m.Materialize(ctx, doc.url, doc.kind.FileName(session), folder)
		if err != nil {
			log.Printf("[MATERIALIZE] Failed to download %s %s: %v", session.Label, doc.kind, err)
			result.Skipped = append(result.Skipped, SkippedURL{Session: session.Label, Kind: doc.kind, URL: doc.url, Err: err})
			continue
		}
		if path == "" {
			result.Skipped = append(result.Skipped, SkippedURL{Session: session.Label, Kind: doc.kind, URL: doc.url})
			continue
		}

		result.Artifacts = append(result.Artifacts, types.DownloadedArtifact{
			SourceURL: doc.url,
			LocalPath: path,
			Kind:      doc.kind,
			Session:   session,
		})
	}
	return result
}
