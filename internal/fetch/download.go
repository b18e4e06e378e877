package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Download streams urlStr into destPath and returns the number of bytes
// written. Non-2xx responses fail before any file is created. A transfer that
// breaks mid-stream removes the partial file. When progress is non-nil a
// byte progress bar is rendered to it.
func (c *Client) Download(ctx context.Context, urlStr, destPath string, progress io.Writer) (int64, error) {
	resp, err := c.get(ctx, urlStr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	var w io.Writer = f
	if progress != nil {
		bar := newProgressBar(resp.ContentLength, filepath.Base(destPath), progress)
		defer func() { _ = bar.Finish() }()
		w = io.MultiWriter(f, bar)
	}

	n, copyErr := io.Copy(w, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(destPath)
		return n, &Error{
			URL:     urlStr,
			Message: "transfer interrupted",
			Cause:   copyErr,
		}
	}
	if closeErr != nil {
		_ = os.Remove(destPath)
		return n, fmt.Errorf("failed to write %s: %w", destPath, closeErr)
	}

	return n, nil
}

// newProgressBar renders a byte counter; total <= 0 means unknown length.
func newProgressBar(total int64, description string, out io.Writer) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
