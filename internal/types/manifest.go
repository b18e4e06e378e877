package types

import (
	"time"

	"github.com/google/uuid"
)

// RunManifest records what a single download run produced.
type RunManifest struct {
	RunID       uuid.UUID            `json:"run_id"`
	CreatedAt   time.Time            `json:"created_at"`
	Subject     FilterOption         `json:"subject"`
	SubjectCode string               `json:"subject_code"`
	Range       ManifestRange        `json:"range"`
	Sessions    []SessionRecord      `json:"sessions"`
	Artifacts   []DownloadedArtifact `json:"artifacts"`
	Merged      *MergedOutput        `json:"merged,omitempty"`
	State       string               `json:"state"`
	Error       string               `json:"error,omitempty"`
}

// ManifestRange is the human-readable form of a DateRange.
type ManifestRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewManifestRange converts r to YYYY-MM strings.
func NewManifestRange(r DateRange) ManifestRange {
	return ManifestRange{Start: r.Start.String(), End: r.End.String()}
}
