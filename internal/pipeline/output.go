package pipeline

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/exampapers/internal/parsing"
	"github.com/jonathan/exampapers/internal/schemas"
	"github.com/jonathan/exampapers/internal/types"
)

const (
	// IndividualsDir holds the per-document downloads inside a run folder
	IndividualsDir = "individuals"
	// ManifestFileName is written at the top of every run folder
	ManifestFileName = "manifest.json"
)

// CreateRunFolder creates base/session_<YYYYMMDD_HHMMSS>/individuals and
// returns the run folder and its individuals subfolder.
func CreateRunFolder(base string, now time.Time) (runFolder, individuals string, err error) {
	runFolder = filepath.Join(base, "session_"+now.Format("20060102_150405"))
	individuals = filepath.Join(runFolder, IndividualsDir)
	if err := os.MkdirAll(individuals, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create run folder: %w", err)
	}
	return runFolder, individuals, nil
}

// OutputFileName builds <prefix>_<code>_<start>_to_<end>_Merged.pdf from the
// range as the user typed it, with spaces, dashes and underscores removed.
func OutputFileName(prefix, subjectCode, startText, endText string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if subjectCode == "" {
		subjectCode = "All"
	}
	return fmt.Sprintf("%s_%s_%s_to_%s_Merged.pdf",
		prefix, subjectCode, parsing.CompactRangeText(startText), parsing.CompactRangeText(endText))
}

// WriteManifest writes manifest.json into runFolder and checks it against
// the run manifest schema. A schema mismatch is logged, not returned.
func WriteManifest(runFolder string, manifest *types.RunManifest) (string, error) {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(runFolder, ManifestFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := schemas.ValidateManifest(path); err != nil {
		log.Printf("[PIPELINE] Warning: manifest failed schema validation: %v", err)
	}
	return path, nil
}
