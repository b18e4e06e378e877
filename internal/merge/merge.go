// Package merge concatenates validated PDFs into a single document.
package merge

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jonathan/exampapers/internal/types"
	"github.com/jonathan/exampapers/internal/validation"
)

// ErrNothingToMerge is returned when no input survives re-validation.
var ErrNothingToMerge = errors.New("nothing to merge")

// SinkWriteError represents a failure writing the merged document
type SinkWriteError struct {
	Path  string
	Cause error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("failed to write merged PDF %s: %v", e.Path, e.Cause)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Cause
}

// Sink writes the pages of inputs, in order, to outPath.
type Sink interface {
	Concatenate(inputs []string, outPath string) error
}

// Engine merges files after re-checking each one with a validity oracle.
type Engine struct {
	validator validation.Validator
	sink      Sink
}

// NewEngine creates a merge engine.
func NewEngine(validator validation.Validator, sink Sink) *Engine {
	return &Engine{validator: validator, sink: sink}
}

// Merge writes folder/outputName from paths in the given order, leaving out
// any path that is empty or no longer a valid PDF. It returns
// ErrNothingToMerge when nothing valid remains, and *SinkWriteError when the
// output cannot be written; a partially written output is removed.
func (e *Engine) Merge(paths []string, outputName, folder string) (*types.MergedOutput, error) {
	var valid []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := e.validator.Validate(p); err != nil {
			log.Printf("[MERGE] Skipping %s: %v", p, err)
			continue
		}
		valid = append(valid, p)
	}

	if len(valid) == 0 {
		log.Printf("[MERGE] No valid PDFs to merge")
		return nil, ErrNothingToMerge
	}

	outPath := filepath.Join(folder, outputName)
	if err := e.sink.Concatenate(valid, outPath); err != nil {
		if rmErr := os.Remove(outPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("[MERGE] Failed to remove partial output %s: %v", outPath, rmErr)
		}
		return nil, &SinkWriteError{Path: outPath, Cause: err}
	}

	log.Printf("[MERGE] Merged %d PDFs into %s", len(valid), outPath)
	return &types.MergedOutput{Path: outPath, Inputs: valid}, nil
}
