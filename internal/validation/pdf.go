package validation

import (
	"bytes"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF")

// Validator decides whether a local file is a well-formed PDF.
type Validator interface {
	Validate(path string) error
}

// PDFValidator decodes a file with pdfcpu purely to confirm it is well formed.
type PDFValidator struct {
	conf *model.Configuration
}

// NewPDFValidator creates a validator using pdfcpu's relaxed validation mode,
// which tolerates the minor format deviations common in published papers.
func NewPDFValidator() *PDFValidator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFValidator{conf: conf}
}

// Validate returns nil when path is a structurally valid PDF.
func (v *PDFValidator) Validate(path string) error {
	if err := checkHeader(path); err != nil {
		return err
	}
	// pdfcpu writes to the configuration it is given
	conf := *v.conf
	if err := api.ValidateFile(path, &conf); err != nil {
		return &Error{
			Path:    path,
			Message: "invalid or corrupt PDF",
			Cause:   err,
		}
	}
	return nil
}

// checkHeader rejects files that do not start with %PDF without decoding
// them, so HTML error pages saved as .pdf fail fast.
func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &FileReadError{Message: "failed to open " + path, Cause: err}
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return &Error{Path: path, Message: "cannot read PDF header", Cause: err}
	}
	if !bytes.Equal(header, pdfMagic) {
		return &Error{Path: path, Message: "not a PDF file"}
	}
	return nil
}
