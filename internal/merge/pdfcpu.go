package merge

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPUSink concatenates documents with pdfcpu.
type PDFCPUSink struct {
	conf *model.Configuration
}

// NewPDFCPUSink creates a sink with pdfcpu's relaxed validation.
func NewPDFCPUSink() *PDFCPUSink {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFCPUSink{conf: conf}
}

// Concatenate writes all pages of inputs to outPath without divider pages.
func (s *PDFCPUSink) Concatenate(inputs []string, outPath string) error {
	return api.MergeCreateFile(inputs, outPath, false, s.conf)
}
