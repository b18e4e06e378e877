package validation

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// CountPDFPages counts the number of pages in a PDF file
func CountPDFPages(pdfPath string) (int, error) {
	if err := checkHeader(pdfPath); err != nil {
		return 0, err
	}
	count, err := api.PageCountFile(pdfPath)
	if err != nil {
		return 0, &Error{
			Path:    pdfPath,
			Message: "failed to count PDF pages",
			Cause:   err,
		}
	}
	return count, nil
}
