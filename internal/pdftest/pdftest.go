// Package pdftest writes small, structurally valid PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Build returns a PDF with the given number of blank pages. Each page's
// MediaBox width is width points so pages from different fixtures can be told apart.
func Build(pages int, width int) []byte {
	if pages < 1 {
		pages = 1
	}
	if width < 1 {
		width = 200
	}

	var buf bytes.Buffer
	var offsets []int

	startObj := func() {
		offsets = append(offsets, buf.Len())
	}

	buf.WriteString("%PDF-1.4\n")

	// 1: catalog, 2: page tree, then a page/content pair per page
	startObj()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]byte, 0, pages*8)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R ", 3+2*i)...)
	}
	startObj()
	fmt.Fprintf(&buf, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", bytes.TrimSpace(kids), pages)

	content := "0 0 m 10 10 l S"
	for i := 0; i < pages; i++ {
		pageObj := 3 + 2*i
		startObj()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d 200] /Resources << >> /Contents %d 0 R >>\nendobj\n",
			pageObj, width, pageObj+1)
		startObj()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", pageObj+1, len(content), content)
	}

	xrefOffset := buf.Len()
	size := len(offsets) + 1
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xrefOffset)

	return buf.Bytes()
}

// Garbage returns bytes that start like a PDF but cannot be decoded.
func Garbage() []byte {
	return []byte("%PDF-1.4\nthis is not a real document\n%%EOF\n")
}

// Write stores a valid PDF with the given page count in dir and returns its path.
func Write(t testing.TB, dir, name string, pages int) string {
	t.Helper()
	return WriteBytes(t, dir, name, Build(pages, 200))
}

// WriteBytes stores data in dir/name and returns the path.
func WriteBytes(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}
