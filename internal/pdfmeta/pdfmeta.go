// Package pdfmeta reads lightweight metadata out of uploaded PDF files.
package pdfmeta

import (
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

var ErrEmpty = errors.New("pdfmeta: empty input")

// PageCount returns the number of pages declared by the document's page tree.
// Only the first size bytes of r are read. Malformed input yields an error,
// never a panic.
func PageCount(r io.ReaderAt, size int64) (n int, err error) {
	if r == nil || size <= 0 {
		return 0, ErrEmpty
	}

	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("pdfmeta: malformed document: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(io.NewSectionReader(r, 0, size), nil)
	if err != nil {
		return 0, fmt.Errorf("pdfmeta: open: %w", err)
	}

	n, err = pagetree.NumPages(doc)
	if err != nil {
		return 0, fmt.Errorf("pdfmeta: page tree: %w", err)
	}
	return n, nil
}
