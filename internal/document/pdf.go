package document

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// extractPDFPages returns one text per PDF page. A page that cannot be
// decoded yields an empty text rather than failing the document; the page
// scorer treats it as irrelevant. The pdf library panics on some malformed
// inputs, so panics degrade to errors here instead of crashing the caller.
func extractPDFPages(content []byte) (pages *Pages, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := reader.NumPage()
	texts := make([]string, numPages)
	for i := 0; i < numPages; i++ {
		texts[i] = pdfPageText(reader, i+1)
	}
	return &Pages{PageCount: numPages, Texts: texts}, nil
}

// pdfPageText decodes a single page, absorbing panics from malformed
// content streams.
func pdfPageText(reader *pdf.Reader, num int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	page := reader.Page(num)
	if page.V.IsNull() {
		return ""
	}
	t, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return t
}
