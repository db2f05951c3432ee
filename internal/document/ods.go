package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// odsContentPath is the path to the main content inside an .ods zip (OpenDocument Spreadsheet).
const odsContentPath = "content.xml"

var (
	odsRowClose = regexp.MustCompile(`</table:table-row>`)
	odsTextP    = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
)

// extractODSPages extracts text from .ods bytes. ODS is a ZIP containing
// content.xml (OpenDocument); each table row becomes one line of
// tab-separated cell texts. Spreadsheets carry no page boundaries, so the
// result is split proportionally.
func extractODSPages(content []byte) (*Pages, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODS: not a zip: %w", err)
	}
	var contentXML []byte
	for _, f := range zr.File {
		if f.Name != odsContentPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract ODS: open %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("extract ODS: read %s: %w", f.Name, err)
		}
		_ = rc.Close()
		contentXML = buf.Bytes()
		break
	}
	if contentXML == nil {
		return nil, fmt.Errorf("extract ODS: %s not found", odsContentPath)
	}

	var b strings.Builder
	for _, row := range odsRowClose.Split(string(contentXML), -1) {
		cells := odsTextP.FindAllStringSubmatch(row, -1)
		if len(cells) == 0 {
			continue
		}
		for i, c := range cells {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(strings.TrimSpace(c[1]))
		}
		b.WriteByte('\n')
	}
	return proportionalPages(strings.TrimSpace(b.String())), nil
}
