package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newCSVReader decodes UTF-8 (with or without BOM) or CP932 input. Spreadsheet
// exports on Japanese Windows default to CP932.
func newCSVReader(r io.Reader) (*csv.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var decoded io.Reader
	if bytes.HasPrefix(raw, utf8BOM) || utf8.Valid(raw) {
		decoded = transform.NewReader(bytes.NewReader(raw), unicode.UTF8BOM.NewDecoder())
	} else {
		decoded = transform.NewReader(bytes.NewReader(raw), japanese.ShiftJIS.NewDecoder())
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader, nil
}
