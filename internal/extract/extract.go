package extract

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmpty is returned when extraction yields no usable text. The document
// is discarded; there is no recovery path.
var ErrEmpty = errors.New("extracted text is empty")

var pdfMagic = []byte("%PDF-")

// Text extracts plain text from the given document bytes. PDF input is
// parsed page by page; anything else is treated as already-plain text.
func Text(data []byte) (string, error) {
	var raw string
	if bytes.HasPrefix(data, pdfMagic) {
		var err error
		raw, err = pdfText(data)
		if err != nil {
			return "", fmt.Errorf("parsing PDF: %w", err)
		}
	} else {
		raw = string(data)
	}

	cleaned := Clean(raw)
	if cleaned == "" {
		return "", ErrEmpty
	}
	return cleaned, nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages instead of failing the whole document.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	multiSpace   = regexp.MustCompile(`[ \t]+`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes extracted text: strips control characters, collapses
// runs of spaces and blank lines, and trims the result.
func Clean(text string) string {
	text = controlChars.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
