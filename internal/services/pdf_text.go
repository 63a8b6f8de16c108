package services

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// TextExtractionFailed is returned in place of text when a PDF cannot be read.
// Downstream classification still runs on it and usually falls back to the filename.
const TextExtractionFailed = "Error extracting text"

// PDFTextExtractor reads the text layer of PDF files with pdfcpu.
type PDFTextExtractor struct {
	conf *model.Configuration
	read func(rs io.ReadSeeker, conf *model.Configuration) (*model.Context, error)
}

// NewPDFTextExtractor uses relaxed validation so slightly malformed scans still parse.
func NewPDFTextExtractor() *PDFTextExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFTextExtractor{conf: conf, read: api.ReadValidateAndOptimize}
}

// ExtractText returns the text of every page joined by newlines, or
// TextExtractionFailed. It never returns an error, and a pdfcpu panic on a
// corrupt file is reported the same way as a read error.
func (p *PDFTextExtractor) ExtractText(content []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("PDF parser panicked.", "panic", fmt.Sprint(r), "sizeBytes", len(content))
			text = TextExtractionFailed
		}
	}()

	ctx, err := p.read(bytes.NewReader(content), p.conf)
	if err != nil {
		slog.Warn("Failed to read PDF.", "error", err, "sizeBytes", len(content))
		return TextExtractionFailed
	}

	var pages []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		if text := textFromContentStream(data); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n")
}

// textFromContentStream pulls the shown strings out of a page content stream.
// Operators are tokenised, so several text operators may share one line.
// Only literal strings are decoded; hex strings and font encodings are ignored.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	var operands []string

	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case isPDFWhitespace(c):
			i++
		case c == '%':
			for i < len(data) && data[i] != '\n' && data[i] != '\r' {
				i++
			}
		case c == '(':
			var str string
			str, i = readLiteralString(data, i)
			operands = append(operands, str)
		case c == '<' && i+1 < len(data) && data[i+1] == '<':
			i += 2
		case c == '<':
			for i < len(data) && data[i] != '>' {
				i++
			}
			i++
		case c == '/':
			i++
			for i < len(data) && !isPDFWhitespace(data[i]) && !isPDFDelimiter(data[i]) {
				i++
			}
		case isPDFDelimiter(c):
			i++
		default:
			start := i
			for i < len(data) && !isPDFWhitespace(data[i]) && !isPDFDelimiter(data[i]) {
				i++
			}
			token := string(data[start:i])
			if _, err := strconv.ParseFloat(token, 64); err == nil {
				continue
			}
			switch token {
			case "Tj", "TJ":
				sb.WriteString(strings.Join(operands, ""))
			case "'", `"`:
				sb.WriteByte('\n')
				sb.WriteString(strings.Join(operands, ""))
			case "Td", "TD":
				sb.WriteByte(' ')
			case "T*", "ET":
				sb.WriteByte('\n')
			}
			operands = operands[:0]
		}
	}
	return collapseWhitespace(sb.String())
}

// readLiteralString decodes the balanced literal string starting at data[start]
// and returns it with the index just past its closing parenthesis.
func readLiteralString(data []byte, start int) (string, int) {
	depth := 0
	for i := start; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return unescapePDFString(data[start+1 : i]), i + 1
			}
		}
	}
	return unescapePDFString(data[start+1:]), len(data)
}

func isPDFWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func unescapePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 == len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			val := int(c - '0')
			for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// collapseWhitespace trims each line and drops blank ones.
func collapseWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
