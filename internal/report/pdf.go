package report

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// WritePDF renders Markdown produced by Markdown as a simple A4 document.
// Headings, bullet lines and links are kept; other Markdown is written as
// plain text.
func WritePDF(markdown string, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(4)
			continue
		}
		if strings.HasPrefix(s, "#") {
			level := 0
			for level < len(s) && s[level] == '#' {
				level++
			}
			text := strings.TrimSpace(s[level:])
			if text == "" {
				continue
			}
			size := 16.0
			if level >= 2 {
				size = 13.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		if strings.HasPrefix(s, "- ") {
			s = "• " + strings.TrimPrefix(s, "- ")
		}
		matches := linkRe.FindAllStringSubmatchIndex(s, -1)
		if len(matches) == 0 {
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
			continue
		}
		pos := 0
		for _, m := range matches {
			if m[0] > pos {
				pdf.Write(5, tr(s[pos:m[0]]))
			}
			pdf.WriteLinkString(5, tr(s[m[2]:m[3]]), s[m[4]:m[5]])
			pos = m[1]
		}
		if pos < len(s) {
			pdf.Write(5, tr(s[pos:]))
		}
		pdf.Ln(6)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// WritePDFFile renders markdown to path.
func WritePDFFile(markdown, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(markdown, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
