package pdf

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
)

var (
	blockEnd  = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|table|ul|ol)\s*>`)
	headStrip = regexp.MustCompile(`(?is)<(head|style|script)[^>]*>.*?</(head|style|script)\s*>`)
)

// Renderer converts simple HTML (b, i, u, a, br and block elements) into an A4 PDF.
type Renderer struct {
	fontFamily string
	fontSize   float64
	lineHeight float64
}

func NewRenderer() *Renderer {
	return &Renderer{fontFamily: "Helvetica", fontSize: 11, lineHeight: 5.5}
}

func (r *Renderer) Render(html string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()
	doc.SetFont(r.fontFamily, "", r.fontSize)

	tr := doc.UnicodeTranslatorFromDescriptor("")
	hb := doc.HTMLBasicNew()
	hb.Write(r.lineHeight, tr(normalize(html)))

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// normalize drops non-visual sections and turns block ends into line breaks.
func normalize(html string) string {
	s := headStrip.ReplaceAllString(html, "")
	s = blockEnd.ReplaceAllString(s, "<br>")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return s
}
