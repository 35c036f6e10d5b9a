package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/advflow/advflow/internal/entity"
)

// A4 in points, margins matching the 12mm the web export used.
const (
	pageWidth  = 595.28
	pageHeight = 841.89
	pageMargin = 34.02
	// Extra vertical space kept clear at the top and bottom of every page
	// when a letterhead is stamped, so text never overlaps its bands.
	letterheadBand = 42.52
	// Courier glyphs are 600/1000 em wide.
	courierAdvance = 0.6
)

// PdfOptions controls the PDF rendition. Template and Signature are optional
// assets; failures applying them degrade to the plain text-flow document.
type PdfOptions struct {
	Font entity.FontPrefs
	// TemplatePDF's first page is stamped under every page as letterhead.
	TemplatePDF []byte
	// SignaturePNG is stamped near the bottom of the last page.
	SignaturePNG []byte
	Logger       *slog.Logger
}

// BuildPdf renders text as a paginated monospace document, then layers the
// letterhead and signature assets when present.
func BuildPdf(text string, opts PdfOptions) ([]byte, error) {
	if opts.Font.SizePt <= 0 {
		opts.Font = entity.DefaultFontPrefs()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var band float64
	if len(opts.TemplatePDF) > 0 {
		band = letterheadBand
	}
	base, err := renderTextPdf(text, opts.Font, band)
	if err != nil {
		return nil, err
	}

	if len(opts.TemplatePDF) > 0 {
		stamped, err := stampLetterhead(base, opts.TemplatePDF)
		if err != nil {
			opts.Logger.Warn("letterhead stamp failed, exporting without it", "error", err)
		} else {
			base = stamped
		}
	}
	if len(opts.SignaturePNG) > 0 {
		signed, err := stampSignature(base, opts.SignaturePNG)
		if err != nil {
			opts.Logger.Warn("signature stamp failed, exporting without it", "error", err)
		} else {
			base = signed
		}
	}
	return base, nil
}

// renderTextPdf writes a self-contained PDF: Courier text, top-down flow,
// word wrap at the margins, new page when a line would cross the bottom
// margin. band widens the top and bottom margins for letterhead pages.
// No external deps so it cannot fail on asset problems.
func renderTextPdf(text string, font entity.FontPrefs, band float64) ([]byte, error) {
	size := font.SizePt
	leading := size * 1.2 * font.LineSpacing / 1.5
	if leading < size {
		leading = size
	}
	usable := pageWidth - 2*pageMargin
	maxChars := int(usable / (size * courierAdvance))
	if maxChars < 1 {
		return nil, fmt.Errorf("font size %.1f leaves no room on the page", size)
	}

	vMargin := pageMargin + band
	lines := wrapLines(BodyLines(text), maxChars)
	perPage := int((pageHeight - 2*vMargin) / leading)
	if perPage < 1 {
		perPage = 1
	}

	var pages [][]string
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	if len(pages) == 0 {
		pages = [][]string{{""}}
	}

	return writePdf(pages, size, leading, vMargin), nil
}

// wrapLines breaks lines longer than maxChars, preferring word boundaries.
func wrapLines(lines []string, maxChars int) []string {
	var out []string
	for _, line := range lines {
		for len([]rune(line)) > maxChars {
			runes := []rune(line)
			cut := maxChars
			for i := maxChars; i > 0; i-- {
				if runes[i-1] == ' ' {
					cut = i
					break
				}
			}
			out = append(out, strings.TrimRight(string(runes[:cut]), " "))
			line = strings.TrimLeft(string(runes[cut:]), " ")
		}
		out = append(out, line)
	}
	return out
}

// writePdf assembles the PDF object graph by hand: catalog, page tree, one
// content stream per page and a single WinAnsi Courier font.
func writePdf(pages [][]string, size, leading, vMargin float64) []byte {
	// Object numbering: 1 catalog, 2 pages, 3 font, then page/content pairs.
	fontObj := 3
	firstPage := 4
	numObjs := 3 + 2*len(pages)

	bodies := make([]string, numObjs+1)
	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", firstPage+2*i))
	}

	bodies[1] = "<< /Type /Catalog /Pages 2 0 R >>"
	bodies[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pages))
	bodies[3] = "<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding >>"

	for i, page := range pages {
		pageObj := firstPage + 2*i
		contentObj := pageObj + 1

		var cs bytes.Buffer
		fmt.Fprintf(&cs, "BT\n/F1 %.2f Tf\n%.2f TL\n%.2f %.2f Td\n",
			size, leading, pageMargin, pageHeight-vMargin-size)
		for _, line := range page {
			cs.WriteString("(" + escapePdfText(line) + ") Tj\nT*\n")
		}
		cs.WriteString("ET\n")

		bodies[pageObj] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pageWidth, pageHeight, fontObj, contentObj)
		bodies[contentObj] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream",
			cs.Len(), cs.String())
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, numObjs+1)
	for n := 1; n <= numObjs; n++ {
		offsets[n] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", n, bodies[n])
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", numObjs+1)
	for n := 1; n <= numObjs; n++ {
		fmt.Fprintf(&out, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		numObjs+1, xref)
	return out.Bytes()
}

// escapePdfText escapes PDF string delimiters and folds runes to
// WinAnsi/Latin-1, which covers Portuguese diacritics.
func escapePdfText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(byte(r))
		default:
			if r > 0xFF {
				b.WriteByte('?')
			} else if r >= 0x80 {
				fmt.Fprintf(&b, "\\%03o", r)
			} else {
				b.WriteByte(byte(r))
			}
		}
	}
	return b.String()
}

// stampLetterhead layers page 1 of the template under every page.
func stampLetterhead(base, template []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "advflow-letterhead-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	basePath := filepath.Join(dir, "base.pdf")
	tplPath := filepath.Join(dir, "template.pdf")
	outPath := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(basePath, base, 0o600); err != nil {
		return nil, err
	}
	if err := os.WriteFile(tplPath, template, 0o600); err != nil {
		return nil, err
	}

	wm, err := api.PDFWatermark(tplPath+":1", "scale:1 abs, pos:c, rot:0", false, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("letterhead watermark: %w", err)
	}
	if err := api.AddWatermarksFile(basePath, outPath, nil, wm, nil); err != nil {
		return nil, fmt.Errorf("apply letterhead: %w", err)
	}
	return os.ReadFile(outPath)
}

// stampSignature places the signature image near the bottom left of the
// last page only.
func stampSignature(base, signature []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "advflow-signature-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	basePath := filepath.Join(dir, "base.pdf")
	sigPath := filepath.Join(dir, "signature.png")
	outPath := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(basePath, base, 0o600); err != nil {
		return nil, err
	}
	if err := os.WriteFile(sigPath, signature, 0o600); err != nil {
		return nil, err
	}

	last, err := api.PageCountFile(basePath)
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	wm, err := api.ImageWatermark(sigPath, "scale:0.2 abs, pos:bl, off:40 60, rot:0", true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("signature watermark: %w", err)
	}
	pagesSel := []string{fmt.Sprintf("%d", last)}
	if err := api.AddWatermarksFile(basePath, outPath, pagesSel, wm, nil); err != nil {
		return nil, fmt.Errorf("apply signature: %w", err)
	}
	return os.ReadFile(outPath)
}
