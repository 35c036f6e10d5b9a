// Package export builds the downloadable artifacts: DOCX and PDF renditions
// of drafted text and an XLSX inventory of a client's documents.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/advflow/advflow/internal/entity"
)

// DocxOptions controls the DOCX rendition.
type DocxOptions struct {
	Title string
	Font  entity.FontPrefs
	// Template is an existing DOCX whose parts are preserved except for the
	// document body and styles, keeping letterhead headers/footers intact.
	Template []byte
}

// BuildDocx renders text into a minimal but valid WordprocessingML package.
// One paragraph per input line; trailing empty lines are dropped.
func BuildDocx(text string, opts DocxOptions) ([]byte, error) {
	if opts.Font.Family == "" {
		opts.Font = entity.DefaultFontPrefs()
	}
	docXML := documentXML(text)
	stylesXML := stylesXML(opts.Font)

	if len(opts.Template) > 0 {
		return swapDocxParts(opts.Template, docXML, stylesXML)
	}

	title := opts.Title
	if title == "" {
		title = "Documento"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/document.xml", docXML},
		{"word/styles.xml", stylesXML},
		{"docProps/core.xml", coreXML(title)},
		{"docProps/app.xml", appXML},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish docx: %w", err)
	}
	return buf.Bytes(), nil
}

// swapDocxParts rewrites word/document.xml and word/styles.xml inside the
// template package and copies every other part through untouched.
func swapDocxParts(template []byte, docXML, stylesXML string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, fmt.Errorf("open docx template: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	replaced := map[string]string{
		"word/document.xml": docXML,
		"word/styles.xml":   stylesXML,
	}
	seen := map[string]bool{}
	for _, f := range zr.File {
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.Name, err)
		}
		if body, ok := replaced[f.Name]; ok {
			seen[f.Name] = true
			if _, err := w.Write([]byte(body)); err != nil {
				return nil, err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if _, err := io.Copy(w, rc); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("copy %s: %w", f.Name, err)
		}
		_ = rc.Close()
	}
	for name, body := range replaced {
		if seen[name] {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(body)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish docx: %w", err)
	}
	return buf.Bytes(), nil
}

// BodyLines splits text into the lines that become paragraphs: trailing
// empty lines are dropped, interior empties kept (they are visible spacing).
func BodyLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[:end]
}

func documentXML(text string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, line := range BodyLines(text) {
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		_ = xml.EscapeText(&b, []byte(line))
		b.WriteString(`</w:t></w:r></w:p>`)
	}
	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

func stylesXML(font entity.FontPrefs) string {
	// Word measures size in half-points and line spacing in 240ths.
	sz := int(font.SizePt * 2)
	spacing := int(font.LineSpacing * 240)
	var b strings.Builder
	b.WriteString(xml.Header)
	fmt.Fprintf(&b,
		`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`+
			`<w:docDefaults><w:rPrDefault><w:rPr>`+
			`<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:cs="%[1]s"/>`+
			`<w:sz w:val="%[2]d"/><w:szCs w:val="%[2]d"/>`+
			`</w:rPr></w:rPrDefault>`+
			`<w:pPrDefault><w:pPr><w:spacing w:line="%[3]d" w:lineRule="auto"/></w:pPr></w:pPrDefault>`+
			`</w:docDefaults>`+
			`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>`+
			`</w:styles>`,
		escAttr(font.Family), sz, spacing)
	return b.String()
}

func coreXML(title string) string {
	return xml.Header +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">` +
		`<dc:title>` + escAttr(title) + `</dc:title>` +
		`<dc:creator>AdvFlow</dc:creator>` +
		`</cp:coreProperties>`
}

const appXML = xml.Header +
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>AdvFlow</Application>` +
	`</Properties>`

const contentTypesXML = xml.Header +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const relsXML = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

// documentRelsXML ties the styles part to the document part; without the
// relationship Word treats styles.xml as an orphan and ignores it.
const documentRelsXML = xml.Header +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

func escAttr(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
