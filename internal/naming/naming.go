// Package naming implements the canonical document naming scheme:
//
//	DOC n. 001 + JOAO_SILVA + CONTRATO_TRABALHO + 2024-03-15
//
// and the context-document label scheme:
//
//	Contexto n. 001
//
// The grammar is consumed and produced bit-exact; see Parse and Format.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/advflow/advflow/constants"
)

// DocName is the parsed form of a canonical document name.
type DocName struct {
	Seq    int    // sequence number, 1-based, rendered zero-padded to 3 digits
	Client string // client token, upper snake case
	Type   string // document-type token, upper snake case
	Date   string // ISO date YYYY-MM-DD, kept textual (the grammar is textual)
}

var (
	docNameRe = regexp.MustCompile(`^DOC n\. (?P<seq>\d{3}) \+ (?P<client>[A-Z_]+) \+ (?P<type>[A-Z_]+) \+ (?P<date>\d{4}-\d{2}-\d{2})$`)

	contextLabelRe = regexp.MustCompile(`^Contexto n\. (?P<seq>\d{3})$`)

	// Loose patterns used by the correction path only.
	seqRe  = regexp.MustCompile(`\b(\d{3})\b`)
	dateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
)

// Parse parses a canonical document name. ok is false when s does not match
// the grammar exactly.
func Parse(s string) (DocName, bool) {
	m := docNameRe.FindStringSubmatch(s)
	if m == nil {
		return DocName{}, false
	}
	var n DocName
	fmt.Sscanf(m[docNameRe.SubexpIndex("seq")], "%d", &n.Seq)
	n.Client = m[docNameRe.SubexpIndex("client")]
	n.Type = m[docNameRe.SubexpIndex("type")]
	n.Date = m[docNameRe.SubexpIndex("date")]
	return n, true
}

// Format renders the canonical string form.
func (n DocName) Format() string {
	return fmt.Sprintf("DOC n. %03d + %s + %s + %s", n.Seq, n.Client, n.Type, n.Date)
}

// Valid reports whether the rendered form round-trips through the grammar.
func (n DocName) Valid() bool {
	_, ok := Parse(n.Format())
	return ok
}

// IsCanonical reports whether s matches the document naming grammar.
func IsCanonical(s string) bool {
	_, ok := Parse(s)
	return ok
}

// ParseContextLabel parses a "Contexto n. NNN" label.
func ParseContextLabel(s string) (int, bool) {
	m := contextLabelRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	var seq int
	fmt.Sscanf(m[1], "%d", &seq)
	return seq, true
}

// FormatContextLabel renders a context-document label.
func FormatContextLabel(seq int) string {
	return fmt.Sprintf("Contexto n. %03d", seq)
}

// Hints carries the locally known values the correction path may substitute
// when a model reply does not match the grammar.
type Hints struct {
	ExpectedSeq int       // the number the model was told to use; 0 if unknown
	ClientName  string    // display name; sanitized to the client token
	ClientID    string    // fallback token source when the name is empty
	Now         time.Time // date source; zero value means time.Now
}

// Correct attempts to salvage a malformed model reply field by field:
// a 3-digit sequence if present (else the expected one, else 001), a date
// pattern (else today), any recognized type token in the text (else
// DOCUMENTO_LEGAL), and the sanitized client name (else a client-id-derived
// placeholder). ok is false only when no valid name can be produced.
func Correct(raw string, h Hints) (DocName, bool) {
	if n, ok := Parse(strings.TrimSpace(raw)); ok {
		return n, true
	}

	n := DocName{Seq: h.ExpectedSeq}
	if m := seqRe.FindStringSubmatch(raw); m != nil {
		fmt.Sscanf(m[1], "%d", &n.Seq)
	}
	if n.Seq <= 0 {
		n.Seq = 1
	}

	if m := dateRe.FindStringSubmatch(raw); m != nil {
		n.Date = m[1]
	} else {
		now := h.Now
		if now.IsZero() {
			now = time.Now()
		}
		n.Date = now.Format("2006-01-02")
	}

	if t, ok := constants.ScanDocType(raw); ok {
		n.Type = string(t)
	} else {
		n.Type = string(constants.DocumentoLegal)
	}

	n.Client = ClientToken(h.ClientName)
	if n.Client == "" {
		// The grammar admits letters and underscores only, so the
		// id-derived placeholder keeps just the id's letters.
		if letters := ClientToken(h.ClientID); letters != "" {
			if len(letters) > 8 {
				letters = letters[:8]
			}
			n.Client = "CLIENTE_" + letters
		} else {
			n.Client = "CLIENTE_NAO_IDENTIFICADO"
		}
	}

	if !n.Valid() {
		return DocName{}, false
	}
	return n, true
}

var accentReplacer = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A", "Ä", "A",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"Í", "I", "Ì", "I", "Î", "I", "Ï", "I",
	"Ó", "O", "Ò", "O", "Ô", "O", "Õ", "O", "Ö", "O",
	"Ú", "U", "Ù", "U", "Û", "U", "Ü", "U",
	"Ç", "C", "Ñ", "N",
)

// ClientToken sanitizes a client display name into the upper-snake token used
// by the grammar: accents stripped, everything outside A-Z collapsed to
// single underscores (the grammar admits no digits). Returns "" when nothing
// survives.
func ClientToken(name string) string {
	s := accentReplacer.Replace(strings.ToUpper(strings.TrimSpace(name)))
	var b strings.Builder
	lastUnderscore := true
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// Slug strips accents, lowercases, converts spaces to hyphens and drops
// everything else. Used for export file names.
func Slug(s string) string {
	s = accentReplacer.Replace(strings.ToUpper(strings.TrimSpace(s)))
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), "-")
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExportFileName renders "{slug}-{YYYY-MM-DD}.{ext}".
func ExportFileName(base, ext string, now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	return fmt.Sprintf("%s-%s.%s", Slug(base), now.Format("2006-01-02"), ext)
}

// StorageFileName sanitizes an original filename into a collision-resistant
// storage key component: "{unix-ms}-{sanitized}".
func StorageFileName(original string, now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	s := strings.TrimSpace(original)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "._")
	if name == "" {
		name = "arquivo"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), name)
}
