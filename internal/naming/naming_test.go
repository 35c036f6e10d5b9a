package naming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	n, ok := Parse("DOC n. 003 + SILVA_JOAO + CONTRATO_TRABALHO + 2024-03-17")
	require.True(t, ok)
	assert.Equal(t, 3, n.Seq)
	assert.Equal(t, "SILVA_JOAO", n.Client)
	assert.Equal(t, "CONTRATO_TRABALHO", n.Type)
	assert.Equal(t, "2024-03-17", n.Date)
	assert.Equal(t, "DOC n. 003 + SILVA_JOAO + CONTRATO_TRABALHO + 2024-03-17", n.Format())
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{
		"doc 1 joao contrato 2024",
		"DOC n. 1 + JOAO + RG + 2024-03-15",                // seq not 3 digits
		"DOC n. 001 + joao + RG + 2024-03-15",              // lowercase client
		"DOC n. 001 + JOAO + RG + 15/03/2024",              // wrong date format
		"DOC n. 001 +JOAO + RG + 2024-03-15",               // missing space
		"DOC n. 001 + JOAO + RG + 2024-03-15 extra",        // trailing garbage
		"Contexto n. 001",                                  // wrong scheme
		" DOC n. 001 + JOAO + RG + 2024-03-15",             // leading space
	}
	for _, s := range bad {
		_, ok := Parse(s)
		assert.False(t, ok, "should reject %q", s)
	}
}

func TestCorrectAcceptsValidUnchanged(t *testing.T) {
	n, ok := Correct("DOC n. 007 + MARIA + RECIBO + 2025-01-02", Hints{})
	require.True(t, ok)
	assert.Equal(t, "DOC n. 007 + MARIA + RECIBO + 2025-01-02", n.Format())
}

func TestCorrectSalvagesMalformedReply(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	n, ok := Correct("doc 002 joão silva contrato_trabalho 2024-03-15", Hints{
		ExpectedSeq: 2,
		ClientName:  "João Silva",
		Now:         now,
	})
	require.True(t, ok)
	assert.Equal(t, 2, n.Seq)
	assert.Equal(t, "JOAO_SILVA", n.Client)
	assert.Equal(t, "CONTRATO_TRABALHO", n.Type)
	assert.Equal(t, "2024-03-15", n.Date)
	assert.True(t, IsCanonical(n.Format()))
}

func TestCorrectDefaultsEveryField(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	n, ok := Correct("no usable content here", Hints{ClientName: "Ana", Now: now})
	require.True(t, ok)
	assert.Equal(t, 1, n.Seq)
	assert.Equal(t, "ANA", n.Client)
	assert.Equal(t, "DOCUMENTO_LEGAL", n.Type)
	assert.Equal(t, "2026-08-30", n.Date)
}

func TestCorrectClientPlaceholderFromID(t *testing.T) {
	n, ok := Correct("garbage", Hints{ClientID: "a1b2c3d4-e5f6-0000-0000-000000000000"})
	require.True(t, ok)
	assert.Equal(t, "CLIENTE_A_B_C_D_", n.Client)
	assert.True(t, n.Valid())

	n, ok = Correct("garbage", Hints{})
	require.True(t, ok)
	assert.Equal(t, "CLIENTE_NAO_IDENTIFICADO", n.Client)
}

func TestCorrectNeverProducesInvalidAppliedName(t *testing.T) {
	// Whatever the model replies, the corrected result either validates or
	// is rejected; it must never be an invalid string that passes.
	replies := []string{
		"doc 1 joao contrato 2024",
		"",
		"DOC n. 010 + X + Y + 2024-99-99",
		"me desculpe, não posso ajudar com isso",
	}
	for _, r := range replies {
		n, ok := Correct(r, Hints{ClientName: "João Silva", ExpectedSeq: 4})
		if ok {
			assert.True(t, IsCanonical(n.Format()), "reply %q corrected to invalid %q", r, n.Format())
		}
	}
}

func TestClientToken(t *testing.T) {
	cases := map[string]string{
		"João Silva":        "JOAO_SILVA",
		"  Maria  das Dores ": "MARIA_DAS_DORES",
		"José-Carlos d'Ávila": "JOSE_CARLOS_D_AVILA",
		"Ação & Cia":          "ACAO_CIA",
		"":                    "",
		"___":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ClientToken(in), "input %q", in)
	}
}

func TestContextLabel(t *testing.T) {
	assert.Equal(t, "Contexto n. 004", FormatContextLabel(4))
	seq, ok := ParseContextLabel("Contexto n. 004")
	require.True(t, ok)
	assert.Equal(t, 4, seq)

	_, ok = ParseContextLabel("DOC n. 004 + A + B + 2024-01-01")
	assert.False(t, ok)
}

func TestContextAndDocSchemesAreDisjoint(t *testing.T) {
	assert.False(t, IsCanonical(FormatContextLabel(1)))
	_, ok := ParseContextLabel(DocName{Seq: 1, Client: "A", Type: "B", Date: "2024-01-01"}.Format())
	assert.False(t, ok)
}

func TestSlugAndExportFileName(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "gerar-fatos-2024-03-15.docx", ExportFileName("Gerar Fatos", "docx", now))
	assert.Equal(t, "peticao-inicial", Slug("Petição Inicial!"))
}

func TestStorageFileName(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	got := StorageFileName("foto férias (1).jpg", now)
	assert.Equal(t, "1700000000000-foto_f_rias__1_.jpg", got)

	got = StorageFileName("???", now)
	assert.Equal(t, "1700000000000-arquivo", got)
}
