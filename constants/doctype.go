package constants

import "strings"

// DocType is a canonical document-type token as it appears in the
// "DOC n." naming scheme (upper snake case, Portuguese).
type DocType string

const (
	// Documentos pessoais
	RG                 DocType = "RG"
	CPF                DocType = "CPF"
	CNH                DocType = "CNH"
	TituloEleitor      DocType = "TITULO_ELEITOR"
	CertidaoNascimento DocType = "CERTIDAO_NASCIMENTO"
	CertidaoCasamento  DocType = "CERTIDAO_CASAMENTO"
	Passaporte         DocType = "PASSPORTE"

	// Documentos contratuais
	ContratoTrabalho   DocType = "CONTRATO_TRABALHO"
	ContratoServico    DocType = "CONTRATO_SERVICO"
	ContratoLocacao    DocType = "CONTRATO_LOCACAO"
	ContratoCompraVenda DocType = "CONTRATO_COMPRA_VENDA"
	TermoAcordo        DocType = "TERMO_ACORDO"
	TermoCompromisso   DocType = "TERMO_COMPROMISSO"
	NDA                DocType = "NDAS"

	// Documentos processuais
	PeticaoInicial         DocType = "PETICAO_INICIAL"
	PeticaoResposta        DocType = "PETICAO_RESPOSTA"
	PeticaoRecurso         DocType = "PETICAO_RECURSO"
	Sentenca               DocType = "SENTENCA"
	Decisao                DocType = "DECISAO"
	MandadoSeguranca       DocType = "MANDADO_SEGURANCA"
	HabeasCorpus           DocType = "HABEAS_CORPUS"
	Procuracao             DocType = "PROCURACAO"
	ProcuracaoAdjudicatoria DocType = "PROCURACAO_ADJUDICATORIA"

	// Documentos financeiros
	ExtratoBancario DocType = "EXTRATO_BANCARIO"
	ComprovanteRenda DocType = "COMPROVANTE_RENDA"
	ImpostoRenda    DocType = "IMPOSTO_RENDA"
	DeclaracaoIR    DocType = "DECLARACAO_IR"
	NotaFiscal      DocType = "NOTA_FISCAL"
	Recibo          DocType = "RECIBO"
	Boleto          DocType = "BOLETO"

	// Correspondências
	CartaDemanda            DocType = "CARTA_DEMANDA"
	CartaResposta           DocType = "CARTA_RESPOSTA"
	EmailCorrespondencia    DocType = "EMAIL_CORRESPONDENCIA"
	NotificacaoExtrajudicial DocType = "NOTIFICACAO_EXTRAJUDICIAL"
	Intimacao               DocType = "INTIMACAO"

	// Evidências
	FotoEvidencia     DocType = "FOTO_EVIDENCIA"
	VideoEvidencia    DocType = "VIDEO_EVIDENCIA"
	AudioGravacao     DocType = "AUDIO_GRAVACAO"
	TestemunhoEscrito DocType = "TESTEMUNHO_ESCRITO"
	LaudoTecnico      DocType = "LAUDO_TECNICO"
	Pericia           DocType = "PERICIA"

	// Fallback when the content cannot be classified.
	DocumentoLegal DocType = "DOCUMENTO_LEGAL"
)

// DocTypeGroups maps the taxonomy group label (as presented to the LLM) to
// its members, in prompt order.
var DocTypeGroups = []struct {
	Label string
	Types []DocType
}{
	{"Documentos Pessoais", []DocType{RG, CPF, CNH, TituloEleitor, CertidaoNascimento, CertidaoCasamento, Passaporte}},
	{"Documentos Contratuais", []DocType{ContratoTrabalho, ContratoServico, ContratoLocacao, ContratoCompraVenda, TermoAcordo, TermoCompromisso, NDA}},
	{"Documentos Processuais", []DocType{PeticaoInicial, PeticaoResposta, PeticaoRecurso, Sentenca, Decisao, MandadoSeguranca, HabeasCorpus, Procuracao, ProcuracaoAdjudicatoria}},
	{"Documentos Financeiros", []DocType{ExtratoBancario, ComprovanteRenda, ImpostoRenda, DeclaracaoIR, NotaFiscal, Recibo, Boleto}},
	{"Correspondências", []DocType{CartaDemanda, CartaResposta, EmailCorrespondencia, NotificacaoExtrajudicial, Intimacao}},
	{"Evidências", []DocType{FotoEvidencia, VideoEvidencia, AudioGravacao, TestemunhoEscrito, LaudoTecnico, Pericia}},
}

// RecognizedDocTypes returns every canonical type token. DOCUMENTO_LEGAL is
// excluded: it is the fallback, not a classification target.
func RecognizedDocTypes() []DocType {
	var out []DocType
	for _, g := range DocTypeGroups {
		out = append(out, g.Types...)
	}
	return out
}

// IsRecognizedDocType reports whether s (case-insensitive) is a canonical
// type token.
func IsRecognizedDocType(s string) bool {
	u := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range RecognizedDocTypes() {
		if u == string(t) {
			return true
		}
	}
	return false
}

// ScanDocType looks for the longest canonical type token contained in free
// text. Used by the correction path when the model reply does not match the
// naming grammar.
func ScanDocType(text string) (DocType, bool) {
	u := strings.ToUpper(text)
	// Underscored tokens may come back with spaces instead.
	spaced := strings.NewReplacer("_", " ")
	var best DocType
	for _, t := range RecognizedDocTypes() {
		if !strings.Contains(u, string(t)) && !strings.Contains(u, spaced.Replace(string(t))) {
			continue
		}
		if len(t) > len(best) {
			best = t
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
