package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/advflow/advflow/constants"
)

// RenameSystemPrompt is the fixed system message for the renaming flow. The
// taxonomy it lists must stay in lockstep with constants.DocTypeGroups.
func RenameSystemPrompt() string {
	var b strings.Builder
	b.WriteString(`Você é um Agente Especialista em Documentos Jurídicos com foco em Reconhecimento, Classificação e Criação de Fatos.

SUA ESPECIALIZAÇÃO:
- Análise e classificação de documentos jurídicos baseada no conteúdo
- Geração de nomes de arquivo descritivos baseados na análise do documento
- Gerenciamento de organização de documentos

SISTEMA DE CLASSIFICAÇÃO ESPECÍFICA:
`)
	for _, g := range constants.DocTypeGroups {
		b.WriteString("- " + g.Label + ": " + joinTypes(g.Types) + "\n")
	}
	b.WriteString(`
CONVENÇÕES DE NOMENCLATURA:
- Formato: DOC n. [NÚMERO_SEQUENCIAL] + [NOME_CLIENTE] + [TIPO_DOCUMENTO] + [DATA_PROCESSAMENTO]
- Nome do cliente em MAIÚSCULAS com underscores
- Tipo do documento em MAIÚSCULAS com underscores
- Data no formato ISO (YYYY-MM-DD)
- Numeração sequencial de 3 dígitos por cliente

COMPORTAMENTO:
- Siga EXATAMENTE o formato de nomenclatura especificado
- Analise cuidadosamente o conteúdo para identificar o tipo ESPECÍFICO de documento
- Seja preciso na classificação - não use "DOCUMENTO_LEGAL" se conseguir identificar o tipo específico
- Responda APENAS com o nome sugerido, sem explicações
- Mantenha confidencialidade e padrões profissionais jurídicos

IMPORTANTE: Sua resposta deve ser APENAS o nome do documento no formato especificado, sem explicações, observações ou texto adicional.`)
	return b.String()
}

// BuildRenamePrompt renders the user message for one renaming request.
func BuildRenamePrompt(req RenameRequest) string {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	currentDate := now.Format("2006-01-02")

	clientName := req.ClientName
	if clientName == "" {
		clientName = "Não especificado"
	}
	caseRef := req.CaseReference
	if caseRef == "" {
		caseRef = "Não especificado"
	}

	var seqInfo string
	if req.LastDocument != nil {
		next := fmt.Sprintf("%03d", req.LastDocument.Number+1)
		seqInfo = fmt.Sprintf(`**NUMERAÇÃO SEQUENCIAL:**
- Último documento renomeado: %s
- Número do último documento: %d
- PRÓXIMO NÚMERO A USAR: %s
- IMPORTANTE: Use sempre o número %s para este documento`,
			req.LastDocument.Name, req.LastDocument.Number, next, next)
	} else {
		seqInfo = `**NUMERAÇÃO SEQUENCIAL:**
- Este é o primeiro documento do cliente
- Use o número 001 para este documento`
	}

	var formatNote string
	switch req.FormatHint {
	case constants.AUDIO, constants.VIDEO:
		formatNote = "\n- Atenção: o conteúdo extraído é uma TRANSCRIÇÃO de mídia (" + req.FormatHint + "), não um documento visual"
	case constants.IMAGE:
		formatNote = "\n- Atenção: o conteúdo foi extraído de uma IMAGEM via OCR"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `DOCUMENTO PARA ANÁLISE E RENOMEAÇÃO:

**Informações do Documento:**
- Nome atual: %s
- Cliente: %s
- Referência do caso: %s
- Data de processamento: %s%s

%s

**Conteúdo Extraído:**
%s

**INSTRUÇÕES:**
Analise o conteúdo extraído acima e sugira um novo nome para o documento seguindo EXATAMENTE o formato:

DOC n. [NÚMERO_SEQUENCIAL] + [NOME_CLIENTE] + [TIPO_DOCUMENTO] + [DATA_PROCESSAMENTO]
`, req.FileName, clientName, caseRef, currentDate, formatNote, seqInfo, req.ExtractedText)

	b.WriteString("\n**TIPOS DE DOCUMENTOS ESPECÍFICOS:**\n")
	for _, g := range constants.DocTypeGroups {
		b.WriteString("\n**" + strings.ToUpper(g.Label) + ":**\n")
		for _, t := range g.Types {
			b.WriteString("- " + string(t) + "\n")
		}
	}

	b.WriteString(`
**EXEMPLOS ESPECÍFICOS:**
- DOC n. 001 + SILVA_JOAO + RG + 2024-03-15
- DOC n. 002 + SILVA_JOAO + CPF + 2024-03-16
- DOC n. 003 + SILVA_JOAO + CONTRATO_TRABALHO + 2024-03-17
- DOC n. 004 + SILVA_JOAO + PETICAO_INICIAL + 2024-03-18

**IMPORTANTE:**
- Responda APENAS com o nome sugerido, sem explicações ou observações
- IDENTIFIQUE O TIPO ESPECÍFICO do documento baseado no conteúdo
- Se não conseguir identificar o tipo específico, use "DOCUMENTO_LEGAL"
- Se não tiver nome do cliente, use "CLIENTE_NAO_IDENTIFICADO"
- RESPEITE A NUMERAÇÃO SEQUENCIAL indicada acima

**RESPOSTA (apenas o nome):**`)
	return b.String()
}

func joinTypes(types []constants.DocType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// DraftSystemPrompt returns the system message for a drafting mode.
func DraftSystemPrompt(mode DraftMode, subType string) string {
	switch mode {
	case DraftProcuracao:
		return `Você é um especialista em documentos jurídicos, focado na redação de procurações ad judicia (arts. 104 e 105 do Código de Processo Civil).

REGRAS:
- Extraia os dados do outorgante EXATAMENTE como aparecem nos documentos fornecidos; nunca invente dados pessoais ausentes - sinalize lacunas com [PREENCHER]
- Inclua a cláusula ad judicia e os poderes gerais de representação processual, destacando poderes específicos do caso quando identificáveis
- Extensão máxima: 1 página (40-50 linhas), em português jurídico formal
- Responda APENAS com o texto da procuração, sem comentários`
	case DraftContrato:
		sub := subType
		if sub == "" {
			sub = "prestação de serviços"
		}
		return fmt.Sprintf(`Você é um especialista em redação de contratos (%s) sob o direito brasileiro.

REGRAS:
- Estruture em cláusulas numeradas: partes, objeto, obrigações, remuneração, prazo, rescisão, foro
- Use os dados das partes exatamente como constam nos documentos; sinalize lacunas com [PREENCHER]
- Português jurídico formal, claro e sem redundâncias
- Responda APENAS com o texto do contrato, sem comentários`, sub)
	case DraftPeticao:
		return `Você é um advogado especialista em redação de petições iniciais sob o Código de Processo Civil brasileiro.

REGRAS:
- Estruture: endereçamento, qualificação das partes, DOS FATOS, DO DIREITO, DOS PEDIDOS, valor da causa
- Fundamente os fatos EXCLUSIVAMENTE nos documentos fornecidos, citando-os pela numeração (DOC n. XXX)
- Documentos marcados como contexto embasam a narrativa mas não são provas a citar
- Português jurídico formal
- Responda APENAS com o texto da petição, sem comentários`
	default: // DraftFatos
		return `Você é um especialista em análise de documentos jurídicos, focado na criação de narrativas de fatos para peças processuais.

REGRAS:
- Produza uma seção "DOS FATOS" em parágrafos numerados, em ordem cronológica
- Baseie cada fato EXCLUSIVAMENTE nos documentos fornecidos, citando-os pela numeração (DOC n. XXX)
- Documentos marcados como contexto embasam a narrativa mas não devem ser citados como prova
- Não invente fatos nem datas; quando um dado faltar, omita-o
- Português jurídico formal
- Responda APENAS com o texto dos fatos, sem comentários`
	}
}

// BuildDraftPrompt renders the user message listing the source documents.
func BuildDraftPrompt(req DraftRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GERAÇÃO DE DOCUMENTO JURÍDICO\n\n**Cliente:** %s\n", req.ClientName)
	if req.CaseReference != "" {
		fmt.Fprintf(&b, "**Referência do caso:** %s\n", req.CaseReference)
	}
	fmt.Fprintf(&b, "**Modo:** %s\n", req.Mode)
	if req.SubType != "" {
		fmt.Fprintf(&b, "**Subtipo:** %s\n", req.SubType)
	}

	b.WriteString("\n**DOCUMENTOS SELECIONADOS:**\n")
	for i, d := range req.Documents {
		num := d.DocNumber
		if num == "" {
			num = "DOC n. XXX"
		}
		text := d.ExtractedText
		if text == "" {
			text = "Dados não disponíveis"
		}
		fmt.Fprintf(&b, "\n--- Documento %d ---\nNome: %s\nNumeração: %s\nTipo: %s\nData: %s\nContexto: %t\nConteúdo:\n%s\n",
			i+1, d.Name, num, d.Type, d.CreatedAt.Format("2006-01-02"), d.IsContext, text)
	}
	return b.String()
}
