package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advflow/advflow/internal/llm"
)

func completionReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func testClient(url string) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: url},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSuggestNameSendsPromptAndReturnsReply(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(completionReply("  DOC n. 002 + SILVA_JOAO + RG + 2024-03-15  ")))
	}))
	defer srv.Close()

	name, err := testClient(srv.URL).SuggestName(context.Background(), llm.RenameRequest{
		FileName:      "rg.pdf",
		ClientName:    "João Silva",
		ExtractedText: "REGISTRO GERAL 12.345.678-9",
		LastDocument:  &llm.LastDocument{Name: "DOC n. 001 + SILVA_JOAO + CPF + 2024-03-14", Number: 1},
		Now:           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "DOC n. 002 + SILVA_JOAO + RG + 2024-03-15", name)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	assert.EqualValues(t, 100, gotBody["max_tokens"])

	msgs := gotBody["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "PRÓXIMO NÚMERO A USAR: 002")
	assert.Contains(t, user, "REGISTRO GERAL 12.345.678-9")
	assert.Contains(t, user, "Data de processamento: 2024-03-15")
}

func TestSuggestNameFirstDocumentPrompt(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(completionReply("DOC n. 001 + ANA + CPF + 2024-01-01")))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).SuggestName(context.Background(), llm.RenameRequest{
		FileName:   "cpf.pdf",
		ClientName: "Ana",
	})
	require.NoError(t, err)
	user := gotBody["messages"].([]any)[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "primeiro documento do cliente")
	assert.Contains(t, user, "Use o número 001")
}

func TestDraftAppendsUserPrompt(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(completionReply("DOS FATOS\n1. ...")))
	}))
	defer srv.Close()

	out, err := testClient(srv.URL).Draft(context.Background(), llm.DraftRequest{
		ClientName: "Ana",
		Mode:       llm.DraftFatos,
		Documents: []llm.DraftDocument{
			{Name: "DOC n. 001 + ANA + RG + 2024-01-01", DocNumber: "DOC n. 001", Type: "RG"},
		},
		UserPrompt: "mencionar o endereço",
	})
	require.NoError(t, err)
	assert.Equal(t, "DOS FATOS\n1. ...", out)
	assert.Equal(t, "gpt-4o", gotBody["model"])

	msgs := gotBody["messages"].([]any)
	require.Len(t, msgs, 3)
	last := msgs[2].(map[string]any)["content"].(string)
	assert.Contains(t, last, "mencionar o endereço")
}

func TestCompleteErrors(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()
		_, err := testClient(srv.URL).SuggestName(context.Background(), llm.RenameRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()
		_, err := testClient(srv.URL).SuggestName(context.Background(), llm.RenameRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})
}

func TestDraftSystemPromptPerMode(t *testing.T) {
	assert.Contains(t, llm.DraftSystemPrompt(llm.DraftFatos, ""), "DOS FATOS")
	assert.Contains(t, llm.DraftSystemPrompt(llm.DraftProcuracao, ""), "ad judicia")
	assert.Contains(t, llm.DraftSystemPrompt(llm.DraftPeticao, ""), "petições iniciais")
	assert.True(t, strings.Contains(llm.DraftSystemPrompt(llm.DraftContrato, "locação"), "locação"))
}
