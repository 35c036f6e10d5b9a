package extraction

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Config{WebhookURL: url}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtractSendsPayloadAndReturnsText(t *testing.T) {
	docID := uuid.New()
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("  CONTRATO DE TRABALHO\nentre as partes...  "))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL).Extract(context.Background(), Request{
		FileURL:    "https://blobs/abc",
		MimeType:   "application/pdf",
		FileName:   "contrato.pdf",
		DocumentID: docID,
	})
	require.NoError(t, err)
	assert.Equal(t, "CONTRATO DE TRABALHO\nentre as partes...", text)
	assert.Equal(t, "https://blobs/abc", got.FileURL)
	assert.Equal(t, "application/pdf", got.MimeType)
	assert.Equal(t, "contrato.pdf", got.FileName)
	assert.Equal(t, docID.String(), got.DocumentID)
	assert.NotEmpty(t, got.Timestamp)
}

func TestExtractAcceptsWrappedJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "corpo do documento"})
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL).Extract(context.Background(), Request{
		MimeType:   "application/pdf",
		DocumentID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, "corpo do documento", text)
}

func TestExtractRejectsUnsupportedMime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("webhook must not be called for unsupported mime types")
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Extract(context.Background(), Request{
		MimeType:   "application/zip",
		DocumentID: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrUnsupportedMime)
}

func TestExtractForceForConvertedBypassesAllowList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("texto"))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL).Extract(context.Background(), Request{
		MimeType:          "image/heic",
		DocumentID:        uuid.New(),
		ForceForConverted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "texto", text)
}

func TestExtractPropagatesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Extract(context.Background(), Request{
		MimeType:   "application/pdf",
		DocumentID: uuid.New(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
