package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/advflow/advflow/internal/llm"
)

// SuggestName implements llm.Renamer using text-only chat/completions. The
// reply is returned verbatim; validation and correction belong to the caller.
func (c *Client) SuggestName(ctx context.Context, req llm.RenameRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.rename.start",
		"req_id", rid,
		"model", c.cfg.RenameModel,
		"document_id", req.DocumentID,
		"file_name", req.FileName,
		"client", req.ClientName,
		"text_len", len(req.ExtractedText),
		"has_last_document", req.LastDocument != nil,
	)

	body := map[string]any{
		"model":       c.cfg.RenameModel,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.RenameMaxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": llm.RenameSystemPrompt()},
			{"role": "user", "content": llm.BuildRenamePrompt(req)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RenameTimeout)
	defer cancel()

	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.rename.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.log.Info("llm.rename.ok",
		"req_id", rid,
		"suggested", content,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// Draft implements llm.Drafter.
func (c *Client) Draft(ctx context.Context, req llm.DraftRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.draft.start",
		"req_id", rid,
		"model", c.cfg.DraftModel,
		"mode", req.Mode,
		"client", req.ClientName,
		"documents", len(req.Documents),
	)

	messages := []map[string]any{
		{"role": "system", "content": llm.DraftSystemPrompt(req.Mode, req.SubType)},
		{"role": "user", "content": llm.BuildDraftPrompt(req)},
	}
	if req.UserPrompt != "" {
		messages = append(messages, map[string]any{
			"role":    "user",
			"content": "Requisitos adicionais do usuário:\n" + req.UserPrompt,
		})
	}

	body := map[string]any{
		"model":       c.cfg.DraftModel,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.DraftMaxTokens,
		"messages":    messages,
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.DraftTimeout)
	defer cancel()

	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.draft.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.log.Info("llm.draft.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty content in openai response")
	}
	return content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}
