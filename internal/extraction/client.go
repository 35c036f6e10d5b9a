// Package extraction calls the external text-extraction webhook and returns
// the raw text it produces for a stored document.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/common"
)

// Request identifies the stored blob the webhook should extract text from.
type Request struct {
	FileURL    string
	MimeType   string
	FileName   string
	DocumentID uuid.UUID
	// ForceForConverted sends the request even when MimeType is outside the
	// allow-list. The upload flow sets it for image originals that were
	// converted to PDF, where the original mime no longer matters.
	ForceForConverted bool
}

// Extractor is the surface the upload orchestrator depends on.
type Extractor interface {
	Extract(ctx context.Context, req Request) (string, error)
}

// ErrUnsupportedMime reports a mime type outside the extraction allow-list.
var ErrUnsupportedMime = fmt.Errorf("%w: mime type not supported for extraction", common.ErrInvalidInput)

type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

type webhookPayload struct {
	FileURL    string `json:"fileUrl"`
	MimeType   string `json:"mimeType"`
	FileName   string `json:"fileName"`
	DocumentID string `json:"documentId"`
	Timestamp  string `json:"timestamp"`
}

// Extract posts the document reference to the webhook and returns the text
// from its response body. The webhook replies with plain text, though some
// deployments wrap it as {"text": "..."}; both are accepted.
func (c *Client) Extract(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	if !req.ForceForConverted && !constants.IsSupportedExtractionMime(req.MimeType) {
		c.log.Info("extract.skip_unsupported",
			"document_id", req.DocumentID, "mime_type", req.MimeType)
		return "", ErrUnsupportedMime
	}

	payload := webhookPayload{
		FileURL:    req.FileURL,
		MimeType:   req.MimeType,
		FileName:   req.FileName,
		DocumentID: req.DocumentID.String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal webhook payload: %w", err)
	}

	c.log.Info("extract.start",
		"document_id", req.DocumentID,
		"mime_type", req.MimeType,
		"file_name", req.FileName,
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Error("extract.http_error",
			"document_id", req.DocumentID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("extraction webhook: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warn("extract.body_close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("extract.bad_status",
			"document_id", req.DocumentID, "status", resp.StatusCode,
			"body", truncate(string(raw), 512),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("extraction webhook status %d", resp.StatusCode)
	}

	text := decodeText(raw)
	c.log.Info("extract.ok",
		"document_id", req.DocumentID,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func decodeText(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Text != "" {
			return strings.TrimSpace(wrapped.Text)
		}
	}
	return strings.TrimSpace(string(trimmed))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
