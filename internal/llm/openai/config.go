package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the OpenAI chat-completions client.
type Config struct {
	APIKey          string  // if empty, falls back to env OPENAI_API_KEY
	BaseURL         string  // default https://api.openai.com/v1
	RenameModel     string  // e.g. "gpt-4o-mini"
	DraftModel      string  // e.g. "gpt-4o"
	Temperature     float32 // 0..2
	RenameTimeout   time.Duration
	DraftTimeout    time.Duration
	RenameMaxTokens int
	DraftMaxTokens  int
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.RenameModel == "" {
		cfg.RenameModel = "gpt-4o-mini"
	}
	if cfg.DraftModel == "" {
		cfg.DraftModel = "gpt-4o"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.RenameTimeout <= 0 {
		cfg.RenameTimeout = 30 * time.Second
	}
	if cfg.DraftTimeout <= 0 {
		cfg.DraftTimeout = 2 * time.Minute
	}
	if cfg.RenameMaxTokens <= 0 {
		cfg.RenameMaxTokens = 100
	}
	if cfg.DraftMaxTokens <= 0 {
		cfg.DraftMaxTokens = 4000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		// The longer drafting timeout is enforced per request; the shared
		// client carries no timeout of its own.
		httpClient: &http.Client{},
		log:        logger,
	}
}
