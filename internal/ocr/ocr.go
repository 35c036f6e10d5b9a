// Package ocr runs local tesseract against original image uploads. It exists
// because image-to-PDF conversion degrades OCR quality: the original image is
// always the better extraction source.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "por"
	TessdataDir   string
	PSM           int // e.g. 6 for a uniform block of text
	OEM           int // 1 = LSTM; leave 0 to use default
	CacheDir      string
}

type Result struct {
	Text     string
	Language string
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "por"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = "./tmp"
	}
	return &Extractor{cfg: cfg, runner: execRunner{log: logger}, logger: logger}
}

// WithRunner swaps the command runner, for tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Available reports whether the tesseract binary can be resolved. The upload
// flow degrades to webhook-only extraction when it cannot.
func (e *Extractor) Available() bool {
	if filepath.IsAbs(e.cfg.Tesseract) {
		_, err := os.Stat(e.cfg.Tesseract)
		return err == nil
	}
	_, _, err := e.runner.Run(context.Background(), e.cfg.Tesseract, "--version")
	return err == nil
}

// ExtractImage OCRs a single image file and returns the cleaned text.
func (e *Extractor) ExtractImage(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	e.logger.Debug("starting image ocr", "path", path, "lang", e.cfg.TesseractLang)

	txt, warns, err := e.tesseractOCR(ctx, path)
	res := Result{
		Language: e.cfg.TesseractLang,
		Duration: time.Since(start),
		Warnings: warns,
	}
	if err != nil {
		return res, err
	}
	res.Text = Normalize(txt)

	e.logger.Info("image ocr done",
		"path", path,
		"text_len", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// ExtractImageBytes writes data to the cache dir and OCRs it. The upload flow
// holds the image only in memory.
func (e *Extractor) ExtractImageBytes(ctx context.Context, data []byte, ext string) (Result, error) {
	if err := os.MkdirAll(e.cfg.CacheDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create ocr cache dir: %w", err)
	}
	f, err := os.CreateTemp(e.cfg.CacheDir, "ocr-*."+strings.TrimPrefix(ext, "."))
	if err != nil {
		return Result{}, fmt.Errorf("create ocr temp file: %w", err)
	}
	path := f.Name()
	defer func() {
		if rerr := os.Remove(path); rerr != nil {
			e.logger.Warn("ocr temp file cleanup failed", "path", path, "error", rerr)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return Result{}, fmt.Errorf("write ocr temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("close ocr temp file: %w", err)
	}
	return e.ExtractImage(ctx, path)
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}

var reBoxNoise = regexp.MustCompile(`[|¦]{2,}`)

// Normalize collapses whitespace runs while keeping line structure.
func Normalize(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, ln := range lines {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
