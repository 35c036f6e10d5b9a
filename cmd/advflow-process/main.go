// advflow-process re-runs extraction and renaming for a single document.
// It exists because the task queue is in-memory: documents caught mid-flight
// by a restart are recovered by pointing this at their id.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/extraction"
	"github.com/advflow/advflow/internal/llm/openai"
	"github.com/advflow/advflow/internal/ocr"
	"github.com/advflow/advflow/internal/renaming"
	"github.com/advflow/advflow/internal/repository"
	"github.com/advflow/advflow/internal/storage"
	"github.com/advflow/advflow/internal/tasks"
	"github.com/advflow/advflow/internal/upload"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "advflow-process <document-id-uuid>")
		os.Exit(2)
	}
	docID, err := uuid.Parse(os.Args[1])
	if err != nil {
		logger.Error("invalid document id (must be UUID)", "arg", os.Args[1], "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store, err := storage.NewS3Store(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("object store", "error", err)
		os.Exit(1)
	}

	docs := repository.NewDocumentRepository(pool, logger)
	clients := repository.NewClientRepository(pool, logger)
	cases := repository.NewCaseRepository(pool, logger)
	folders := repository.NewFolderRepository(pool, logger)

	llmClient := openai.NewClient(openai.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		RenameModel:     cfg.LLM.RenameModel,
		DraftModel:      cfg.LLM.DraftModel,
		Temperature:     cfg.LLM.Temperature,
		RenameTimeout:   cfg.LLM.RenameTimeout,
		DraftTimeout:    cfg.LLM.DraftTimeout,
		RenameMaxTokens: cfg.LLM.RenameMaxTokens,
		DraftMaxTokens:  cfg.LLM.DraftMaxTokens,
	}, logger)

	registry := tasks.NewRegistry(logger)
	renameSvc := renaming.NewService(docs, clients, cases, llmClient, logger)
	scheduler := renaming.NewScheduler(renaming.SchedulerConfig{
		QueueSize:     cfg.Renaming.QueueSize,
		Delay:         cfg.Renaming.RenameDelay,
		FastBootstrap: cfg.Renaming.FastBootstrap,
	}, renameSvc, registry, logger).WithHistory(docs)
	scheduler.Start(ctx)
	defer scheduler.Shutdown(ctx)

	extractor := extraction.NewClient(extraction.Config{
		WebhookURL: cfg.Extraction.WebhookURL,
		Timeout:    cfg.Extraction.Timeout,
	}, logger)
	imageOCR := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		CacheDir:      cfg.OCR.CacheDir,
	}, logger)

	uploads := upload.NewService(docs, clients, cases, folders, store, extractor, imageOCR, scheduler, registry, logger)

	taskID, err := uploads.Reprocess(ctx, docID)
	if err != nil {
		logger.Error("reprocess", "document_id", docID, "error", err)
		os.Exit(1)
	}

	task, ok := registry.Wait(taskID, 3*time.Minute)
	if !ok {
		logger.Error("extraction did not finish in time", "task_id", taskID)
		os.Exit(1)
	}
	logger.Info("extraction finished", "task_id", taskID, "status", task.Status, "error", task.Error)

	// The rename task is enqueued only after extraction settles, so poll
	// briefly for it to appear before waiting on it.
	deadline := time.Now().Add(10 * time.Second)
	for {
		var waited bool
		for _, tk := range registry.ForDocument(docID) {
			if tk.Kind != constants.TaskKindRename {
				continue
			}
			waited = true
			if final, ok := registry.Wait(tk.ID, time.Minute); ok {
				logger.Info("rename finished", "task_id", final.ID, "status", final.Status, "error", final.Error)
			}
		}
		if waited || time.Now().After(deadline) {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}

	if task.Status == constants.TaskStatusFailed {
		os.Exit(1)
	}
}
