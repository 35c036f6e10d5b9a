// advflowd is the AdvFlow daemon: HTTP API, rename scheduler and the
// background extraction pipeline in one process.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/drafting"
	"github.com/advflow/advflow/internal/export"
	"github.com/advflow/advflow/internal/extraction"
	"github.com/advflow/advflow/internal/llm/openai"
	"github.com/advflow/advflow/internal/ocr"
	"github.com/advflow/advflow/internal/renaming"
	"github.com/advflow/advflow/internal/repository"
	"github.com/advflow/advflow/internal/server"
	"github.com/advflow/advflow/internal/storage"
	"github.com/advflow/advflow/internal/tasks"
	"github.com/advflow/advflow/internal/upload"
)

func main() {
	_ = godotenv.Load()

	zlog, _ := zap.NewProduction()
	defer func() { _ = zlog.Sync() }()
	log := zlog.Sugar()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(slogger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, slogger)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer pool.Close()

	if err := repository.HealthCheck(ctx, pool, 3*time.Second, slogger); err != nil {
		log.Fatalf("db health: %v", err)
	}
	if err := repository.Migrate(ctx, pool, slogger); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Infow("db ready")

	store, err := storage.NewS3Store(ctx, cfg.Storage, slogger)
	if err != nil {
		log.Fatalf("object store: %v", err)
	}

	docs := repository.NewDocumentRepository(pool, slogger)
	clients := repository.NewClientRepository(pool, slogger)
	cases := repository.NewCaseRepository(pool, slogger)
	folders := repository.NewFolderRepository(pool, slogger)
	petitions := repository.NewPetitionRepository(pool, slogger)
	prefs := repository.NewPrefsRepository(pool, slogger)

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
	}, slogger)

	registry := tasks.NewRegistry(slogger)
	renameSvc := renaming.NewService(docs, clients, cases, llmClient, slogger)
	scheduler := renaming.NewScheduler(renaming.SchedulerConfig{
		QueueSize:     cfg.Renaming.QueueSize,
		Delay:         cfg.Renaming.RenameDelay,
		FastBootstrap: cfg.Renaming.FastBootstrap,
	}, renameSvc, registry, slogger).WithHistory(docs)
	scheduler.Start(ctx)

	extractor := extraction.NewClient(extraction.Config{
		WebhookURL: cfg.Extraction.WebhookURL,
		Timeout:    cfg.Extraction.Timeout,
	}, slogger)

	imageOCR := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		CacheDir:      cfg.OCR.CacheDir,
	}, slogger)

	uploads := upload.NewService(docs, clients, cases, folders, store, extractor, imageOCR, scheduler, registry, slogger)
	drafts := drafting.NewService(docs, clients, cases, petitions, llmClient, slogger)
	exports := export.NewService(docs, clients, prefs, store, slogger)

	srv := server.New(cfg.Server, server.Deps{
		Uploads:   uploads,
		Drafts:    drafts,
		Exports:   exports,
		Docs:      docs,
		Clients:   clients,
		Cases:     cases,
		Folders:   folders,
		Petitions: petitions,
		Prefs:     prefs,
		Store:     store,
		Registry:  registry,
	}, zlog)

	httpSrv := srv.HTTPServer()
	go func() {
		log.Infof("http serving on %s", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	scheduler.Shutdown(shutdownCtx)
	log.Info("stopped")
}
