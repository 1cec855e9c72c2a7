package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"docportal/constants"
	"docportal/internal/common"
	"docportal/internal/export"
	"docportal/internal/extract"
	"docportal/internal/ingest"
	"docportal/internal/match"
	"docportal/internal/merge"
	"docportal/internal/server"
	"docportal/internal/store"
	"docportal/internal/verify"
	"docportal/internal/vision"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(slogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Store.Path, slogger)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer func() { _ = st.Close() }()

	// Vision tier is optional; without an API key the regex tier stands alone.
	var idVision extract.VisionIDExtractor
	var invVision extract.VisionInvoiceExtractor
	if cfg.Vision.APIKey != "" {
		client, err := vision.NewClient(ctx, cfg.Vision, slogger)
		if err != nil {
			log.Fatalf("creating vision client: %v", err)
		}
		idVision = client
		invVision = client
		log.Infow("vision tier enabled", "model", cfg.Vision.Model)
	} else {
		log.Infow("vision tier disabled: no API key")
	}

	scorer := match.NewScorer(cfg.Match.FuzzyBackend)
	texts := ingest.NewExtractor(ingest.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, slogger)

	deps := server.Deps{
		IDs:        extract.NewIDPipeline(extract.NewIDExtractor(slogger), idVision, slogger),
		Invoices:   extract.NewInvoicePipeline(extract.NewInvoiceExtractor(slogger), invVision, slogger),
		Merger:     merge.NewMerger(slogger),
		Matcher:    match.NewIdentityMatcher(scorer, cfg.Match.StrictNames),
		Verifier:   verify.NewVerifier(scorer, slogger),
		Compliance: verify.NewComplianceChecker(),
		Jobs:       verify.NewJobStore(),
		Store:      st,
		Texts:      texts,
		Exporter:   export.NewService(slogger),
	}
	srv := server.NewServer(deps, cfg.Server, logger)

	if cfg.OCR.WatchDir != "" {
		evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{cfg.OCR.WatchDir},
			InitialScan: true,
		}, slogger)
		if err != nil {
			log.Fatalf("starting drop-directory watcher: %v", err)
		}
		go watchDropDir(ctx, evCh, errCh, deps, st, texts, logger)
		log.Infow("watching drop directory", "dir", cfg.OCR.WatchDir)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()
	log.Infow("serving", "addr", cfg.Server.Addr)

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	log.Info("stopped")
}

// watchDropDir extracts every page landing in the watch directory and
// appends the outcome to the result log.
func watchDropDir(
	ctx context.Context,
	evCh <-chan string,
	errCh <-chan error,
	deps server.Deps,
	st *store.Store,
	texts *ingest.Extractor,
	logger *zap.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				return
			}
			logger.Warn("watcher error", zap.Error(err))
		case path, ok := <-evCh:
			if !ok {
				return
			}
			processDroppedFile(ctx, path, deps, st, texts, logger)
		}
	}
}

func processDroppedFile(
	ctx context.Context,
	path string,
	deps server.Deps,
	st *store.Store,
	texts *ingest.Extractor,
	logger *zap.Logger,
) {
	res, err := texts.Extract(ctx, path)
	if err != nil {
		logger.Error("dropped file extraction failed", zap.String("path", path), zap.Error(err))
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("dropped file read failed", zap.String("path", path), zap.Error(err))
		return
	}
	rec := deps.Invoices.Extract(ctx, path, res.Text, content, mimeForPath(path))

	payload, _ := json.Marshal(rec.Data)
	if _, err := st.LogResult(ctx, store.ResultEntry{
		Filename:   path,
		Method:     string(rec.Method),
		Confidence: rec.Confidence,
		Duration:   res.Duration,
		Payload:    payload,
	}); err != nil {
		logger.Warn("result log append failed", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("dropped file processed",
		zap.String("path", path),
		zap.Int("confidence", rec.Confidence),
		zap.String("method", string(rec.Method)))
}

func mimeForPath(path string) string {
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
