// Package ingest turns scanned document files into plain text for the
// extraction pipeline. PDFs are read through their embedded text layer;
// images go through an external tesseract binary.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"docportal/constants"
)

const (
	SourcePDF   = "pdf"
	SourceImage = "image"

	MethodPDFText  = "pdf-text"
	MethodImageOCR = "image-ocr"
)

// Config selects the external OCR binary and language pack.
type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
}

// Result is the per-file text extraction outcome.
type Result struct {
	Text       string
	Pages      int
	SourceType string
	Method     string
	Duration   time.Duration
	Warnings   []string
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
		cfg.TesseractLang = "eng"
	}
	return &Extractor{cfg: cfg, runner: newExecRunner(logger), logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)

	switch ext {
	case "pdf":
		content, err := os.ReadFile(path)
		if err != nil {
			return Result{SourceType: SourcePDF}, err
		}
		text, pages, err := PDFText(content)
		res := Result{
			Text:       text,
			Pages:      pages,
			SourceType: SourcePDF,
			Method:     MethodPDFText,
			Duration:   time.Since(start),
		}
		if err != nil {
			return res, err
		}
		if text == "" {
			res.Warnings = append(res.Warnings, "no embedded text layer")
		}
		return res, nil
	case "jpg", "jpeg", "png":
		text, warns, err := e.ocrImage(ctx, path)
		res := Result{
			Text:       text,
			Pages:      1,
			SourceType: SourceImage,
			Method:     MethodImageOCR,
			Duration:   time.Since(start),
			Warnings:   warns,
		}
		return res, err
	default:
		e.logger.Error("unsupported extension", "extension", ext, "path", path)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

func (e *Extractor) ocrImage(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
