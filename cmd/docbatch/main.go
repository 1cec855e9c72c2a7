// docbatch extracts a directory of scanned invoice pages, merges split
// invoices, and writes the batch to an XLSX workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docportal/constants"
	"docportal/internal/common"
	"docportal/internal/export"
	"docportal/internal/extract"
	"docportal/internal/ingest"
	"docportal/internal/merge"
	"docportal/internal/vision"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir       = flag.String("dir", "", "directory of invoice pages to process (required)")
		out       = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		useVision = flag.Bool("vision", true, "send pages straight to the vision tier for full line items")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "invoices.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()

	var invVision extract.VisionInvoiceExtractor
	if *useVision && cfg.Vision.APIKey != "" {
		client, err := vision.NewClient(ctx, cfg.Vision, logger)
		if err != nil {
			printError("Error: creating vision client: %v\n", err)
			os.Exit(1)
		}
		invVision = client
	}

	texts := ingest.NewExtractor(ingest.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)
	pipeline := extract.NewInvoicePipeline(extract.NewInvoiceExtractor(logger), invVision, logger)

	paths, err := collectPages(*dir)
	if err != nil {
		printError("Error: scanning %s: %v\n", *dir, err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		printError("Error: no pdf/jpg/png files under %s\n", *dir)
		os.Exit(1)
	}
	logger.Info("processing batch", "dir", *dir, "pages", len(paths))

	start := time.Now()
	var results []extract.InvoiceRecord
	for _, path := range paths {
		rec, err := extractPage(ctx, pipeline, texts, path)
		if err != nil {
			logger.Error("page extraction failed", "path", path, "error", err)
			results = append(results, extract.InvoiceRecord{
				Filename: filepath.Base(path),
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, rec)
	}

	merged := merge.NewMerger(logger).MergeResults(results)
	logger.Info("batch merged",
		"pages", len(results),
		"invoices", len(merged),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	workbook, err := export.NewService(logger).ExportInvoicesXLSX(merged)
	if err != nil {
		printError("Error: building workbook: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, workbook, 0o644); err != nil {
		printError("Error: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d invoices (%d pages) to %s\n", len(merged), len(results), *out)
}

func collectPages(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := constants.AllowedExtensions[ext]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return paths, err
}

func extractPage(ctx context.Context, pipeline *extract.InvoicePipeline, texts *ingest.Extractor, path string) (extract.InvoiceRecord, error) {
	res, err := texts.Extract(ctx, path)
	if err != nil {
		return extract.InvoiceRecord{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return extract.InvoiceRecord{}, err
	}
	mime := "application/pdf"
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "png":
		mime = "image/png"
	case "jpg", "jpeg":
		mime = "image/jpeg"
	}
	return pipeline.ExtractVisionFirst(ctx, filepath.Base(path), res.Text, content, mime), nil
}
