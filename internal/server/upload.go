package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"docportal/constants"
	"docportal/internal/common"
	"docportal/internal/ingest"
)

// upload is one file pulled out of a multipart form.
type upload struct {
	Filename string
	Content  []byte
}

// readUpload reads a single file field. A missing field is an
// ErrInvalidInput so handlers can map it to 400.
func readUpload(r *http.Request, field string) (upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return upload{}, common.NewAppError("MISSING_FILE",
			fmt.Sprintf("file field %q is required", field), common.ErrInvalidInput)
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return upload{}, fmt.Errorf("read upload %q: %w", field, err)
	}
	return upload{Filename: header.Filename, Content: content}, nil
}

// readUploads reads every file under a repeated field name.
func readUploads(r *http.Request, field string) ([]upload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, common.NewAppError("MISSING_FILE",
			fmt.Sprintf("file field %q is required", field), common.ErrInvalidInput)
	}
	var ups []upload
	for _, header := range r.MultipartForm.File[field] {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %q: %w", header.Filename, err)
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %q: %w", header.Filename, err)
		}
		ups = append(ups, upload{Filename: header.Filename, Content: content})
	}
	return ups, nil
}

func mimeFor(filename string) string {
	switch constants.NormalizeExt(filepath.Ext(filename)) {
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

// documentText extracts plain text from an uploaded file. PDFs go
// through the embedded text layer; images hit the OCR binary via a
// temp file so the external runner can read them.
func (s *Server) documentText(ctx context.Context, up upload) (string, error) {
	ext := constants.NormalizeExt(filepath.Ext(up.Filename))
	switch ext {
	case "pdf":
		text, _, err := ingest.PDFText(up.Content)
		if err != nil {
			return "", common.NewAppError("BAD_PDF", "could not read PDF", common.ErrInvalidInput)
		}
		return text, nil
	case "jpg", "jpeg", "png":
		if s.texts == nil {
			return "", nil
		}
		tmp, err := os.CreateTemp("", "docportal-*."+ext)
		if err != nil {
			return "", err
		}
		defer func() { _ = os.Remove(tmp.Name()) }()
		if _, err := tmp.Write(up.Content); err != nil {
			_ = tmp.Close()
			return "", err
		}
		if err := tmp.Close(); err != nil {
			return "", err
		}
		res, err := s.texts.Extract(ctx, tmp.Name())
		if err != nil {
			return "", err
		}
		return res.Text, nil
	default:
		return "", common.NewAppError("UNSUPPORTED_TYPE",
			fmt.Sprintf("unsupported file extension on %q", up.Filename), common.ErrInvalidInput)
	}
}
