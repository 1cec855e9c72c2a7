// Package vision extracts structured data from document images with the
// Gemini API. It is the expensive tier behind the regex extractors and is
// only consulted when they come up short.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"docportal/internal/common"
	"docportal/internal/extract"
)

// The model reads the whole page at once, so a successful parse is
// trusted well above anything the regex tier can claim.
const visionConfidence = 95

// Client wraps a Gemini model for document extraction. It implements
// both extract.VisionIDExtractor and extract.VisionInvoiceExtractor.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a Gemini-backed vision extractor.
func NewClient(ctx context.Context, cfg common.VisionConfig, logger *slog.Logger) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		genai:   c,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// ExtractID sends an identity document image to the model and returns
// the typed payload.
func (c *Client) ExtractID(ctx context.Context, image []byte, mimeType string) (extract.IDData, int, error) {
	raw, err := c.generate(ctx, idPrompt, image, mimeType)
	if err != nil {
		return extract.IDData{}, 0, err
	}
	if err := validateAgainstSchema(idSchema, raw); err != nil {
		return extract.IDData{}, 0, fmt.Errorf("ID payload: %w", err)
	}
	var data extract.IDData
	if err := json.Unmarshal(raw, &data); err != nil {
		return extract.IDData{}, 0, fmt.Errorf("decode ID payload: %w", err)
	}
	return data, visionConfidence, nil
}

// ExtractInvoice sends an invoice or register-report image to the model
// and returns the typed page payload.
func (c *Client) ExtractInvoice(ctx context.Context, image []byte, mimeType string) (extract.InvoiceData, int, error) {
	raw, err := c.generate(ctx, invoicePrompt, image, mimeType)
	if err != nil {
		return extract.InvoiceData{}, 0, err
	}
	if err := validateAgainstSchema(invoiceSchema, raw); err != nil {
		return extract.InvoiceData{}, 0, fmt.Errorf("invoice payload: %w", err)
	}
	var data extract.InvoiceData
	if err := json.Unmarshal(raw, &data); err != nil {
		return extract.InvoiceData{}, 0, fmt.Errorf("decode invoice payload: %w", err)
	}
	return data, visionConfidence, nil
}

func (c *Client) generate(ctx context.Context, prompt string, image []byte, mimeType string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	c.logger.Debug("vision extraction response received",
		slog.String("model", c.model),
		slog.Duration("duration", time.Since(start)),
		slog.Int("response_bytes", len(rawText)))

	return []byte(cleanModelJSON(rawText)), nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON object if junk remains around it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
