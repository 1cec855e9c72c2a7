package extract

import (
	"context"
	"log/slog"
	"strings"

	"docportal/constants"
)

// Confidence below this sends the page to the vision tier.
const fallbackThreshold = 80

// hybridFloor is the confidence a record gets after vision identity
// fields are spliced into a regex result.
const hybridFloor = 85

// VisionIDExtractor is the expensive tier for identity documents. The
// concrete implementation lives in the vision package; the pipeline only
// needs this surface.
type VisionIDExtractor interface {
	ExtractID(ctx context.Context, image []byte, mimeType string) (IDData, int, error)
}

// VisionInvoiceExtractor is the expensive tier for invoice pages.
type VisionInvoiceExtractor interface {
	ExtractInvoice(ctx context.Context, image []byte, mimeType string) (InvoiceData, int, error)
}

// IDPipeline runs the tiered ID extraction policy: regex first, vision
// only when the cheap tier leaves too little to match on. Validation
// always runs last, whatever tier produced the data.
type IDPipeline struct {
	regex  *IDExtractor
	vision VisionIDExtractor
	logger *slog.Logger
}

// NewIDPipeline wires the tiers together. vision may be nil, in which
// case the regex result stands regardless of confidence.
func NewIDPipeline(regex *IDExtractor, vision VisionIDExtractor, logger *slog.Logger) *IDPipeline {
	return &IDPipeline{regex: regex, vision: vision, logger: logger}
}

// needsFallback reports whether the regex tier left the record unusable
// for identity matching. Low confidence triggers it, and so does a
// record with neither a name nor an address since there is nothing to
// match against a contract.
func needsFallback(rec IDRecord) bool {
	if rec.Confidence < fallbackThreshold {
		return true
	}
	return rec.Data.FullName == nil && rec.Data.Address == nil
}

// Extract runs the policy over one document. text is the OCR output;
// image is the source page for the vision tier and may be nil when no
// image is available.
func (p *IDPipeline) Extract(ctx context.Context, text string, image []byte, mimeType string) IDRecord {
	if p.noInput(text, image) {
		return IDRecord{Method: constants.MethodNone, Error: errNoInput}
	}
	rec := p.regex.ExtractFromText(text)

	if needsFallback(rec) && p.vision != nil && len(image) > 0 {
		p.logger.Info("regex tier insufficient, falling back to vision",
			slog.Int("regex_confidence", rec.Confidence))

		visionData, visionConf, err := p.vision.ExtractID(ctx, image, mimeType)
		switch {
		case err != nil:
			// Vision failure never destroys the regex result.
			p.logger.Error("vision ID extraction failed", slog.Any("error", err))
		case visionConf > rec.Confidence:
			rec = IDRecord{
				Data:       visionData,
				Confidence: visionConf,
				Method:     constants.MethodGeminiVision,
			}
		default:
			rec = spliceIdentity(rec, visionData)
		}
	}

	rec.Validation = ValidateIDData(rec.Data)
	return rec
}

// ExtractVisionFirst sends the page straight to the vision tier,
// skipping the regex pass even when the text would score well. It
// applies only when a vision extractor and an image are both present;
// otherwise the tiered policy runs. A vision failure degrades to the
// regex tier rather than retrying vision.
func (p *IDPipeline) ExtractVisionFirst(ctx context.Context, text string, image []byte, mimeType string) IDRecord {
	if p.vision == nil || len(image) == 0 {
		return p.Extract(ctx, text, image, mimeType)
	}
	visionData, visionConf, err := p.vision.ExtractID(ctx, image, mimeType)
	if err != nil {
		p.logger.Error("vision ID extraction failed", slog.Any("error", err))
		rec := p.regex.ExtractFromText(text)
		rec.Validation = ValidateIDData(rec.Data)
		return rec
	}
	rec := IDRecord{
		Data:       visionData,
		Confidence: visionConf,
		Method:     constants.MethodGeminiVision,
	}
	rec.Validation = ValidateIDData(rec.Data)
	return rec
}

// errNoInput marks a record produced from a document with neither a
// text layer nor an image the vision tier could read.
const errNoInput = "no text or image input available"

// noInput reports whether neither extraction tier has anything to work
// with. Blank text alone is fine as long as the vision tier can still
// see the page.
func (p *IDPipeline) noInput(text string, image []byte) bool {
	return strings.TrimSpace(text) == "" && (p.vision == nil || len(image) == 0)
}

// spliceIdentity folds the vision tier's identity fields into a regex
// record that already carried decent labeled-field confidence. Only the
// fields regex cannot produce move across.
func spliceIdentity(rec IDRecord, vision IDData) IDRecord {
	if vision.FullName != nil {
		rec.Data.FullName = cloneStr(vision.FullName)
	}
	if vision.FirstName != nil {
		rec.Data.FirstName = cloneStr(vision.FirstName)
	}
	if vision.MiddleName != nil {
		rec.Data.MiddleName = cloneStr(vision.MiddleName)
	}
	if vision.LastName != nil {
		rec.Data.LastName = cloneStr(vision.LastName)
	}
	if vision.Address != nil {
		rec.Data.Address = vision.Address.Clone()
	}
	if vision.IDType != nil {
		rec.Data.IDType = cloneStr(vision.IDType)
	}
	rec.Method = constants.MethodHybrid
	if rec.Confidence < hybridFloor {
		rec.Confidence = hybridFloor
	}
	return rec
}

// InvoicePipeline runs the same tiered policy for invoice pages.
type InvoicePipeline struct {
	regex  *InvoiceExtractor
	vision VisionInvoiceExtractor
	logger *slog.Logger
}

func NewInvoicePipeline(regex *InvoiceExtractor, vision VisionInvoiceExtractor, logger *slog.Logger) *InvoicePipeline {
	return &InvoicePipeline{regex: regex, vision: vision, logger: logger}
}

// Extract runs regex extraction and falls back to the vision tier when
// confidence is low. Vision output replaces the regex record wholesale
// when it wins; invoices have no identity fields worth splicing.
func (p *InvoicePipeline) Extract(ctx context.Context, filename, text string, image []byte, mimeType string) InvoiceRecord {
	if strings.TrimSpace(text) == "" && (p.vision == nil || len(image) == 0) {
		return InvoiceRecord{Filename: filename, Method: constants.MethodNone, Error: errNoInput}
	}
	rec := p.regex.ExtractFromText(filename, text)

	if rec.Confidence < fallbackThreshold && p.vision != nil && len(image) > 0 {
		p.logger.Info("regex tier insufficient, falling back to vision",
			slog.String("filename", filename),
			slog.Int("regex_confidence", rec.Confidence))

		visionData, visionConf, err := p.vision.ExtractInvoice(ctx, image, mimeType)
		switch {
		case err != nil:
			p.logger.Error("vision invoice extraction failed",
				slog.String("filename", filename), slog.Any("error", err))
		case visionConf > rec.Confidence:
			rec = InvoiceRecord{
				Filename:   filename,
				Data:       visionData,
				Confidence: visionConf,
				Method:     constants.MethodGeminiVision,
			}
		}
	}
	return rec
}

// ExtractVisionFirst sends the page straight to the vision tier. The
// regex tier never reads line items off a page, so batch callers that
// asked for vision want it unconditionally, not only when the header
// regexes score poorly. Without a vision extractor or an image the
// tiered policy runs instead. A vision failure degrades to the regex
// tier rather than retrying vision.
func (p *InvoicePipeline) ExtractVisionFirst(ctx context.Context, filename, text string, image []byte, mimeType string) InvoiceRecord {
	if p.vision == nil || len(image) == 0 {
		return p.Extract(ctx, filename, text, image, mimeType)
	}
	visionData, visionConf, err := p.vision.ExtractInvoice(ctx, image, mimeType)
	if err != nil {
		p.logger.Error("vision invoice extraction failed",
			slog.String("filename", filename), slog.Any("error", err))
		return p.regex.ExtractFromText(filename, text)
	}
	return InvoiceRecord{
		Filename:   filename,
		Data:       visionData,
		Confidence: visionConf,
		Method:     constants.MethodGeminiVision,
	}
}
