package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/constants"
)

type fakeVision struct {
	idData   IDData
	idConf   int
	invData  InvoiceData
	invConf  int
	err      error
	idCalls  int
	invCalls int
}

func (f *fakeVision) ExtractID(_ context.Context, _ []byte, _ string) (IDData, int, error) {
	f.idCalls++
	if f.err != nil {
		return IDData{}, 0, f.err
	}
	return f.idData, f.idConf, nil
}

func (f *fakeVision) ExtractInvoice(_ context.Context, _ []byte, _ string) (InvoiceData, int, error) {
	f.invCalls++
	if f.err != nil {
		return InvoiceData{}, 0, f.err
	}
	return f.invData, f.invConf, nil
}

var fakeImage = []byte{0xFF, 0xD8}

func TestIDPipelineVisionWins(t *testing.T) {
	vision := &fakeVision{
		idData: IDData{
			FullName: Ptr("John Michael Smith"),
			DOB:      Ptr("01/15/1985"),
		},
		idConf: 95,
	}
	p := NewIDPipeline(NewIDExtractor(discardLogger()), vision, discardLogger())

	rec := p.Extract(context.Background(), "DOB: 01/15/1985", fakeImage, "image/jpeg")

	assert.Equal(t, 1, vision.idCalls)
	assert.Equal(t, constants.MethodGeminiVision, rec.Method)
	assert.Equal(t, 95, rec.Confidence)
	require.NotNil(t, rec.Data.FullName)
	assert.Equal(t, "John Michael Smith", *rec.Data.FullName)
	require.NotNil(t, rec.Validation, "validation always runs last")
}

func TestIDPipelineHybridSplice(t *testing.T) {
	// Vision confidence does not beat the regex tier, so only identity
	// fields move across and the labeled regex fields survive.
	vision := &fakeVision{
		idData: IDData{
			FullName: Ptr("John Michael Smith"),
			Address: &Address{
				Street: Ptr("123 Main St"),
				City:   Ptr("Springfield"),
			},
			DOB: Ptr("02/02/1999"),
		},
		idConf: 40,
	}
	p := NewIDPipeline(NewIDExtractor(discardLogger()), vision, discardLogger())

	rec := p.Extract(context.Background(), "DOB: 01/15/1985\nEXP: 01/15/2030\nDL 12345678", fakeImage, "image/jpeg")

	assert.Equal(t, constants.MethodHybrid, rec.Method)
	assert.Equal(t, 85, rec.Confidence)

	require.NotNil(t, rec.Data.FullName)
	assert.Equal(t, "John Michael Smith", *rec.Data.FullName)
	require.NotNil(t, rec.Data.Address)

	// Labeled fields keep the regex values; vision's DOB never
	// overrides one the regex tier read off the document.
	require.NotNil(t, rec.Data.DOB)
	assert.Equal(t, "01/15/1985", *rec.Data.DOB)
	require.NotNil(t, rec.Data.LicenseNumber)
}

func TestIDPipelineHighConfidenceStillNeedsIdentity(t *testing.T) {
	// Even at full regex confidence, a record with no name and no
	// address cannot be matched, so the vision tier is consulted.
	vision := &fakeVision{idData: IDData{FullName: Ptr("John Smith")}, idConf: 90}
	p := NewIDPipeline(NewIDExtractor(discardLogger()), vision, discardLogger())

	rec := p.Extract(context.Background(), sampleLicense, fakeImage, "image/jpeg")

	assert.Equal(t, 1, vision.idCalls)
	require.NotNil(t, rec.Data.FullName)
}

func TestIDPipelineVisionFailureKeepsRegex(t *testing.T) {
	vision := &fakeVision{err: errors.New("model unavailable")}
	p := NewIDPipeline(NewIDExtractor(discardLogger()), vision, discardLogger())

	rec := p.Extract(context.Background(), "DOB: 01/15/1985", fakeImage, "image/jpeg")

	assert.Equal(t, constants.MethodRegexHeuristic, rec.Method)
	assert.Equal(t, 20, rec.Confidence)
	require.NotNil(t, rec.Data.DOB)
	require.NotNil(t, rec.Validation)
}

func TestIDPipelineNoVisionConfigured(t *testing.T) {
	p := NewIDPipeline(NewIDExtractor(discardLogger()), nil, discardLogger())

	rec := p.Extract(context.Background(), "DOB: 01/15/1985", fakeImage, "image/jpeg")
	assert.Equal(t, constants.MethodRegexHeuristic, rec.Method)
}

func TestIDPipelineNoImageSkipsVision(t *testing.T) {
	vision := &fakeVision{idConf: 95}
	p := NewIDPipeline(NewIDExtractor(discardLogger()), vision, discardLogger())

	rec := p.Extract(context.Background(), "DOB: 01/15/1985", nil, "")
	assert.Equal(t, 0, vision.idCalls)
	assert.Equal(t, constants.MethodRegexHeuristic, rec.Method)
}

func TestInvoicePipelineVisionWins(t *testing.T) {
	vision := &fakeVision{
		invData: InvoiceData{
			DocType: Ptr("invoice"),
			Financials: &Financials{
				TotalAmount: Ptr(250.75),
			},
			LineItems: []LineItem{{Description: Ptr("widgets"), Quantity: Ptr(4.0)}},
		},
		invConf: 92,
	}
	p := NewInvoicePipeline(NewInvoiceExtractor(discardLogger()), vision, discardLogger())

	rec := p.Extract(context.Background(), "page1.jpg", "illegible scan", fakeImage, "image/jpeg")

	assert.Equal(t, 1, vision.invCalls)
	assert.Equal(t, constants.MethodGeminiVision, rec.Method)
	assert.Equal(t, "page1.jpg", rec.Filename)
	assert.Equal(t, 92, rec.Confidence)
	assert.Len(t, rec.Data.LineItems, 1)
}

func TestInvoicePipelineHighConfidenceSkipsVision(t *testing.T) {
	vision := &fakeVision{invConf: 92}
	p := NewInvoicePipeline(NewInvoiceExtractor(discardLogger()), vision, discardLogger())

	rec := p.Extract(context.Background(), "good.pdf", sampleInvoice, fakeImage, "image/jpeg")

	assert.Equal(t, 0, vision.invCalls)
	assert.Equal(t, constants.MethodRegexHeuristic, rec.Method)
}

func TestInvoicePipelineVisionFailureKeepsRegex(t *testing.T) {
	vision := &fakeVision{err: errors.New("model unavailable")}
	p := NewInvoicePipeline(NewInvoiceExtractor(discardLogger()), vision, discardLogger())

	rec := p.Extract(context.Background(), "x.pdf", "GRAND TOTAL $88.00", fakeImage, "image/jpeg")

	assert.Equal(t, constants.MethodRegexHeuristic, rec.Method)
	total, ok := rec.Data.TotalAmount()
	require.True(t, ok)
	assert.Equal(t, 88.0, total)
}

func TestInvoicePipelineVisionFirstBeatsConfidentRegex(t *testing.T) {
	// The regex tier never reads line items, so a page with a strong
	// header still goes to vision when the caller asked for it.
	vision := &fakeVision{
		invData: InvoiceData{
			Financials: &Financials{TotalAmount: Ptr(500.0)},
			LineItems: []LineItem{
				{Description: Ptr("Cola Soda 24pk"), Quantity: Ptr(3.0)},
				{Description: Ptr("Chips"), Quantity: Ptr(12.0)},
			},
		},
		invConf: 95,
	}
	p := NewInvoicePipeline(NewInvoiceExtractor(discardLogger()), vision, discardLogger())

	rec := p.ExtractVisionFirst(context.Background(), "good.pdf", sampleInvoice, fakeImage, "image/jpeg")

	assert.Equal(t, 1, vision.invCalls)
	assert.Equal(t, constants.MethodGeminiVision, rec.Method)
	assert.Equal(t, 95, rec.Confidence)
	assert.Equal(t, "good.pdf", rec.Filename)
	assert.Len(t, rec.Data.LineItems, 2)
}

func TestInvoicePipelineVisionFirstWithoutImageRunsTiers(t *testing.T) {
	vision := &fakeVision{invConf: 95}
	p := NewInvoicePipeline(NewInvoiceExtractor(discardLogger()), vision, discardLogger())

	rec := p.ExtractVisionFirst(context.Background(), "good.pdf", sampleInvoice, nil, "")

	assert.Equal(t, 0, vision.invCalls)
	assert.Equal(t, constants.MethodRegexHeuristic, rec.Method)
}

func TestInvoicePipelineVisionFirstFailureFallsBackToRegex(t *testing.T) {
	vision := &fakeVision{err: errors.New("model unavailable")}
	p := NewInvoicePipeline(NewInvoiceExtractor(discardLogger()), vision, discardLogger())

	rec := p.ExtractVisionFirst(context.Background(), "x.pdf", "GRAND TOTAL $88.00", fakeImage, "image/jpeg")

	assert.Equal(t, 1, vision.invCalls)
	assert.Equal(t, constants.MethodRegexHeuristic, rec.Method)
	total, ok := rec.Data.TotalAmount()
	require.True(t, ok)
	assert.Equal(t, 88.0, total)
}

func TestIDPipelineVisionFirstSkipsRegex(t *testing.T) {
	vision := &fakeVision{
		idData: IDData{FullName: Ptr("John Smith"), DOB: Ptr("01/15/1985")},
		idConf: 95,
	}
	p := NewIDPipeline(NewIDExtractor(discardLogger()), vision, discardLogger())

	rec := p.ExtractVisionFirst(context.Background(), sampleLicense, fakeImage, "image/jpeg")

	assert.Equal(t, 1, vision.idCalls)
	assert.Equal(t, constants.MethodGeminiVision, rec.Method)
	require.NotNil(t, rec.Data.FullName)
	require.NotNil(t, rec.Validation, "validation always runs last")
}

func TestIDPipelineVisionFirstFailureFallsBackToRegex(t *testing.T) {
	vision := &fakeVision{err: errors.New("model unavailable")}
	p := NewIDPipeline(NewIDExtractor(discardLogger()), vision, discardLogger())

	rec := p.ExtractVisionFirst(context.Background(), "DOB: 01/15/1985", fakeImage, "image/jpeg")

	assert.Equal(t, 1, vision.idCalls, "vision is not retried after a failure")
	assert.Equal(t, constants.MethodRegexHeuristic, rec.Method)
	require.NotNil(t, rec.Data.DOB)
	require.NotNil(t, rec.Validation)
}

func TestPipelinesNoInputYieldErrorRecord(t *testing.T) {
	vision := &fakeVision{idConf: 95, invConf: 95}
	ids := NewIDPipeline(NewIDExtractor(discardLogger()), vision, discardLogger())
	invoices := NewInvoicePipeline(NewInvoiceExtractor(discardLogger()), vision, discardLogger())

	idRec := ids.Extract(context.Background(), "   ", nil, "")
	assert.Equal(t, constants.MethodNone, idRec.Method)
	assert.Equal(t, 0, idRec.Confidence)
	assert.NotEmpty(t, idRec.Error)

	invRec := invoices.Extract(context.Background(), "scan.pdf", "", nil, "")
	assert.Equal(t, constants.MethodNone, invRec.Method)
	assert.Equal(t, 0, invRec.Confidence)
	assert.NotEmpty(t, invRec.Error)
	assert.Equal(t, "scan.pdf", invRec.Filename)

	assert.Equal(t, 0, vision.idCalls)
	assert.Equal(t, 0, vision.invCalls)
}
