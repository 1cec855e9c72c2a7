package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"docportal/constants"
)

// Regex patterns tuned for US driver's licenses and passports. These only
// catch labeled fields; names and addresses need the vision tier.
var (
	idDOBRe    = regexp.MustCompile(`(DOB|BIRTH)\s*[:.]?\s*(\d{2}[-/]\d{2}[-/]\d{4})`)
	idExpRe    = regexp.MustCompile(`(EXP|EXPIRES)\s*[:.]?\s*(\d{2}[-/]\d{2}[-/]\d{4})`)
	idNumberRe = regexp.MustCompile(`(DL|LIC|NO)\.?\s*[:#]?\s*([A-Z0-9]{7,})`)
	idSexRe    = regexp.MustCompile(`(SEX|GENDER)\s*[:.]?\s*([MF])`)
	idHeightRe = regexp.MustCompile(`(HGT|HEIGHT)\s*[:.]?\s*(\d+['-]\d+"?)`)
)

// Each labeled field is worth 20 points, so five hits saturate at 100.
const idFieldWeight = 20

// IDExtractor pulls labeled fields out of OCR text from identity
// documents. Cheap and deterministic; the pipeline consults it before
// spending a vision call.
type IDExtractor struct {
	logger *slog.Logger
}

func NewIDExtractor(logger *slog.Logger) *IDExtractor {
	return &IDExtractor{logger: logger}
}

// ExtractFromText runs the regex tier over raw OCR text. Confidence is
// proportional to the number of labeled fields found.
func (e *IDExtractor) ExtractFromText(text string) IDRecord {
	upper := strings.ToUpper(text)

	var data IDData
	found := 0

	if m := idDOBRe.FindStringSubmatch(upper); m != nil {
		data.DOB = Ptr(m[2])
		found++
	}
	if m := idExpRe.FindStringSubmatch(upper); m != nil {
		data.ExpirationDate = Ptr(m[2])
		found++
	}
	if m := idNumberRe.FindStringSubmatch(upper); m != nil {
		data.LicenseNumber = Ptr(m[2])
		found++
	}
	if m := idSexRe.FindStringSubmatch(upper); m != nil {
		data.Sex = Ptr(m[2])
		found++
	}
	if m := idHeightRe.FindStringSubmatch(upper); m != nil {
		data.Height = Ptr(m[2])
		found++
	}

	confidence := found * idFieldWeight
	if confidence > 100 {
		confidence = 100
	}

	e.logger.Debug("regex ID extraction complete",
		slog.Int("fields_found", found),
		slog.Int("confidence", confidence))

	return IDRecord{
		Data:       data,
		Confidence: confidence,
		Method:     constants.MethodRegexHeuristic,
	}
}
