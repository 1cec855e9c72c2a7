// Package uom standardizes units of measure across invoice formats.
// POS systems expect one canonical code per unit; vendors print dozens
// of spellings for the same thing.
package uom

import (
	"log/slog"
	"regexp"
	"strings"
)

type mapping struct {
	code     string
	variants []string
}

// Codes are checked in declaration order so extraction from free text is
// deterministic.
var uomMappings = []mapping{
	{"EA", []string{"EACH", "E", "PC", "PIECE", "UNIT", "U", "PCS", "PIECES"}},
	{"CS", []string{"CASE", "CASES", "C", "CA", "CSE"}},
	{"BX", []string{"BOX", "BOXES", "B"}},
	{"PK", []string{"PACK", "PACKS", "PAK", "PKG", "PACKAGE"}},
	{"DZ", []string{"DOZEN", "DOZ", "DZN"}},
	{"CT", []string{"COUNT", "CNT"}},

	{"LB", []string{"POUND", "POUNDS", "LBS", "#"}},
	{"OZ", []string{"OUNCE", "OUNCES", "ONZ"}},
	{"KG", []string{"KILOGRAM", "KILOGRAMS", "KILO", "KILOS"}},
	{"G", []string{"GRAM", "GRAMS", "GRM", "GR"}},
	{"TON", []string{"TONS", "T", "TN"}},

	{"GAL", []string{"GALLON", "GALLONS", "GALS", "GL"}},
	{"QT", []string{"QUART", "QUARTS", "QTS"}},
	{"PT", []string{"PINT", "PINTS", "PTS"}},
	{"FL OZ", []string{"FLUID OUNCE", "FLUID OUNCES", "FLOZ", "FO"}},
	{"L", []string{"LITER", "LITERS", "LITRE", "LITRES", "LTR"}},
	{"ML", []string{"MILLILITER", "MILLILITERS", "MILLILITRE", "MILLILITRES", "MLTR"}},

	{"FT", []string{"FOOT", "FEET", "F"}},
	{"IN", []string{"INCH", "INCHES", `"`}},
	{"YD", []string{"YARD", "YARDS", "Y"}},
	{"M", []string{"METER", "METERS", "METRE", "METRES", "MTR"}},
	{"CM", []string{"CENTIMETER", "CENTIMETERS", "CENTIMETRE", "CENTIMETRES"}},

	{"SQ FT", []string{"SQUARE FOOT", "SQUARE FEET", "SQFT", "SF"}},
	{"SQ M", []string{"SQUARE METER", "SQUARE METRES", "SQM", "SM"}},

	{"ROLL", []string{"ROLLS", "RL"}},
	{"BAG", []string{"BAGS", "BG"}},
	{"BOTTLE", []string{"BOTTLES", "BTL", "BTLS"}},
	{"CAN", []string{"CANS", "CN"}},
	{"JAR", []string{"JARS", "JR"}},
	{"TUB", []string{"TUBS"}},
	{"BAR", []string{"BARS"}},
	{"PALLET", []string{"PALLETS", "PLT", "PLTS"}},
	{"CARTON", []string{"CARTONS", "CTN", "CTNS"}},
}

var packSizePatterns = []mapping{
	{"12-PACK", []string{"12PK", "12 PK", "12PACK", "12 PACK", "12CT", "12 CT"}},
	{"24-PACK", []string{"24PK", "24 PK", "24PACK", "24 PACK", "24CT", "24 CT"}},
	{"6-PACK", []string{"6PK", "6 PK", "6PACK", "6 PACK", "6CT", "6 CT"}},

	{"12OZ", []string{"12 OZ", "12-OZ", "12 OUNCE"}},
	{"16OZ", []string{"16 OZ", "16-OZ", "16 OUNCE"}},
	{"20OZ", []string{"20 OZ", "20-OZ", "20 OUNCE"}},
	{"2L", []string{"2 LITER", "2L BOTTLE", "2 L"}},
}

var (
	packCountRe = regexp.MustCompile(`(\d+)\s*-?\s*(PK|PACK|CT|COUNT)`)
	packSizeRe  = regexp.MustCompile(`(\d+)\s*(OZ|L|ML|LITER|OUNCE)`)
)

type conversion struct {
	from, to string
	factor   float64
}

// Basic factors only. The CS factor assumes the typical 12-unit case;
// callers with vendor-specific case sizes pass their own factors.
var defaultConversions = []conversion{
	{"DZ", "EA", 12},
	{"CS", "EA", 12},

	{"LB", "OZ", 16},
	{"KG", "G", 1000},
	{"TON", "LB", 2000},

	{"GAL", "QT", 4},
	{"QT", "PT", 2},
	{"PT", "FL OZ", 16},
	{"GAL", "FL OZ", 128},
	{"L", "ML", 1000},

	{"FT", "IN", 12},
	{"YD", "FT", 3},
	{"M", "CM", 100},
}

// Standardizer maps unit-of-measure spellings onto canonical codes.
type Standardizer struct {
	reverse map[string]string
	known   map[string]bool
	logger  *slog.Logger
}

func NewStandardizer(logger *slog.Logger) *Standardizer {
	s := &Standardizer{
		reverse: make(map[string]string),
		known:   make(map[string]bool),
		logger:  logger,
	}
	for _, m := range uomMappings {
		for _, v := range m.variants {
			s.reverse[v] = m.code
		}
		s.reverse[m.code] = m.code
		s.known[m.code] = true
	}
	return s
}

// Standardize maps a raw unit string to its canonical code. A missing
// unit defaults to EA; an unrecognized one comes back uppercased as-is.
func (s *Standardizer) Standardize(unit string) string {
	if strings.TrimSpace(unit) == "" {
		return "EA"
	}

	clean := strings.ToUpper(strings.TrimSpace(unit))
	if code, ok := s.reverse[clean]; ok {
		return code
	}

	// Plural not covered by the variant list.
	if strings.HasSuffix(clean, "S") && len(clean) > 1 {
		if code, ok := s.reverse[clean[:len(clean)-1]]; ok {
			return code
		}
	}

	s.logger.Warn("unknown unit of measure, returning as-is", slog.String("uom", unit))
	return clean
}

// ParsePackSize extracts a standardized pack size from a product
// description, e.g. "Coca-Cola 12oz 24pk" -> "24-PACK". Returns "" when
// no pack size is recognizable.
func (s *Standardizer) ParsePackSize(description string) string {
	if description == "" {
		return ""
	}
	upper := strings.ToUpper(description)

	for _, p := range packSizePatterns {
		for _, v := range p.variants {
			if strings.Contains(upper, v) {
				return p.code
			}
		}
	}

	if m := packCountRe.FindStringSubmatch(upper); m != nil {
		return m[1] + "-PACK"
	}
	if m := packSizeRe.FindStringSubmatch(upper); m != nil {
		unit := "OZ"
		if strings.Contains(m[2], "L") {
			unit = "L"
		}
		return m[1] + unit
	}
	return ""
}

// Validate reports whether the unit maps to a known canonical code, and
// returns that code when it does.
func (s *Standardizer) Validate(unit string) (bool, string) {
	if strings.TrimSpace(unit) == "" {
		return false, ""
	}
	code := s.Standardize(unit)
	if s.known[code] {
		return true, code
	}
	return false, ""
}

// ConvertQuantity converts between canonical units using the default
// factor table, or the caller's factors when provided. Returns false
// when no conversion path exists.
func (s *Standardizer) ConvertQuantity(quantity float64, fromUnit, toUnit string, factors []Conversion) (float64, bool) {
	from := s.Standardize(fromUnit)
	to := s.Standardize(toUnit)

	if from == to {
		return quantity, true
	}

	table := factors
	if table == nil {
		table = defaultFactors()
	}

	for _, c := range table {
		if c.From == from && c.To == to {
			return quantity * c.Factor, true
		}
		if c.From == to && c.To == from {
			return quantity / c.Factor, true
		}
	}

	s.logger.Warn("no conversion available",
		slog.String("from", from), slog.String("to", to))
	return 0, false
}

// Conversion is one directional factor: 1 From = Factor To.
type Conversion struct {
	From   string
	To     string
	Factor float64
}

func defaultFactors() []Conversion {
	out := make([]Conversion, 0, len(defaultConversions))
	for _, c := range defaultConversions {
		out = append(out, Conversion{From: c.from, To: c.to, Factor: c.factor})
	}
	return out
}

// ExtractFromDescription scans a product description for a unit token,
// e.g. "Coca-Cola 12oz Case" -> "CS". Whole-word matches only, so the
// "C" in "COLA" never reads as a case.
func (s *Standardizer) ExtractFromDescription(description string) string {
	if description == "" {
		return ""
	}
	padded := " " + strings.ToUpper(description) + " "

	for _, m := range uomMappings {
		if containsWord(padded, m.code) {
			return m.code
		}
		for _, v := range m.variants {
			if containsWord(padded, v) {
				return m.code
			}
		}
	}
	return ""
}

func containsWord(padded, word string) bool {
	return strings.Contains(padded, " "+word+" ")
}
