package match

import (
	"regexp"
	"strings"
)

// Street type abbreviations (USPS standard).
var streetTypes = map[string][]string{
	"ALLEY":      {"ALY", "ALLEE", "ALLY"},
	"AVENUE":     {"AVE", "AV", "AVEN", "AVENU", "AVN", "AVNUE"},
	"BOULEVARD":  {"BLVD", "BOUL", "BOULV"},
	"CIRCLE":     {"CIR", "CIRC", "CIRCL", "CRCL", "CRCLE"},
	"COURT":      {"CT", "CRT"},
	"DRIVE":      {"DR", "DRIV", "DRV"},
	"EXPRESSWAY": {"EXPY", "EXP", "EXPRESS", "EXPW"},
	"HIGHWAY":    {"HWY", "HIGHWY", "HIWAY", "HIWY"},
	"LANE":       {"LN", "LA"},
	"PARKWAY":    {"PKWY", "PARKWY", "PKY", "PKWAY"},
	"PLACE":      {"PL"},
	"PLAZA":      {"PLZ", "PLZA"},
	"ROAD":       {"RD"},
	"SQUARE":     {"SQ", "SQR", "SQRE", "SQU"},
	"STREET":     {"ST", "STR", "STRT"},
	"TERRACE":    {"TER", "TERR"},
	"TRAIL":      {"TRL", "TRLS"},
	"WAY":        {"WY"},
}

var directionals = map[string][]string{
	"NORTH":     {"N", "NO"},
	"SOUTH":     {"S", "SO"},
	"EAST":      {"E"},
	"WEST":      {"W"},
	"NORTHEAST": {"NE"},
	"NORTHWEST": {"NW"},
	"SOUTHEAST": {"SE"},
	"SOUTHWEST": {"SW"},
}

var (
	unitRe     = regexp.MustCompile(`(APT|APARTMENT|UNIT|STE|SUITE|#)\s*#?\s*([A-Z0-9-]+)`)
	stateZipRe = regexp.MustCompile(`([A-Z]{2})\s*(\d{5}(?:-\d{4})?)?`)
	hyphenRe   = regexp.MustCompile(`^[0-9]+(-[0-9]+)*$`)
)

// ParsedAddress is the component breakdown of a postal address. Empty string
// means the component was absent from the source text; absence of a zip is
// legal, not a parse failure.
type ParsedAddress struct {
	Number     string `json:"number,omitempty"`
	StreetName string `json:"street_name,omitempty"`
	StreetType string `json:"street_type,omitempty"`
	Unit       string `json:"unit,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Zip        string `json:"zip,omitempty"`
	FullStreet string `json:"full_street,omitempty"`
}

// IsZero reports whether nothing was parsed out of the source string.
func (p ParsedAddress) IsZero() bool {
	return p == ParsedAddress{}
}

// AddressNormalizer parses and canonicalizes free-text addresses and scores
// address pairs for similarity. Construction builds the reverse lookup
// tables once; the normalizer is stateless afterwards.
type AddressNormalizer struct {
	streetTypeMap  map[string]string
	directionalMap map[string]string
}

// NewAddressNormalizer builds a normalizer with the USPS lookup tables.
func NewAddressNormalizer() *AddressNormalizer {
	n := &AddressNormalizer{
		streetTypeMap:  make(map[string]string),
		directionalMap: make(map[string]string),
	}
	for standard, abbrevs := range streetTypes {
		for _, a := range abbrevs {
			n.streetTypeMap[a] = standard
		}
		n.streetTypeMap[standard] = standard
	}
	for standard, abbrevs := range directionals {
		for _, a := range abbrevs {
			n.directionalMap[a] = standard
		}
		n.directionalMap[standard] = standard
	}
	return n
}

// ParseAddress splits an address string into components. The street segment
// is parsed for unit, house number, canonical street type and directional;
// the second comma segment is the city; the third is state plus optional
// zip. A string that yields nothing returns the zero ParsedAddress so that
// parse failure never aborts a verification pipeline.
func (n *AddressNormalizer) ParseAddress(addr string) ParsedAddress {
	var result ParsedAddress
	if strings.TrimSpace(addr) == "" {
		return result
	}

	parts := strings.Split(addr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	result = n.parseStreetSegment(parts[0])

	if len(parts) > 1 {
		result.City = strings.ToUpper(parts[1])
	}
	if len(parts) > 2 {
		m := stateZipRe.FindStringSubmatch(strings.ToUpper(parts[2]))
		if m != nil {
			result.State = m[1]
			result.Zip = m[2]
		}
	}
	return result
}

func (n *AddressNormalizer) parseStreetSegment(street string) ParsedAddress {
	var result ParsedAddress

	street = strings.ToUpper(strings.TrimSpace(street))
	street = strings.ReplaceAll(street, ".", "")

	// Strip the unit before tokenizing so a unit token never pollutes
	// street-name detection.
	if m := unitRe.FindString(street); m != "" {
		result.Unit = m
		street = strings.TrimSpace(strings.Replace(street, m, "", 1))
	}

	words := strings.Fields(street)
	if len(words) == 0 {
		return result
	}

	// First token, if fully numeric (internal hyphens allowed), is the
	// house number.
	if hyphenRe.MatchString(words[0]) {
		result.Number = words[0]
		words = words[1:]
	}
	if len(words) == 0 {
		return result
	}

	// Last token may be a street type.
	if standard, ok := n.streetTypeMap[words[len(words)-1]]; ok {
		result.StreetType = standard
		words = words[:len(words)-1]
	}

	// Leading directional joins the street name in canonical long form.
	if len(words) > 0 {
		if standard, ok := n.directionalMap[words[0]]; ok {
			rest := strings.Join(words[1:], " ")
			if rest != "" {
				result.StreetName = standard + " " + rest
			} else {
				result.StreetName = standard
			}
		} else {
			result.StreetName = strings.Join(words, " ")
		}
	}

	var full []string
	if result.Number != "" {
		full = append(full, result.Number)
	}
	if result.StreetName != "" {
		full = append(full, result.StreetName)
	}
	if result.StreetType != "" {
		full = append(full, result.StreetType)
	}
	result.FullStreet = strings.Join(full, " ")
	return result
}

// Normalize canonicalizes an address string, e.g.
// "456 N. Oak Ave Apt 5, Chicago, IL" -> "456 NORTH OAK AVENUE CHICAGO IL APT 5".
// Normalizing an already-canonical address is a fixed point; the unit goes
// last so a re-parse strips it cleanly instead of folding it into the
// street name.
func (n *AddressNormalizer) Normalize(addr string) string {
	if addr == "" {
		return ""
	}
	p := n.ParseAddress(addr)

	var parts []string
	if p.FullStreet != "" {
		parts = append(parts, p.FullStreet)
	}
	if p.City != "" {
		parts = append(parts, p.City)
	}
	if p.State != "" {
		parts = append(parts, p.State)
	}
	if p.Zip != "" {
		parts = append(parts, p.Zip)
	}
	if p.Unit != "" {
		parts = append(parts, p.Unit)
	}
	return strings.ToUpper(strings.Join(parts, " "))
}

// CompareAddresses scores two addresses against a discrete table:
//
//	number+street+city+state+zip        -> 100
//	number+street+city+state, zip miss  -> 95
//	number+street+city                  -> 75
//	number+street                       -> 60
//	number only, street names present   -> 40
//	otherwise                           -> 0
//
// Street-name and city equality is fuzzy; the other components compare
// strictly. The result does not depend on argument order.
func (n *AddressNormalizer) CompareAddresses(a, b string) (float64, map[string]bool) {
	if a == "" || b == "" {
		return 0, nil
	}

	pa := n.ParseAddress(a)
	pb := n.ParseAddress(b)

	matches := map[string]bool{
		"number":      pa.Number == pb.Number,
		"street_name": n.fuzzyComponent(pa.StreetName, pb.StreetName, componentThreshold),
		"street_type": pa.StreetType == pb.StreetType,
		"city":        n.fuzzyComponent(pa.City, pb.City, componentThreshold),
		"state":       pa.State == pb.State,
		"zip":         pa.Zip == pb.Zip,
	}

	var score float64
	switch {
	case matches["number"] && matches["street_name"] && matches["city"] && matches["state"]:
		if matches["zip"] {
			score = 100
		} else {
			score = 95
		}
	case matches["number"] && matches["street_name"] && matches["city"]:
		score = 75
	case matches["number"] && matches["street_name"]:
		score = 60
	case matches["number"] && pa.StreetName != "" && pb.StreetName != "":
		score = 40
	}
	return score, matches
}

// componentThreshold is the Jaccard cutoff for street-name/city equality.
const componentThreshold = 0.85

// fuzzyComponent is a coarse order-insensitive comparison for single
// address components. Substring containment short-circuits true so that
// "AUSTIN" matches "AUSTINTX".
func (n *AddressNormalizer) fuzzyComponent(s1, s2 string, threshold float64) bool {
	if s1 == "" || s2 == "" {
		return false
	}
	if s1 == s2 {
		return true
	}

	s1 = stripNonAlnum(s1)
	s2 = stripNonAlnum(s2)
	if s1 == s2 {
		return true
	}
	if s1 == "" || s2 == "" {
		return false
	}
	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		return true
	}
	return charJaccard(s1, s2) >= threshold
}
