package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	n := NewAddressNormalizer()

	tests := []struct {
		name string
		in   string
		want ParsedAddress
	}{
		{
			name: "full address",
			in:   "123 Main St, Springfield, IL 62704",
			want: ParsedAddress{
				Number:     "123",
				StreetName: "MAIN",
				StreetType: "STREET",
				City:       "SPRINGFIELD",
				State:      "IL",
				Zip:        "62704",
				FullStreet: "123 MAIN STREET",
			},
		},
		{
			name: "directional and unit",
			in:   "456 N. Oak Ave Apt 5, Chicago, IL 60601",
			want: ParsedAddress{
				Number:     "456",
				StreetName: "NORTH OAK",
				StreetType: "AVENUE",
				Unit:       "APT 5",
				City:       "CHICAGO",
				State:      "IL",
				Zip:        "60601",
				FullStreet: "456 NORTH OAK AVENUE",
			},
		},
		{
			name: "no zip",
			in:   "789 Elm Dr, Austin, TX",
			want: ParsedAddress{
				Number:     "789",
				StreetName: "ELM",
				StreetType: "DRIVE",
				City:       "AUSTIN",
				State:      "TX",
				FullStreet: "789 ELM DRIVE",
			},
		},
		{
			name: "hyphenated queens-style number",
			in:   "41-22 Bell Blvd, Bayside, NY 11361",
			want: ParsedAddress{
				Number:     "41-22",
				StreetName: "BELL",
				StreetType: "BOULEVARD",
				City:       "BAYSIDE",
				State:      "NY",
				Zip:        "11361",
				FullStreet: "41-22 BELL BOULEVARD",
			},
		},
		{
			name: "empty",
			in:   "   ",
			want: ParsedAddress{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.ParseAddress(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAddressPeriodAfterDirectional(t *testing.T) {
	n := NewAddressNormalizer()
	got := n.ParseAddress("456 N. Oak Ave, Chicago, IL")
	assert.Equal(t, "456", got.Number)
	assert.Equal(t, "NORTH OAK", got.StreetName)
	assert.Equal(t, "CHICAGO", got.City)
}

func TestNormalizeIsFixedPoint(t *testing.T) {
	n := NewAddressNormalizer()

	inputs := []string{
		"123 Main St, Springfield, IL 62704",
		"456 Oak Ave Apt 5, Chicago, IL 60601",
		"789 Elm Dr, Austin, TX",
		"1600 Pennsylvania Avenue, Washington, DC 20500",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		assert.Equal(t, once, twice, "normalize(%q) is not a fixed point", in)
	}
}

func TestNormalizeExpandsAbbreviations(t *testing.T) {
	n := NewAddressNormalizer()

	assert.Equal(t,
		"123 MAIN STREET SPRINGFIELD IL 62704",
		n.Normalize("123 Main St, Springfield, IL 62704"))
	assert.Equal(t, "", n.Normalize(""))
}

func TestCompareAddressesScoreTable(t *testing.T) {
	n := NewAddressNormalizer()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{
			name: "identical after normalization",
			a:    "123 Main St, Springfield, IL 62704",
			b:    "123 MAIN STREET, Springfield, IL 62704",
			want: 100,
		},
		{
			name: "zip missing on one side",
			a:    "123 Main St, Springfield, IL 62704",
			b:    "123 Main St, Springfield, IL",
			want: 95,
		},
		{
			name: "state differs",
			a:    "123 Main St, Springfield, IL 62704",
			b:    "123 Main St, Springfield, MO 62704",
			want: 75,
		},
		{
			name: "city differs",
			a:    "123 Main St, Springfield, IL 62704",
			b:    "123 Main St, Chicago, IL 62704",
			want: 60,
		},
		{
			name: "only number matches",
			a:    "123 Main St, Springfield, IL",
			b:    "123 Wacker Dr, Chicago, IL",
			want: 40,
		},
		{
			name: "number differs",
			a:    "123 Main St, Springfield, IL",
			b:    "999 Main St, Springfield, IL",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, matches := n.CompareAddresses(tt.a, tt.b)
			require.NotNil(t, matches)
			assert.Equal(t, tt.want, score)
		})
	}
}

func TestCompareAddressesSymmetric(t *testing.T) {
	n := NewAddressNormalizer()

	pairs := [][2]string{
		{"123 Main St, Springfield, IL 62704", "123 Main Street, Springfield, IL"},
		{"456 Oak Ave, Chicago, IL", "456 Oak Avenue, Evanston, IL"},
		{"789 Elm Dr, Austin, TX", "78 Elm Dr, Austin, TX"},
	}
	for _, p := range pairs {
		ab, _ := n.CompareAddresses(p[0], p[1])
		ba, _ := n.CompareAddresses(p[1], p[0])
		assert.Equal(t, ab, ba, "CompareAddresses(%q, %q) not symmetric", p[0], p[1])
	}
}

func TestCompareAddressesEmptyInput(t *testing.T) {
	n := NewAddressNormalizer()

	score, matches := n.CompareAddresses("", "123 Main St, Springfield, IL")
	assert.Equal(t, 0.0, score)
	assert.Nil(t, matches)
}

func TestFuzzyComponent(t *testing.T) {
	n := NewAddressNormalizer()

	assert.True(t, n.fuzzyComponent("SPRINGFIELD", "SPRINGFIELD", componentThreshold))
	assert.True(t, n.fuzzyComponent("AUSTIN", "AUSTIN, TX", componentThreshold), "containment after stripping")
	assert.False(t, n.fuzzyComponent("", "", componentThreshold), "empty is never a fuzzy match")
	assert.False(t, n.fuzzyComponent("SPRINGFIELD", "", componentThreshold))
	assert.False(t, n.fuzzyComponent("CHICAGO", "HOUSTON", componentThreshold))
}
