package extract

import (
	"time"
)

// parseUSDate parses MM/DD/YYYY, accepting dashes as separators.
func parseUSDate(s string) (time.Time, bool) {
	s = trimmed(s)
	s = replaceDashes(s)
	t, err := time.Parse("01/02/2006", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func replaceDashes(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '-' {
			out[i] = '/'
		}
	}
	return string(out)
}

// ValidateIDData checks the extracted ID for internal consistency:
// age bounds, expiry, and expiration-before-birth. It never mutates the
// data and running it twice yields the same report.
func ValidateIDData(data IDData) *Validation {
	return validateIDDataAt(data, time.Now())
}

func validateIDDataAt(data IDData, now time.Time) *Validation {
	v := &Validation{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	var dob, exp time.Time
	var dobOK, expOK bool

	if data.DOB != nil && trimmed(*data.DOB) != "" {
		dob, dobOK = parseUSDate(*data.DOB)
		if dobOK {
			age := now.Year() - dob.Year()
			if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
				age--
			}
			v.Age = Ptr(age)
			switch {
			case age < 0:
				v.Valid = false
				v.Errors = append(v.Errors, "date of birth is in the future")
			case age < 18:
				v.Warnings = append(v.Warnings, "under 18 years old")
			case age < 21:
				v.Warnings = append(v.Warnings, "under 21 years old")
			}
		} else {
			v.Warnings = append(v.Warnings, "unparseable date of birth format")
		}
	}

	if data.ExpirationDate != nil && trimmed(*data.ExpirationDate) != "" {
		exp, expOK = parseUSDate(*data.ExpirationDate)
		if expOK {
			if exp.Before(now) {
				v.Valid = false
				v.IsExpired = true
				v.Errors = append(v.Errors, "document is expired")
			}
		} else {
			v.Warnings = append(v.Warnings, "unparseable expiration date")
		}
	}

	if dobOK && expOK && exp.Before(dob) {
		v.Valid = false
		v.Errors = append(v.Errors, "expiration date is before date of birth")
	}

	return v
}
