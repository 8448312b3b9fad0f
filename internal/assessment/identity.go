package assessment

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeName collapses whitespace and upper-cases with the rules of the
// given language (Turkish maps i to İ).
func NormalizeName(s string, tag language.Tag) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Upper(tag).String(s)
}

// SubjectID derives a stable identity from the normalized name and birth
// date, so re-entering the same child collapses to the same subject.
func SubjectID(first, last string, birth time.Time, tag language.Tag) string {
	h := sha256.New()
	h.Write([]byte(NormalizeName(first, tag)))
	h.Write([]byte{'|'})
	h.Write([]byte(NormalizeName(last, tag)))
	h.Write([]byte{'|'})
	h.Write([]byte(birth.Format(DateLayout)))
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// AgeInMonths counts whole calendar months between birth and at.
func AgeInMonths(birth, at time.Time) int {
	months := (at.Year()-birth.Year())*12 + int(at.Month()) - int(birth.Month())
	if at.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// AgeBand buckets an age in months into fixed-width bands.
func AgeBand(months, width int) int {
	if width <= 0 {
		width = DefaultAgeBandWidth
	}
	if months < 0 {
		months = 0
	}
	return months / width
}
