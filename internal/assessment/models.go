package assessment

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

var ErrNotFound = errors.New("assessment not found")

type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
)

// ParseSex accepts F/M, the English words and the Turkish K(ız)/E(rkek) letters.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f", "female", "girl", "k", "kiz", "kız", "kadın":
		return SexFemale, nil
	case "m", "male", "boy", "e", "erkek":
		return SexMale, nil
	}
	return "", fmt.Errorf("invalid sex %q", s)
}

// Record is one assessment event: a subject evaluated on a given date.
type Record struct {
	SubjectID   string              `json:"subject_id"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	BirthDate   time.Time           `json:"birth_date"`
	Sex         Sex                 `json:"sex"`
	EvaluatedOn time.Time           `json:"evaluated_on"`
	AgeMonths   int                 `json:"age_months"`
	AgeBand     int                 `json:"age_band"`
	Scores      map[string]int      `json:"scores"`
	Trials      map[string][][]bool `json:"trials,omitempty"` // subtest -> criterion -> trial
	Evaluator   string              `json:"evaluator,omitempty"`
	CreatedAt   int64               `json:"created_at,omitempty"`
	UpdatedAt   int64               `json:"updated_at,omitempty"`
}

// Key is the composite identity of a row: subject + evaluation date.
func (r Record) Key() string { return r.SubjectID + "|" + r.EvaluatedOn.Format(DateLayout) }

func (r Record) Date() string { return r.EvaluatedOn.Format(DateLayout) }

func (r Record) FullName() string { return strings.TrimSpace(r.FirstName + " " + r.LastName) }

// Label is the human pick-list entry, e.g. "AYŞE YILMAZ (2024-03-01)".
func (r Record) Label() string { return fmt.Sprintf("%s (%s)", r.FullName(), r.Date()) }

// Total sums every sub-test score on the record.
func (r Record) Total() int {
	t := 0
	for _, v := range r.Scores {
		t += v
	}
	return t
}

type ListOpts struct {
	Sex       Sex
	AgeBand   *int
	SubjectID string
	Q         string // substring of first or last name, already normalized (see NormalizeName)
	Limit     int
	Offset    int
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}
