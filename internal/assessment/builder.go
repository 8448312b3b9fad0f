package assessment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/mind-engage/motorskill/internal/protocol"
)

const DefaultAgeBandWidth = 3

// Input is an assessment as entered by an evaluator, before derivation.
type Input struct {
	FirstName   string
	LastName    string
	BirthDate   time.Time
	Sex         Sex
	EvaluatedOn time.Time
	Scores      map[string]int
	Trials      map[string][][]bool
	Evaluator   string
}

type Options struct {
	AgeBandWidth int
	NameLocale   language.Tag
}

// Builder derives complete records (identity, age, band, clamped scores)
// from evaluator input.
type Builder struct {
	p    *protocol.Protocol
	opts Options
}

func NewBuilder(p *protocol.Protocol, opts Options) *Builder {
	if opts.AgeBandWidth <= 0 {
		opts.AgeBandWidth = DefaultAgeBandWidth
	}
	return &Builder{p: p, opts: opts}
}

func (b *Builder) Protocol() *protocol.Protocol { return b.p }

func (b *Builder) AgeBandWidth() int { return b.opts.AgeBandWidth }

// NormalizeName applies the builder's locale, e.g. to search queries.
func (b *Builder) NormalizeName(s string) string { return NormalizeName(s, b.opts.NameLocale) }

func (b *Builder) Build(in Input) (Record, error) {
	first := NormalizeName(in.FirstName, b.opts.NameLocale)
	last := NormalizeName(in.LastName, b.opts.NameLocale)
	if first == "" || last == "" {
		return Record{}, errors.New("first_name and last_name required")
	}
	if in.BirthDate.IsZero() {
		return Record{}, errors.New("birth_date required")
	}
	if in.EvaluatedOn.IsZero() {
		in.EvaluatedOn = today()
	}
	if in.EvaluatedOn.Before(in.BirthDate) {
		return Record{}, fmt.Errorf("evaluation date %s precedes birth date %s",
			in.EvaluatedOn.Format(DateLayout), in.BirthDate.Format(DateLayout))
	}
	if in.Sex != SexFemale && in.Sex != SexMale {
		return Record{}, fmt.Errorf("invalid sex %q", in.Sex)
	}

	scores := make(map[string]int, len(in.Scores))
	for k, v := range in.Scores {
		scores[k] = v
	}
	var trials map[string][][]bool
	for name, t := range in.Trials {
		if _, ok := b.p.SubTest(name); !ok {
			continue
		}
		if trials == nil {
			trials = map[string][][]bool{}
		}
		trials[name] = t
		scores[name] = ScoreFromTrials(b.p, name, t)
	}

	months := AgeInMonths(in.BirthDate, in.EvaluatedOn)
	return Record{
		SubjectID:   SubjectID(first, last, in.BirthDate, b.opts.NameLocale),
		FirstName:   first,
		LastName:    last,
		BirthDate:   dateOnly(in.BirthDate),
		Sex:         in.Sex,
		EvaluatedOn: dateOnly(in.EvaluatedOn),
		AgeMonths:   months,
		AgeBand:     AgeBand(months, b.opts.AgeBandWidth),
		Scores:      Normalize(b.p, scores),
		Trials:      trials,
		Evaluator:   strings.TrimSpace(in.Evaluator),
	}, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func today() time.Time { return dateOnly(time.Now()) }
