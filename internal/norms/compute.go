// Package norms computes peer-group normative statistics for an assessment:
// per sub-test, per domain and grand-total mean, sample standard deviation,
// z-score and a qualitative band.
package norms

import (
	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/protocol"
)

type Kind string

const (
	KindSubTest Kind = "subtest"
	KindDomain  Kind = "domain"
	KindTotal   Kind = "total"
)

type Row struct {
	Kind         Kind    `json:"kind"`
	Name         string  `json:"name"`
	Domain       string  `json:"domain,omitempty"`
	Raw          int     `json:"raw"`
	Max          int     `json:"max"`
	Percent      int     `json:"percent"`
	PeerN        int     `json:"peer_n"`
	Mean         float64 `json:"peer_mean"`
	StdDev       float64 `json:"peer_std"`
	Z            float64 `json:"z"`
	Band         string  `json:"band"`
	Insufficient bool    `json:"insufficient,omitempty"`
}

type Report struct {
	Target      assessment.Record `json:"target"`
	PeerN       int               `json:"peer_n"`
	Scheme      string            `json:"scheme"`
	ExcludeSelf bool              `json:"exclude_self"`
	Rows        []Row             `json:"rows"`
}

type Options struct {
	// ExcludeSelf drops the target's own row from its peer group. By default
	// the target is part of the group it is compared against.
	ExcludeSelf bool
	Scheme      Scheme
}

// PeerGroup selects the records sharing the target's sex and age band.
func PeerGroup(target assessment.Record, records []assessment.Record, excludeSelf bool) []assessment.Record {
	out := make([]assessment.Record, 0, len(records))
	for _, r := range records {
		if r.Sex != target.Sex || r.AgeBand != target.AgeBand {
			continue
		}
		if excludeSelf && r.Key() == target.Key() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Compute builds the normative table: sub-tests in protocol order, then
// one row per domain aggregate, then the grand total.
func Compute(p *protocol.Protocol, target assessment.Record, records []assessment.Record, opts Options) Report {
	scheme := opts.Scheme
	if len(scheme.Bands) == 0 {
		scheme = DefaultScheme
	}
	target.Scores = assessment.Normalize(p, target.Scores)
	peers := PeerGroup(target, records, opts.ExcludeSelf)
	for i := range peers {
		peers[i].Scores = assessment.Normalize(p, peers[i].Scores)
	}

	rep := Report{
		Target:      target,
		PeerN:       len(peers),
		Scheme:      scheme.Name,
		ExcludeSelf: opts.ExcludeSelf,
	}
	values := make([]float64, len(peers))

	for _, d := range p.Domains {
		for _, st := range d.SubTests {
			for i, r := range peers {
				values[i] = float64(r.Scores[st.Name])
			}
			rep.Rows = append(rep.Rows, row(KindSubTest, st.Name, d.Key,
				target.Scores[st.Name], p.MaxScore(st.Name), values, scheme))
		}
	}
	for _, d := range p.Domains {
		for i, r := range peers {
			values[i] = float64(assessment.DomainTotal(p, r, d.Key))
		}
		rep.Rows = append(rep.Rows, row(KindDomain, d.Name, d.Key,
			assessment.DomainTotal(p, target, d.Key), p.DomainMax(d.Key), values, scheme))
	}
	for i, r := range peers {
		values[i] = float64(assessment.GrandTotal(p, r))
	}
	rep.Rows = append(rep.Rows, row(KindTotal, "Total", "",
		assessment.GrandTotal(p, target), p.TotalMax(), values, scheme))
	return rep
}

func row(kind Kind, name, domain string, raw, max int, values []float64, scheme Scheme) Row {
	s := Describe(values)
	r := Row{
		Kind:    kind,
		Name:    name,
		Domain:  domain,
		Raw:     raw,
		Max:     max,
		Percent: percent(raw, max),
		PeerN:   s.N,
		Mean:    s.Mean,
		StdDev:  s.StdDev,
	}
	if !s.Defined {
		r.Insufficient = true
		r.Band = InsufficientLabel
		return r
	}
	r.Z = ZScore(float64(raw), s)
	r.Band = scheme.Classify(r.Z)
	return r
}

func percent(raw, max int) int {
	if max <= 0 {
		return 0
	}
	return raw * 100 / max
}

func (r Report) SubTests() []Row { return r.filter(KindSubTest) }

func (r Report) Domains() []Row { return r.filter(KindDomain) }

func (r Report) Total() Row {
	for _, row := range r.Rows {
		if row.Kind == KindTotal {
			return row
		}
	}
	return Row{}
}

// Row finds a row by kind and name; a domain may share a sub-test's name.
func (r Report) Row(kind Kind, name string) (Row, bool) {
	for _, row := range r.Rows {
		if row.Kind == kind && row.Name == name {
			return row, true
		}
	}
	return Row{}, false
}

func (r Report) filter(k Kind) []Row {
	var out []Row
	for _, row := range r.Rows {
		if row.Kind == k {
			out = append(out, row)
		}
	}
	return out
}
