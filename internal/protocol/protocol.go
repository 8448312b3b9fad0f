// Package protocol describes the fixed assessment protocol: domains,
// sub-tests and their scoring criteria. A Protocol is configuration; it is
// loaded once and never mutated.
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

type Criterion struct {
	Label string `yaml:"label" json:"label"`
}

type SubTest struct {
	Name     string      `yaml:"name" json:"name"`
	Criteria []Criterion `yaml:"criteria" json:"criteria"`
}

type Domain struct {
	Key      string    `yaml:"key" json:"key"`
	Name     string    `yaml:"name" json:"name"`
	SubTests []SubTest `yaml:"subtests" json:"subtests"`
}

type Protocol struct {
	Name               string   `yaml:"name" json:"name"`
	TrialsPerCriterion int      `yaml:"trials_per_criterion" json:"trials_per_criterion"`
	Domains            []Domain `yaml:"domains" json:"domains"`
}

// MaxScore is criteria count × trials per criterion for the named sub-test.
// Unknown sub-tests have a max of 0.
func (p *Protocol) MaxScore(subtest string) int {
	st, ok := p.SubTest(subtest)
	if !ok {
		return 0
	}
	return len(st.Criteria) * p.TrialsPerCriterion
}

func (p *Protocol) DomainMax(key string) int {
	d, ok := p.Domain(key)
	if !ok {
		return 0
	}
	max := 0
	for _, st := range d.SubTests {
		max += len(st.Criteria) * p.TrialsPerCriterion
	}
	return max
}

func (p *Protocol) TotalMax() int {
	max := 0
	for _, d := range p.Domains {
		max += p.DomainMax(d.Key)
	}
	return max
}

func (p *Protocol) Domain(key string) (Domain, bool) {
	for _, d := range p.Domains {
		if d.Key == key {
			return d, true
		}
	}
	return Domain{}, false
}

func (p *Protocol) SubTest(name string) (SubTest, bool) {
	for _, d := range p.Domains {
		for _, st := range d.SubTests {
			if st.Name == name {
				return st, true
			}
		}
	}
	return SubTest{}, false
}

// DomainOf returns the key of the domain that owns the sub-test.
func (p *Protocol) DomainOf(subtest string) (string, bool) {
	for _, d := range p.Domains {
		for _, st := range d.SubTests {
			if st.Name == subtest {
				return d.Key, true
			}
		}
	}
	return "", false
}

// SubTestNames lists every sub-test in protocol order.
func (p *Protocol) SubTestNames() []string {
	var out []string
	for _, d := range p.Domains {
		for _, st := range d.SubTests {
			out = append(out, st.Name)
		}
	}
	return out
}

// MaxScores maps each sub-test to its max.
func (p *Protocol) MaxScores() map[string]int {
	out := make(map[string]int)
	for _, d := range p.Domains {
		for _, st := range d.SubTests {
			out[st.Name] = len(st.Criteria) * p.TrialsPerCriterion
		}
	}
	return out
}

func (p *Protocol) Validate() error {
	if p == nil {
		return errors.New("protocol: nil")
	}
	if p.TrialsPerCriterion < 1 {
		return fmt.Errorf("protocol: trials_per_criterion must be >= 1, got %d", p.TrialsPerCriterion)
	}
	if len(p.Domains) == 0 {
		return errors.New("protocol: no domains")
	}
	domains := map[string]bool{}
	seen := map[string]string{}
	for _, d := range p.Domains {
		if strings.TrimSpace(d.Key) == "" {
			return errors.New("protocol: domain key required")
		}
		if domains[d.Key] {
			return fmt.Errorf("protocol: duplicate domain %q", d.Key)
		}
		domains[d.Key] = true
		if len(d.SubTests) == 0 {
			return fmt.Errorf("protocol: domain %q has no sub-tests", d.Key)
		}
		for _, st := range d.SubTests {
			if strings.TrimSpace(st.Name) == "" {
				return fmt.Errorf("protocol: domain %q: sub-test name required", d.Key)
			}
			if other, dup := seen[st.Name]; dup {
				return fmt.Errorf("protocol: sub-test %q appears in %q and %q", st.Name, other, d.Key)
			}
			seen[st.Name] = d.Key
			if len(st.Criteria) == 0 {
				return fmt.Errorf("protocol: sub-test %q has no criteria", st.Name)
			}
		}
	}
	return nil
}
