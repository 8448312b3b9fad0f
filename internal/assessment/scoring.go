package assessment

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mind-engage/motorskill/internal/protocol"
)

// ScoreFromTrials counts the true trial marks of one sub-test, ignoring
// criteria and trials beyond what the protocol defines.
func ScoreFromTrials(p *protocol.Protocol, subtest string, trials [][]bool) int {
	st, ok := p.SubTest(subtest)
	if !ok {
		return 0
	}
	score := 0
	for ci, row := range trials {
		if ci >= len(st.Criteria) {
			break
		}
		for ti, hit := range row {
			if ti >= p.TrialsPerCriterion {
				break
			}
			if hit {
				score++
			}
		}
	}
	return clamp(score, 0, p.MaxScore(subtest))
}

// Normalize returns a score map holding every protocol sub-test, each
// clamped to [0, max]. Unknown sub-tests are dropped, missing ones are 0.
func Normalize(p *protocol.Protocol, scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for _, name := range p.SubTestNames() {
		out[name] = clamp(scores[name], 0, p.MaxScore(name))
	}
	return out
}

func DomainTotal(p *protocol.Protocol, r Record, domain string) int {
	d, ok := p.Domain(domain)
	if !ok {
		return 0
	}
	t := 0
	for _, st := range d.SubTests {
		t += r.Scores[st.Name]
	}
	return t
}

// GrandTotal is the sum of the domain aggregates.
func GrandTotal(p *protocol.Protocol, r Record) int {
	t := 0
	for _, d := range p.Domains {
		t += DomainTotal(p, r, d.Key)
	}
	return t
}

// CoerceScore turns a loosely typed value (JSON number, numeric string,
// spreadsheet cell) into an integer score. Anything malformed is 0.
func CoerceScore(v interface{}) int {
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return floatScore(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return floatScore(f)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		return ParseScore(t)
	default:
		return 0
	}
}

// ParseScore parses a numeric cell such as "6", "6.0" or " 6 pts".
func ParseScore(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return floatScore(v)
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return floatScore(v)
		}
	}
	return 0
}

func floatScore(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
