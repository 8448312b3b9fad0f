package http

import (
	"net/http"

	"github.com/mind-engage/motorskill/internal/protocol"
)

type subTestView struct {
	Name     string   `json:"name"`
	Max      int      `json:"max"`
	Criteria []string `json:"criteria"`
}

type domainView struct {
	Key      string        `json:"key"`
	Name     string        `json:"name"`
	Max      int           `json:"max"`
	SubTests []subTestView `json:"subtests"`
}

// GET /protocol
func ProtocolHandler(p *protocol.Protocol) http.HandlerFunc {
	domains := make([]domainView, 0, len(p.Domains))
	for _, d := range p.Domains {
		dv := domainView{Key: d.Key, Name: d.Name, Max: p.DomainMax(d.Key)}
		for _, st := range d.SubTests {
			sv := subTestView{Name: st.Name, Max: p.MaxScore(st.Name)}
			for _, c := range st.Criteria {
				sv.Criteria = append(sv.Criteria, c.Label)
			}
			dv.SubTests = append(dv.SubTests, sv)
		}
		domains = append(domains, dv)
	}
	body := map[string]interface{}{
		"name":                 p.Name,
		"trials_per_criterion": p.TrialsPerCriterion,
		"total_max":            p.TotalMax(),
		"domains":              domains,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, body)
	}
}
