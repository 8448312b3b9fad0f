package norms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// InsufficientLabel is reported instead of a band when the peer group is
// too small for a standard deviation.
const InsufficientLabel = "insufficient data"

// Band covers z >= Min, up to the next band's Min.
type Band struct {
	Label string  `json:"label" yaml:"label"`
	Min   float64 `json:"min" yaml:"min"`
}

// Scheme is an ordered set of bands, highest Min first. The last band is
// open-ended downward.
type Scheme struct {
	Name  string `json:"name" yaml:"name"`
	Bands []Band `json:"bands" yaml:"bands"`
}

func NewScheme(name string, bands []Band) (Scheme, error) {
	if strings.TrimSpace(name) == "" {
		return Scheme{}, errors.New("bands: scheme name required")
	}
	if len(bands) == 0 {
		return Scheme{}, fmt.Errorf("bands: scheme %q has no bands", name)
	}
	// the last band is the open-ended floor; its Min is ignored
	for i := 1; i < len(bands)-1; i++ {
		if bands[i].Min >= bands[i-1].Min {
			return Scheme{}, fmt.Errorf("bands: scheme %q thresholds must be strictly descending", name)
		}
	}
	return Scheme{Name: name, Bands: append([]Band(nil), bands...)}, nil
}

func (s Scheme) Classify(z float64) string {
	n := len(s.Bands)
	if n == 0 {
		return ""
	}
	for _, b := range s.Bands[:n-1] {
		if z >= b.Min {
			return b.Label
		}
	}
	return s.Bands[n-1].Label
}

var (
	regMu    sync.RWMutex
	registry = map[string]Scheme{}
)

// RegisterScheme binds a scheme to its name, replacing any previous one.
func RegisterScheme(s Scheme) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[s.Name] = s
}

func LookupScheme(name string) (Scheme, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	s, ok := registry[name]
	return s, ok
}

func SchemeNames() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

const (
	SchemeFiveBand  = "five-band"
	SchemeThreeBand = "three-band"
)

func mustScheme(name string, bands []Band) Scheme {
	s, err := NewScheme(name, bands)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultScheme is the five-band classification.
var DefaultScheme = mustScheme(SchemeFiveBand, []Band{
	{Label: "very advanced", Min: 1.5},
	{Label: "advanced", Min: 0.5},
	{Label: "normal", Min: -0.5},
	{Label: "needs improvement", Min: -1.5},
	{Label: "at risk"},
})

func init() {
	RegisterScheme(DefaultScheme)
	RegisterScheme(mustScheme(SchemeThreeBand, []Band{
		{Label: "advanced", Min: 1},
		{Label: "normal", Min: -1},
		{Label: "delayed"},
	}))
}
