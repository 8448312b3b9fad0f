package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/norms"
	"github.com/mind-engage/motorskill/internal/protocol"
)

func fixture(t *testing.T) (Input, []assessment.Record) {
	t.Helper()
	p := protocol.Default()
	b := assessment.NewBuilder(p, assessment.Options{})
	mk := func(first string, eval time.Time, run int) assessment.Record {
		r, err := b.Build(assessment.Input{
			FirstName:   first,
			LastName:    "Yılmaz",
			BirthDate:   time.Date(2018, 3, 10, 0, 0, 0, 0, time.UTC),
			Sex:         assessment.SexFemale,
			EvaluatedOn: eval,
			Scores:      map[string]int{"Run": run, "Gallop": 5, "Catch": 4},
		})
		require.NoError(t, err)
		return r
	}
	eval := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	target := mk("Ayşe", eval, 7)
	peers := []assessment.Record{target, mk("Şule", eval, 3), mk("İpek", eval, 5)}
	rep := norms.Compute(p, target, peers, norms.Options{})
	return Input{Protocol: p, Record: target, Report: rep, Now: eval}, peers
}

func TestPDF(t *testing.T) {
	in, _ := fixture(t)
	data, err := PDF(in)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPDF_WithHistoryAndFailedChart(t *testing.T) {
	in, _ := fixture(t)
	earlier := in.Record
	earlier.EvaluatedOn = in.Record.EvaluatedOn.AddDate(0, -6, 0)
	in.History = []assessment.Record{earlier, in.Record}
	plain, err := PDF(in)
	require.NoError(t, err)

	// a report without sub-test rows cannot produce the bar chart
	core, logs := observer.New(zapcore.WarnLevel)
	in.Log = zap.New(core)
	in.Report.Rows = in.Report.Domains()
	degraded, err := PDF(in)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(degraded, []byte("%PDF-")))
	assert.Less(t, len(degraded), len(plain))
	require.Equal(t, 1, logs.FilterMessage("chart skipped").Len())
}

func TestPDF_InsufficientPeersOmitsBell(t *testing.T) {
	in, peers := fixture(t)
	in.Report = norms.Compute(in.Protocol, in.Record, peers[:1], norms.Options{})
	require.True(t, in.Report.Total().Insufficient)

	core, logs := observer.New(zapcore.InfoLevel)
	in.Log = zap.New(core)
	data, err := PDF(in)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	omitted := logs.FilterMessage("chart omitted").All()
	require.Len(t, omitted, 1)
	assert.Equal(t, "bell", omitted[0].ContextMap()["chart"])
	assert.Zero(t, logs.FilterMessage("chart skipped").Len())
}

func TestLatinize(t *testing.T) {
	assert.Equal(t, "Ayse Yilmaz, Sule Ipek Dag", Latinize("Ayşe Yılmaz, Şule İpek Dağ"))
	assert.Equal(t, "Çöü", Latinize("Çöü"))
}

func TestWriteTable(t *testing.T) {
	color.NoColor = true
	in, _ := fixture(t)
	var buf bytes.Buffer
	WriteTable(&buf, in.Report)
	out := buf.String()

	assert.Contains(t, out, "AYŞE YILMAZ")
	assert.Contains(t, out, "Sub-test")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "Object Control")
	assert.Equal(t, 1, strings.Count(out, "Total"))
}

func TestCells(t *testing.T) {
	c := Cells(norms.Row{Name: "Run", Raw: 6, Max: 8, Percent: 75, PeerN: 3, Mean: 6, StdDev: 2, Z: 0, Band: "normal"})
	assert.Equal(t, []string{"Run", "6", "8", "75%", "3", "6.00", "2.00", "+0.00", "normal"}, c)
}
