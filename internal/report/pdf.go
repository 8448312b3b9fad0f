// Package report renders a subject's normative report as a PDF document or
// a terminal table.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/charts"
	"github.com/mind-engage/motorskill/internal/norms"
	"github.com/mind-engage/motorskill/internal/protocol"
)

// Input is everything one PDF needs. History is the subject's evaluations,
// oldest first; the trend chart is omitted with fewer than two.
type Input struct {
	Title    string
	Protocol *protocol.Protocol
	Record   assessment.Record
	Report   norms.Report
	History  []assessment.Record
	Now      time.Time
	Log      *zap.Logger
}

type chartImage struct {
	name   string
	width  float64
	render func(io.Writer) error
}

// PDF renders the report. Chart failures are logged and the chart skipped;
// only PDF assembly errors are returned.
func PDF(in Input) ([]byte, error) {
	log := in.Log
	if log == nil {
		log = zap.NewNop()
	}
	if in.Title == "" {
		in.Title = in.Protocol.Name + " Report"
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(in.Title, true)
	pdf.SetCreator("motorskill", true)
	cp := pdf.UnicodeTranslatorFromDescriptor("cp1252")
	if !pdf.Ok() {
		return nil, fmt.Errorf("pdf translator: %w", pdf.Error())
	}
	tr := func(s string) string { return cp(Latinize(s)) }
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("generated %s - page %d", in.Now.Format(assessment.DateLayout), pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(in.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeHeader(pdf, tr, in.Record)
	pdf.Ln(4)
	writeTable(pdf, tr, in.Report)

	total := in.Report.Total()
	images := []chartImage{
		{name: "bar", width: 190, render: func(w io.Writer) error {
			return charts.Bar(w, in.Report, "Sub-test scores vs peers")
		}},
	}
	if total.Insufficient {
		log.Info("chart omitted", zap.String("chart", "bell"), zap.String("subject_id", in.Record.SubjectID), zap.String("reason", norms.InsufficientLabel))
	} else {
		images = append(images, chartImage{name: "bell", width: 150, render: func(w io.Writer) error {
			return charts.BellCurve(w, total.Z, "Total score position")
		}})
	}
	if len(in.History) >= 2 {
		images = append(images, chartImage{name: "trend", width: 150, render: func(w io.Writer) error {
			return charts.Trend(w, in.Protocol, in.History, "Progress")
		}})
	}

	for _, img := range images {
		data, err := charts.PNG(img.render)
		if err != nil {
			log.Warn("chart skipped", zap.String("chart", img.name), zap.String("subject_id", in.Record.SubjectID), zap.Error(err))
			continue
		}
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(img.name, opts, bytes.NewReader(data))
		if !pdf.Ok() {
			return nil, fmt.Errorf("embed %s chart: %w", img.name, pdf.Error())
		}
		pdf.Ln(4)
		pdf.ImageOptions(img.name, (210-img.width)/2, pdf.GetY(), img.width, 0, true, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// turkishASCII maps the Turkish letters that cp1252 lacks.
var turkishASCII = strings.NewReplacer(
	"ş", "s", "Ş", "S",
	"ğ", "g", "Ğ", "G",
	"ı", "i", "İ", "I",
)

// Latinize rewrites text so the core PDF fonts (cp1252) can show it.
func Latinize(s string) string { return turkishASCII.Replace(s) }

func writeHeader(pdf *fpdf.Fpdf, tr func(string) string, r assessment.Record) {
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(35, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(value), "", 1, "L", false, 0, "")
	}
	line("Subject:", r.FullName())
	line("Birth date:", r.BirthDate.Format(assessment.DateLayout))
	line("Sex:", sexLabel(r.Sex))
	line("Age:", fmt.Sprintf("%d y %d m (%d months, band %d)", r.AgeMonths/12, r.AgeMonths%12, r.AgeMonths, r.AgeBand))
	line("Evaluated:", r.Date())
	if r.Evaluator != "" {
		line("Evaluator:", r.Evaluator)
	}
}

var tableCols = []struct {
	title string
	width float64
}{
	{"Sub-test", 48}, {"Raw", 14}, {"Max", 14}, {"%", 14},
	{"Peers", 16}, {"Mean", 18}, {"SD", 18}, {"z", 16}, {"Band", 32},
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, rep norms.Report) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range tableCols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	for _, row := range rep.Rows {
		style, fill := "", false
		if row.Kind != norms.KindSubTest {
			style, fill = "B", true
		}
		pdf.SetFont("Helvetica", style, 9)
		cells := Cells(row)
		for i, c := range tableCols {
			align := "R"
			if i == 0 || i == len(tableCols)-1 {
				align = "L"
			}
			pdf.CellFormat(c.width, 6, tr(cells[i]), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

// Cells formats a row in table column order.
func Cells(r norms.Row) []string {
	return []string{
		r.Name,
		fmt.Sprint(r.Raw),
		fmt.Sprint(r.Max),
		fmt.Sprintf("%d%%", r.Percent),
		fmt.Sprint(r.PeerN),
		fmt.Sprintf("%.2f", r.Mean),
		fmt.Sprintf("%.2f", r.StdDev),
		fmt.Sprintf("%+.2f", r.Z),
		r.Band,
	}
}

func sexLabel(s assessment.Sex) string {
	switch s {
	case assessment.SexFemale:
		return "Female"
	case assessment.SexMale:
		return "Male"
	}
	return string(s)
}
