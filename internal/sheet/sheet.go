// Package sheet moves assessment records in and out of .xlsx workbooks.
package sheet

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/protocol"
)

const SheetName = "Assessments"

var fixedHeaders = []string{"ID", "FirstName", "LastName", "BirthDate", "Sex", "Date", "AgeMonths", "AgeBand", "Total", "Evaluator"}

// Export writes one row per record. Per-trial columns are added only when
// at least one record carries trial marks; sub-tests a record scored
// directly leave their trial cells empty.
func Export(w io.Writer, p *protocol.Protocol, records []assessment.Record) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	names := p.SubTestNames()
	withTrials := false
	for _, r := range records {
		if len(r.Trials) > 0 {
			withTrials = true
			break
		}
	}

	header := make([]interface{}, 0, len(fixedHeaders)+len(names))
	for _, h := range fixedHeaders {
		header = append(header, h)
	}
	for _, n := range names {
		header = append(header, n+"_Score")
	}
	if withTrials {
		for _, n := range names {
			st, _ := p.SubTest(n)
			for c := range st.Criteria {
				for t := 0; t < p.TrialsPerCriterion; t++ {
					header = append(header, fmt.Sprintf("%s_%d_T%d", n, c+1, t+1))
				}
			}
		}
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		row := []interface{}{
			r.SubjectID, r.FirstName, r.LastName,
			r.BirthDate.Format(assessment.DateLayout), string(r.Sex), r.Date(),
			r.AgeMonths, r.AgeBand, assessment.GrandTotal(p, r), r.Evaluator,
		}
		for _, n := range names {
			row = append(row, r.Scores[n])
		}
		if withTrials {
			for _, n := range names {
				st, _ := p.SubTest(n)
				marks, ok := r.Trials[n]
				for c := range st.Criteria {
					for t := 0; t < p.TrialsPerCriterion; t++ {
						if !ok {
							row = append(row, nil)
							continue
						}
						v := 0
						if c < len(marks) && t < len(marks[c]) && marks[c][t] {
							v = 1
						}
						row = append(row, v)
					}
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	return f.Write(w)
}

// ImportOptions fill in fields that legacy workbooks never stored.
type ImportOptions struct {
	DefaultSex       assessment.Sex
	DefaultBirthDate time.Time
	Evaluator        string
}

type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

type Summary struct {
	Rows     int        `json:"rows"`
	Imported int        `json:"imported"`
	NoName   int        `json:"skipped_no_name"`
	Invalid  int        `json:"invalid"`
	Errors   []RowError `json:"errors,omitempty"`
}

var (
	fold     = cases.Fold()
	trialCol = regexp.MustCompile(`^(.+)_(\d+)_t(\d+)$`)
)

var aliases = map[string]string{
	"firstname": "first", "first_name": "first", "first name": "first", "ad": "first",
	"lastname": "last", "last_name": "last", "last name": "last", "soyad": "last",
	"birthdate": "birth", "birth_date": "birth", "doğum tarihi": "birth", "dogum tarihi": "birth",
	"sex": "sex", "gender": "sex", "cinsiyet": "sex",
	"date": "date", "evaluated_on": "date", "tarih": "date",
	"evaluator": "evaluator", "değerlendiren": "evaluator",
}

type column struct {
	field   string // first|last|birth|sex|date|evaluator|score|trial
	subtest string
	crit    int
	trial   int
}

// Import reads the first sheet of a workbook. Rows without a first or last
// name are skipped; rows that cannot be built are counted as invalid. Totals
// and age columns are recomputed, never trusted.
func Import(r io.Reader, b *assessment.Builder, opts ImportOptions) ([]assessment.Record, Summary, error) {
	var sum Summary
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, sum, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, sum, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, sum, nil
	}
	cols := mapHeader(b.Protocol(), rows[0])

	var out []assessment.Record
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		sum.Rows++
		lineNo := i + 2
		in := assessment.Input{
			Sex:       opts.DefaultSex,
			BirthDate: opts.DefaultBirthDate,
			Evaluator: opts.Evaluator,
			Scores:    map[string]int{},
		}
		var badDate error
		for j, c := range cols {
			if j >= len(row) || c.field == "" {
				continue
			}
			v := strings.TrimSpace(row[j])
			switch c.field {
			case "first":
				in.FirstName = v
			case "last":
				in.LastName = v
			case "sex":
				if v != "" {
					if sx, err := assessment.ParseSex(v); err == nil {
						in.Sex = sx
					} else {
						in.Sex = assessment.Sex(v)
					}
				}
			case "birth", "date":
				if v == "" {
					continue
				}
				t, err := parseDate(v)
				if err != nil {
					badDate = err
					continue
				}
				if c.field == "birth" {
					in.BirthDate = t
				} else {
					in.EvaluatedOn = t
				}
			case "evaluator":
				if v != "" {
					in.Evaluator = v
				}
			case "score":
				in.Scores[c.subtest] = assessment.ParseScore(v)
			case "trial":
				if v != "" {
					setTrial(&in, c, v)
				}
			}
		}
		if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
			sum.NoName++
			continue
		}
		if badDate != nil {
			sum.Invalid++
			sum.Errors = append(sum.Errors, RowError{Row: lineNo, Err: badDate.Error()})
			continue
		}
		rec, err := b.Build(in)
		if err != nil {
			sum.Invalid++
			sum.Errors = append(sum.Errors, RowError{Row: lineNo, Err: err.Error()})
			continue
		}
		out = append(out, rec)
		sum.Imported++
	}
	return out, sum, nil
}

func mapHeader(p *protocol.Protocol, header []string) []column {
	subtests := map[string]string{}
	for _, n := range p.SubTestNames() {
		subtests[fold.String(n)] = n
	}
	cols := make([]column, len(header))
	for i, h := range header {
		key := fold.String(strings.TrimSpace(h))
		if f, ok := aliases[key]; ok {
			cols[i] = column{field: f}
			continue
		}
		if m := trialCol.FindStringSubmatch(key); m != nil {
			if st, ok := subtests[m[1]]; ok {
				c, _ := strconv.Atoi(m[2])
				t, _ := strconv.Atoi(m[3])
				if c > 0 && t > 0 {
					cols[i] = column{field: "trial", subtest: st, crit: c - 1, trial: t - 1}
				}
			}
			continue
		}
		if at := strings.LastIndex(key, "_"); at > 0 {
			base, suffix := key[:at], key[at+1:]
			if suffix == "score" || suffix == "puan" {
				if st, ok := subtests[base]; ok {
					cols[i] = column{field: "score", subtest: st}
				}
			}
		}
	}
	return cols
}

func setTrial(in *assessment.Input, c column, v string) {
	mark := assessment.ParseScore(v) > 0 || strings.EqualFold(v, "true")
	if in.Trials == nil {
		in.Trials = map[string][][]bool{}
	}
	grid := in.Trials[c.subtest]
	for len(grid) <= c.crit {
		grid = append(grid, nil)
	}
	for len(grid[c.crit]) <= c.trial {
		grid[c.crit] = append(grid[c.crit], false)
	}
	grid[c.crit][c.trial] = mark
	in.Trials[c.subtest] = grid
}

var dateLayouts = []string{assessment.DateLayout, "02.01.2006", "2.1.2006", "2006-01-02 15:04:05", time.RFC3339}

// parseDate accepts formatted dates and raw Excel serial numbers.
func parseDate(v string) (time.Time, error) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
