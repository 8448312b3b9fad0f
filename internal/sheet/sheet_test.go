package sheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/protocol"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestExportImport(t *testing.T) {
	p := protocol.Default()
	b := assessment.NewBuilder(p, assessment.Options{NameLocale: language.Turkish})

	withTrials, err := b.Build(assessment.Input{
		FirstName: "Ali", LastName: "Kaya", BirthDate: day(2017, 6, 1), Sex: assessment.SexMale,
		EvaluatedOn: day(2024, 2, 1),
		Trials:      map[string][][]bool{"Hop": {{true, true}, {true, false}}},
		Scores:      map[string]int{"Kick": 7},
	})
	require.NoError(t, err)
	plain, err := b.Build(assessment.Input{
		FirstName: "Elif", LastName: "Demir", BirthDate: day(2018, 1, 15), Sex: assessment.SexFemale,
		EvaluatedOn: day(2024, 2, 1), Scores: map[string]int{"Run": 5},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, p, []assessment.Record{withTrials, plain}))

	got, sum, err := Import(bytes.NewReader(buf.Bytes()), b, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, Summary{Rows: 2, Imported: 2}, sum)
	require.Len(t, got, 2)

	assert.Equal(t, withTrials.SubjectID, got[0].SubjectID)
	assert.Equal(t, 3, got[0].Scores["Hop"])
	assert.Equal(t, 7, got[0].Scores["Kick"])
	assert.True(t, got[0].Trials["Hop"][1][0])
	assert.False(t, got[0].Trials["Hop"][1][1])
	assert.Equal(t, plain.SubjectID, got[1].SubjectID)
	assert.Equal(t, 5, got[1].Scores["Run"])
	assert.Equal(t, plain.AgeMonths, got[1].AgeMonths)
}

func TestImport_LegacyWorkbook(t *testing.T) {
	p, err := protocol.Load("../../configs/tgmd3_tr.yaml")
	require.NoError(t, err)
	b := assessment.NewBuilder(p, assessment.Options{NameLocale: language.Turkish})

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"ID", "Ad", "Soyad", "Tarih", "Toplam", "Koşu_Puan", "Galop_Puan"},
		{"a1b2c3", "zeynep", "öztürk", "2024-03-04", 12, 6, "x"},
		{"a1b2c4", "", "", "2024-03-04", 0, 0, 0},
		{"a1b2c5", "can", "arslan", 45355, 9, "5,0", 2},
		{"a1b2c6", "deniz", "ak", "yesterday", 0, 1, 1},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, sum, err := Import(&buf, b, ImportOptions{DefaultSex: assessment.SexFemale, DefaultBirthDate: day(2019, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Rows)
	assert.Equal(t, 2, sum.Imported)
	assert.Equal(t, 1, sum.NoName)
	assert.Equal(t, 1, sum.Invalid)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, 5, sum.Errors[0].Row)

	require.Len(t, got, 2)
	assert.Equal(t, "ZEYNEP", got[0].FirstName)
	assert.Equal(t, 6, got[0].Scores["Koşu"])
	assert.Equal(t, 0, got[0].Scores["Galop"])
	assert.Equal(t, "2024-03-04", got[0].Date())

	assert.Equal(t, "2024-03-04", got[1].Date())
	assert.Equal(t, 5, got[1].Scores["Koşu"])
	assert.Equal(t, 2, got[1].Scores["Galop"])
}

func TestImport_MissingBirthDate(t *testing.T) {
	p := protocol.Default()
	b := assessment.NewBuilder(p, assessment.Options{})

	f := excelize.NewFile()
	header := []interface{}{"FirstName", "LastName", "Sex", "Date"}
	row := []interface{}{"Mert", "Can", "E", "2024-05-05"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, sum, err := Import(&buf, b, ImportOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, sum.Invalid)
	assert.Contains(t, sum.Errors[0].Err, "birth_date")
}

func TestImport_NotAWorkbook(t *testing.T) {
	_, _, err := Import(bytes.NewReader([]byte("ID,Ad\n1,x\n")), assessment.NewBuilder(protocol.Default(), assessment.Options{}), ImportOptions{})
	assert.Error(t, err)
}
