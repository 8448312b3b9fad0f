package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/protocol"
	"github.com/mind-engage/motorskill/internal/sheet"
	"github.com/mind-engage/motorskill/internal/users"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestProtocolCommand(t *testing.T) {
	out, err := run(t, "--db-driver", "memory", "protocol")
	require.NoError(t, err)
	assert.Contains(t, out, "TGMD-3")
	assert.Contains(t, out, "Horizontal Jump")
	assert.Contains(t, out, "100")

	out, err = run(t, "--protocol-file", "../../configs/tgmd3_tr.yaml", "protocol")
	require.NoError(t, err)
	assert.Contains(t, out, "TGMD-3 (TR)")
}

func TestUserAndResetCommands(t *testing.T) {
	users.BcryptCost = bcrypt.MinCost
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "cli.db")
	t.Setenv("MOTORSKILL_BLOB_BASE_PATH", filepath.Join(dir, "blobs"))

	out, err := run(t, "--db-dsn", dsn, "user", "add", "ayse", "evaluator", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "inserted: 1")

	_, err = run(t, "--db-dsn", dsn, "user", "add", "x", "student", "--password", "pw")
	assert.Error(t, err)

	out, err = run(t, "--db-dsn", dsn, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ayse")

	_, err = run(t, "--db-dsn", dsn, "reset")
	assert.Error(t, err, "reset without confirmation")
	out, err = run(t, "--db-dsn", dsn, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 0 records")
}

func TestReportCommand_NotFound(t *testing.T) {
	t.Setenv("MOTORSKILL_BLOB_BASE_PATH", t.TempDir())
	_, err := run(t, "--db-driver", "memory", "report", "nobody", "2024-01-01")
	assert.Error(t, err)
	_, err = run(t, "--db-driver", "memory", "report", "nobody", "01.01.2024")
	assert.ErrorContains(t, err, "invalid date")
}

// seedWorkbook writes three girls of the same age band to an xlsx file.
func seedWorkbook(t *testing.T, path string) assessment.Record {
	t.Helper()
	b := assessment.NewBuilder(protocol.Default(), assessment.Options{})
	var recs []assessment.Record
	for i, first := range []string{"Ece", "Elif", "Zehra"} {
		r, err := b.Build(assessment.Input{
			FirstName:   first,
			LastName:    "Kaya",
			BirthDate:   time.Date(2019, 1, 10, 0, 0, 0, 0, time.UTC),
			Sex:         assessment.SexFemale,
			EvaluatedOn: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			Scores:      map[string]int{"Run": 4 + 2*i, "Catch": 3},
		})
		require.NoError(t, err)
		recs = append(recs, r)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, sheet.Export(f, protocol.Default(), recs))
	require.NoError(t, f.Close())
	return recs[0]
}

func TestImportExportReportCommands(t *testing.T) {
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "cli.db")
	blobs := filepath.Join(dir, "blobs")
	t.Setenv("MOTORSKILL_BLOB_BASE_PATH", blobs)
	in := filepath.Join(dir, "in.xlsx")
	target := seedWorkbook(t, in)

	out, err := run(t, "--db-dsn", dsn, "import", in, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "imported: 3  created: 0")

	out, err = run(t, "--db-dsn", dsn, "import", in)
	require.NoError(t, err)
	assert.Contains(t, out, "imported: 3  created: 3  updated: 0")

	out, err = run(t, "--db-dsn", dsn, "import", in)
	require.NoError(t, err)
	assert.Contains(t, out, "created: 0  updated: 3")

	exported := filepath.Join(dir, "out.xlsx")
	_, err = run(t, "--db-dsn", dsn, "export", exported)
	require.NoError(t, err)
	f, err := os.Open(exported)
	require.NoError(t, err)
	defer f.Close()
	recs, sum, err := sheet.Import(f, assessment.NewBuilder(protocol.Default(), assessment.Options{}), sheet.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Imported)
	assert.Len(t, recs, 3)

	pdfPath := filepath.Join(dir, "report.pdf")
	out, err = run(t, "--db-dsn", dsn, "report", target.SubjectID, "2024-05-02", "--pdf", pdfPath, "--archive")
	require.NoError(t, err)
	assert.Contains(t, out, "ECE KAYA")
	assert.Contains(t, out, "archived as reports/"+target.SubjectID+"/2024-05-02.pdf")

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	archived, err := os.ReadFile(filepath.Join(blobs, "reports", target.SubjectID, "2024-05-02.pdf"))
	require.NoError(t, err)
	assert.Equal(t, data, archived)
}
