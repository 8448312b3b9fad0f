package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/eventlog"
	"github.com/mind-engage/motorskill/internal/protocol"
	"github.com/mind-engage/motorskill/internal/sheet"
)

const maxUpload = 32 << 20

// POST /sheet/import  (multipart: file=<xlsx>, optional default_sex, default_birth_date)
func ImportSheetHandler(store assessment.Store, b *assessment.Builder, events *eventlog.EventRepo, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			http.Error(w, "multipart form required", http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		opts := sheet.ImportOptions{Evaluator: actor(r)}
		if s := r.FormValue("default_sex"); s != "" {
			if opts.DefaultSex, err = assessment.ParseSex(s); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		if s := r.FormValue("default_birth_date"); s != "" {
			if opts.DefaultBirthDate, err = assessment.ParseDate(s); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		recs, sum, err := sheet.Import(f, b, opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created, updated, err := store.UpsertMany(r.Context(), recs)
		if err != nil {
			log.Error("sheet import rolled back", zap.Int("rows", sum.Rows), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error":   "import rolled back: " + err.Error(),
				"summary": sum,
				"created": 0,
				"updated": 0,
			})
			return
		}
		log.Info("sheet imported", zap.Int("rows", sum.Rows), zap.Int("created", created),
			zap.Int("updated", updated), zap.Int("skipped_no_name", sum.NoName), zap.Int("invalid", sum.Invalid))
		events.Record(r.Context(), eventlog.TypeRecordsImported, "sheet", actor(r), map[string]interface{}{
			"summary": sum, "created": created, "updated": updated,
		})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"summary": sum,
			"created": created,
			"updated": updated,
		})
	}
}

// GET /sheet/export
func ExportSheetHandler(store assessment.Store, p *protocol.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := store.All(r.Context())
		if storeError(w, err) {
			return
		}
		var buf bytes.Buffer
		if err := sheet.Export(&buf, p, rs); err != nil {
			http.Error(w, "export: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "motorskill_"+time.Now().Format("20060102")+".xlsx"))
		_, _ = w.Write(buf.Bytes())
	}
}
