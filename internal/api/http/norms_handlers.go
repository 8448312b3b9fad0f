package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/charts"
	"github.com/mind-engage/motorskill/internal/norms"
	"github.com/mind-engage/motorskill/internal/protocol"
	"github.com/mind-engage/motorskill/internal/report"
	"github.com/mind-engage/motorskill/internal/storage"
)

// normOptions applies ?exclude_self= and ?bands= over the service defaults.
func normOptions(svc *norms.Service, r *http.Request) (norms.Options, error) {
	opts := svc.Defaults()
	q := r.URL.Query()
	if v := q.Get("exclude_self"); v != "" {
		opts.ExcludeSelf = truthy(v)
	}
	if name := q.Get("bands"); name != "" {
		s, ok := norms.LookupScheme(name)
		if !ok {
			return opts, fmt.Errorf("unknown band scheme %q", name)
		}
		opts.Scheme = s
	}
	return opts, nil
}

func reportFor(svc *norms.Service, w http.ResponseWriter, r *http.Request) (norms.Report, bool) {
	id, date, err := recordKey(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return norms.Report{}, false
	}
	opts, err := normOptions(svc, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return norms.Report{}, false
	}
	rep, err := svc.ReportFor(r.Context(), id, date, &opts)
	if storeError(w, err) {
		return norms.Report{}, false
	}
	return rep, true
}

// GET /records/{subjectID}/{date}/norms?exclude_self=1&bands=three-band
func NormsHandler(svc *norms.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := reportFor(svc, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"subject_id":   rep.Target.SubjectID,
			"label":        rep.Target.Label(),
			"sex":          rep.Target.Sex,
			"age_band":     rep.Target.AgeBand,
			"peer_n":       rep.PeerN,
			"scheme":       rep.Scheme,
			"exclude_self": rep.ExcludeSelf,
			"rows":         rep.Rows,
		})
	}
}

// GET /records/{subjectID}/{date}/charts/{bar|bell|trend}.png
func ChartHandler(svc *norms.Service, p *protocol.Protocol, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := chi.URLParam(r, "chart")
		if kind != "bar" && kind != "bell" && kind != "trend" {
			http.Error(w, "unknown chart", http.StatusNotFound)
			return
		}
		rep, ok := reportFor(svc, w, r)
		if !ok {
			return
		}
		var render func(io.Writer) error
		switch kind {
		case "bar":
			render = func(w io.Writer) error { return charts.Bar(w, rep, rep.Target.Label()) }
		case "bell":
			if rep.Total().Insufficient {
				http.Error(w, norms.InsufficientLabel, http.StatusConflict)
				return
			}
			render = func(w io.Writer) error { return charts.BellCurve(w, rep.Total().Z, rep.Target.Label()) }
		case "trend":
			hist, err := svc.History(r.Context(), rep.Target.SubjectID)
			if storeError(w, err) {
				return
			}
			render = func(w io.Writer) error { return charts.Trend(w, p, hist, rep.Target.FullName()) }
		}
		img, err := charts.PNG(render)
		if errors.Is(err, charts.ErrTooFewPoints) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			log.Warn("chart render failed", zap.String("chart", kind), zap.String("subject_id", rep.Target.SubjectID), zap.Error(err))
			http.Error(w, "chart render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}
}

// GET /records/{subjectID}/{date}/report.pdf
// The PDF is archived under reports/<subject>/<date>.pdf; an archive failure
// is logged and the PDF still returned.
func ReportPDFHandler(svc *norms.Service, p *protocol.Protocol, blobs storage.BlobStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := reportFor(svc, w, r)
		if !ok {
			return
		}
		hist, err := svc.History(r.Context(), rep.Target.SubjectID)
		if err != nil {
			log.Warn("history unavailable", zap.String("subject_id", rep.Target.SubjectID), zap.Error(err))
		}
		data, err := report.PDF(report.Input{
			Protocol: p,
			Record:   rep.Target,
			Report:   rep,
			History:  hist,
			Now:      time.Now(),
			Log:      log,
		})
		if err != nil {
			http.Error(w, "pdf: "+err.Error(), http.StatusInternalServerError)
			return
		}
		key := storage.ReportKey(rep.Target.SubjectID, rep.Target.Date())
		if blobs != nil {
			if _, err := blobs.Put(key, bytes.NewReader(data)); err != nil {
				log.Warn("report archive failed", zap.String("key", key), zap.Error(err))
			} else {
				w.Header().Set("X-Report-Key", key)
			}
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q",
			rep.Target.SubjectID+"_"+rep.Target.EvaluatedOn.Format(assessment.DateLayout)+".pdf"))
		_, _ = w.Write(data)
	}
}
