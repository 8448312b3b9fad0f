package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/motorskill/internal/assessment"
	"github.com/mind-engage/motorskill/internal/eventlog"
	"github.com/mind-engage/motorskill/internal/protocol"
)

type recordView struct {
	SubjectID   string              `json:"subject_id"`
	Label       string              `json:"label"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	BirthDate   string              `json:"birth_date"`
	Sex         assessment.Sex      `json:"sex"`
	EvaluatedOn string              `json:"evaluated_on"`
	AgeMonths   int                 `json:"age_months"`
	AgeBand     int                 `json:"age_band"`
	Scores      map[string]int      `json:"scores"`
	Domains     map[string]int      `json:"domains"`
	Total       int                 `json:"total"`
	Trials      map[string][][]bool `json:"trials,omitempty"`
	Evaluator   string              `json:"evaluator,omitempty"`
	UpdatedAt   int64               `json:"updated_at,omitempty"`
}

func view(p *protocol.Protocol, r assessment.Record) recordView {
	domains := make(map[string]int, len(p.Domains))
	for _, d := range p.Domains {
		domains[d.Key] = assessment.DomainTotal(p, r, d.Key)
	}
	return recordView{
		SubjectID:   r.SubjectID,
		Label:       r.Label(),
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		BirthDate:   r.BirthDate.Format(assessment.DateLayout),
		Sex:         r.Sex,
		EvaluatedOn: r.Date(),
		AgeMonths:   r.AgeMonths,
		AgeBand:     r.AgeBand,
		Scores:      r.Scores,
		Domains:     domains,
		Total:       assessment.GrandTotal(p, r),
		Trials:      r.Trials,
		Evaluator:   r.Evaluator,
		UpdatedAt:   r.UpdatedAt,
	}
}

func views(p *protocol.Protocol, rs []assessment.Record) []recordView {
	out := make([]recordView, 0, len(rs))
	for _, r := range rs {
		out = append(out, view(p, r))
	}
	return out
}

type submitRequest struct {
	FirstName   string                 `json:"first_name"`
	LastName    string                 `json:"last_name"`
	BirthDate   string                 `json:"birth_date"`
	Sex         string                 `json:"sex"`
	EvaluatedOn string                 `json:"evaluated_on"`
	Scores      map[string]interface{} `json:"scores"`
	Trials      map[string][][]bool    `json:"trials"`
	Evaluator   string                 `json:"evaluator"`
}

func (req submitRequest) input() (assessment.Input, error) {
	in := assessment.Input{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Trials:    req.Trials,
		Evaluator: req.Evaluator,
		Scores:    make(map[string]int, len(req.Scores)),
	}
	var err error
	if in.BirthDate, err = assessment.ParseDate(req.BirthDate); err != nil {
		return in, err
	}
	if req.EvaluatedOn != "" {
		if in.EvaluatedOn, err = assessment.ParseDate(req.EvaluatedOn); err != nil {
			return in, err
		}
	}
	if in.Sex, err = assessment.ParseSex(req.Sex); err != nil {
		return in, err
	}
	for k, v := range req.Scores {
		in.Scores[k] = assessment.CoerceScore(v)
	}
	return in, nil
}

// POST /records
// Body: { first_name, last_name, birth_date, sex, evaluated_on?, scores? | trials?, evaluator? }
// Re-submitting the same child on the same date overwrites the evaluation.
func SubmitRecordHandler(store assessment.Store, b *assessment.Builder, events *eventlog.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		in, err := req.input()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if in.Evaluator == "" {
			in.Evaluator = actor(r)
		}
		rec, err := b.Build(in)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		saved, created, err := store.Upsert(r.Context(), rec)
		if storeError(w, err) {
			return
		}
		p := b.Protocol()
		events.Record(r.Context(), eventlog.TypeRecordSaved, saved.Key(), actor(r), map[string]interface{}{
			"created": created,
			"total":   assessment.GrandTotal(p, saved),
		})
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, view(p, saved))
	}
}

// GET /records?sex=F&age_band=20&q=yil&limit=50&offset=0
func ListRecordsHandler(store assessment.Store, b *assessment.Builder) http.HandlerFunc {
	p := b.Protocol()
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := assessment.ListOpts{
			Q:      b.NormalizeName(q.Get("q")),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		}
		if s := q.Get("sex"); s != "" {
			sex, err := assessment.ParseSex(s)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			opts.Sex = sex
		}
		if s := q.Get("age_band"); s != "" {
			band, err := strconv.Atoi(s)
			if err != nil {
				http.Error(w, "age_band must be an integer", http.StatusBadRequest)
				return
			}
			opts.AgeBand = &band
		}
		if opts.Limit <= 0 || opts.Limit > 500 {
			opts.Limit = 50
		}
		if opts.Offset < 0 {
			opts.Offset = 0
		}
		rs, err := store.List(r.Context(), opts)
		if storeError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items":  views(p, rs),
			"limit":  opts.Limit,
			"offset": opts.Offset,
		})
	}
}

// GET /records/{subjectID}
func SubjectRecordsHandler(store assessment.Store, p *protocol.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := store.ListBySubject(r.Context(), chi.URLParam(r, "subjectID"))
		if storeError(w, err) {
			return
		}
		if len(rs) == 0 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, views(p, rs))
	}
}

// GET /records/{subjectID}/{date}
func GetRecordHandler(store assessment.Store, p *protocol.Protocol) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, date, err := recordKey(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, err := store.Get(r.Context(), id, date)
		if storeError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, view(p, rec))
	}
}

// DELETE /records/{subjectID}/{date}
func DeleteRecordHandler(store assessment.Store, events *eventlog.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, date, err := recordKey(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if storeError(w, store.Delete(r.Context(), id, date)) {
			return
		}
		events.Record(r.Context(), eventlog.TypeRecordDeleted, id+"|"+date.Format(assessment.DateLayout), actor(r), nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /records?confirm=1 clears every evaluation.
func ResetRecordsHandler(store assessment.Store, events *eventlog.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !truthy(r.URL.Query().Get("confirm")) {
			http.Error(w, "confirm=1 required", http.StatusBadRequest)
			return
		}
		n, err := store.Reset(r.Context())
		if storeError(w, err) {
			return
		}
		events.Record(r.Context(), eventlog.TypeRecordsReset, "*", actor(r), map[string]int{"deleted": n})
		writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
	}
}
