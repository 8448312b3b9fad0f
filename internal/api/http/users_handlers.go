package http

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mind-engage/motorskill/internal/users"
)

// POST /users/bulk
// Accepts a JSON array body or a multipart file= holding CSV or JSON.
func BulkUpsertUsersHandler(repo *users.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []users.Row
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			// sniff CSV vs JSON by first non-space byte
			br := bufio.NewReader(f)
			first := byte(0)
			for {
				b, err := br.Peek(1)
				if err != nil {
					http.Error(w, "empty file", http.StatusBadRequest)
					return
				}
				if b[0] == ' ' || b[0] == '\n' || b[0] == '\r' || b[0] == '\t' {
					_, _ = br.ReadByte()
					continue
				}
				first = b[0]
				break
			}
			if first == '[' {
				if err := json.NewDecoder(br).Decode(&rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				rs, err := users.ParseCSV(br)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}
		if len(rows) == 0 {
			writeJSON(w, http.StatusOK, map[string]int{"inserted": 0, "updated": 0})
			return
		}
		ins, upd, err := repo.Upsert(r.Context(), rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"inserted": ins, "updated": upd})
	}
}

// GET /users?role=evaluator
func ListUsersHandler(repo *users.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := repo.List(r.Context(), r.URL.Query().Get("role"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
