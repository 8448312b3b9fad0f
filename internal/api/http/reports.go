package http

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/motorskill/internal/storage"
)

// MountReports serves archived report PDFs.
func MountReports(r chi.Router, bs storage.BlobStore) {
	// GET /reports/*   -> the blob at reports/<whatever follows>
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if key == "" {
			http.Error(w, "key required", http.StatusBadRequest)
			return
		}
		rc, err := bs.Get(path.Join("reports", key))
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		ct := "application/octet-stream"
		if strings.HasSuffix(key, ".pdf") {
			ct = "application/pdf"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
