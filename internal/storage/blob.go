package storage

import (
	"errors"
	"io"
	"path"
)

var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}

// ReportKey is where the PDF for one evaluation is archived.
func ReportKey(subjectID, date string) string {
	return path.Join("reports", subjectID, date+".pdf")
}
