package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStore(t *testing.T) {
	base := t.TempDir()
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}

	key := ReportKey("a1b2c3d4e5f6", "2024-05-02")
	if key != "reports/a1b2c3d4e5f6/2024-05-02.pdf" {
		t.Fatalf("key = %q", key)
	}
	got, err := s.Put(key, strings.NewReader("%PDF-1.3"))
	if err != nil || got != key {
		t.Fatalf("put: %q %v", got, err)
	}
	// overwrite
	if _, err := s.Put(key, strings.NewReader("%PDF-1.4")); err != nil {
		t.Fatal(err)
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "%PDF-1.4" {
		t.Fatalf("content = %q", b)
	}

	if _, err := s.Get("reports/missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := s.Get("reports"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("directory: want ErrNotFound, got %v", err)
	}
	if _, err := s.Put("  ", strings.NewReader("x")); err == nil {
		t.Fatal("empty key accepted")
	}
}

func TestFSStore_StaysInBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "blobs")
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}
	k, err := s.Put("../../escape.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if k != "escape.txt" {
		t.Fatalf("key = %q", k)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err == nil {
		t.Fatal("wrote outside base")
	}
	if _, err := os.Stat(filepath.Join(base, "escape.txt")); err != nil {
		t.Fatal(err)
	}
}
