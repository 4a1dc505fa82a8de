package utils

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureFile(t *testing.T) {
	payload := bytes.Repeat([]byte("sde"), 1024)
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "sde.sqlite")
	if err := EnsureFile(srv.URL+"/sde.sqlite", path); err != nil {
		t.Fatalf("EnsureFile failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("downloaded file mismatch (err %v, %d bytes)", err, len(got))
	}

	if err := EnsureFile(srv.URL+"/sde.sqlite", path); err != nil {
		t.Fatalf("second EnsureFile failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("existing file was downloaded again, %d requests", hits)
	}

	err = EnsureFile(srv.URL+"/missing", filepath.Join(dir, "other.sqlite"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("EnsureFile on 404 = %v; want ErrNotFound", err)
	}
	if err := EnsureFile("", filepath.Join(dir, "none.sqlite")); err == nil {
		t.Error("EnsureFile without url should fail for a missing file")
	}
}
