package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sudorandom/telescope/pkg/utils"
)

func TestUpdate(t *testing.T) {
	checksum := "0123abcd"
	downloads := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sde.sqlite.md5":
			w.Write([]byte(checksum + "  sqlite-latest.sqlite.bz2\n"))
		case "/sde.sqlite":
			downloads++
			w.Write([]byte("export-" + checksum))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sde.sqlite")
	url, sumURL := srv.URL+"/sde.sqlite", srv.URL+"/sde.sqlite.md5"

	fetched, err := Update(ctx, url, sumURL, path)
	if err != nil || !fetched {
		t.Fatalf("first Update = %v, %v; want a download", fetched, err)
	}
	if fetched, err := Update(ctx, url, sumURL, path); err != nil || fetched {
		t.Errorf("second Update = %v, %v; want no download", fetched, err)
	}

	checksum = "ffff0000"
	if fetched, err := Update(ctx, url, sumURL, path); err != nil || !fetched {
		t.Errorf("Update after a new release = %v, %v; want a download", fetched, err)
	}
	if data, _ := os.ReadFile(path); string(data) != "export-ffff0000" {
		t.Errorf("export content = %q", data)
	}
	if downloads != 2 {
		t.Errorf("downloads = %d; want 2", downloads)
	}

	if _, err := FetchChecksum(ctx, srv.URL+"/nope"); !errors.Is(err, utils.ErrNotFound) {
		t.Errorf("FetchChecksum(missing) error = %v; want ErrNotFound", err)
	}
}
