// Package sources knows where the static data export is published and
// whether the local copy is current.
package sources

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/sudorandom/telescope/pkg/utils"
)

// checksumFile is where the checksum of the downloaded export is kept.
func checksumFile(path string) string { return path + ".md5" }

// FetchChecksum returns the published md5 for the export. The file holds
// "<md5>  <name>"; only the hash is returned.
func FetchChecksum(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", utils.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(body))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum from %s", url)
	}
	return strings.ToLower(fields[0]), nil
}

// Outdated reports whether the export at path differs from the published
// one. A missing local checksum counts as outdated.
func Outdated(ctx context.Context, path, checksumURL string) (bool, string, error) {
	remote, err := FetchChecksum(ctx, checksumURL)
	if err != nil {
		return false, "", err
	}
	local, err := os.ReadFile(checksumFile(path))
	if err != nil {
		if os.IsNotExist(err) {
			return true, remote, nil
		}
		return false, remote, err
	}
	return strings.TrimSpace(string(local)) != remote, remote, nil
}

// Update downloads the export again when the published checksum changed.
// It reports whether a new file was fetched.
func Update(ctx context.Context, url, checksumURL, path string) (bool, error) {
	outdated, remote, err := Outdated(ctx, path, checksumURL)
	if err != nil {
		return false, fmt.Errorf("checking for a new export: %w", err)
	}
	if !outdated {
		log.Printf("[SDE] Export is current (%s)", remote)
		return false, nil
	}
	log.Printf("[SDE] New export available (%s), downloading %s", remote, url)
	if err := utils.DownloadFile(url, path); err != nil {
		return false, err
	}
	if err := os.WriteFile(checksumFile(path), []byte(remote+"\n"), 0o644); err != nil {
		return true, fmt.Errorf("recording checksum: %w", err)
	}
	return true, nil
}
