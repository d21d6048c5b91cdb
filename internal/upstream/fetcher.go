package upstream

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Fetcher downloads and extracts upstream source archives.
type Fetcher struct {
	config Config
	client *http.Client
}

// NewFetcher creates a fetcher for the given host configuration.
func NewFetcher(config Config) *Fetcher {
	return &Fetcher{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Fetch materializes the snapshot of repo at commit under reposDir and
// returns the snapshot directory. Snapshots are immutable once extracted:
// when the directory for this commit already exists the network is skipped
// entirely. Extraction goes through a staging directory so a failed run
// never leaves a half-written snapshot behind.
func (f *Fetcher) Fetch(ctx context.Context, repo, commit, reposDir string) (string, error) {
	dest := filepath.Join(reposDir, fmt.Sprintf("%s-%s", path.Base(repo), commit))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := os.MkdirAll(reposDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory %s: %w", reposDir, err)
	}

	archiveURL := fmt.Sprintf("%s/%s/archive/%s.zip", f.config.ArchiveBaseURL, repo, commit)
	archivePath := dest + ".zip"
	if err := f.download(ctx, archiveURL, archivePath); err != nil {
		return "", &UnavailableError{Repo: repo, Err: err}
	}
	defer os.Remove(archivePath)

	staging := filepath.Join(reposDir, ".staging-"+uuid.New().String())
	defer os.RemoveAll(staging)
	if err := extractZip(archivePath, staging); err != nil {
		return "", fmt.Errorf("failed to extract archive for %s: %w", repo, err)
	}

	root, err := singleRoot(staging)
	if err != nil {
		return "", fmt.Errorf("unexpected archive layout for %s: %w", repo, err)
	}
	if err := os.Rename(root, dest); err != nil {
		return "", fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	return dest, nil
}

// download streams the archive at url into dest.
func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("archive download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

// extractZip unpacks the archive into destDir.
func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	for _, file := range r.File {
		if err := extractFile(file, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, destDir string) error {
	dest := filepath.Join(destDir, file.Name)
	// Entries must stay inside the extraction directory.
	if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("archive entry %q escapes extraction directory", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", file.Name, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", file.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to extract %s: %w", file.Name, err)
	}
	return nil
}

// singleRoot returns the sole top-level directory inside dir, the layout
// repository archives produce.
func singleRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return "", fmt.Errorf("expected a single top-level directory, found %d entries", len(entries))
	}
	return filepath.Join(dir, entries[0].Name()), nil
}
