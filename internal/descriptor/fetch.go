package descriptor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrFetch means the descriptor could not be retrieved and no cached copy
// was available. Re-running may succeed; the launcher does not retry
// internally.
var ErrFetch = errors.New("descriptor fetch failed")

// cachedName is the persistent descriptor copy kept under the cache root so
// a transient outage of the descriptor server does not block runs.
const cachedName = "BioBeamerConfig.xml"

// httpTimeout bounds the descriptor download. The descriptor is a small XML
// file; anything slower than this is effectively unreachable.
const httpTimeout = 30 * time.Second

// Fetcher retrieves the descriptor to a local file.
type Fetcher struct {
	CacheRoot string

	// client is a test seam; nil means a default client with httpTimeout.
	client *http.Client
}

// Result reports where the descriptor was read from.
type Result struct {
	Path string
	// FromCache is true when the remote fetch failed and the persistent
	// cached copy was used instead.
	FromCache bool
}

// Fetch materializes the descriptor at pathOrURL as a readable local file.
//
// Local paths are used in place. Remote URLs are downloaded to a temp file
// and mirrored to <CacheRoot>/BioBeamerConfig.xml; if the download fails but
// a mirrored copy exists, that copy is used. ErrFetch is returned only when
// no descriptor can be produced at all.
func (f *Fetcher) Fetch(ctx context.Context, pathOrURL string) (Result, error) {
	if !isRemote(pathOrURL) {
		if _, err := os.Stat(pathOrURL); err != nil {
			return Result{}, fmt.Errorf("%w: local descriptor %s: %v", ErrFetch, pathOrURL, err)
		}
		return Result{Path: pathOrURL}, nil
	}

	tmp, err := f.download(ctx, pathOrURL)
	if err != nil {
		cached := filepath.Join(f.CacheRoot, cachedName)
		if _, statErr := os.Stat(cached); statErr == nil {
			return Result{Path: cached, FromCache: true}, nil
		}
		return Result{}, fmt.Errorf("%w: %s: %v (and no cached copy)", ErrFetch, pathOrURL, err)
	}

	// Keep a persistent copy for the next outage. Best effort: a failed
	// mirror must not fail the run.
	if err := os.MkdirAll(f.CacheRoot, 0o755); err == nil {
		_ = copyFile(tmp, filepath.Join(f.CacheRoot, cachedName))
	}
	return Result{Path: tmp}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	client := f.client
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "biobeamer-descriptor-*.xml")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func isRemote(pathOrURL string) bool {
	return strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
