package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// ObjectStore downloads objects from a remote bucket, used for s3:// document
// references.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string, w io.Writer) error
}

// Fetcher resolves a document reference (local path, http(s) URL, or
// s3://bucket/key) to a local file, caching remote downloads under cacheDir.
type Fetcher struct {
	cacheDir string
	client   *http.Client
	objects  ObjectStore
}

// NewFetcher creates a Fetcher. objects may be nil when no S3 credentials are
// configured; s3:// references then fail with a descriptive error.
func NewFetcher(cacheDir string, objects ObjectStore) *Fetcher {
	return &Fetcher{
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 60 * time.Second},
		objects:  objects,
	}
}

// Fetch resolves ref and returns the local path plus the document name used as
// its manifest key and source label.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (localPath, name string, err error) {
	switch {
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return f.fetchHTTP(ctx, ref)
	case strings.HasPrefix(ref, "s3://"):
		return f.fetchS3(ctx, ref)
	default:
		if _, err := os.Stat(ref); err != nil {
			return "", "", fmt.Errorf("document not found at %s: %w", ref, err)
		}
		return ref, docName(ref), nil
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref string) (string, string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", domain.ErrInvalidDocumentRef
	}

	base := path.Base(u.Path)
	if base == "" || base == "/" || base == "." {
		return "", "", domain.ErrInvalidDocumentRef
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to fetch %s: status %d", ref, resp.StatusCode)
	}

	local, err := f.cacheFile(base, resp.Body)
	if err != nil {
		return "", "", err
	}
	return local, docName(base), nil
}

func (f *Fetcher) fetchS3(ctx context.Context, ref string) (string, string, error) {
	if f.objects == nil {
		return "", "", domain.NewDomainError(domain.ErrCodeUnavailable, "s3 document source requires S3 credentials")
	}

	trimmed := strings.TrimPrefix(ref, "s3://")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", domain.ErrInvalidDocumentRef
	}

	base := path.Base(key)
	local := filepath.Join(f.cacheDir, base)
	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", "", err
	}

	out, err := os.Create(local)
	if err != nil {
		return "", "", err
	}
	defer out.Close()

	if err := f.objects.Download(ctx, bucket, key, out); err != nil {
		os.Remove(local)
		return "", "", fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	return local, docName(base), nil
}

func (f *Fetcher) cacheFile(base string, r io.Reader) (string, error) {
	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", err
	}

	local := filepath.Join(f.cacheDir, base)
	out, err := os.Create(local)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		os.Remove(local)
		return "", err
	}
	return local, nil
}

// docName derives the manifest key and source label from a file name.
func docName(p string) string {
	base := filepath.Base(p)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
