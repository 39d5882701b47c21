package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNotModified is returned when the source reports no change since the last fetch.
var ErrNotModified = errors.New("dataset not modified")

// Downloader fetches dataset files with conditional requests. Sources that
// are not http(s) URLs are treated as local file paths.
type Downloader struct {
	client *http.Client
	dir    string // Directory to store downloaded files
	logger *slog.Logger
}

// NewDownloader creates a Downloader that stores files under dir.
func NewDownloader(dir string, logger *slog.Logger) *Downloader {
	return &Downloader{
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		dir:    dir,
		logger: logger,
	}
}

// Fetched describes a downloaded file.
type Fetched struct {
	Path         string
	LastModified string
	ETag         string
	Size         int64
	Temporary    bool // Path should be removed once imported
}

// Fetch downloads src into a temp file. lastModified and etag come from the
// previous import; when the server answers 304 Fetch returns ErrNotModified.
func (d *Downloader) Fetch(ctx context.Context, src, lastModified, etag string) (*Fetched, error) {
	if !isRemote(src) {
		return d.local(src, lastModified)
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", src, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	d.logger.Info("downloading dataset", "url", src)
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		d.logger.Info("dataset not modified", "url", src)
		return nil, ErrNotModified
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp(d.dir, "dataset-*"+extension(src))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer tmpFile.Close()

	written, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("write file: %w", err)
	}

	d.logger.Info("dataset downloaded",
		"path", filepath.Base(tmpFile.Name()),
		"size", humanize.Bytes(uint64(written)),
	)
	return &Fetched{
		Path:         tmpFile.Name(),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
		Size:         written,
		Temporary:    true,
	}, nil
}

// local serves a file from disk. Its modification time stands in for Last-Modified.
func (d *Downloader) local(path, lastModified string) (*Fetched, error) {
	path = strings.TrimPrefix(path, "file://")
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	modified := info.ModTime().UTC().Format(http.TimeFormat)
	if lastModified != "" && modified == lastModified {
		return nil, ErrNotModified
	}
	d.logger.Info("using local dataset", "path", path, "size", humanize.Bytes(uint64(info.Size())))
	return &Fetched{
		Path:         path,
		LastModified: modified,
		Size:         info.Size(),
	}, nil
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func extension(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return filepath.Ext(u.Path)
}
