// Package fetch downloads versioned data files into a local cache directory
// and verifies them against a pinned SHA-256 digest.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single HTTP download.
const DefaultTimeout = 60 * time.Second

// UserAgent is sent with every request; some archive mirrors reject the Go default.
const UserAgent = "goes-xrs-synth/1.0"

// ErrHashMismatch is matched by every *HashMismatchError.
var ErrHashMismatch = errors.New("sha256 mismatch")

// HashMismatchError reports a local file whose digest differs from the pinned one.
// The file has already been removed when this error is returned.
type HashMismatchError struct {
	Expected string
	Actual   string
	URL      string
	Path     string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("sha256 mismatch for downloaded file\n  expected: %s\n  got     : %s\n  url     : %s\n  path    : %s",
		e.Expected, e.Actual, e.URL, e.Path)
}

// Is makes errors.Is(err, ErrHashMismatch) succeed.
func (e *HashMismatchError) Is(target error) bool {
	return target == ErrHashMismatch
}

// Query names a remote file and its expected digest (hex, any case).
type Query struct {
	URL    string
	SHA256 string
}

// Downloader fetches Query targets into DataDir.
type Downloader struct {
	dataDir    string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewDownloader creates a Downloader rooted at dataDir. A nil logger
// falls back to the standard logrus logger.
func NewDownloader(dataDir string, timeout time.Duration, log *logrus.Entry) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Downloader{
		dataDir: dataDir,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// DataDir returns the cache directory.
func (d *Downloader) DataDir() string {
	return d.dataDir
}

// LocalPath returns where q is cached: the URL's base name inside DataDir.
func (d *Downloader) LocalPath(q Query) (string, error) {
	u, err := url.Parse(q.URL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", q.URL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("url %q has no file name", q.URL)
	}
	return filepath.Join(d.dataDir, name), nil
}

// Fetch returns the local path of q, downloading it first if no cached copy
// exists. The cached file is hashed on every call; on mismatch it is deleted
// and a *HashMismatchError is returned. Nothing is retried.
func (d *Downloader) Fetch(ctx context.Context, q Query) (string, error) {
	dest, err := d.LocalPath(q)
	if err != nil {
		return "", err
	}
	log := d.log.WithFields(logrus.Fields{"url": q.URL, "path": dest})

	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
			return "", fmt.Errorf("create data dir: %w", err)
		}
		log.Info("downloading")
		n, err := d.download(ctx, q.URL, dest)
		if err != nil {
			return "", err
		}
		log.WithField("bytes", n).Info("downloaded")
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", dest, err)
	}

	got, err := SHA256File(dest)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(got, q.SHA256) {
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.WithError(rmErr).Warn("could not remove corrupt file")
		}
		return "", &HashMismatchError{Expected: q.SHA256, Actual: got, URL: q.URL, Path: dest}
	}
	log.Debug("sha256 verified")
	return dest, nil
}

// download streams url into a temp file next to dest and renames it into
// place, so concurrent first-time fetches never observe a partial file.
func (d *Downloader) download(ctx context.Context, rawURL, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	f, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create file failed: %w", err)
	}
	tmpPath := f.Name()

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("rename failed: %w", err)
	}
	return n, nil
}

// SHA256File returns the lowercase hex SHA-256 digest of the file at p.
func SHA256File(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
