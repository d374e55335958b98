package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"OpinionScanner/internal/domain"
	"OpinionScanner/internal/ports"
)

var tracer = otel.Tracer("opinionscanner/infrastructure/images")

// ErrRelativeURL is returned for URLs that are not absolute http(s) links.
var ErrRelativeURL = errors.New("image url is not absolute")

// Downloader streams images into a flat directory shared by all sessions.
type Downloader struct {
	dir  string
	http *resty.Client
}

var _ ports.ImageStore = (*Downloader)(nil)

// NewDownloader creates a reusable HTTP client bound to dir.
func NewDownloader(dir string, timeout time.Duration) *Downloader {
	return NewDownloaderWithHTTP(dir, resty.New().SetTimeout(timeout))
}

// NewDownloaderWithHTTP reuses an existing resty client.
func NewDownloaderWithHTTP(dir string, client *resty.Client) *Downloader {
	return &Downloader{dir: dir, http: client}
}

// EnsureDir creates the output directory if it does not exist yet.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create image dir %s: %w", dir, err)
	}
	return nil
}

// Save downloads imageURL into dir/filename and returns the written path.
// A partially written file is removed on failure.
func (d *Downloader) Save(ctx context.Context, imageURL, filename string) (string, error) {
	ctx, span := tracer.Start(ctx, "downloader:Save")
	defer span.End()
	span.SetAttributes(attribute.String("url", imageURL))

	if !domain.IsAbsoluteURL(imageURL) {
		return "", fmt.Errorf("%w: %s", ErrRelativeURL, imageURL)
	}

	res, err := d.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return "", fmt.Errorf("do request: %w", err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "unexpected status")
		return "", fmt.Errorf("unexpected status %s", res.Status())
	}

	path := filepath.Join(d.dir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		span.RecordError(err)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close file: %w", err)
	}

	return path, nil
}
