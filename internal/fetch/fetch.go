// Package fetch downloads resume documents referenced by URL.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"resumatch/internal/config"
	resumatchErrors "resumatch/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Document is a downloaded resume
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Fetcher retrieves documents over http(s) and, when configured, from an S3-compatible store.
// Every fetch is bounded by the configured timeout.
type Fetcher struct {
	httpClient *http.Client
	objects    ObjectGetter
	timeout    time.Duration
	maxBytes   int64
	userAgent  string
	logger     *resumatchErrors.Logger
}

// NewFetcher creates a fetcher from configuration
func NewFetcher(ctx context.Context, cfg config.FetchConfig, logger *resumatchErrors.Logger) (*Fetcher, error) {
	f := &Fetcher{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout:   cfg.Timeout,
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}

	if cfg.S3.Enabled {
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, resumatchErrors.NewConfigError(resumatchErrors.ErrCodeInvalidConfig,
				"Failed to create S3 client", err)
		}
		f.objects = client
	}

	return f, nil
}

// WithObjectStore replaces the object store used for s3:// URLs
func (f *Fetcher) WithObjectStore(objects ObjectGetter) *Fetcher {
	f.objects = objects
	return f
}

// Fetch downloads the document at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
			"Invalid resume URL", err).WithContext("url", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	var doc *Document
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		doc, err = f.fetchHTTP(ctx, parsed)
	case "s3":
		doc, err = f.fetchObject(ctx, parsed)
	default:
		return nil, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unsupported resume URL scheme: %s", parsed.Scheme), nil)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Resume downloaded",
		"url", redact(parsed),
		"bytes", len(doc.Data),
		"content_type", doc.ContentType,
		"duration", time.Since(start))
	return doc, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, target *url.URL) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, resumatchErrors.NewValidationError(resumatchErrors.ErrCodeInvalidRequest,
			"Invalid resume URL", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, f.classify(err, target)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resumatchErrors.NewDownloadError(resumatchErrors.ErrCodeDownloadFailed,
			fmt.Sprintf("Failed to download resume: remote returned %d", resp.StatusCode),
			resp.StatusCode, nil).WithContext("url", redact(target))
	}
	if resp.ContentLength > f.maxBytes {
		return nil, f.tooLarge(target)
	}

	data, err := f.readLimited(resp.Body)
	if err != nil {
		if appErr, ok := resumatchErrors.As(err); ok && appErr.Code == resumatchErrors.ErrCodeDocumentTooLarge {
			return nil, f.tooLarge(target)
		}
		return nil, f.classify(err, target)
	}

	return &Document{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    filenameFrom(resp.Header.Get("Content-Disposition"), target.Path),
	}, nil
}

// readLimited reads at most maxBytes, failing when the body is longer
func (f *Fetcher) readLimited(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, resumatchErrors.NewDownloadError(resumatchErrors.ErrCodeDocumentTooLarge,
			"Resume exceeds the maximum download size", 0, nil)
	}
	return data, nil
}

func (f *Fetcher) tooLarge(target *url.URL) error {
	return resumatchErrors.NewDownloadError(resumatchErrors.ErrCodeDocumentTooLarge,
		fmt.Sprintf("Resume exceeds the maximum download size of %d bytes", f.maxBytes), 0, nil).
		WithContext("url", redact(target))
}

// classify maps transport failures onto timeout and download errors
func (f *Fetcher) classify(err error, target *url.URL) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return resumatchErrors.NewTimeoutError(resumatchErrors.ErrCodeDownloadTimeout,
			fmt.Sprintf("Timed out downloading resume after %s", f.timeout), err).
			WithContext("url", redact(target))
	}
	return resumatchErrors.NewDownloadError(resumatchErrors.ErrCodeDownloadFailed,
		"Failed to download resume", 0, err).WithContext("url", redact(target))
}

// filenameFrom prefers the Content-Disposition file name over the last path segment
func filenameFrom(disposition, urlPath string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	base := path.Base(urlPath)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// redact drops credentials and query strings, which often carry signatures
func redact(u *url.URL) string {
	clean := *u
	clean.User = nil
	clean.RawQuery = ""
	clean.Fragment = ""
	return clean.String()
}
