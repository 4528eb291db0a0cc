package anidb

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
)

const DefaultImageBaseURL = "https://cdn-eu.anidb.net/images/main/"

// Image is a proxied image stream. The caller must close Body.
type Image struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// ImageProxy fetches AniDB pictures by filename from the CDN
type ImageProxy struct {
	log        zerolog.Logger
	baseURL    string
	httpClient *http.Client
}

func NewImageProxy(log zerolog.Logger, baseURL string, timeout time.Duration) *ImageProxy {
	return &ImageProxy{
		log:     log.With().Str("module", "images").Logger(),
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch streams the picture named filename. Every upstream failure is
// reported as domain.ErrNotFound.
func (p *ImageProxy) Fetch(ctx context.Context, filename string) (*Image, error) {
	if !validFilename(filename) {
		return nil, errors.Wrapf(domain.ErrNotFound, "invalid image name %q", filename)
	}

	target := p.baseURL + filename

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrNotFound, "image %s: %v", filename, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Warn().Err(err).Str("filename", filename).Msg("Failed to proxy image")
		return nil, errors.Wrapf(domain.ErrNotFound, "image %s: %v", filename, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		p.log.Warn().Int("status", resp.StatusCode).Str("filename", filename).Msg("Failed to proxy image")
		return nil, errors.Wrapf(domain.ErrNotFound, "image %s: status %d", filename, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &Image{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
	}, nil
}

func validFilename(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." || part == "." || part == "" {
			return false
		}
	}
	return true
}
