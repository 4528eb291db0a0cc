package anidb

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/anitrack/internal/domain"
)

const (
	DefaultAPIURL = "http://api.anidb.net:9001/httpapi"
	userAgent     = "Mozilla/5.0"
	maxBodySize   = 8 << 20
)

// Limiter spaces outbound API calls
type Limiter interface {
	Wait(ctx context.Context) error
}

// Client fetches anime documents from the AniDB HTTP API, consulting the
// response cache first
type Client struct {
	log        zerolog.Logger
	config     domain.AniDBConfig
	httpClient *http.Client
	cache      domain.CacheRepo
	limiter    Limiter
	rules      Rewriter
}

// NewClient creates a new AniDB API client
func NewClient(log zerolog.Logger, config domain.AniDBConfig, cache domain.CacheRepo, limiter Limiter) *Client {
	return &Client{
		log:    log.With().Str("module", "anidb").Logger(),
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:   cache,
		limiter: limiter,
		rules:   DescriptionRules,
	}
}

// FetchAnime returns the normalized anime for aid. A fresh cached document
// is used without touching the network or the rate limiter.
func (c *Client) FetchAnime(ctx context.Context, aid int) (*domain.NormalizedAnime, error) {
	doc, err := c.Document(ctx, aid)
	if err != nil {
		return nil, err
	}

	return Normalize(aid, doc, c.rules), nil
}

// Document returns the raw anime document for aid, from cache if fresh
func (c *Client) Document(ctx context.Context, aid int) (*Document, error) {
	key := domain.AnimeCacheKey(aid)

	if doc := c.cached(ctx, key); doc != nil {
		c.log.Debug().Int("aid", aid).Msg("Using cached AniDB response")
		return doc, nil
	}

	if c.config.Client == "" || c.config.ClientVersion == "" {
		return nil, domain.ErrMissingCredentials
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	doc, err := c.request(ctx, aid)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		c.log.Warn().Err(err).Int("aid", aid).Msg("failed to encode AniDB response for cache")
		return doc, nil
	}

	if err := c.cache.Put(ctx, key, raw); err != nil {
		c.log.Warn().Err(err).Int("aid", aid).Msg("failed to cache AniDB response")
	}

	return doc, nil
}

func (c *Client) cached(ctx context.Context, key string) *Document {
	raw, ok, err := c.cache.Get(ctx, key, c.config.CacheMaxAge)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("failed to read response cache")
		return nil
	}
	if !ok {
		return nil
	}

	doc := &Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("ignoring undecodable cache entry")
		return nil
	}

	return doc
}

func (c *Client) requestURL(aid int) (string, error) {
	u, err := url.Parse(c.config.APIURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid anidb api url")
	}

	q := u.Query()
	q.Set("request", "anime")
	q.Set("client", c.config.Client)
	q.Set("clientver", c.config.ClientVersion)
	q.Set("protover", strconv.Itoa(c.config.ProtocolVersion))
	q.Set("aid", strconv.Itoa(aid))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (c *Client) request(ctx context.Context, aid int) (*Document, error) {
	target, err := c.requestURL(aid)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug().Int("aid", aid).Msg("Fetching anime from AniDB")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: "fetch anime", URL: c.config.APIURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.TransportError{Op: "fetch anime", URL: c.config.APIURL, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &domain.TransportError{Op: "fetch anime", URL: c.config.APIURL, Err: err}
	}

	doc, err := ParseDocument(bytes.NewReader(raw))
	if err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			c.log.Warn().Int("aid", aid).Str("code", upstream.Code).Str("message", upstream.Message).Msg("AniDB returned an error")
		}
		return nil, err
	}

	return doc, nil
}
