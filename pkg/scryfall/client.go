// Package scryfall fetches the Scryfall bulk card catalog and materializes it
// as a table.
//
// A fetch is two requests: the bulk-data listing, then the selected dataset's
// download URI. Nothing is cached or written to disk.
package scryfall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/palantir/card-catalog-pipeline/internal/version"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/core"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/worker"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

const (
	DefaultBaseURL         = "https://api.scryfall.com"
	DefaultTimeout         = 60 * time.Second
	DefaultDownloadTimeout = 10 * time.Minute
	DefaultRateLimitRPS    = 10

	tracerName = "github.com/palantir/card-catalog-pipeline/pkg/scryfall"
	acceptJSON = "application/json;q=0.9,*/*;q=0.8"
)

// Config controls where and how the catalog is fetched. Zero values take the
// package defaults.
type Config struct {
	BaseURL string
	// BulkType selects the dataset from the listing. Empty or BulkFirst selects
	// the first one.
	BulkType        string
	Timeout         time.Duration
	DownloadTimeout time.Duration
	// RateLimitRPS paces every request made by the client. <=0 disables pacing.
	RateLimitRPS float64
	// MaxRetries is the number of extra attempts after a transient failure
	// (429, 5xx, timeouts). Zero means a single attempt.
	MaxRetries int
	UserAgent  string
}

// DefaultConfig returns the configuration for the public Scryfall API.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		BulkType:        DefaultBulkType,
		Timeout:         DefaultTimeout,
		DownloadTimeout: DefaultDownloadTimeout,
		RateLimitRPS:    DefaultRateLimitRPS,
		UserAgent:       version.UserAgent(),
	}
}

// Client talks to the Scryfall API.
type Client struct {
	cfg     Config
	base    *url.URL
	http    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. an httptest server's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = newResty(resty.NewWithClient(hc), c.cfg)
		}
	}
}

// New returns a client for cfg. Only the base URL is validated here; network
// errors surface from FetchCatalog.
func New(cfg Config, opts ...Option) (*Client, error) {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = def.DownloadTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = def.UserAgent
	}

	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		base:   base,
		http:   newResty(resty.New(), cfg),
		logger: zap.NewNop(),
	}
	if cfg.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func newResty(rc *resty.Client, cfg Config) *resty.Client {
	rc.SetHeader("User-Agent", cfg.UserAgent)
	rc.SetHeader("Accept", acceptJSON)
	instrumentResty(rc)
	return rc
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse scryfall base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("scryfall base URL must include a host (got %q)", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// FetchCatalog fetches the bulk-data listing, selects the configured dataset
// and downloads it as a table.
func (c *Client) FetchCatalog(ctx context.Context) (*table.Table, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "FetchCatalog")
	defer span.End()

	list, err := c.BulkData(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bulk-data")
		return nil, err
	}
	d, err := list.Select(c.cfg.BulkType)
	if err != nil {
		err = &FetchError{Kind: KindMetadata, Op: "select dataset", URL: c.bulkDataURL(), Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "select dataset")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("scryfall.bulk_type", d.Type),
		attribute.Int64("scryfall.bulk_size", d.Size),
	)
	c.logger.Info("bulk dataset selected",
		zap.String("type", d.Type),
		zap.Time("updated_at", d.UpdatedAt),
		zap.Int64("size", d.Size),
	)

	t, err := c.Download(ctx, d.DownloadURI)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "download")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("catalog.rows", t.Len()),
		attribute.Int("catalog.columns", t.Width()),
	)
	return t, nil
}

// BulkData fetches the bulk-data listing.
func (c *Client) BulkData(ctx context.Context) (BulkList, error) {
	const op = "bulk-data"
	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()

	u := c.bulkDataURL()
	list, err := worker.Do(ctx, func(ctx context.Context) (BulkList, error) {
		res, err := c.http.R().SetContext(ctx).Get(u)
		if err != nil {
			return BulkList{}, &FetchError{Kind: KindTransport, Op: op, URL: u, Err: err}
		}
		if res.IsError() {
			return BulkList{}, statusError(op, u, res.RawResponse, res.Body())
		}
		l, err := parseBulkList(res.Body())
		if err != nil {
			return BulkList{}, &FetchError{Kind: KindMetadata, Op: op, URL: u, Err: err}
		}
		return l, nil
	}, c.retryOptions(c.cfg.Timeout))
	if err != nil {
		err = asFetchError(op, u, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return BulkList{}, err
	}
	span.SetAttributes(attribute.Int("scryfall.datasets", len(list.Data)))
	return list, nil
}

// Download fetches a card array from uri, following redirects.
func (c *Client) Download(ctx context.Context, uri string) (*table.Table, error) {
	const op = "download"
	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("url.full", uri))

	started := time.Now()
	t, err := worker.Do(ctx, func(ctx context.Context) (*table.Table, error) {
		res, err := c.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(uri)
		if err != nil {
			return nil, &FetchError{Kind: KindTransport, Op: op, URL: uri, Err: err}
		}
		finishRequestSpan(res)
		body := res.RawBody()
		if body == nil {
			return nil, &FetchError{Kind: KindPayload, Op: op, URL: uri, Err: errors.New("empty response body")}
		}
		defer func() {
			_ = body.Close()
		}()
		if res.IsError() {
			snippet, _ := io.ReadAll(io.LimitReader(body, 4096))
			return nil, statusError(op, uri, res.RawResponse, snippet)
		}
		t, err := DecodeCards(body)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, &FetchError{Kind: KindTransport, Op: op, URL: uri, Err: ctxErr}
			}
			return nil, &FetchError{Kind: KindPayload, Op: op, URL: uri, Err: err}
		}
		return t, nil
	}, c.retryOptions(c.cfg.DownloadTimeout))
	if err != nil {
		err = asFetchError(op, uri, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.logger.Info("catalog downloaded",
		zap.Int("rows", t.Len()),
		zap.Int("columns", t.Width()),
		zap.Duration("duration", time.Since(started)),
	)
	return t, nil
}

func (c *Client) bulkDataURL() string {
	return c.base.ResolveReference(&url.URL{Path: bulkDataPath}).String()
}

func (c *Client) retryOptions(timeout time.Duration) worker.Options {
	return worker.Options{
		MaxRetries: c.cfg.MaxRetries,
		Timeout:    timeout,
		Limiter:    c.limiter,
		Backoff: worker.Backoff{
			Initial: 500 * time.Millisecond,
			Max:     10 * time.Second,
			Jitter:  0.2,
		},
	}
}

// statusError builds the status failure. 429 and 5xx are marked transient so the
// retry budget applies to them, honoring Retry-After when the response has one.
func statusError(op, u string, res *http.Response, body []byte) error {
	h := newHTTPError(op, res.StatusCode, res.Status, body)
	var err error = h
	if h.Retryable() {
		err = &core.TransientError{Err: h, RetryAfter: retryAfter(res.Header.Get("Retry-After"), time.Now())}
	}
	return &FetchError{Kind: KindStatus, Op: op, URL: u, Err: err}
}

// retryAfter parses a Retry-After value given in seconds or as an HTTP date.
func retryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// asFetchError keeps FetchErrors as they are and classifies anything else the
// retry loop returned (context expiry, limiter errors) as transport.
func asFetchError(op, u string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Kind: KindTransport, Op: op, URL: u, Err: err}
}
