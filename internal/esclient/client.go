package esclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/torosent/crankbench/internal/tracing"
)

const (
	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"
)

// Options configure a Client.
type Options struct {
	URL      string
	APIKey   string
	Username string
	Password string
	Token    string

	Timeout time.Duration
	Retries int
	Rate    int // requests per second, 0 means unlimited

	// Cluster labels spans and log lines, e.g. "target" or "report".
	Cluster   string
	Tracer    trace.Tracer
	Propagate bool
	Logger    *zerolog.Logger

	HTTPClient *http.Client // overrides the pooled client built from Timeout
	Retry      *RetryPolicy // overrides the policy built from Retries
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Info is the subset of the root endpoint response the tool relies on.
type Info struct {
	Name        string
	ClusterName string
	Version     string
	BuildHash   string
	BuildFlavor string
}

// Client talks to one cluster. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	auth      Authenticator
	retry     RetryPolicy
	limiter   *rate.Limiter
	tracer    trace.Tracer
	propagate bool
	cluster   string
	logger    zerolog.Logger
}

func New(opt Options) (*Client, error) {
	raw := strings.TrimSpace(opt.URL)
	if raw == "" {
		return nil, errors.New("cluster URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse cluster URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("cluster URL %q must use http or https", base.Redacted())
	}
	if base.Host == "" {
		return nil, fmt.Errorf("cluster URL %q has no host", base.Redacted())
	}

	auth, err := newAuthenticator(opt, base.User)
	if err != nil {
		return nil, err
	}
	base.User = nil
	base.RawQuery = ""
	base.Fragment = ""
	base.Path = strings.TrimRight(base.Path, "/")

	httpClient := opt.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(opt.Timeout)
	}
	retry := NewRetryPolicy(opt.Retries)
	if opt.Retry != nil {
		retry = *opt.Retry
	}
	var limiter *rate.Limiter
	if opt.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opt.Rate), 1)
	}
	tracer := opt.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("crankbench")
	}
	logger := log.Logger
	if opt.Logger != nil {
		logger = *opt.Logger
	}

	return &Client{
		base:      base,
		http:      httpClient,
		auth:      auth,
		retry:     retry,
		limiter:   limiter,
		tracer:    tracer,
		propagate: opt.Propagate,
		cluster:   opt.Cluster,
		logger:    logger.With().Str("cluster", opt.Cluster).Logger(),
	}, nil
}

func newAuthenticator(opt Options, user *url.Userinfo) (Authenticator, error) {
	var found []Authenticator
	if opt.APIKey != "" {
		found = append(found, APIKeyAuth{Key: opt.APIKey})
	}
	if opt.Username != "" || opt.Password != "" {
		found = append(found, BasicAuth{Username: opt.Username, Password: opt.Password})
	} else if user != nil {
		password, _ := user.Password()
		found = append(found, BasicAuth{Username: user.Username(), Password: password})
	}
	if opt.Token != "" {
		found = append(found, BearerAuth{Token: opt.Token})
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, errors.New("only one of api key, basic auth or bearer token may be configured")
	}
}

// NewHTTPClient returns a pooled client with the given overall timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// URL returns the base URL without credentials.
func (c *Client) URL() string { return c.base.String() }

// Perform sends a request and returns the response once it is fully read.
// Non-2xx responses are returned as *HTTPError after retries are exhausted.
func (c *Client) Perform(ctx context.Context, method, path string, body []byte, contentType string) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var resp *Response
	err = c.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			c.logger.Debug().Str("method", method).Str("path", target.Path).Int("attempt", attempt).Msg("retrying request")
		}
		r, err := c.do(ctx, method, target, body, contentType)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, body []byte, contentType string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, span := tracing.StartRequestSpan(ctx, c.tracer, c.cluster, method, target.Path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}
	if body != nil {
		if contentType == "" {
			contentType = ContentTypeJSON
		}
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", ContentTypeJSON)
	if c.auth != nil {
		c.auth.InjectHeader(req)
	}
	if c.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	res, err := c.http.Do(req)
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		err = fmt.Errorf("read response body: %w", err)
		tracing.EndSpan(span, err, attribute.Int("http.response.status_code", res.StatusCode))
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		herr := &HTTPError{Method: method, Path: target.Path, StatusCode: res.StatusCode, Body: string(data)}
		tracing.EndSpan(span, herr, attribute.Int("http.response.status_code", res.StatusCode))
		return nil, herr
	}

	tracing.EndSpan(span, nil, attribute.Int("http.response.status_code", res.StatusCode))
	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: data}, nil
}

func (c *Client) resolve(path string) (*url.URL, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse request path %q: %w", path, err)
	}
	u := *c.base
	u.Path = c.base.Path + rel.Path
	if rel.RawPath != "" {
		u.RawPath = c.base.EscapedPath() + rel.RawPath
	}
	u.RawQuery = rel.RawQuery
	return &u, nil
}

// Ping checks that the cluster answers on its root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Perform(ctx, http.MethodHead, "/", nil, "")
	return err
}

// Info fetches the cluster name and version from the root endpoint.
func (c *Client) Info(ctx context.Context) (Info, error) {
	resp, err := c.Perform(ctx, http.MethodGet, "/", nil, "")
	if err != nil {
		return Info{}, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return Info{}, errors.New("info: response is not valid JSON")
	}
	res := gjson.GetManyBytes(resp.Body, "name", "cluster_name", "version.number", "version.build_hash", "version.build_flavor")
	return Info{
		Name:        res[0].String(),
		ClusterName: res[1].String(),
		Version:     res[2].String(),
		BuildHash:   res[3].String(),
		BuildFlavor: res[4].String(),
	}, nil
}

// Bulk posts an NDJSON body to the bulk endpoint of index and returns the raw
// response body. Item level failures are left to the caller.
func (c *Client) Bulk(ctx context.Context, index string, body []byte) ([]byte, error) {
	path := "/_bulk"
	if index != "" {
		path = "/" + url.PathEscape(index) + "/_bulk"
	}
	resp, err := c.Perform(ctx, http.MethodPost, path, body, ContentTypeNDJSON)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
