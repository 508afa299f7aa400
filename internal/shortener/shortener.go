// Package shortener is the client of the external link-shortening service.
//
// The service is called as
//
//	GET <api-url>?api=<user api key>&url=<percent-encoded long url>
//
// and answers with a JSON envelope:
//
//	{"status":"success","shortenedUrl":"https://short.example/AbC"}
//
// Some deployments name the result field short_url or short instead; the
// first non-empty of shortenedUrl, short_url, short wins. Anything other
// than a success envelope carrying a URL is reported as ErrShortenFailed.
package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-linkbox/internal/observability"
)

// ErrShortenFailed is returned (wrapped) for every unsuccessful call.
var ErrShortenFailed = errors.New("shorten failed")

// DefaultTimeout bounds a single shortening call.
const DefaultTimeout = 15 * time.Second

const statusSuccess = "success"

// envelope is the service response. Only the fields we read are declared.
type envelope struct {
	Status       string `json:"status"`
	ShortenedURL string `json:"shortenedUrl"`
	ShortURL     string `json:"short_url"`
	Short        string `json:"short"`
	Message      any    `json:"message"`
}

func (e envelope) url() string {
	for _, u := range []string{e.ShortenedURL, e.ShortURL, e.Short} {
		if s := strings.TrimSpace(u); s != "" {
			return s
		}
	}
	return ""
}

// Client calls the shortening service. It is safe for concurrent use.
type Client struct {
	rc     *resty.Client
	apiURL string
}

// New returns a client for the endpoint apiURL (e.g. https://viralbox.in/api).
// A non-positive timeout selects DefaultTimeout.
func New(apiURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "go-linkbox").
		SetLogger(restyLogger{l: log.With().Str("component", "shortener").Logger()})
	return &Client{rc: rc, apiURL: apiURL}
}

// Shorten asks the service to shorten longURL on behalf of the owner of
// apiKey. The returned error always wraps ErrShortenFailed; it never carries
// the API key.
func (c *Client) Shorten(ctx context.Context, apiKey, longURL string) (short string, err error) {
	start := time.Now()
	defer func() {
		observability.ShortenLatency.Observe(time.Since(start).Seconds())
		outcome := observability.OutcomeOK
		if err != nil {
			outcome = observability.OutcomeFailed
		}
		observability.ShortenRequests.WithLabelValues(outcome).Inc()
	}()

	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api": apiKey,
			"url": longURL,
		}).
		Get(c.apiURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrShortenFailed, redactURLError(err))
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: http status %d", ErrShortenFailed, resp.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrShortenFailed, err)
	}
	if env.Status != statusSuccess {
		return "", fmt.Errorf("%w: status %q: %v", ErrShortenFailed, env.Status, env.Message)
	}
	short = env.url()
	if short == "" {
		return "", fmt.Errorf("%w: empty short url", ErrShortenFailed)
	}
	return short, nil
}

// redactURLError strips the query string (which carries the API key) from
// transport errors before they are wrapped and logged.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if i := strings.IndexByte(ue.URL, '?'); i >= 0 {
			ue.URL = ue.URL[:i] + "?<redacted>"
		}
	}
	return err
}

// restyLogger routes resty's internal warnings into zerolog.
type restyLogger struct {
	l zerolog.Logger
}

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error().Msgf(format, v...) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn().Msgf(format, v...) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug().Msgf(format, v...) }
