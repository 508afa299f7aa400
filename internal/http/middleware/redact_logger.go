package middleware

// RedactingLogger is the access log of the HTTP surface. Shortening-service
// API keys travel in the "api" query parameter of shortener URLs and mapping
// tokens in paths; neither must end up in logs verbatim.

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-linkbox/internal/sysutil"
)

// RedactOptions configures what RedactingLogger scrubs.
//
// MaskHeaders lists extra header names (case-insensitive) whose values are
// replaced with "[REDACTED]", on top of Authorization, Cookie and Set-Cookie.
// MaskQuery lists query parameter names whose values are masked with
// sysutil.Mask (first characters kept), on top of "api" and "token".
type RedactOptions struct {
	MaskHeaders []string
	MaskQuery   []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// redactText scrubs UUID-like identifiers and email addresses.
func redactText(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	return emailRE.ReplaceAllString(s, "[REDACTED:email]")
}

// redactQuery masks the values of sensitive parameters and scrubs the rest.
// The result is rendered unescaped with keys sorted so logs stay readable;
// unparseable queries are dropped entirely.
func redactQuery(raw string, sensitive map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "[UNPARSEABLE]"
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		_, mask := sensitive[strings.ToLower(k)]
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			if mask {
				v = sysutil.Mask(v)
			} else {
				v = redactText(v)
			}
			b.WriteString(k + "=" + v)
		}
	}
	return truncate(b.String(), maxQueryLogLength)
}

// RedactingLogger returns a Gin middleware that logs each request with
// sensitive values scrubbed and attaches a request-scoped logger (see
// LoggerFrom). Level: error for 5xx or handler errors, warn for 4xx, info
// otherwise. Bodies are never logged.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	maskQuery := map[string]struct{}{"api": {}, "token": {}}
	for _, p := range opts.MaskQuery {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			maskQuery[p] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redactText(strings.Join(vv, ", "))
		}

		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("remote_ip", c.ClientIP()).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		// Route templates keep tokens out of the log; unmatched paths are
		// logged raw but scrubbed.
		path := c.FullPath()
		if path == "" {
			path = redactText(c.Request.URL.Path)
		}
		status := c.Writer.Status()

		ev := l.Info()
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.
			Str("path", path).
			Str("query", redactQuery(c.Request.URL.RawQuery, maskQuery)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
