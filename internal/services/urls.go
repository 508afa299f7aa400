package services

import (
	"net/url"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// ExtractURLs returns every http(s) URL in text, in order of appearance. A
// URL runs until the next whitespace.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}
	return urlPattern.FindAllString(text, -1)
}

// OnDomain reports whether raw is an absolute URL whose host equals domain or
// is a subdomain of it. Matching is case-insensitive and ignores the port.
func OnDomain(raw, domain string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	domain = strings.ToLower(strings.TrimSpace(domain))
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// LongURL composes the redirect URL of token under workerDomain.
func LongURL(workerDomain, token string) string {
	return strings.TrimRight(workerDomain, "/") + "/" + token
}
