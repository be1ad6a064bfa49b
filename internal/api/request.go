package api

import (
	"net"
	"net/http"
	"strings"
)

// clientIP identifies the caller for rate limiting. middleware.RealIP has
// already resolved forwarding headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if net.ParseIP(host) != nil {
		return host
	}
	return "unknown"
}

// requestBaseURL returns the configured base URL, or the scheme and host the
// request arrived on.
func requestBaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// requestLocale picks the status page language for redirects.
func requestLocale(r *http.Request) string {
	if strings.Contains(r.URL.Path, "/id/") || r.URL.Query().Get("lang") == "id" {
		return "id"
	}
	return "en"
}
