// Package urlscope normalizes URLs and reduces hosts to a base domain so
// the Job Engine can tell which discovered links belong to a website.
package urlscope

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize lowercases the scheme and host, preserves path case, strips a
// default port (80 for http, 443 for https), strips a trailing slash on the
// root path, and drops a trailing #fragment. The query string is preserved
// verbatim. Normalize is idempotent: Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url missing scheme or host: %s", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		host = host + ":" + port
	}
	u.Host = host

	u.Fragment = ""
	u.RawFragment = ""

	if u.Path == "/" {
		u.Path = ""
	}

	return u.String(), nil
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// ExtractDomain returns the lowercased host (no port) of a URL.
func ExtractDomain(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("url missing host: %s", raw)
	}
	return strings.ToLower(host), nil
}

// ExtractBaseDomain reduces a host to its registrable root: exactly three
// dot-separated labels whose leftmost label is "www" collapse to the last
// two labels joined ("www.example.com" -> "example.com"). Every other host
// shape, including bare two-label domains and deeper subdomains that aren't
// a "www" prefix, is returned unchanged. ExtractBaseDomain is idempotent.
func ExtractBaseDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	labels := strings.Split(host, ".")
	if len(labels) == 3 && labels[0] == "www" {
		return labels[1] + "." + labels[2]
	}
	return host
}

// IsURLInBaseDomain reports whether url's host equals baseDomain or equals
// "www."+baseDomain.
func IsURLInBaseDomain(raw, baseDomain string) bool {
	host, err := ExtractDomain(raw)
	if err != nil {
		return false
	}
	return host == baseDomain || host == "www."+baseDomain
}

// FilterByDomain returns the subset of urls whose host is in baseDomain's
// scope (apex or www variant).
func FilterByDomain(urls []string, baseDomain string) []string {
	filtered := make([]string, 0, len(urls))
	for _, u := range urls {
		if IsURLInBaseDomain(u, baseDomain) {
			filtered = append(filtered, u)
		}
	}
	return filtered
}
