package frontier

import (
	"net/url"
	"sort"
	"strings"
)

// Normalizer maps a URL to the string used as its queue/registry identity.
type Normalizer func(rawURL string) string

// Verbatim treats URLs as opaque strings: http://x.com/a and http://x.com/a/
// stay distinct entries.
func Verbatim(rawURL string) string { return rawURL }

// Canonicalize normalizes a URL for deduplication:
//   - lowercases scheme and host
//   - removes the fragment and default ports (80 for http, 443 for https)
//   - sorts query parameters
//   - removes a trailing slash (except root)
//
// Unparseable input is returned unchanged.
func Canonicalize(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = u.Hostname()
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var pairs []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, v := range vals {
				pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
		u.RawQuery = strings.Join(pairs, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// NewNormalizer picks Canonicalize when enabled, Verbatim otherwise.
func NewNormalizer(canonicalize bool) Normalizer {
	if canonicalize {
		return Canonicalize
	}
	return Verbatim
}
