package extract

import (
	"net/url"
	"strings"
)

// absoluteLink returns href unchanged when it is already an absolute http(s) URL.
func absoluteLink(href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return href
	}
	return ""
}

// ResolveLink converts a raw href into an absolute URL string against base.
// It returns "" if the link should be ignored (fragments, non-http schemes).
func ResolveLink(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return ""
	}
	bu, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.Scheme != "" {
		switch strings.ToLower(ref.Scheme) {
		case "http", "https":
		default:
			return ""
		}
	}

	abs := bu.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" || abs.Host == "" {
		return ""
	}
	abs.Fragment = ""
	abs.RawFragment = ""
	if abs.Path == "" {
		abs.Path = "/"
	}
	return abs.String()
}
