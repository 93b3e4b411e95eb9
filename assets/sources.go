package assets

import (
	"net/url"
	"strings"
)

// Sources is the set of places an editor image may be loaded from.
// A reference is allowed when it is a data: URI or starts with one of the
// prefixes and points at the same host.
type Sources struct {
	prefixes []string
}

// NewSources creates a source set; empty prefixes are ignored
func NewSources(prefixes ...string) *Sources {
	s := &Sources{}
	s.Add(prefixes...)
	return s
}

// Add registers more prefixes
func (s *Sources) Add(prefixes ...string) {
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		s.prefixes = append(s.prefixes, p)
	}
}

// Prefixes returns the registered prefixes
func (s *Sources) Prefixes() []string {
	return append([]string(nil), s.prefixes...)
}

// Allows reports whether ref may be fetched
func (s *Sources) Allows(ref string) bool {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "data:") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil || u.User != nil {
		return false
	}
	for _, prefix := range s.prefixes {
		if !strings.HasPrefix(ref, prefix) {
			continue
		}
		p, err := url.Parse(prefix)
		if err != nil {
			continue
		}
		if u.Scheme == p.Scheme && u.Host == p.Host {
			return true
		}
	}
	return false
}

// Origin returns "scheme://host/" of an absolute http(s) URL, or "" otherwise
func Origin(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
