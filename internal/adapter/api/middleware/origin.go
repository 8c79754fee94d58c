package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginMatcher decides whether a CORS origin is on the allow-list.
// Entries are exact origins ("https://app.example.com") or wildcard
// subdomain patterns ("https://*.example.com"). Trailing slashes on
// configured entries are ignored.
type OriginMatcher struct {
	exact     map[string]struct{}
	wildcards []wildcardOrigin
}

type wildcardOrigin struct {
	scheme string
	suffix string // ".example.com"
}

func NewOriginMatcher(origins []string) *OriginMatcher {
	m := &OriginMatcher{exact: make(map[string]struct{})}
	for _, o := range origins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}

		if scheme, rest, found := strings.Cut(o, "://"); found && strings.HasPrefix(rest, "*.") {
			m.wildcards = append(m.wildcards, wildcardOrigin{
				scheme: strings.ToLower(scheme),
				suffix: strings.ToLower(rest[1:]), // keep the dot: ".example.com"
			})
			continue
		}
		m.exact[strings.ToLower(o)] = struct{}{}
	}
	return m
}

// Allow reports whether the origin may access the API. It satisfies the
// AllowOriginFunc signature of github.com/go-chi/cors.
func (m *OriginMatcher) Allow(r *http.Request, origin string) bool {
	lowered := strings.ToLower(strings.TrimSuffix(origin, "/"))
	if _, ok := m.exact[lowered]; ok {
		return true
	}

	u, err := url.Parse(lowered)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	for _, w := range m.wildcards {
		if u.Scheme != w.scheme {
			continue
		}
		// "*.example.com" admits any subdomain but not the apex.
		if strings.HasSuffix(host, w.suffix) && len(host) > len(w.suffix) {
			return true
		}
	}
	return false
}
