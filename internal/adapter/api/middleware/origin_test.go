package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestOriginMatcher(t *testing.T) {
	matcher := NewOriginMatcher([]string{
		"https://app.example.com/",
		"https://*.tenants.example.com",
		"http://localhost:3000",
	})

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.example.com", true},
		{"https://APP.example.com", true},
		{"http://localhost:3000", true},
		{"https://acme.tenants.example.com", true},
		{"https://a.b.tenants.example.com", true},

		// The apex itself is not a subdomain.
		{"https://tenants.example.com", false},
		// Scheme must match the pattern.
		{"http://acme.tenants.example.com", false},
		// Suffix tricks must not pass.
		{"https://eviltenants.example.com", false},
		{"https://tenants.example.com.evil.io", false},
		{"https://other.example.com", false},
		{"", false},
		{"not a url", false},
	}

	req := httptest.NewRequest("OPTIONS", "/", nil)
	for _, tt := range tests {
		if got := matcher.Allow(req, tt.origin); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestOriginMatcherEmptyList(t *testing.T) {
	matcher := NewOriginMatcher(nil)
	req := httptest.NewRequest("OPTIONS", "/", nil)
	if matcher.Allow(req, "https://app.example.com") {
		t.Error("empty allow-list must reject every origin")
	}
}
