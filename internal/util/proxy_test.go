package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "http://secure-proxy.internal:3129", "intranet.ie,.local")

	tests := []struct {
		url  string
		want string
	}{
		{"http://www.rte.ie/news", "http://proxy.internal:3128"},
		{"https://en.wikipedia.org/wiki/Dublin", "http://secure-proxy.internal:3129"},
		{"https://intranet.ie/page", ""},
		{"http://printer.local/status", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, tt.url, nil)
			if err != nil {
				t.Fatal(err)
			}
			got, err := proxy(req)
			if err != nil {
				t.Fatalf("proxy returned error: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("Expected direct connection, got proxy %s", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("Expected proxy %s, got %v", tt.want, got)
			}
		})
	}
}

func TestNewProxyFunc_HTTPSFallsBackToHTTPProxy(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "", "")

	req, _ := http.NewRequest(http.MethodGet, "https://www.gov.ie/", nil)
	got, err := proxy(req)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Expected no proxy for https without an https proxy, got %s", got)
	}
}
