package core

import (
	"net/http/httptest"
	"testing"

	"github.com/caasmo/credkeeper/config"
)

func TestClientIP(t *testing.T) {
	testCases := []struct {
		name        string
		remoteAddr  string
		proxyHeader string
		headerValue string
		want        string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.5:4312",
			want:       "203.0.113.5",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.5",
			want:       "203.0.113.5",
		},
		{
			name:        "proxy header single ip",
			remoteAddr:  "10.0.0.1:4312",
			proxyHeader: "X-Forwarded-For",
			headerValue: "203.0.113.5",
			want:        "203.0.113.5",
		},
		{
			name:        "proxy header multiple ips",
			remoteAddr:  "10.0.0.1:4312",
			proxyHeader: "X-Forwarded-For",
			headerValue: "203.0.113.5, 10.0.0.2, 10.0.0.3",
			want:        "203.0.113.5",
		},
		{
			name:        "proxy header configured but absent",
			remoteAddr:  "10.0.0.1:4312",
			proxyHeader: "X-Forwarded-For",
			want:        "10.0.0.1",
		},
		{
			name:        "header ignored when not configured",
			remoteAddr:  "10.0.0.1:4312",
			headerValue: "203.0.113.5",
			want:        "10.0.0.1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.Server.ClientIpProxyHeader = tc.proxyHeader

			app := &App{configProvider: config.NewProvider(cfg)}

			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.headerValue != "" {
				req.Header.Set("X-Forwarded-For", tc.headerValue)
			}

			if got := app.clientIP(req); got != tc.want {
				t.Errorf("clientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}
