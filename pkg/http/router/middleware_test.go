package router

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestEnforceJSONHandler(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
	}{
		{name: "no body", wantStatus: http.StatusOK},
		{name: "json body", body: `{}`, contentType: "application/json", wantStatus: http.StatusOK},
		{name: "json with charset", body: `{}`, contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "form body", body: `a=1`, contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType},
		{name: "missing content type", body: `{}`, wantStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/grids", bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			EnforceJSONHandler(okHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHeartbeat(t *testing.T) {
	h := Heartbeat("healthz")(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ".", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/grids", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLabels(t *testing.T) {
	var seen string
	h := Labels(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestRealIP(t *testing.T) {
	testCases := []struct {
		name       string
		trusted    string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "untrusted peer keeps socket address",
			remoteAddr: "198.51.100.7:4000",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.1"},
			want:       "198.51.100.7:4000",
		},
		{
			name:       "trusted proxy forwarded for",
			trusted:    "192.0.2.1",
			remoteAddr: "192.0.2.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"},
			want:       "10.0.0.1",
		},
		{
			name:       "trusted proxy cidr real ip",
			trusted:    "127.0.0.1, 192.0.2.0/24",
			remoteAddr: "192.0.2.44:1234",
			headers:    map[string]string{"X-Real-IP": "10.0.0.9"},
			want:       "10.0.0.9",
		},
		{
			name:       "trusted proxy without headers",
			trusted:    "192.0.2.1",
			remoteAddr: "192.0.2.1:1234",
			want:       "192.0.2.1:1234",
		},
		{
			name:       "peer outside trusted cidr",
			trusted:    "192.0.2.0/24",
			remoteAddr: "203.0.113.5:1234",
			headers:    map[string]string{"X-Real-IP": "10.0.0.9"},
			want:       "203.0.113.5:1234",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set("TRUSTED_PROXIES", tt.trusted)
			t.Cleanup(func() { viper.Set("TRUSTED_PROXIES", nil) })

			var remote string
			h := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				remote = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, remote)
		})
	}
}

func TestLimit(t *testing.T) {
	viper.Set("RATE_LIMIT_RPS", 1.0)
	viper.Set("RATE_LIMIT_BURST", 2)
	t.Cleanup(func() {
		viper.Set("RATE_LIMIT_RPS", nil)
		viper.Set("RATE_LIMIT_BURST", nil)
	})

	h := Limit(okHandler)
	codes := []int{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.50:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "limits are per client ip")
}

func TestLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	viper.Set("RATE_LIMIT_RPS", 0.001)
	viper.Set("RATE_LIMIT_BURST", 1)
	t.Cleanup(func() {
		viper.Set("RATE_LIMIT_RPS", nil)
		viper.Set("RATE_LIMIT_BURST", nil)
	})

	h := RealIP(Limit(okHandler))
	limited := 0
	for i := 0; i < 500; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 499, limited)
}

func TestIPLimiterEvictsLeastRecentlyUsed(t *testing.T) {
	limiter, err := newIPLimiter(0.001, 1, 2)
	require.NoError(t, err)
	h := limitWith(limiter, okHandler)

	serve := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 100; i++ {
		assert.Equal(t, http.StatusOK, serve(fmt.Sprintf("203.0.113.%d", i)))
	}
	assert.Equal(t, 2, limiter.clients())

	assert.Equal(t, http.StatusTooManyRequests, serve("203.0.113.99"))
	assert.Equal(t, http.StatusOK, serve("203.0.113.0"), "evicted client starts a fresh bucket")
}

func TestRecoverPanic(t *testing.T) {
	api := NewAPI(zap.NewNop())
	h := api.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
}
