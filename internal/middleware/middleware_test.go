package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/souk/internal/cookie"
	"github.com/dukerupert/souk/internal/domain"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code, body.Error.Message
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("forwarded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "lb-1234")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "lb-1234", seen)
	})

	t.Run("oversized header replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Len(t, seen, 36)
	})
}

func TestWithIdentity(t *testing.T) {
	var got *domain.Identity
	h := WithIdentity(cookie.NewConfig("", false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = domain.IdentityFromContext(r.Context())
	}))

	t.Run("new shopper gets cookie", func(t *testing.T) {
		got = nil
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

		require.NotNil(t, got)
		assert.True(t, got.Anonymous)
		assert.NotEqual(t, uuid.Nil, got.ID)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, cookie.ShopperCookieName, cookies[0].Name)
		assert.Equal(t, got.ID.String(), cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, got.ID.String(), rec.Header().Get(ShopperIDHeader))
	})

	t.Run("cookie reused", func(t *testing.T) {
		id := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: cookie.ShopperCookieName, Value: id.String()})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.NotNil(t, got)
		assert.Equal(t, id, got.ID)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		headerID := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(ShopperIDHeader, headerID.String())
		req.AddCookie(&http.Cookie{Name: cookie.ShopperCookieName, Value: uuid.NewString()})
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, headerID, got.ID)
	})

	t.Run("malformed cookie replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: cookie.ShopperCookieName, Value: "garbage"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Len(t, rec.Result().Cookies(), 1)
		assert.Equal(t, got.ID.String(), rec.Result().Cookies()[0].Value)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		got = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(ShopperIDHeader, "not-a-uuid")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Nil(t, got)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		code, _ := decodeError(t, rec)
		assert.Equal(t, domain.EINVALID, code)
	})

	t.Run("request logger gains shopper id", func(t *testing.T) {
		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, nil))
		id := uuid.New()

		chain := WithRequestLogger(base)(WithIdentity(cookie.NewConfig("", false))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				GetLogger(r.Context()).Info("quoted")
			})))

		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		req.Header.Set(ShopperIDHeader, id.String())
		chain.ServeHTTP(httptest.NewRecorder(), req)

		assert.Contains(t, buf.String(), "shopper_id="+id.String())
	})
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
		IdleTTL:           time.Minute,
	})
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst exhausted")
	assert.True(t, rl.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token refilled")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, rl.Sweep())
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1, KeyFunc: ShopperKey})
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	id := uuid.New()
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/cart/quote", nil)
		req = req.WithContext(domain.NewContextWithIdentity(req.Context(), &domain.Identity{ID: id}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	code, _ := decodeError(t, rec)
	assert.Equal(t, domain.ERATELIMIT, code)
}

func TestShopperKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "ip:10.0.0.7", ShopperKey(req))

	id := uuid.New()
	req = req.WithContext(domain.NewContextWithIdentity(req.Context(), &domain.Identity{ID: id}))
	assert.Equal(t, "shopper:"+id.String(), ShopperKey(req))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.0.2.1:4000", "192.0.2.1"},
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.3"}, "10.0.0.1:80", "198.51.100.3"},
		{"no port", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"lines":[]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, domain.ETOOLARGE, code)
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultSecurityHeadersConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestMetrics_RouteLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("souk_test", reg)

	mux := http.NewServeMux()
	mux.Handle("GET /api/sessions/{id}", m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})))

	for _, id := range []string{uuid.NewString(), uuid.NewString()} {
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/sessions/{id}", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestsTotal))
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, errorCodeToHTTPStatus(domain.EUNAVAILABLE))
	assert.Equal(t, http.StatusRequestEntityTooLarge, errorCodeToHTTPStatus(domain.ETOOLARGE))
	assert.Equal(t, http.StatusInternalServerError, errorCodeToHTTPStatus("mystery"))
}
