package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/lessonhub/internal/common"
)

func TestRecoverPanic(t *testing.T) {
	app := newTestApplication(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()

	app.recoverPanic(handler).ServeHTTP(res, req)

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "close", res.Header().Get("Connection"))
}

func TestAuthenticate(t *testing.T) {
	app := newTestApplication(t)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{UserID: 1, Role: roleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name         string
		header       string
		wantStatus   int
		wantIdentity *identity
	}{
		{
			name:         "anonymous",
			wantStatus:   http.StatusOK,
			wantIdentity: anonymousIdentity,
		},
		{
			name:         "valid instructor",
			header:       "Bearer " + newToken(t, 7, roleInstructor, testSecret, time.Hour),
			wantStatus:   http.StatusOK,
			wantIdentity: &identity{UserID: 7, Role: roleInstructor},
		},
		{
			name:         "missing role defaults to student",
			header:       "Bearer " + newToken(t, 8, "", testSecret, time.Hour),
			wantStatus:   http.StatusOK,
			wantIdentity: &identity{UserID: 8, Role: roleStudent},
		},
		{
			name:       "wrong scheme",
			header:     "Basic " + newToken(t, 7, roleInstructor, testSecret, time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + newToken(t, 7, roleInstructor, "other-secret", time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + newToken(t, 7, roleInstructor, testSecret, -time.Minute),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing user id",
			header:     "Bearer " + newToken(t, 0, roleAdmin, testSecret, time.Hour),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unsigned",
			header:     "Bearer " + noneToken,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = app.getIdentityContext(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			res := httptest.NewRecorder()

			app.authenticate(next).ServeHTTP(res, req)

			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantIdentity, got)
		})
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	_, err := verifyToken(newToken(t, 1, roleStudent, testSecret, -time.Minute), []byte(testSecret))
	assert.ErrorIs(t, err, errExpiredToken)
}

func TestRequireEditor(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		name       string
		identity   *identity
		wantStatus int
	}{
		{name: "anonymous", identity: anonymousIdentity, wantStatus: http.StatusUnauthorized},
		{name: "student", identity: &identity{UserID: 1, Role: roleStudent}, wantStatus: http.StatusForbidden},
		{name: "instructor", identity: &identity{UserID: 2, Role: roleInstructor}, wantStatus: http.StatusOK},
		{name: "admin", identity: &identity{UserID: 3, Role: roleAdmin}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := app.createIdentityContext(httptest.NewRequest(http.MethodPost, "/", nil), tt.identity)
			res := httptest.NewRecorder()

			app.requireEditor(next).ServeHTTP(res, req)

			assert.Equal(t, tt.wantStatus, res.Code)
		})
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, int, error) {
	return true, 5, errors.New("redis: connection refused")
}

func (failingLimiter) Limit() int { return 5 }

func TestRateLimit(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("blocks after the limit", func(t *testing.T) {
		app := newTestApplication(t)
		app.limiter = common.NewLocalLimiter(2, time.Minute)
		handler := app.rateLimit(next)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			codes = append(codes, res.Code)
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

		other := httptest.NewRequest(http.MethodGet, "/", nil)
		other.RemoteAddr = "10.0.0.2:1234"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, other)
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "2", res.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("ignores forwarded header from untrusted peers", func(t *testing.T) {
		app := newTestApplication(t)
		app.limiter = common.NewLocalLimiter(2, time.Minute)
		handler := app.rateLimit(next)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.3:1234"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			codes = append(codes, res.Code)
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("uses forwarded header from trusted proxies", func(t *testing.T) {
		app := newTestApplication(t)
		app.config.TrustedProxies = "10.1.0.0/16 192.168.0.7"
		app.limiter = common.NewLocalLimiter(1, time.Minute)
		handler := app.rateLimit(next)

		for _, client := range []string{"203.0.113.1", "203.0.113.2"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.1.2.3:1234"
			req.Header.Set("X-Forwarded-For", client+", 192.168.0.7")
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			assert.Equal(t, http.StatusOK, res.Code, client)
		}
	})

	t.Run("fails open", func(t *testing.T) {
		app := newTestApplication(t)
		app.limiter = failingLimiter{}

		res := httptest.NewRecorder()
		app.rateLimit(next).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, res.Code)
	})
}

func TestClientIP(t *testing.T) {
	trusted := []string{"10.1.0.0/16", "192.168.0.7"}

	testCases := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{name: "no header", remoteAddr: "10.0.0.1:1234", want: "10.0.0.1"},
		{name: "untrusted peer", remoteAddr: "10.0.0.1:1234", forwarded: "203.0.113.9", want: "10.0.0.1"},
		{name: "trusted peer", remoteAddr: "10.1.0.5:1234", forwarded: "203.0.113.9", want: "203.0.113.9"},
		{name: "spoofed leftmost entry", remoteAddr: "10.1.0.5:1234", forwarded: "1.2.3.4, 203.0.113.9, 192.168.0.7", want: "203.0.113.9"},
		{name: "only proxies", remoteAddr: "10.1.0.5:1234", forwarded: "10.1.0.9", want: "10.1.0.9"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}

			assert.Equal(t, tc.want, clientIP(req, trusted))
		})
	}
}

func TestEnableCORS(t *testing.T) {
	app := newTestApplication(t)
	handler := app.enableCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("trusted preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/lessons/1", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		res := httptest.NewRecorder()

		handler.ServeHTTP(res, req)

		assert.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "http://localhost:3000", res.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, res.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	})

	t.Run("untrusted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/lessons/1", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		res := httptest.NewRecorder()

		handler.ServeHTTP(res, req)

		assert.Equal(t, http.StatusNoContent, res.Code)
		assert.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
	})
}
