package main

import (
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		app.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("uri", r.URL.RequestURI()),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("proto", r.Proto),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (app *application) enableCORS(next http.Handler) http.Handler {
	trusted := app.config.trustedOrigins()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")

		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(trusted, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "OPTIONS, GET, POST, PATCH, DELETE")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) extractTokenFromHeader(authHeader string) string {
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return ""
	}

	return headerParts[1]
}

func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			r = app.createIdentityContext(r, anonymousIdentity)
			next.ServeHTTP(w, r)
			return
		}

		token := app.extractTokenFromHeader(authHeader)
		if token == "" {
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}

		claims, err := verifyToken(token, []byte(app.config.JWTSecret))
		if err != nil {
			app.invalidAuthenticationTokenResponse(w, r)
			return
		}

		role := claims.Role
		if role == "" {
			role = roleStudent
		}

		r = app.createIdentityContext(r, &identity{UserID: claims.UserID, Role: role})
		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAuthUser(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.getIdentityContext(r).IsAnonymous() {
			app.authenticationRequiredResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireEditor lets instructors and admins through.
func (app *application) requireEditor(next http.HandlerFunc) http.HandlerFunc {
	fn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.getIdentityContext(r).IsEditor() {
			app.notPermittedResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})

	return app.requireAuthUser(fn)
}

// rateLimit counts requests per user, or per client IP for anonymous
// requests. A failing limiter lets the request through.
func (app *application) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + clientIP(r, app.config.trustedProxies())
		if id := app.getIdentityContext(r); !id.IsAnonymous() {
			key = "user:" + strconv.Itoa(id.UserID)
		}

		allowed, remaining, err := app.limiter.Allow(r.Context(), key)
		if err != nil {
			app.logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(app.limiter.Limit()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			w.Header().Set("Retry-After", "60")
			app.rateLimitExceededResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the address the request came from. X-Forwarded-For is only
// read when the direct peer is a trusted proxy; the client is then the
// rightmost entry that is not itself a trusted proxy.
func clientIP(r *http.Request, trusted []string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	fwd := r.Header.Get("X-Forwarded-For")
	if fwd == "" || !isTrustedProxy(host, trusted) {
		return host
	}

	hops := strings.Split(fwd, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !isTrustedProxy(hop, trusted) {
			return hop
		}
	}
	return strings.TrimSpace(hops[0])
}

func isTrustedProxy(addr string, trusted []string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}

	for _, t := range trusted {
		if _, network, err := net.ParseCIDR(t); err == nil {
			if network.Contains(ip) {
				return true
			}
			continue
		}
		if proxy := net.ParseIP(t); proxy != nil && proxy.Equal(ip) {
			return true
		}
	}
	return false
}
