package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sushihentaime/lessonhub/internal/common"
	"github.com/sushihentaime/lessonhub/internal/lessonservice"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func testConfig() *Config {
	return &Config{
		Environment:    "development",
		Version:        "test",
		JWTSecret:      testSecret,
		RateLimitRPM:   1000,
		TrustedOrigins: "http://localhost:3000",
	}
}

// newTestApplication builds an application without a database. Handlers that
// reach the lesson service must use newTestApplicationWithDB.
func newTestApplication(t *testing.T) *application {
	t.Helper()

	return &application{
		config:  testConfig(),
		logger:  zap.NewNop(),
		limiter: common.NewLocalLimiter(1000, time.Minute),
	}
}

func newTestApplicationWithDB(t *testing.T) (*application, *sql.DB) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCacheAside(common.NewMemoryStore(common.TTLDefault, time.Minute), zap.NewNop())

	app := newTestApplication(t)
	app.lessonService = lessonservice.NewLessonService(db, cache, nil, zap.NewNop())

	return app, db
}

func newToken(t *testing.T, userID int, role string, secret string, expiresIn time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Role:   role,
	})

	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	return signed
}

func (ts *testServer) do(t *testing.T, method, path string, token string, payload any) (int, http.Header, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}
