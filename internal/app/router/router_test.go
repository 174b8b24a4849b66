package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"email_identity/internal/feature/emailidentity/domain/entity"
	"email_identity/internal/feature/emailidentity/domain/status"
	emailhandler "email_identity/internal/feature/emailidentity/transport/handler"
	jwtmw "email_identity/internal/platform/jwt"
	"email_identity/internal/platform/metrics"
	"email_identity/internal/platform/ratelimit"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubUsecase struct{}

func (stubUsecase) Register(ctx context.Context, email, hashedPassword string, valid bool) (status.Status, *entity.User) {
	return status.SuccessRegistered, &entity.User{ID: 1, Email: email}
}

func (stubUsecase) Authorize(ctx context.Context, hashedEmail, hashedPassword string) (status.Status, *entity.User) {
	return status.SuccessAuthorize, &entity.User{ID: 7, Email: "me@x.com"}
}

func (stubUsecase) Confirm(ctx context.Context, hashedEmail, hashedCode string) (status.Status, *entity.User) {
	return status.SuccessConfirmed, &entity.User{ID: 7}
}

const secret = "router-test-secret"

func newTestRouter(limiter *ratelimit.MapLimiter) (*gin.Engine, *metrics.Recorder) {
	rec := metrics.NewRecorder()
	h := emailhandler.NewEmailHandler(stubUsecase{}, "email", "hash_password",
		emailhandler.WithTokenIssuer(jwtmw.NewGenerator(secret, time.Hour)),
		emailhandler.WithRecorder(rec),
	)
	return NewRouter(Deps{Email: h, JWTSecret: secret, Limiter: limiter, Metrics: rec}), rec
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	r, _ := newTestRouter(nil)

	tests := []struct {
		name   string
		method string
		target string
		code   int
	}{
		{"health", http.MethodGet, "/healthz", http.StatusOK},
		{"health head", http.MethodHead, "/healthz", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"register", http.MethodPost, "/email/register", http.StatusOK},
		{"authorize get", http.MethodGet, "/email/authorize?hashEmail=a&hashPassword=b", http.StatusOK},
		{"authorize post", http.MethodPost, "/email/authorize", http.StatusOK},
		{"authorize path", http.MethodGet, "/email/authorize/a/b", http.StatusOK},
		{"confirm get", http.MethodGet, "/email/confirm?hashEmail=a&code=b", http.StatusOK},
		{"confirm path", http.MethodGet, "/email/confirm/a/b", http.StatusOK},
		{"me without token", http.MethodGet, "/email/me", http.StatusUnauthorized},
		{"unknown", http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.code, w.Code)
			assert.NotEmpty(t, w.Header().Get(requestIDHeader))
		})
	}
}

func TestRouter_RequestIDIsPropagated(t *testing.T) {
	r, _ := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")

	assert.Equal(t, "abc-123", serve(r, req).Header().Get(requestIDHeader))
}

func TestRouter_AuthorizeThenMe(t *testing.T) {
	r, _ := newTestRouter(nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/email/authorize?hashEmail=a&hashPassword=b", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var auth map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth["token"])

	req := httptest.NewRequest(http.MethodGet, "/email/me", nil)
	req.Header.Set("Authorization", "Bearer "+auth["token"])
	w = serve(r, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"email":"me@x.com"}`, w.Body.String())
}

func TestRouter_AuthorizeIsRateLimited(t *testing.T) {
	r, _ := newTestRouter(ratelimit.New(ratelimit.Config{RPS: 0.001, Burst: 1}))

	first := serve(r, httptest.NewRequest(http.MethodGet, "/email/authorize/a/b", nil))
	second := serve(r, httptest.NewRequest(http.MethodGet, "/email/authorize/a/b", nil))
	confirm := serve(r, httptest.NewRequest(http.MethodGet, "/email/confirm/a/b", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, confirm.Code, "confirm is not limited")
}

func TestRouter_MetricsExposeOutcomes(t *testing.T) {
	r, _ := newTestRouter(nil)

	serve(r, httptest.NewRequest(http.MethodGet, "/email/confirm/a/b", nil))
	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Contains(t, w.Body.String(), `email_identity_operations_total{operation="confirm",status="SUCCESS_EMAIL_CONFIRMED"} 1`)
}
