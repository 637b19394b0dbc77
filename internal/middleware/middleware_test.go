package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order_chat/internal/domain"
	"order_chat/internal/service"
	apperrors "order_chat/pkg/errors"
	"order_chat/pkg/jwt"
	"order_chat/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestAuth() *AuthMiddleware {
	return NewAuthMiddleware(jwt.NewManager("test-secret", "order-chat"), logger.NewNop())
}

func signToken(t *testing.T, userID int64, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &jwt.Claims{
		UserID: strconv.FormatInt(userID, 10),
		Role:   role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    "order-chat",
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	auth := newTestAuth()
	valid := signToken(t, 9, "Seller", time.Minute)
	badRole := signToken(t, 9, "Admin", time.Minute)

	router := gin.New()
	router.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		identity := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID, "role": identity.Role})
	})

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
	}{
		{"bearer header", "Bearer " + valid, "", http.StatusOK},
		{"query token", "", valid, http.StatusOK},
		{"missing token", "", "", http.StatusUnauthorized},
		{"malformed header", "Token " + valid, "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", "", http.StatusUnauthorized},
		{"unknown role", "Bearer " + badRole, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"user_id":9,"role":"Seller"}`, w.Body.String())
			}
		})
	}
}

func TestIdentify_Anonymous(t *testing.T) {
	auth := newTestAuth()
	old := signToken(t, 1, "Customer", -time.Minute)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/ws/chat", nil)
	identity, err := auth.Identify(c)
	require.NoError(t, err)
	assert.False(t, identity.Authenticated())

	c.Request = httptest.NewRequest(http.MethodGet, "/ws/chat?access_token="+old, nil)
	_, err = auth.Identify(c)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

type stubLimiter struct {
	allowed bool
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, int) {
	s.keys = append(s.keys, key)
	return s.allowed, 3
}

func (s *stubLimiter) Limit() int { return 10 }

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name       string
		limiter    *stubLimiter
		wantStatus int
	}{
		{"allowed", &stubLimiter{allowed: true}, http.StatusOK},
		{"exceeded", &stubLimiter{allowed: false}, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewRateLimitMiddleware(tt.limiter, logger.NewNop())
			router := gin.New()
			router.POST("/send", func(c *gin.Context) {
				c.Set(ContextUserID, int64(1))
				c.Set(ContextRole, domain.RoleCustomer)
			}, mw.Limit("send"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/send", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, []string{"send:user:1"}, tt.limiter.keys)
		})
	}
}

type downLimitStore struct{}

func (downLimitStore) CheckLimit(context.Context, string, int) (bool, error) {
	return false, errors.New("redis down")
}

func (downLimitStore) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestRateLimit_StoreDownAllows(t *testing.T) {
	limiter := service.NewRateLimitService(downLimitStore{}, 10, time.Minute, logger.NewNop())
	mw := NewRateLimitMiddleware(limiter, logger.NewNop())
	router := gin.New()
	router.POST("/send", mw.Limit("send"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/send", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_Disabled(t *testing.T) {
	mw := NewRateLimitMiddleware(nil, logger.NewNop())
	router := gin.New()
	router.GET("/", mw.Limit("send"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"access denied", apperrors.ErrAccessDenied, http.StatusForbidden, `{"error":"access denied"}`},
		{"not found", apperrors.ErrOrderNotFound, http.StatusNotFound, `{"error":"order not found"}`},
		{"persistence", errors.New("pq: connection refused"), http.StatusInternalServerError, `{"error":"operation failed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ErrorHandler())
			router.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://shop.example"}))
	router.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
}
