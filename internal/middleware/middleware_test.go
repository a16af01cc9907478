package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sprintify-backend-go/internal/db"
	"sprintify-backend-go/internal/models"
	"sprintify-backend-go/internal/permission"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]*auth.Token

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := s[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token rejected")
}

type stubUsers map[string]*models.User

func (s stubUsers) GetByID(_ context.Context, userID string) (*models.User, error) {
	if u, ok := s[userID]; ok {
		return u, nil
	}
	return nil, db.ErrNotFound
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newAuthRouter() *gin.Engine {
	verifier := stubVerifier{
		"good": {UID: "u1", Claims: map[string]interface{}{"email": "u1@example.com", "name": "Ana"}},
	}
	r := gin.New()
	r.Use(NewAuthMiddleware(verifier, zap.NewNop()).VerifyToken())
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":    c.GetString("userID"),
			"email": c.GetString("userEmail"),
			"name":  c.GetString("userDisplayName"),
		})
	})
	return r
}

func TestVerifyToken(t *testing.T) {
	r := newAuthRouter()

	cases := []struct {
		name   string
		header string
		status int
		errMsg string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization header is required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Authorization header format must be 'Bearer {token}'"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Authorization header format must be 'Bearer {token}'"},
		{"rejected token", "Bearer bad", http.StatusUnauthorized, "Invalid or expired authentication token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			body := decode(t, w)
			assert.False(t, body.Success)
			assert.Equal(t, tc.errMsg, body.Error)
		})
	}

	t.Run("valid token sets claims", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"u1","email":"u1@example.com","name":"Ana"}`, w.Body.String())
	})
}

func TestRequireFeature(t *testing.T) {
	users := stubUsers{
		"normal": {ID: "normal", UserType: models.UserTypeNormal},
		"admin":  {ID: "admin", UserType: models.UserTypeAdmin},
	}
	newRouter := func(userID string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if userID != "" {
				c.Set("userID", userID)
			}
		})
		r.GET("/admin", RequireFeature(users, permission.FeatureUserManagement, zap.NewNop()), func(c *gin.Context) {
			u, _ := c.Get("user")
			c.String(http.StatusOK, u.(*models.User).ID)
		})
		return r
	}

	serve := func(userID string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		newRouter(userID).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
		return w
	}

	w := serve("admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())

	w = serve("normal")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "This feature requires admin access", decode(t, w).Message)

	assert.Equal(t, http.StatusForbidden, serve("ghost").Code)
	assert.Equal(t, http.StatusUnauthorized, serve("").Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "Internal Server Error", body.Error)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
