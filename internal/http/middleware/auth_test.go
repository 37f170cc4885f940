package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nurpe/haken-contracts/internal/model"
)

type stubParser map[string]model.Principal

func (s stubParser) Parse(token string) (model.Principal, error) {
	principal, ok := s[token]
	if !ok {
		return model.Principal{}, errors.New("bad token")
	}
	return principal, nil
}

func newRouter(parser TokenParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/company", Auth(parser), RequireKind(model.PrincipalCompany), func(c *gin.Context) {
		principal, _ := MustPrincipal(c)
		c.String(http.StatusOK, principal.Email)
	})
	router.GET("/ip", func(c *gin.Context) {
		c.String(http.StatusOK, ClientIP(c))
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	parser := stubParser{
		"company-token": {UserID: uuid.New(), TenantID: uuid.New(), Kind: model.PrincipalCompany, Email: "admin@example.com"},
		"staff-token":   {UserID: uuid.New(), Kind: model.PrincipalStaff, Email: "worker@example.com"},
	}
	router := newRouter(parser)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic company-token", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"wrong kind", "Bearer staff-token", http.StatusForbidden},
		{"company", "Bearer company-token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/company", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "admin@example.com", rec.Body.String())
			}
		})
	}
}

func TestClientIPUsesFirstForwardedHop(t *testing.T) {
	router := newRouter(stubParser{})

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "203.0.113.7", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "192.0.2.1", rec.Body.String())
}
