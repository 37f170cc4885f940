package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/haken-contracts/internal/model"
)

func TestIssueAndParse(t *testing.T) {
	principal := model.Principal{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Kind:     model.PrincipalCompany,
		Email:    "admin@example.com",
	}
	token, expiresAt, err := NewIssuer("secret", time.Hour).Issue(principal)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	parsed, err := NewParser("secret").Parse(token)
	require.NoError(t, err)
	assert.Equal(t, principal, parsed)
}

func TestParseRejects(t *testing.T) {
	userID := uuid.New().String()
	sign := func(secret string, claims Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	valid := func() Claims {
		return Claims{
			Kind:  string(model.PrincipalClient),
			Email: "client@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: sign("other", valid())},
		{name: "expired", token: func() string {
			c := valid()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return sign("secret", c)
		}()},
		{name: "no expiry", token: func() string {
			c := valid()
			c.ExpiresAt = nil
			return sign("secret", c)
		}()},
		{name: "unknown kind", token: func() string {
			c := valid()
			c.Kind = "driver"
			return sign("secret", c)
		}()},
		{name: "company without tenant", token: func() string {
			c := valid()
			c.Kind = string(model.PrincipalCompany)
			return sign("secret", c)
		}()},
		{name: "garbage", token: "not-a-token"},
	}

	parser := NewParser("secret")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	principal, err := parser.Parse(sign("secret", valid()))
	require.NoError(t, err)
	assert.True(t, principal.IsClient())
}
