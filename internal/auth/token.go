package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nurpe/haken-contracts/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the principal in an access token. Subject is the user id.
type Claims struct {
	TenantID        string `json:"tid,omitempty"`
	Kind            string `json:"kind"`
	Email           string `json:"email"`
	CorporateNumber string `json:"corp,omitempty"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 access token for p.
func (i *Issuer) Issue(p model.Principal) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Kind:            string(p.Kind),
		Email:           p.Email,
		CorporateNumber: p.CorporateNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	if p.TenantID != uuid.Nil {
		claims.TenantID = p.TenantID.String()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// Parse verifies the signature and expiry and returns the principal.
func (p *Parser) Parse(tokenString string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}
	principal := model.Principal{
		UserID:          userID,
		Kind:            model.PrincipalKind(claims.Kind),
		Email:           claims.Email,
		CorporateNumber: claims.CorporateNumber,
	}
	if claims.TenantID != "" {
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return model.Principal{}, ErrInvalidToken
		}
		principal.TenantID = tenantID
	}
	switch principal.Kind {
	case model.PrincipalCompany:
		if principal.TenantID == uuid.Nil {
			return model.Principal{}, ErrInvalidToken
		}
	case model.PrincipalClient, model.PrincipalStaff:
	default:
		return model.Principal{}, ErrInvalidToken
	}
	return principal, nil
}
