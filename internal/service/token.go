package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

// TokenConfig configures access token signing.
type TokenConfig struct {
	Secret     string
	Expiration time.Duration
}

type tokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenSigner(cfg TokenConfig) *tokenSigner {
	ttl := cfg.Expiration
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &tokenSigner{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}
}

// issue signs an HS256 token. id is zero for the environment admin.
func (s *tokenSigner) issue(id int64, role models.UserRole, email string) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.JWTClaims{
		ID:    id,
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	if id != 0 {
		claims.Subject = fmt.Sprintf("%d", id)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// parse validates signature and expiry.
func (s *tokenSigner) parse(raw string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid token")
	}
	return claims, nil
}
