package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

type fakeGateRepo struct {
	byID    map[int64]*models.User
	byEmail map[string]*models.User
}

func (f *fakeGateRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGateRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

var testTokenConfig = TokenConfig{Secret: "test-secret", Expiration: time.Hour}

func newGate(users ...*models.User) *AccessGate {
	repo := &fakeGateRepo{byID: map[int64]*models.User{}, byEmail: map[string]*models.User{}}
	for _, u := range users {
		repo.byID[u.ID] = u
		repo.byEmail[u.Email] = u
	}
	return NewAccessGate(repo, testTokenConfig, nil)
}

func signClaims(t *testing.T, claims *models.JWTClaims, secret string) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return appErrors.FromError(err).Status
}

func TestAccessGateResolvesRegisteredUserByID(t *testing.T) {
	gate := newGate(&models.User{ID: 7, Email: "s@example.com", Role: models.RoleStudent})
	token, err := newTokenSigner(testTokenConfig).issue(7, models.RoleStudent, "")
	require.NoError(t, err)

	p, err := gate.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.RegisteredUser{ID: 7, Role: models.RoleStudent, Email: "s@example.com"}, p)
}

func TestAccessGateUsesStoredRoleOverClaim(t *testing.T) {
	gate := newGate(&models.User{ID: 7, Email: "s@example.com", Role: models.RoleProfessor})
	token := signClaims(t, &models.JWTClaims{ID: 7, Role: models.RoleStudent}, testTokenConfig.Secret)

	p, err := gate.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleProfessor, p.PrincipalRole())
}

func TestAccessGateEnvironmentAdmin(t *testing.T) {
	gate := newGate()
	token, err := newTokenSigner(testTokenConfig).issue(0, models.RoleAdmin, "root@example.com")
	require.NoError(t, err)

	p, err := gate.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.EnvironmentAdmin{Email: "root@example.com"}, p)
	_, ok := p.UserID()
	assert.False(t, ok)
}

func TestAccessGateFallsBackToEmail(t *testing.T) {
	gate := newGate(&models.User{ID: 3, Email: "p@example.com", Role: models.RoleProfessor})
	token := signClaims(t, &models.JWTClaims{Role: models.RoleProfessor, Email: "p@example.com"}, testTokenConfig.Secret)

	p, err := gate.Resolve(context.Background(), token)
	require.NoError(t, err)
	id, ok := p.UserID()
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}

func TestAccessGateRejections(t *testing.T) {
	blocked := &models.User{ID: 9, Email: "b@example.com", Role: models.RoleStudent, IsBlocked: true}
	gate := newGate(blocked)
	ctx := context.Background()

	cases := map[string]struct {
		token  string
		status int
	}{
		"garbage":        {token: "not-a-token", status: http.StatusForbidden},
		"wrong secret":   {token: signClaims(t, &models.JWTClaims{ID: 9}, "other"), status: http.StatusForbidden},
		"expired":        {token: signClaims(t, &models.JWTClaims{ID: 9, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}, testTokenConfig.Secret), status: http.StatusForbidden},
		"blocked":        {token: signClaims(t, &models.JWTClaims{ID: 9}, testTokenConfig.Secret), status: http.StatusForbidden},
		"unknown id":     {token: signClaims(t, &models.JWTClaims{ID: 404}, testTokenConfig.Secret), status: http.StatusUnauthorized},
		"unknown email":  {token: signClaims(t, &models.JWTClaims{Email: "ghost@example.com"}, testTokenConfig.Secret), status: http.StatusUnauthorized},
		"empty identity": {token: signClaims(t, &models.JWTClaims{Role: models.RoleStudent}, testTokenConfig.Secret), status: http.StatusForbidden},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gate.Resolve(ctx, tc.token)
			assert.Equal(t, tc.status, statusOf(t, err))
		})
	}

	_, err := gate.Resolve(ctx, signClaims(t, &models.JWTClaims{ID: 9}, testTokenConfig.Secret))
	assert.ErrorIs(t, err, appErrors.ErrBlockedAccount)
}
