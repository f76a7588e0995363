package auth

import (
	"context"
	"testing"
	"time"

	"identity_backend/internal/common"
	"identity_backend/internal/domain"
	"identity_backend/internal/platform/database"
	"identity_backend/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testTokenConfig = TokenConfig{
	Secret:     []byte("test-secret-test-secret-test-secret!"),
	Issuer:     "identity_backend_test",
	AccessTTL:  time.Hour,
	RefreshTTL: 24 * time.Hour,
}

// fakeClock is a settable wall clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setupTokenService(t *testing.T) (*TokenService, user.Repository, *fakeClock) {
	t.Helper()
	db := database.NewTestDB(t)
	clock := &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
	svc, err := NewTokenService(testTokenConfig, user.NewGORMRefreshTokenRepository(db), zap.NewNop(), WithClock(clock.Now))
	require.NoError(t, err)
	return svc, user.NewGORMRepository(db), clock
}

func createUser(t *testing.T, repo user.Repository, email string, roles ...domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, FirstName: "Test", LastName: "User", Roles: roles}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestNewTokenService_Validation(t *testing.T) {
	_, err := NewTokenService(TokenConfig{AccessTTL: time.Hour, RefreshTTL: time.Hour}, nil, zap.NewNop())
	assert.Error(t, err)

	cfg := testTokenConfig
	cfg.AccessTTL = 0
	_, err = NewTokenService(cfg, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNewTokenService_CopiesSecret(t *testing.T) {
	secret := []byte("mutable-secret-mutable-secret-123")
	cfg := testTokenConfig
	cfg.Secret = secret
	svc, err := NewTokenService(cfg, nil, zap.NewNop())
	require.NoError(t, err)

	u := &domain.User{EmailCanonical: "a@x.com", Roles: domain.Roles{domain.RoleUser}}
	token, _, err := svc.IssueAccessToken(u)
	require.NoError(t, err)

	secret[0] = 'X'
	_, err = svc.VerifyAccessToken(token)
	assert.NoError(t, err)
}

func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	svc, repo, clock := setupTokenService(t)
	u := createUser(t, repo, "Alice@Example.com", domain.RoleAdmin)

	token, expiresAt, err := svc.IssueAccessToken(u)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour), expiresAt)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{"Admin"}, claims.Roles)
}

func TestTokenService_AccessTokenExpiry(t *testing.T) {
	svc, repo, clock := setupTokenService(t)
	u := createUser(t, repo, "a@x.com")

	token, _, err := svc.IssueAccessToken(u)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = svc.VerifyAccessToken(token)
	assert.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestTokenService_VerifyRejects(t *testing.T) {
	svc, repo, _ := setupTokenService(t)
	u := createUser(t, repo, "a@x.com")
	token, _, err := svc.IssueAccessToken(u)
	require.NoError(t, err)

	other := testTokenConfig
	other.Secret = []byte("another-secret-another-secret-123")
	otherSvc, err := NewTokenService(other, nil, zap.NewNop())
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": u.ID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": u.ID.String(),
		"iss": testTokenConfig.Issuer,
	}).SignedString(testTokenConfig.Secret)
	require.NoError(t, err)

	cases := map[string]struct {
		svc   *TokenService
		token string
	}{
		"empty":          {svc, ""},
		"garbage":        {svc, "not.a.jwt"},
		"wrong secret":   {otherSvc, token},
		"tampered":       {svc, token[:len(token)-2] + "xx"},
		"alg none":       {svc, noneToken},
		"missing expiry": {svc, noExp},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tc.svc.VerifyAccessToken(tc.token)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
}

func TestTokenService_RefreshTokens(t *testing.T) {
	svc, repo, clock := setupTokenService(t)
	ctx := context.Background()
	u := createUser(t, repo, "a@x.com")

	_, err := svc.RedeemRefreshToken(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = svc.RedeemRefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	rt, err := svc.IssueRefreshToken(ctx, u, "10.0.0.1")
	require.NoError(t, err)
	assert.Len(t, rt.Token, refreshTokenBytes*2)
	assert.Equal(t, "10.0.0.1", rt.CreatedByIP)

	second, err := svc.IssueRefreshToken(ctx, u, "10.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, rt.Token, second.Token)

	got, err := svc.RedeemRefreshToken(ctx, rt.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	// Redeeming does not consume the token.
	_, err = svc.RedeemRefreshToken(ctx, rt.Token)
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)
	_, err = svc.RedeemRefreshToken(ctx, rt.Token)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "token expires at exactly its expiry instant")

	deleted, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
