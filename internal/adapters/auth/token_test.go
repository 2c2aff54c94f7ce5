package auth

import (
	"testing"
	"time"

	"eventhub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims() domain.TokenClaims {
	return domain.TokenClaims{UserID: "user-123", SessionID: "sess-1", Email: "u@example.com", Role: domain.RoleSponsor}
}

func TestJWT_IssueAndVerify(t *testing.T) {
	j := NewJWT("test-secret")

	token, err := j.Issue(testClaims(), time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := j.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testClaims(), *claims)
}

func TestJWT_Issue_WireClaims(t *testing.T) {
	secret := "test-secret"
	token, err := NewJWT(secret).Issue(testClaims(), time.Hour)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "sponsor", claims.Role)
	assert.Equal(t, "eventhub", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWT_Issue_RequiresSession(t *testing.T) {
	_, err := NewJWT("s").Issue(domain.TokenClaims{UserID: "user-123"}, time.Hour)
	assert.Error(t, err)
}

func TestJWT_Verify_Rejects(t *testing.T) {
	good, err := NewJWT("test-secret").Issue(testClaims(), time.Hour)
	require.NoError(t, err)

	expiredIssuer := NewJWT("test-secret")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue(testClaims(), time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-123", "sid": "s", "iss": "eventhub"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123", "sid": "s", "iss": "someone-else", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		j     *JWT
		token string
	}{
		{name: "wrong secret", j: NewJWT("other-secret"), token: good},
		{name: "expired", j: NewJWT("test-secret"), token: expired},
		{name: "unsigned", j: NewJWT("test-secret"), token: none},
		{name: "foreign issuer", j: NewJWT("test-secret"), token: foreign},
		{name: "garbage", j: NewJWT("test-secret"), token: "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.j.Verify(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
