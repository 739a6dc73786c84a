package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/model"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestParseValidToken(t *testing.T) {
	userID := uuid.New()
	zoneID := uint(4)
	raw := sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
		UserID: userID,
		Role:   model.UserRoleAdmin,
		ZoneID: &zoneID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := NewParser(testSecret).Parse(raw)
	require.NoError(t, err)

	principal := claims.Principal()
	assert.Equal(t, userID, principal.UserID)
	assert.Equal(t, model.UserRoleAdmin, principal.Role)
	require.NotNil(t, principal.ZoneID)
	assert.Equal(t, zoneID, *principal.ZoneID)
}

func TestParseRejectsBadTokens(t *testing.T) {
	valid := &Claims{UserID: uuid.New(), Role: model.UserRoleCitizen}

	tests := []struct {
		name string
		raw  string
	}{
		{name: "wrong secret", raw: sign(t, jwt.SigningMethodHS256, []byte("other"), valid)},
		{name: "expired", raw: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
			UserID: uuid.New(),
			Role:   model.UserRoleCitizen,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})},
		{name: "none algorithm", raw: sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{name: "missing subject", raw: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{Role: model.UserRoleCitizen})},
		{name: "garbage", raw: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(testSecret).Parse(tt.raw)
			assert.Error(t, err)
		})
	}
}
