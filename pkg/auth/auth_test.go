package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/Astemirdum/library-system/pkg/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func TestAuthContext(t *testing.T) {
	_, err := auth.GetAuthContext(context.Background())
	require.ErrorIs(t, err, auth.ErrNoAuthContext)

	ctx := auth.SetAuthContext(context.Background(), "max", "LIBRARIAN")
	a, err := auth.GetAuthContext(ctx)
	require.NoError(t, err)
	require.Equal(t, auth.Auth{UserName: "max", Role: "LIBRARIAN"}, a)
}

func TestNewToken(t *testing.T) {
	key := []byte("secret")
	token, err := auth.NewToken(key, "max", "ADMIN", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	claims := new(auth.Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, "max", claims.Profile.Username)
	require.Equal(t, "ADMIN", claims.Profile.Role)
}
