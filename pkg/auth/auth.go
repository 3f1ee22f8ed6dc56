package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

const (
	XUserNameHeader = "X-User-Name"
	XUserRoleHeader = "X-User-Role"
)

type Config struct {
	JWTKey string `json:"-" envconfig:"JWT_KEY"`
	// TrustGatewayHeaders accepts X-User-Name/X-User-Role from requests
	// without a bearer token. Enable only behind a gateway that sets them.
	TrustGatewayHeaders bool `json:"trustGatewayHeaders" envconfig:"TRUST_GATEWAY_HEADERS"`
}

type Claims struct {
	Profile struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"profile"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type authContextKey struct{}

type Auth struct {
	UserName string
	Role     string
}

var ErrNoAuthContext = errors.New("no auth context")

func SetAuthContext(ctx context.Context, userName, role string) context.Context {
	return context.WithValue(ctx, authContextKey{}, Auth{UserName: userName, Role: role})
}

func GetAuthContext(ctx context.Context) (Auth, error) {
	a, ok := ctx.Value(authContextKey{}).(Auth)
	if !ok {
		return Auth{}, ErrNoAuthContext
	}
	return a, nil
}

// NewToken signs HS256 claims for the given user, used by tooling and tests.
func NewToken(key []byte, userName, role string, claims jwt.RegisteredClaims) (string, error) {
	c := &Claims{RegisteredClaims: claims}
	c.Profile.Username = userName
	c.Profile.Role = role
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(key)
}
