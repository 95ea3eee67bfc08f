package auth

import (
	"context"
	"os"

	"github.com/golang-jwt/jwt/v4"
)

const (
	AuthorizationHeader = "Authorization"
	Bearer              = "Bearer "
)

// JWTKey signs and verifies access tokens issued by libraryd.
var JWTKey = []byte(jwtKey())

func jwtKey() string {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		return v
	}
	return "bookworm-dev-secret"
}

// Claims is the token payload: the resolved identity of the bearer.
type Claims struct {
	UserID int    `json:"uid"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey int

const claimsKey ctxKey = iota + 1

func SetAuthContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
