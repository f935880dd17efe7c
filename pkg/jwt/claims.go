package jwt

import "github.com/golang-jwt/jwt/v5"

// CallerClaims identify an API caller. Subject holds the user id.
type CallerClaims struct {
	jwt.RegisteredClaims
}
