package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the already-resolved caller identity every cart operation
// receives. Either field may be empty; both empty means no cart can apply.
type Identity struct {
	UserID        string
	SessionCartID string
}

func (id Identity) Empty() bool {
	return id.UserID == "" && id.SessionCartID == ""
}

// Resolver turns transport-level credentials into an Identity. The cart core
// never reads cookies or headers itself.
type Resolver interface {
	Resolve(ctx context.Context, bearerToken, sessionCartID string) (Identity, error)
}

var ErrInvalidToken = errors.New("invalid token")

// JWTResolver extracts the user id from the subject claim of an HS256 token.
// An empty token resolves to an anonymous identity; a malformed or badly
// signed token is an error, not anonymity, so a stale login cannot silently
// mutate the anonymous cart.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (r *JWTResolver) Resolve(_ context.Context, bearerToken, sessionCartID string) (Identity, error) {
	id := Identity{SessionCartID: sessionCartID}
	if bearerToken == "" {
		return id, nil
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(bearerToken, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	id.UserID = claims.Subject
	return id, nil
}
