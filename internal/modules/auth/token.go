package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
)

// Claims are the JWT claims issued by the identity provider.
type Claims struct {
	jwt.StandardClaims
	Role Role `json:"role"`
}

// JWTResolver validates and issues HS256 bearer tokens.
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver validates HS256 tokens signed with secret.
func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (j *JWTResolver) Resolve(_ context.Context, tokenString string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, apperr.Unauthorized("invalid or expired token")
	}
	if !claims.Role.Valid() {
		return Principal{}, apperr.Unauthorized("token carries no marketplace role")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, apperr.Unauthorized("token subject is not an id")
	}
	return Principal{Role: claims.Role, ID: id}, nil
}

// Issue signs a token for p. The production identity provider mints its own;
// this exists for local development and tests.
func (j *JWTResolver) Issue(p Principal, ttl time.Duration) (string, error) {
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   p.ID.String(),
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
		Role: p.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}
