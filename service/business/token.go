package business

import (
	"errors"

	"github.com/forecasthub/service-credentials/service/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidBearerToken is returned for any token that fails to parse or
// verify. Token validity still says nothing about session validity; callers
// must check the referenced session against the store.
var ErrInvalidBearerToken = errors.New("invalid bearer token")

// SessionClaims are the claims carried by an api channel bearer token. The
// token is a thin serialization of the session record, nothing more.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID    string `json:"sid"`
	SessionToken string `json:"stk"`
}

// TokenCodec signs and parses api channel bearer tokens over sessions.
type TokenCodec struct {
	secret []byte
	issuer string
}

// NewTokenCodec creates a codec signing with the supplied HS256 secret.
func NewTokenCodec(secret []byte, issuer string) *TokenCodec {
	return &TokenCodec{
		secret: secret,
		issuer: issuer,
	}
}

// Issue serializes the session into a signed bearer token whose expiry
// mirrors the session's own.
func (tc *TokenCodec) Issue(session *models.Session) (string, error) {
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tc.issuer,
			Subject:   session.ProfileID,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		SessionID:    session.GetID(),
		SessionToken: session.Token,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tc.secret)
}

// Parse verifies the signature and expiry and returns the embedded claims.
func (tc *TokenCodec) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return tc.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tc.issuer))
	if err != nil || !token.Valid {
		return nil, ErrInvalidBearerToken
	}
	return claims, nil
}
