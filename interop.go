package sycksec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT interop for integrations whose downstream middleware only understands
// standard bearer tokens. ExchangeJWT verifies an opaque engine token and
// mints an HS256 JWT carrying the same payload, signed with the master
// secret; VerifyExchangedJWT parses it back into a Payload.

// ExchangeJWT verifies the opaque token for the claimed user and returns an
// equivalent HS256-signed JWT. The JWT inherits the original issuance and
// expiry times, so exchanging does not extend a token's lifetime.
func (e *tokenEngine) ExchangeJWT(ctx context.Context, token, userID string, recipe *Recipe) (string, error) {
	payload, err := e.Verify(ctx, token, userID, recipe)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sub": payload.UserID,
		"iat": payload.IssuedAt.Unix(),
		"exp": payload.ExpiresAt.Unix(),
		"dfp": payload.Device.Fingerprint,
		"loc": payload.Device.Location,
		"upt": payload.Device.UsagePattern,
		"cli": payload.Device.ClientType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign exchanged token: %w", err)
	}

	return signed, nil
}

// VerifyExchangedJWT validates a JWT produced by ExchangeJWT and
// reconstructs the payload. Failures map onto the engine's validation
// taxonomy: signature mismatch is ErrTokenIntegrity, expiry is
// ErrTokenExpired, anything else is ErrTokenMalformed.
func (e *tokenEngine) VerifyExchangedJWT(ctx context.Context, tokenString string) (*Payload, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return e.secret, nil
	}, jwt.WithTimeFunc(e.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrTokenIntegrity
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrTokenMalformed)
	}

	return mapToPayload(claims)
}

// mapToPayload converts JWT claims back to a Payload.
func mapToPayload(claims jwt.MapClaims) (*Payload, error) {
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: invalid subject claim", ErrTokenMalformed)
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid iat claim", ErrTokenMalformed)
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid exp claim", ErrTokenMalformed)
	}

	payload := &Payload{
		UserID:    userID,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}
	if v, ok := claims["dfp"].(string); ok {
		payload.Device.Fingerprint = v
	}
	if v, ok := claims["loc"].(string); ok {
		payload.Device.Location = v
	}
	if v, ok := claims["upt"].(string); ok {
		payload.Device.UsagePattern = v
	}
	if v, ok := claims["cli"].(string); ok {
		payload.Device.ClientType = v
	}

	return payload, nil
}
