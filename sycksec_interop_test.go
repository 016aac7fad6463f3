// File: sycksec_interop_test.go

package sycksec

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestExchangeJWT(t *testing.T) {
	engine := createDefaultTestEngine(t)
	ctx := context.Background()

	device := &DeviceInfo{Fingerprint: "fp-1", Location: "US_East", UsagePattern: "mobile_app", ClientType: "ios"}
	token, err := engine.Generate(ctx, "user-1", time.Hour, device, nil)
	require.NoError(t, err)

	t.Run("RoundTrip", func(t *testing.T) {
		signed, err := engine.ExchangeJWT(ctx, token, "user-1", nil)
		require.NoError(t, err)
		require.Equal(t, 3, len(strings.Split(signed, ".")))

		payload, err := engine.VerifyExchangedJWT(ctx, signed)
		require.NoError(t, err)
		require.Equal(t, "user-1", payload.UserID)
		require.Equal(t, *device, payload.Device)
		require.Equal(t, time.Hour, payload.TTL())
	})

	t.Run("WrongUserBlocksExchange", func(t *testing.T) {
		_, err := engine.ExchangeJWT(ctx, token, "user-2", nil)
		require.ErrorIs(t, err, ErrUserMismatch)
	})

	t.Run("LifetimePreserved", func(t *testing.T) {
		original, err := engine.Verify(ctx, token, "user-1", nil)
		require.NoError(t, err)

		signed, err := engine.ExchangeJWT(ctx, token, "user-1", nil)
		require.NoError(t, err)
		payload, err := engine.VerifyExchangedJWT(ctx, signed)
		require.NoError(t, err)

		require.Equal(t, original.ExpiresAt.Unix(), payload.ExpiresAt.Unix())
		require.Equal(t, original.IssuedAt.Unix(), payload.IssuedAt.Unix())
	})
}

func TestVerifyExchangedJWT(t *testing.T) {
	engine := createDefaultTestEngine(t)
	ctx := context.Background()

	token, err := engine.Generate(ctx, "user-1", time.Hour, nil, nil)
	require.NoError(t, err)
	signed, err := engine.ExchangeJWT(ctx, token, "user-1", nil)
	require.NoError(t, err)

	t.Run("Garbage", func(t *testing.T) {
		_, err := engine.VerifyExchangedJWT(ctx, "not.a.jwt")
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("TamperedSignature", func(t *testing.T) {
		replacement := byte('x')
		if signed[len(signed)-1] == replacement {
			replacement = 'y'
		}
		tampered := signed[:len(signed)-1] + string(replacement)
		_, err := engine.VerifyExchangedJWT(ctx, tampered)
		require.ErrorIs(t, err, ErrTokenIntegrity)
	})

	t.Run("ForeignSecret", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub": "user-1",
			"iat": time.Now().Unix(),
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte("another-master-secret-32-bytes!!!"))
		require.NoError(t, err)

		_, err = engine.VerifyExchangedJWT(ctx, foreign)
		require.ErrorIs(t, err, ErrTokenIntegrity)
	})

	t.Run("WrongAlgorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "user-1",
			"iat": time.Now().Unix(),
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = engine.VerifyExchangedJWT(ctx, unsigned)
		require.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("Expired", func(t *testing.T) {
		_, advance := fixClock(engine)
		advance(2 * time.Hour)

		_, err := engine.VerifyExchangedJWT(ctx, signed)
		require.ErrorIs(t, err, ErrTokenExpired)
	})
}
