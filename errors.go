package sycksec

import "errors"

var (
	// ErrConfigInvalid indicates the engine configuration failed validation at construction.
	ErrConfigInvalid = errors.New("invalid engine configuration")
	// ErrEmptyUserID indicates a generation request with an empty user ID.
	ErrEmptyUserID = errors.New("user id cannot be empty")
	// ErrTTLOutOfRange indicates a requested TTL below one second or above the configured maximum.
	ErrTTLOutOfRange = errors.New("ttl out of allowed range")
	// ErrRecipeInvalid indicates a recipe that failed validation.
	ErrRecipeInvalid = errors.New("invalid recipe")
	// ErrRecipeCapacity indicates the encoded payload does not fit the recipe's core segments.
	ErrRecipeCapacity = errors.New("payload exceeds recipe core capacity")
	// ErrTokenMalformed indicates a token that does not decode under the chosen recipe.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenIntegrity indicates a token whose authentication tag does not match.
	ErrTokenIntegrity = errors.New("token integrity check failed")
	// ErrTokenExpired indicates a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrUserMismatch indicates a valid token presented for a different user identity.
	ErrUserMismatch = errors.New("token user mismatch")
	// ErrBatchLimitExceeded indicates a batch larger than MaxBatchSize.
	ErrBatchLimitExceeded = errors.New("batch size exceeds community limit")
)

// ValidationReason maps a verification error to its stable reason code:
// "malformed", "integrity", "expired" or "user_mismatch". It returns ""
// for errors outside the validation taxonomy.
func ValidationReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, ErrTokenIntegrity):
		return "integrity"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrUserMismatch):
		return "user_mismatch"
	default:
		return ""
	}
}
