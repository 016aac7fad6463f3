package sycksec

import (
	"context"
	"crypto/subtle"
	"time"
)

// TokenEngine defines the interface for the token lifecycle.
//
// Methods:
//   - Generate: issues a new context-bound token
//   - Verify: validates a token against a claimed user identity
//   - Refresh: re-issues a token that is close to expiry
//   - GenerateBatch / VerifyBatch: batch variants with per-item isolation
//   - ExchangeJWT / VerifyExchangedJWT: interop with JWT-only consumers
//   - Audit: access to the audit logger (nil when audit logging is disabled)
type TokenEngine interface {
	Generate(ctx context.Context, userID string, ttl time.Duration, device *DeviceInfo, recipe *Recipe) (string, error)
	Verify(ctx context.Context, token, userID string, recipe *Recipe) (*Payload, error)
	Refresh(ctx context.Context, token, userID string, threshold time.Duration, recipe *Recipe) (string, error)
	GenerateBatch(ctx context.Context, requests []GenerateRequest) ([]BatchGenerateResult, error)
	VerifyBatch(ctx context.Context, requests []VerifyRequest) ([]BatchVerifyResult, error)
	ExchangeJWT(ctx context.Context, token, userID string, recipe *Recipe) (string, error)
	VerifyExchangedJWT(ctx context.Context, tokenString string) (*Payload, error)
	Audit() *AuditLogger
	Close() error
}

// tokenEngine is the concrete implementation of TokenEngine.
type tokenEngine struct {
	config        Config
	secret        []byte
	defaultRecipe Recipe
	audit         *AuditLogger
	now           func() time.Time // test seam; time.Now in production
}

// NewTokenEngine creates a new token engine instance with the provided
// configuration. When audit logging is enabled and store is nil, an
// in-memory store with the default retention cap is used. The returned
// engine is safe for concurrent use by multiple goroutines: the secret and
// default recipe are read-only after construction and the audit store
// serializes its own writes.
func NewTokenEngine(ctx context.Context, config Config, store AuditStore) (TokenEngine, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	engine := &tokenEngine{
		config:        config,
		secret:        []byte(config.MasterSecret),
		defaultRecipe: DefaultRecipe(),
		now:           time.Now,
	}

	if config.EnableAuditLogging {
		if store == nil {
			store = NewMemoryAuditStore(DefaultAuditRetention)
		}
		engine.audit = newAuditLogger(store)
	}

	return engine, nil
}

// DefaultTokenEngine creates an engine from community defaults and the given
// master secret. This is the one-call setup path for integrations.
func DefaultTokenEngine(ctx context.Context, masterSecret string) (TokenEngine, error) {
	return NewTokenEngine(ctx, DefaultConfig(masterSecret), nil)
}

// Generate issues a new token bound to the user identity and device context.
// A zero ttl selects the configured default; a ttl below one second or above
// MaxTTL fails with ErrTTLOutOfRange. A nil recipe selects the default
// recipe; a supplied recipe is validated first.
func (e *tokenEngine) Generate(ctx context.Context, userID string, ttl time.Duration, device *DeviceInfo, recipe *Recipe) (string, error) {
	token, _, err := e.issue(userID, ttl, device, recipe)
	if err != nil {
		return "", err
	}

	rec := e.effectiveRecipeVersion(recipe)
	e.emit(ctx, EventGenerate, userID, map[string]string{"recipe": rec})
	return token, nil
}

// Verify validates a token for the claimed user identity and returns the
// reconstructed payload. Failures are reported, in order of detection, as
// ErrTokenMalformed, ErrTokenIntegrity, ErrTokenExpired or ErrUserMismatch.
func (e *tokenEngine) Verify(ctx context.Context, token, userID string, recipe *Recipe) (*Payload, error) {
	payload, err := e.check(token, userID, recipe)
	if err != nil {
		e.emit(ctx, EventVerifyFailure, userID, e.failureMetadata(err))
		return nil, err
	}

	e.emit(ctx, EventVerifySuccess, userID, nil)
	return payload, nil
}

// Refresh re-issues a token whose remaining lifetime is at or below the
// threshold. It returns ("", nil) when the token is not yet near expiry.
// The new token keeps the original TTL and device context with a fresh
// issuance time; the old token stays valid until its own expiry.
func (e *tokenEngine) Refresh(ctx context.Context, token, userID string, threshold time.Duration, recipe *Recipe) (string, error) {
	payload, err := e.Verify(ctx, token, userID, recipe)
	if err != nil {
		return "", err
	}

	if payload.ExpiresAt.Sub(e.now()) > threshold {
		return "", nil
	}

	device := payload.Device
	newToken, _, err := e.issue(userID, payload.TTL(), &device, recipe)
	if err != nil {
		return "", err
	}

	e.emit(ctx, EventRefresh, userID, map[string]string{"recipe": e.effectiveRecipeVersion(recipe)})
	return newToken, nil
}

// Audit returns the engine's audit logger, or nil when audit logging is
// disabled.
func (e *tokenEngine) Audit() *AuditLogger {
	return e.audit
}

// Close releases the audit store, if any.
func (e *tokenEngine) Close() error {
	if e.audit == nil {
		return nil
	}
	return e.audit.Close()
}

// issue builds a payload and encodes it; audit emission is the caller's
// concern so Generate and Refresh can record distinct event types.
func (e *tokenEngine) issue(userID string, ttl time.Duration, device *DeviceInfo, recipe *Recipe) (string, *Payload, error) {
	if userID == "" {
		return "", nil, ErrEmptyUserID
	}

	effectiveTTL := ttl
	if effectiveTTL == 0 {
		effectiveTTL = e.config.DefaultTTL
	}
	// Issuance and expiry ride the wire at second granularity; a TTL below
	// one second would collapse to an expiry not after issuance.
	if effectiveTTL < time.Second || effectiveTTL > e.config.MaxTTL {
		return "", nil, ErrTTLOutOfRange
	}

	rec, err := e.effectiveRecipe(recipe)
	if err != nil {
		return "", nil, err
	}

	now := e.now().UTC().Truncate(time.Second)
	payload := &Payload{
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(effectiveTTL),
		Device:    normalizeDevice(device),
	}

	token, err := encodeToken(payload, &rec, e.secret)
	if err != nil {
		return "", nil, err
	}

	return token, payload, nil
}

// check performs the full verification pipeline without audit emission.
func (e *tokenEngine) check(token, userID string, recipe *Recipe) (*Payload, error) {
	rec, err := e.effectiveRecipe(recipe)
	if err != nil {
		return nil, err
	}

	payload, err := decodeToken(token, &rec, e.secret)
	if err != nil {
		return nil, err
	}

	if e.now().After(payload.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	// Constant-time identity binding: a validly signed token for user A must
	// never verify for user B.
	if subtle.ConstantTimeCompare([]byte(payload.UserID), []byte(userID)) != 1 {
		return nil, ErrUserMismatch
	}

	return payload, nil
}

// effectiveRecipe resolves and validates the recipe for one operation.
func (e *tokenEngine) effectiveRecipe(recipe *Recipe) (Recipe, error) {
	if recipe == nil {
		return e.defaultRecipe, nil
	}
	if err := recipe.Validate(); err != nil {
		return Recipe{}, err
	}
	return *recipe, nil
}

func (e *tokenEngine) effectiveRecipeVersion(recipe *Recipe) string {
	if recipe == nil {
		return e.defaultRecipe.Version
	}
	return recipe.Version
}

// emit records an audit event when audit logging is enabled. Audit must not
// fail the operation; append errors are retained on the logger.
func (e *tokenEngine) emit(ctx context.Context, eventType AuditEventType, userID string, metadata map[string]string) {
	if e.audit == nil {
		return
	}
	e.audit.log(ctx, eventType, userID, metadata)
}

// failureMetadata describes a verification failure without ever including
// the token string or the master secret.
func (e *tokenEngine) failureMetadata(err error) map[string]string {
	reason := ValidationReason(err)
	if reason == "" {
		reason = "error"
	}
	metadata := map[string]string{"reason": reason}
	if e.config.Debug {
		metadata["detail"] = err.Error()
	}
	return metadata
}
