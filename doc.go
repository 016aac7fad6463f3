// Package sycksec provides a self-contained engine for issuing, verifying,
// refreshing and batching cryptographically authenticated, context-bound
// session tokens.
//
// Features:
// - Opaque tokens shaped by declarative recipes (segment pattern, charset, noise policy)
// - HMAC-SHA256 authentication tags with constant-time verification
// - TTL enforcement and user-identity binding on every verification
// - Near-expiry refresh that preserves the original TTL and device context
// - Batch generation and verification with per-item failure isolation
// - Append-only audit logging with in-memory and Redis-backed stores
// - JWT exchange for integrations that require standard bearer tokens
//
// Tokens are never stored server-side: the token string itself is the only
// artifact, and verification reconstructs the payload entirely from it.
package sycksec
