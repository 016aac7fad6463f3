package sycksec

import (
	"context"
	"fmt"
	"time"
)

// MaxBatchSize is the community batch limit. Batches up to and including
// this size are processed; anything larger fails wholesale with
// ErrBatchLimitExceeded before any item is touched.
const MaxBatchSize = 50

// GenerateRequest is one item of a generation batch. Field semantics match
// Generate: zero TTL selects the default, nil Device selects placeholders,
// nil Recipe selects the default recipe.
type GenerateRequest struct {
	UserID string
	TTL    time.Duration
	Device *DeviceInfo
	Recipe *Recipe
}

// VerifyRequest is one item of a verification batch.
type VerifyRequest struct {
	Token  string
	UserID string
	Recipe *Recipe
}

// BatchGenerateResult holds the outcome for one generation item. Exactly one
// of Token and Err is set.
type BatchGenerateResult struct {
	Token string
	Err   error
}

// VerifyStatus reports a batch verification outcome.
type VerifyStatus string

const (
	VerifyStatusValid   VerifyStatus = "valid"
	VerifyStatusInvalid VerifyStatus = "invalid"
)

// BatchVerifyResult holds the outcome for one verification item: Payload is
// set when Status is valid, Err when it is invalid.
type BatchVerifyResult struct {
	Status  VerifyStatus
	Payload *Payload
	Err     error
}

// GenerateBatch processes generation requests in order. Items are isolated:
// one item's failure is captured in its result slot and never aborts
// siblings, so results keep positional correspondence with requests.
func (e *tokenEngine) GenerateBatch(ctx context.Context, requests []GenerateRequest) ([]BatchGenerateResult, error) {
	if len(requests) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d requests, limit is %d", ErrBatchLimitExceeded, len(requests), MaxBatchSize)
	}

	results := make([]BatchGenerateResult, len(requests))
	for i, req := range requests {
		token, err := e.Generate(ctx, req.UserID, req.TTL, req.Device, req.Recipe)
		if err != nil {
			results[i] = BatchGenerateResult{Err: err}
			continue
		}
		results[i] = BatchGenerateResult{Token: token}
	}

	return results, nil
}

// VerifyBatch processes verification requests in order with the same
// isolation discipline as GenerateBatch.
func (e *tokenEngine) VerifyBatch(ctx context.Context, requests []VerifyRequest) ([]BatchVerifyResult, error) {
	if len(requests) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d requests, limit is %d", ErrBatchLimitExceeded, len(requests), MaxBatchSize)
	}

	results := make([]BatchVerifyResult, len(requests))
	for i, req := range requests {
		payload, err := e.Verify(ctx, req.Token, req.UserID, req.Recipe)
		if err != nil {
			results[i] = BatchVerifyResult{Status: VerifyStatusInvalid, Err: err}
			continue
		}
		results[i] = BatchVerifyResult{Status: VerifyStatusValid, Payload: payload}
	}

	return results, nil
}
