package sycksec

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"
)

// wirePayload is the canonical v1 serialization of a Payload. Field order is
// fixed: encoding/json emits struct fields in declaration order, which keeps
// the byte stream deterministic for a given payload.
type wirePayload struct {
	UserID       string `json:"uid"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
	Fingerprint  string `json:"dfp"`
	Location     string `json:"loc"`
	UsagePattern string `json:"upt"`
	ClientType   string `json:"cli"`
}

// toWirePayload converts a Payload to its wire representation.
func toWirePayload(p *Payload) wirePayload {
	return wirePayload{
		UserID:       p.UserID,
		IssuedAt:     p.IssuedAt.Unix(),
		ExpiresAt:    p.ExpiresAt.Unix(),
		Fingerprint:  p.Device.Fingerprint,
		Location:     p.Device.Location,
		UsagePattern: p.Device.UsagePattern,
		ClientType:   p.Device.ClientType,
	}
}

// fromWirePayload reconstructs a Payload from its wire representation.
func fromWirePayload(w wirePayload) (*Payload, error) {
	if w.UserID == "" {
		return nil, fmt.Errorf("%w: empty user id in payload", ErrTokenMalformed)
	}
	if w.ExpiresAt <= w.IssuedAt {
		return nil, fmt.Errorf("%w: expiry not after issuance", ErrTokenMalformed)
	}
	return &Payload{
		UserID:    w.UserID,
		IssuedAt:  time.Unix(w.IssuedAt, 0),
		ExpiresAt: time.Unix(w.ExpiresAt, 0),
		Device: DeviceInfo{
			Fingerprint:  w.Fingerprint,
			Location:     w.Location,
			UsagePattern: w.UsagePattern,
			ClientType:   w.ClientType,
		},
	}, nil
}

// keystream derives n pseudorandom bytes from the master secret via
// HMAC-SHA256 in counter mode. The label, recipe version, seed and segment
// index separate the independent streams used for noise seeds, noise bodies
// and length markers.
func keystream(secret []byte, label, version, seed string, segIndex, n int) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, 0, n+sha256.Size)
	var counter uint32
	for len(out) < n {
		mac := hmac.New(sha256.New, secret)
		fmt.Fprintf(mac, "%s\x00%s\x00%s\x00%d\x00", label, version, seed, segIndex)
		var ctr [4]byte
		binary.BigEndian.PutUint32(ctr[:], counter)
		mac.Write(ctr[:])
		out = mac.Sum(out)
		counter++
	}
	return out[:n]
}

// mapToCharset projects raw bytes onto the recipe charset. The slight modulo
// bias is acceptable for filler characters; nothing secret rides on them.
func mapToCharset(stream []byte, charset string) string {
	out := make([]byte, len(stream))
	for i, b := range stream {
		out[i] = charset[int(b)%len(charset)]
	}
	return string(out)
}

// randomCharsetChars returns n characters drawn uniformly enough from the
// charset using crypto/rand.
func randomCharsetChars(charset string, n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random noise: %w", err)
	}
	return mapToCharset(raw, charset), nil
}

// randomDelta returns a random length delta in [-variance, variance].
func randomDelta(variance int) (int, error) {
	if variance <= 0 {
		return 0, nil
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(2*variance+1)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random delta: %w", err)
	}
	return int(n.Int64()) - variance, nil
}
