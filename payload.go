package sycksec

import (
	"time"
)

// DeviceInfo carries the caller-supplied device context bound into a token.
//
// Fields:
//   - Fingerprint: stable device identifier supplied by the integration
//   - Location: coarse location label (e.g. "US_West")
//   - UsagePattern: usage classification (e.g. "mobile_app")
//   - ClientType: client family (e.g. "ios", "web")
type DeviceInfo struct {
	Fingerprint  string
	Location     string
	UsagePattern string
	ClientType   string
}

// Neutral placeholders used when a generation request omits device context.
const (
	placeholderFingerprint  = "unknown"
	placeholderLocation     = "unknown"
	placeholderUsagePattern = "standard"
	placeholderClientType   = "web"
)

// Payload is the verified content of a token. It is created once at
// generation time and reconstructed, never mutated, on verification.
//
// Fields:
//   - UserID: token owner identity (never empty)
//   - IssuedAt: issuance time
//   - ExpiresAt: expiry time (always after IssuedAt)
//   - Device: device context captured at issuance
type Payload struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Device    DeviceInfo
}

// TTL returns the token's original time-to-live.
func (p *Payload) TTL() time.Duration {
	return p.ExpiresAt.Sub(p.IssuedAt)
}

// normalizeDevice fills missing device fields with neutral placeholders.
func normalizeDevice(device *DeviceInfo) DeviceInfo {
	out := DeviceInfo{
		Fingerprint:  placeholderFingerprint,
		Location:     placeholderLocation,
		UsagePattern: placeholderUsagePattern,
		ClientType:   placeholderClientType,
	}
	if device == nil {
		return out
	}
	if device.Fingerprint != "" {
		out.Fingerprint = device.Fingerprint
	}
	if device.Location != "" {
		out.Location = device.Location
	}
	if device.UsagePattern != "" {
		out.UsagePattern = device.UsagePattern
	}
	if device.ClientType != "" {
		out.ClientType = device.ClientType
	}
	return out
}
