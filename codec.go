package sycksec

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Token codec: serializes a payload into a recipe-shaped, signed string and
// back. The core representation is versioned v1: compact JSON with short
// field keys, base64 RawURL encoded, followed by '.' and the encoded
// authentication tag. The concatenated core string is laid into the
// recipe's core segments left-to-right; unused core capacity is padded with
// '=' (never produced by RawURL encoding, so trimming is unambiguous).
//
// The tag covers the serialized payload, the expiry and the recipe version.
// Noise segments are never covered by the tag: they are instead
// self-authenticating, carrying a short seed followed by a keyed stream
// derived from that seed, so any filler corruption is still detectable
// without making randomized noise flaky to verify.
const (
	corePadChar     = "="
	coreSeparator   = "."
	macLength       = 16
	noiseSeedLength = 2
	// minNoiseBody is the smallest keyed stream a randomized noise segment
	// must carry after its seed. A random seed is only verifiable through
	// the stream derived from it, so a segment that is all seed (or nearly
	// all seed) would accept arbitrary charset characters. Four stream
	// characters make a coincidental match negligible.
	minNoiseBody = 4
)

// encodeToken serializes the payload into a token shaped by the recipe and
// signed with the secret. The recipe must already be validated.
func encodeToken(payload *Payload, recipe *Recipe, secret []byte) (string, error) {
	serialized, err := json.Marshal(toWirePayload(payload))
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}

	mac := computeMAC(secret, serialized, payload.ExpiresAt.Unix(), recipe.Version)
	core := base64.RawURLEncoding.EncodeToString(serialized) +
		coreSeparator +
		base64.RawURLEncoding.EncodeToString(mac)

	capacity := recipe.TotalCoreCapacity()
	if len(core) > capacity {
		return "", fmt.Errorf("%w: need %d characters, recipe provides %d",
			ErrRecipeCapacity, len(core), capacity)
	}
	padded := core + strings.Repeat(corePadChar, capacity-len(core))

	var b strings.Builder
	coreOff := 0
	for i, seg := range recipe.Pattern {
		switch seg.Kind {
		case SegmentCore:
			b.WriteString(padded[coreOff : coreOff+seg.Length])
			coreOff += seg.Length
		case SegmentNoise:
			chunk, err := buildNoiseSegment(recipe, secret, i, seg.Length)
			if err != nil {
				return "", err
			}
			b.WriteString(chunk)
		}
	}

	return b.String(), nil
}

// decodeToken reverses segment extraction per the recipe pattern, checks the
// noise filler and the authentication tag, and reconstructs the payload.
// Expiry and identity binding are the engine's concern, not the codec's.
func decodeToken(token string, recipe *Recipe, secret []byte) (*Payload, error) {
	// One up-front floor check; the per-segment guards below handle the
	// variable noise deltas.
	minLen := 0
	for _, seg := range recipe.Pattern {
		if seg.Kind == SegmentNoise && recipe.NoiseVariance > 0 {
			minLen += 1 + seg.Length - recipe.NoiseVariance
		} else {
			minLen += seg.Length
		}
	}
	if len(token) < minLen {
		return nil, fmt.Errorf("%w: token shorter than pattern", ErrTokenMalformed)
	}

	var markerIdx map[byte]int
	if recipe.NoiseVariance > 0 {
		markerIdx = recipe.charsetIndex()
	}

	pos := 0
	var coreBuilder strings.Builder
	for i, seg := range recipe.Pattern {
		switch seg.Kind {
		case SegmentCore:
			if pos+seg.Length > len(token) {
				return nil, fmt.Errorf("%w: token shorter than pattern", ErrTokenMalformed)
			}
			coreBuilder.WriteString(token[pos : pos+seg.Length])
			pos += seg.Length
		case SegmentNoise:
			n := seg.Length
			if recipe.NoiseVariance > 0 {
				if pos >= len(token) {
					return nil, fmt.Errorf("%w: token shorter than pattern", ErrTokenMalformed)
				}
				delta, ok := markerDelta(recipe, secret, i, token[pos], markerIdx)
				if !ok {
					return nil, fmt.Errorf("%w: invalid noise length marker", ErrTokenMalformed)
				}
				pos++
				n += delta
			}
			if pos+n > len(token) {
				return nil, fmt.Errorf("%w: token shorter than pattern", ErrTokenMalformed)
			}
			if err := checkNoiseSegment(recipe, secret, i, token[pos:pos+n]); err != nil {
				return nil, err
			}
			pos += n
		}
	}
	if pos != len(token) {
		return nil, fmt.Errorf("%w: trailing characters after pattern", ErrTokenMalformed)
	}

	core := strings.TrimRight(coreBuilder.String(), corePadChar)
	dot := strings.IndexByte(core, coreSeparator[0])
	if dot < 0 || strings.IndexByte(core[dot+1:], coreSeparator[0]) >= 0 {
		return nil, fmt.Errorf("%w: missing tag separator", ErrTokenMalformed)
	}

	serialized, err := base64.RawURLEncoding.DecodeString(core[:dot])
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable payload segment", ErrTokenMalformed)
	}
	gotMAC, err := base64.RawURLEncoding.DecodeString(core[dot+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable tag segment", ErrTokenMalformed)
	}
	if len(gotMAC) != macLength {
		return nil, fmt.Errorf("%w: tag length %d, expected %d", ErrTokenMalformed, len(gotMAC), macLength)
	}

	var w wirePayload
	if err := json.Unmarshal(serialized, &w); err != nil {
		return nil, fmt.Errorf("%w: undecodable payload", ErrTokenMalformed)
	}

	wantMAC := computeMAC(secret, serialized, w.ExpiresAt, recipe.Version)
	if !hmac.Equal(gotMAC, wantMAC) {
		return nil, ErrTokenIntegrity
	}

	return fromWirePayload(w)
}

// computeMAC computes the truncated HMAC-SHA256 tag over the serialized
// payload, the expiry and the recipe version marker.
func computeMAC(secret, serialized []byte, expiresAt int64, version string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(serialized)
	fmt.Fprintf(mac, "\n%d\n%s", expiresAt, version)
	return mac.Sum(nil)[:macLength]
}

// buildNoiseSegment produces the filler for one noise segment: an optional
// length marker, a seed, and a stream keyed on the seed. With
// RandomizeNoise=false every character is derived from the secret, so the
// whole token is reproducible.
func buildNoiseSegment(recipe *Recipe, secret []byte, segIndex, nominal int) (string, error) {
	n := nominal
	var marker string
	if recipe.NoiseVariance > 0 {
		var delta int
		if recipe.RandomizeNoise {
			d, err := randomDelta(recipe.NoiseVariance)
			if err != nil {
				return "", err
			}
			delta = d
		} else {
			raw := int(keystream(secret, "noise-delta", recipe.Version, "", segIndex, 1)[0])
			delta = raw%(2*recipe.NoiseVariance+1) - recipe.NoiseVariance
		}
		marker = string(markerChar(recipe, secret, segIndex, delta))
		n += delta
	}

	seedLen := noiseSeedLength
	if seedLen > n {
		seedLen = n
	}
	var seed string
	if recipe.RandomizeNoise {
		s, err := randomCharsetChars(recipe.Charset, seedLen)
		if err != nil {
			return "", err
		}
		seed = s
	} else {
		seed = mapToCharset(keystream(secret, "noise-seed", recipe.Version, "", segIndex, seedLen), recipe.Charset)
	}

	body := mapToCharset(keystream(secret, "noise-body", recipe.Version, seed, segIndex, n-seedLen), recipe.Charset)
	return marker + seed + body, nil
}

// checkNoiseSegment verifies that observed filler matches the stream keyed
// on its own seed. Corrupting any seed or body character breaks the match.
func checkNoiseSegment(recipe *Recipe, secret []byte, segIndex int, observed string) error {
	seedLen := noiseSeedLength
	if seedLen > len(observed) {
		seedLen = len(observed)
	}
	seed := observed[:seedLen]
	for i := 0; i < len(seed); i++ {
		if strings.IndexByte(recipe.Charset, seed[i]) < 0 {
			return fmt.Errorf("%w: noise character outside charset", ErrTokenMalformed)
		}
	}
	if !recipe.RandomizeNoise {
		wantSeed := mapToCharset(keystream(secret, "noise-seed", recipe.Version, "", segIndex, seedLen), recipe.Charset)
		if subtle.ConstantTimeCompare([]byte(seed), []byte(wantSeed)) != 1 {
			return fmt.Errorf("%w: noise filler mismatch", ErrTokenMalformed)
		}
	}

	want := mapToCharset(keystream(secret, "noise-body", recipe.Version, seed, segIndex, len(observed)-seedLen), recipe.Charset)
	if subtle.ConstantTimeCompare([]byte(observed[seedLen:]), []byte(want)) != 1 {
		return fmt.Errorf("%w: noise filler mismatch", ErrTokenMalformed)
	}
	return nil
}

// markerChar encodes a noise length delta as a single charset character,
// offset by a secret-derived key so the delta is not readable off the wire.
func markerChar(recipe *Recipe, secret []byte, segIndex, delta int) byte {
	k := int(keystream(secret, "noise-len", recipe.Version, "", segIndex, 1)[0]) % len(recipe.Charset)
	return recipe.Charset[(delta+recipe.NoiseVariance+k)%len(recipe.Charset)]
}

// markerDelta reverses markerChar. Returns false when the character is not
// in the charset or decodes outside [-variance, variance].
func markerDelta(recipe *Recipe, secret []byte, segIndex int, c byte, idx map[byte]int) (int, bool) {
	pos, ok := idx[c]
	if !ok {
		return 0, false
	}
	k := int(keystream(secret, "noise-len", recipe.Version, "", segIndex, 1)[0]) % len(recipe.Charset)
	raw := ((pos-k)%len(recipe.Charset) + len(recipe.Charset)) % len(recipe.Charset)
	if raw > 2*recipe.NoiseVariance {
		return 0, false
	}
	return raw - recipe.NoiseVariance, true
}
