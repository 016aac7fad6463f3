package sycksec

import (
	"fmt"
)

// SegmentKind identifies the role of a token segment (core or noise).
type SegmentKind string

const (
	SegmentCore  SegmentKind = "core"  // Core segment carrying signed payload bytes
	SegmentNoise SegmentKind = "noise" // Noise segment carrying filler characters
)

// Segment is one entry in a recipe's ordered pattern.
//
// Fields:
//   - Kind: SegmentCore or SegmentNoise
//   - Length: nominal segment length in characters (must be positive)
type Segment struct {
	Kind   SegmentKind
	Length int
}

// Recipe declares the shape of a token: its segment pattern, the charset
// used for noise filler, and the noise policy.
//
// Fields:
//   - Version: recipe version marker, mixed into the authentication tag
//   - Pattern: ordered sequence of core and noise segments
//   - Charset: characters noise filler is drawn from (unique ASCII bytes)
//   - RandomizeNoise: true draws noise from crypto/rand, false derives it
//     deterministically from the master secret (reproducible tokens)
//   - NoiseVariance: maximum per-segment length deviation for noise segments
//
// A Recipe is read-only after validation and safe for concurrent use.
// Custom recipes pass through exactly the same validation as the built-in
// default; there is no privileged trust for either.
type Recipe struct {
	Version        string
	Pattern        []Segment
	Charset        string
	RandomizeNoise bool
	NoiseVariance  int
}

// minCoreCapacity is the smallest total core capacity that can hold the
// v1 encoding of a payload with placeholder device fields plus the tag.
const minCoreCapacity = 160

// DefaultRecipe returns the standard community recipe. Tokens are shaped as
// five segments (noise/core/noise/core/noise) over an alphanumeric charset
// with randomized fixed-length noise.
func DefaultRecipe() Recipe {
	return Recipe{
		Version: "standard-v1",
		Pattern: []Segment{
			{Kind: SegmentNoise, Length: 8},
			{Kind: SegmentCore, Length: 224},
			{Kind: SegmentNoise, Length: 8},
			{Kind: SegmentCore, Length: 224},
			{Kind: SegmentNoise, Length: 8},
		},
		Charset:        "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
		RandomizeNoise: true,
		NoiseVariance:  0,
	}
}

// Validate checks the recipe invariants. It must pass before the recipe is
// used for encoding or decoding; the engine validates every caller-supplied
// recipe on each operation that receives one.
func (r *Recipe) Validate() error {
	if r.Version == "" {
		return fmt.Errorf("%w: version cannot be empty", ErrRecipeInvalid)
	}
	if len(r.Pattern) == 0 {
		return fmt.Errorf("%w: pattern cannot be empty", ErrRecipeInvalid)
	}
	if len(r.Charset) == 0 {
		return fmt.Errorf("%w: charset cannot be empty", ErrRecipeInvalid)
	}
	if r.NoiseVariance < 0 {
		return fmt.Errorf("%w: noise variance cannot be negative", ErrRecipeInvalid)
	}

	seen := make(map[byte]bool, len(r.Charset))
	for i := 0; i < len(r.Charset); i++ {
		c := r.Charset[i]
		if c < 0x21 || c > 0x7e {
			return fmt.Errorf("%w: charset must contain printable ASCII only", ErrRecipeInvalid)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate charset character %q", ErrRecipeInvalid, c)
		}
		seen[c] = true
	}
	if r.NoiseVariance > 0 && len(r.Charset) < 2*r.NoiseVariance+1 {
		return fmt.Errorf("%w: charset too small for noise variance %d", ErrRecipeInvalid, r.NoiseVariance)
	}

	coreSegments := 0
	for i, seg := range r.Pattern {
		switch seg.Kind {
		case SegmentCore:
			coreSegments++
		case SegmentNoise:
			if r.NoiseVariance > 0 && seg.Length < r.NoiseVariance {
				return fmt.Errorf("%w: noise segment %d shorter than variance", ErrRecipeInvalid, i)
			}
			// Randomized filler carries a seed plus a keyed stream; the
			// shortest possible segment must still hold both, or its
			// characters would not be verifiable.
			if r.RandomizeNoise && seg.Length-r.NoiseVariance < noiseSeedLength+minNoiseBody {
				return fmt.Errorf("%w: noise segment %d too short for randomized filler (minimum %d)",
					ErrRecipeInvalid, i, r.NoiseVariance+noiseSeedLength+minNoiseBody)
			}
		default:
			return fmt.Errorf("%w: unknown segment kind %q at index %d", ErrRecipeInvalid, seg.Kind, i)
		}
		if seg.Length <= 0 {
			return fmt.Errorf("%w: segment %d has non-positive length", ErrRecipeInvalid, i)
		}
	}
	if coreSegments == 0 {
		return fmt.Errorf("%w: pattern must contain at least one core segment", ErrRecipeInvalid)
	}
	if r.TotalCoreCapacity() < minCoreCapacity {
		return fmt.Errorf("%w: total core capacity %d below minimum %d",
			ErrRecipeInvalid, r.TotalCoreCapacity(), minCoreCapacity)
	}

	return nil
}

// TotalCoreCapacity returns the summed length of all core segments.
func (r *Recipe) TotalCoreCapacity() int {
	total := 0
	for _, seg := range r.Pattern {
		if seg.Kind == SegmentCore {
			total += seg.Length
		}
	}
	return total
}

// SegmentLayout returns the ordered segment list. Encode and decode walk
// this layout to stay aligned on segment boundaries.
func (r *Recipe) SegmentLayout() []Segment {
	layout := make([]Segment, len(r.Pattern))
	copy(layout, r.Pattern)
	return layout
}

// charsetIndex builds a byte-to-position lookup for the charset. Decoding
// length markers needs it; validation guarantees bytes are unique.
func (r *Recipe) charsetIndex() map[byte]int {
	idx := make(map[byte]int, len(r.Charset))
	for i := 0; i < len(r.Charset); i++ {
		idx[r.Charset[i]] = i
	}
	return idx
}
