// File: sycksec_recipe_test.go

package sycksec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRecipe(t *testing.T) {
	recipe := DefaultRecipe()

	require.NoError(t, recipe.Validate())
	require.Equal(t, "standard-v1", recipe.Version)
	require.True(t, recipe.RandomizeNoise)
	require.Zero(t, recipe.NoiseVariance)
	require.Equal(t, 448, recipe.TotalCoreCapacity())

	layout := recipe.SegmentLayout()
	require.Len(t, layout, 5)
	require.Equal(t, SegmentNoise, layout[0].Kind)
	require.Equal(t, SegmentCore, layout[1].Kind)
}

func TestRecipeValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Recipe)
		errMsg string
	}{
		{
			name:   "empty version",
			mutate: func(r *Recipe) { r.Version = "" },
			errMsg: "version",
		},
		{
			name:   "empty pattern",
			mutate: func(r *Recipe) { r.Pattern = nil },
			errMsg: "pattern",
		},
		{
			name:   "empty charset",
			mutate: func(r *Recipe) { r.Charset = "" },
			errMsg: "charset",
		},
		{
			name:   "duplicate charset character",
			mutate: func(r *Recipe) { r.Charset = "abca" },
			errMsg: "duplicate",
		},
		{
			name:   "non printable charset character",
			mutate: func(r *Recipe) { r.Charset = "abc\n" },
			errMsg: "printable",
		},
		{
			name:   "negative noise variance",
			mutate: func(r *Recipe) { r.NoiseVariance = -1 },
			errMsg: "variance",
		},
		{
			name: "charset too small for variance",
			mutate: func(r *Recipe) {
				r.Charset = "ab"
				r.NoiseVariance = 1
			},
			errMsg: "charset too small",
		},
		{
			name: "noise segment shorter than variance",
			mutate: func(r *Recipe) {
				r.NoiseVariance = 10
			},
			errMsg: "shorter than variance",
		},
		{
			name:   "randomized noise segment too short",
			mutate: func(r *Recipe) { r.Pattern[0].Length = 2 },
			errMsg: "too short for randomized filler",
		},
		{
			name:   "variance squeezes randomized noise below floor",
			mutate: func(r *Recipe) { r.NoiseVariance = 3 },
			errMsg: "too short for randomized filler",
		},
		{
			name: "unknown segment kind",
			mutate: func(r *Recipe) {
				r.Pattern = append(r.Pattern, Segment{Kind: "glitter", Length: 4})
			},
			errMsg: "unknown segment kind",
		},
		{
			name: "non positive segment length",
			mutate: func(r *Recipe) {
				r.Pattern[1].Length = 0
			},
			errMsg: "non-positive length",
		},
		{
			name: "no core segment",
			mutate: func(r *Recipe) {
				r.Pattern = []Segment{{Kind: SegmentNoise, Length: 8}}
			},
			errMsg: "core segment",
		},
		{
			name: "core capacity below minimum",
			mutate: func(r *Recipe) {
				r.Pattern = []Segment{
					{Kind: SegmentNoise, Length: 4},
					{Kind: SegmentCore, Length: 32},
				}
			},
			errMsg: "below minimum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipe := DefaultRecipe()
			tt.mutate(&recipe)

			err := recipe.Validate()
			require.Error(t, err)
			require.ErrorIs(t, err, ErrRecipeInvalid)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCustomRecipeEndToEnd(t *testing.T) {
	engine := createDefaultTestEngine(t)
	ctx := context.Background()

	custom := Recipe{
		Version: "hex-v2",
		Pattern: []Segment{
			{Kind: SegmentCore, Length: 300},
			{Kind: SegmentNoise, Length: 12},
			{Kind: SegmentCore, Length: 100},
		},
		Charset:        "0123456789abcdef",
		RandomizeNoise: false,
	}
	require.NoError(t, custom.Validate())

	token, err := engine.Generate(ctx, "user-1", 0, nil, &custom)
	require.NoError(t, err)
	require.Len(t, token, 412)

	// The verifying recipe must match the issuing one.
	payload, err := engine.Verify(ctx, token, "user-1", &custom)
	require.NoError(t, err)
	require.Equal(t, "user-1", payload.UserID)

	_, err = engine.Verify(ctx, token, "user-1", nil)
	require.Error(t, err)

	t.Run("InvalidRecipeRejectedPerOperation", func(t *testing.T) {
		bad := custom
		bad.Version = ""

		_, err := engine.Generate(ctx, "user-1", 0, nil, &bad)
		require.ErrorIs(t, err, ErrRecipeInvalid)

		_, err = engine.Verify(ctx, token, "user-1", &bad)
		require.ErrorIs(t, err, ErrRecipeInvalid)
	})

	t.Run("VersionBoundIntoToken", func(t *testing.T) {
		renamed := custom
		renamed.Version = "hex-v3"

		_, err := engine.Verify(ctx, token, "user-1", &renamed)
		require.Error(t, err)
		require.NotEmpty(t, ValidationReason(err))
	})
}
