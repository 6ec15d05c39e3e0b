package rule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	v, ok := Get("variant")
	require.True(t, ok)
	assert.Equal(t, 600, v.Width)
	assert.Equal(t, int64(102400), v.MaxBytes)
	assert.NoError(t, v.Validate())

	c, ok := Get("category")
	require.True(t, ok)
	assert.Equal(t, 300, c.Width)
	assert.Equal(t, int64(20*1024), c.MaxBytes)

	_, ok = Get("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"category", "category-large", "variant"}, Names())
}

func TestGetCopiesAllowedTypes(t *testing.T) {
	a, _ := Get("variant")
	a.AllowedTypes[0] = "image/gif"
	b, _ := Get("variant")
	assert.Equal(t, "image/webp", b.AllowedTypes[0])
}

func TestValidate(t *testing.T) {
	base, _ := Get("variant")

	cases := map[string]func(r *Rule){
		"empty type":      func(r *Rule) { r.Type = "" },
		"not square":      func(r *Rule) { r.Height = 400 },
		"zero width":      func(r *Rule) { r.Width, r.Height = 0, 0 },
		"zero budget":     func(r *Rule) { r.MaxBytes = 0 },
		"start above one": func(r *Rule) { r.StartQuality = 1.2 },
		"min above start": func(r *Rule) { r.MinQuality = 0.95 },
		"zero step":       func(r *Rule) { r.QualityStep = 0 },
		"no inputs":       func(r *Rule) { r.AllowedTypes = nil },
		"nan start":       func(r *Rule) { r.StartQuality = math.NaN() },
		"nan min":         func(r *Rule) { r.MinQuality = math.NaN() },
		"nan step":        func(r *Rule) { r.QualityStep = math.NaN() },
		"tiny step":       func(r *Rule) { r.QualityStep = 1e-9 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := base
			mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrInvalidRule)
		})
	}
}

func TestAllows(t *testing.T) {
	r, _ := Get("variant")
	assert.True(t, r.Allows("image/jpeg"))
	assert.True(t, r.Allows("IMAGE/PNG"))
	assert.False(t, r.Allows("image/gif"))
	assert.False(t, r.Allows(""))
}

func TestQualities_StrictlyDecreasing(t *testing.T) {
	r, _ := Get("variant")
	qs := r.Qualities()

	require.Len(t, qs, 9)
	assert.InDelta(t, 0.92, qs[0], 1e-9)
	assert.InDelta(t, 0.36, qs[len(qs)-1], 1e-9)
	for i := 1; i < len(qs); i++ {
		assert.InDelta(t, qs[i-1]-r.QualityStep, qs[i], 1e-9)
		assert.Less(t, qs[i], qs[i-1])
		assert.GreaterOrEqual(t, qs[i], r.MinQuality)
	}
	assert.LessOrEqual(t, len(qs), r.MaxAttempts())
}

func TestQualities_ExactFloorIncluded(t *testing.T) {
	r := Rule{StartQuality: 0.9, MinQuality: 0.5, QualityStep: 0.1}
	qs := r.Qualities()
	require.Len(t, qs, 5)
	assert.InDelta(t, 0.5, qs[4], 1e-9)
	assert.Equal(t, 5, r.MaxAttempts())
}

func TestQualities_SingleAttempt(t *testing.T) {
	r := Rule{StartQuality: 0.5, MinQuality: 0.5, QualityStep: 0.1}
	assert.Equal(t, []float64{0.5}, r.Qualities())
}

func TestQualities_BoundedForUnvalidatedRules(t *testing.T) {
	r := Rule{StartQuality: 0.92, MinQuality: 0.3, QualityStep: 1e-9}
	assert.Len(t, r.Qualities(), MaxQualityAttempts)
	assert.Equal(t, MaxQualityAttempts, r.MaxAttempts())

	nan := Rule{StartQuality: math.NaN(), MinQuality: 0.3, QualityStep: 0.07}
	assert.Len(t, nan.Qualities(), 1)
	assert.Equal(t, 1, nan.MaxAttempts())
}

func TestValidate_StepAtAttemptLimit(t *testing.T) {
	r, _ := Get("variant")
	r.StartQuality, r.MinQuality, r.QualityStep = 1, 0.02, 0.01
	assert.NoError(t, r.Validate())
	assert.Len(t, r.Qualities(), 99)
}
