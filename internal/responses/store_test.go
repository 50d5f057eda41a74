package responses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-4, 0},
		{-3, -3},
		{-1, -1},
		{0, 0},
		{2, 2},
		{3, 3},
		{4, 0},
		{1000, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%d)", tc.in)
	}
}

func TestNormalizeString(t *testing.T) {
	cases := map[string]int{
		"3":    3,
		" -2 ": -2,
		"7":    0,
		"abc":  0,
		"":     0,
		"1.5":  0,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeString(in), "NormalizeString(%q)", in)
	}
}

func TestNewStoreIsNeutral(t *testing.T) {
	s := New(5)
	require.Equal(t, 5, s.Len())
	for id := 0; id < 5; id++ {
		assert.Equal(t, Neutral, s.Get(id), "id %d", id)
	}
	assert.Zero(t, New(-1).Len(), "negative size yields an empty store")
}

func TestSetNormalizesAndIgnoresUnknownIDs(t *testing.T) {
	s := New(3)
	s.Set(0, 2)
	s.Set(1, 9)
	s.Set(7, 3)
	s.Set(-1, 3)

	assert.Equal(t, 2, s.Get(0))
	assert.Equal(t, 0, s.Get(1), "out-of-range write stores neutral")
	assert.Equal(t, 0, s.Get(7), "unknown id reads as neutral")
	assert.Equal(t, 3, s.Len(), "store never grows")
}

func TestNormalizationIdempotent(t *testing.T) {
	for _, v := range []int{-9, -3, 0, 2, 3, 4, 99} {
		a := New(1)
		a.Set(0, Normalize(v))

		b := New(1)
		b.Set(0, v)
		for i := 0; i < 3; i++ {
			b.Set(0, Normalize(b.Get(0)))
		}
		assert.Equal(t, a.Get(0), b.Get(0), "value %d", v)
	}
}

func TestResetAndValuesCopy(t *testing.T) {
	s := New(2)
	s.Set(0, -3)
	s.Set(1, 3)

	values := s.Values()
	values[0] = 1
	assert.Equal(t, -3, s.Get(0), "Values returns a copy")

	s.Reset()
	assert.Equal(t, []int{0, 0}, s.Values())
	assert.Equal(t, 2, s.Len())
}

func TestLabelCoversScale(t *testing.T) {
	for _, v := range Options {
		assert.NotEmpty(t, Label(v), "label for %d", v)
	}
	assert.Equal(t, "neutral", Label(9))
}
