package seatmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDesignator(t *testing.T) {
	assert.Equal(t, "1A", Designator(1))
	assert.Equal(t, "1F", Designator(6))
	assert.Equal(t, "2A", Designator(7))
	assert.Equal(t, "17C", Designator(99))
}

func TestEnumerate(t *testing.T) {
	seats := Enumerate(8)
	assert.Equal(t, []string{"1A", "1B", "1C", "1D", "1E", "1F", "2A", "2B"}, seats)

	assert.Nil(t, Enumerate(0))
	assert.Nil(t, Enumerate(-3))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("1A", 6))
	assert.True(t, Valid("2B", 8))
	assert.False(t, Valid("2C", 8))  // ordinal 9 of 8
	assert.False(t, Valid("0A", 60)) // no row zero
	assert.False(t, Valid("3G", 60)) // no column G
	assert.False(t, Valid("A3", 60))
	assert.False(t, Valid("", 60))
	assert.False(t, Valid("12", 60))
}

func TestProperty_ParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		i := rapid.IntRange(1, 10_000).Draw(t, "ordinal")
		got, ok := Parse(Designator(i))
		if !ok || got != i {
			t.Fatalf("round-trip failed: %d -> %q -> %d (ok=%v)", i, Designator(i), got, ok)
		}
	})
}
