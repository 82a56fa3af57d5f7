package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPow2(t *testing.T) {
	t.Parallel()

	cases := map[uint64]uint64{0: 1, 1: 1, 2: 2, 3: 4, 17: 32, 1 << 40: 1 << 40, 1<<63 + 1: 1 << 63}
	for in, want := range cases {
		assert.Equal(t, want, NextPow2(in), "NextPow2(%d)", in)
	}
}

func TestPrevPow2(t *testing.T) {
	t.Parallel()

	cases := map[uint64]uint64{0: 0, 1: 1, 2: 2, 3: 2, 17: 16, 1 << 40: 1 << 40, ^uint64(0): 1 << 63}
	for in, want := range cases {
		assert.Equal(t, want, PrevPow2(in), "PrevPow2(%d)", in)
	}
}

func TestShardIndex_UsesHighBits(t *testing.T) {
	t.Parallel()

	// Same low bits, different high bits: must land on different shards.
	a := uint64(1)<<32 | 7
	b := uint64(2)<<32 | 7
	assert.NotEqual(t, ShardIndex(a, 8), ShardIndex(b, 8))
	assert.Equal(t, 0, ShardIndex(a, 1))
	assert.Less(t, ShardIndex(^uint64(0), 6), 6)
}

func TestFnv64a_KeyTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, fnv64aString("abc"), fnv64aBytes([]byte("abc")))
	assert.Equal(t, Fnv64a("abc"), fnv64aString("abc"))
	assert.Equal(t, Fnv64a(int64(42)), Fnv64a(42))
	assert.NotEqual(t, Fnv64a(1), Fnv64a(2))
	assert.Panics(t, func() { Fnv64a(struct{ x int }{1}) })
}

func TestMix64_Spreads(t *testing.T) {
	t.Parallel()

	seen := make(map[uint64]struct{})
	for i := uint64(0); i < 1024; i++ {
		seen[Mix64(i)>>54] = struct{}{}
	}
	// 1024 inputs over 1024 top-10-bit buckets: expect wide coverage.
	assert.Greater(t, len(seen), 500)
}
