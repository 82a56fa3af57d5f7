package util

import "runtime"

// ReasonableShardCount picks a default shard count from CPU parallelism:
// nextPow2(2*GOMAXPROCS), clamped to [1..256].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	n := int(NextPow2(uint64(p * 2)))
	if n > 256 {
		n = 256
	}
	return n
}

// ShardIndex maps a 64-bit hash to a shard index.
// The high 32 bits select the shard: the per-shard hash index reduces the
// same hash modulo its table size, so sharing the low bits would leave most
// of each shard's table empty.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	hi := hash >> 32
	if IsPowerOfTwo(uint64(shards)) {
		return int(hi & uint64(shards-1))
	}
	return int(hi % uint64(shards))
}
