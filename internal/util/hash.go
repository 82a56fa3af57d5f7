// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"fmt"
)

// Fnv64a is the default key hasher of the hash index and the sharded cache.
// Supported: string, []byte, all int/uint widths, uintptr, fmt.Stringer.
// Other key types must come with a hasher supplied through Options.Hash;
// panicking here keeps an unsupported key from silently hashing to one slot.
func Fnv64a[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return fnv64aString(v)
	case []byte:
		return fnv64aBytes(v)
	case uint8:
		return fnv64aUint64(uint64(v))
	case uint16:
		return fnv64aUint64(uint64(v))
	case uint32:
		return fnv64aUint64(uint64(v))
	case uint64:
		return fnv64aUint64(v)
	case uint:
		return fnv64aUint64(uint64(v))
	case uintptr:
		return fnv64aUint64(uint64(v))
	case int8:
		return fnv64aUint64(uint64(uint8(v)))
	case int16:
		return fnv64aUint64(uint64(uint16(v)))
	case int32:
		return fnv64aUint64(uint64(uint32(v)))
	case int64:
		return fnv64aUint64(uint64(v))
	case int:
		return fnv64aUint64(uint64(v))
	case fmt.Stringer:
		return fnv64aString(v.String())
	default:
		panic(fmt.Sprintf("util.Fnv64a: unsupported key type %T; provide Options.Hash", k))
	}
}

// Mix64 is the splitmix64 finalizer. It spreads a weak hash (for example an
// identity hash over small integers) across all 64 bits.
func Mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

func fnv64aString(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

func fnv64aBytes(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

// fnv64aUint64 hashes the 8 little-endian bytes of u without allocating.
func fnv64aUint64(u uint64) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(u))
		h *= fnvPrime64
		u >>= 8
	}
	return h
}
