package cache

import (
	"testing"

	"github.com/IvanBrykalov/freqcache/policy"
	"github.com/IvanBrykalov/freqcache/policy/lfu"
	"github.com/IvanBrykalov/freqcache/policy/lfuda"
)

// Fuzz an operation stream against both policies. Each byte is one op:
// the low 5 bits pick the key, the top bits pick Get/Touch/Remove/Peek.
// The full invariant check runs after every op.
func FuzzCache_Ops(f *testing.F) {
	f.Add([]byte{1, 2, 1, 3}, uint8(2), false)
	f.Add([]byte{0, 0, 0, 1, 2, 3, 4, 5, 0x41, 0x81, 0xc2}, uint8(3), true)
	f.Add([]byte{}, uint8(1), true)

	f.Fuzz(func(t *testing.T, ops []byte, capacity uint8, aging bool) {
		var pol policy.Policy = lfu.New()
		if aging {
			pol = lfuda.New(uint64(capacity%3 + 1))
		}
		c := New(Options[byte, byte]{
			Capacity: int(capacity%16) + 1,
			Policy:   pol,
			Fetch:    func(k byte) byte { return k ^ 0x5a },
		})
		for i, op := range ops {
			k := op & 0x1f
			switch op >> 6 {
			case 0:
				if v, ok := c.Get(k); !ok || v != k^0x5a {
					t.Fatalf("op %d: Get(%d) = %d,%v", i, k, v, ok)
				}
			case 1:
				c.Touch(k)
			case 2:
				c.Remove(k)
			default:
				if v, ok := c.Peek(k); ok && v != k^0x5a {
					t.Fatalf("op %d: Peek(%d) = %d", i, k, v)
				}
			}
			if c.Len() > c.Cap() {
				t.Fatalf("op %d: len %d > cap %d", i, c.Len(), c.Cap())
			}
			if err := c.Validate(); err != nil {
				t.Fatalf("op %d: %v", i, err)
			}
		}
	})
}
