package rbtree

import (
	"bytes"
	"errors"
	"math/rand"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_AscendingInsertThenRemoveHalf(t *testing.T) {
	t.Parallel()

	tr := NewOrdered[int, int]()
	for i := 1; i <= 1024; i++ {
		require.True(t, tr.Insert(i, i*10))
		require.NoError(t, tr.Validate(), "after insert %d", i)
	}
	require.Equal(t, 1024, tr.Len())

	for i := 1; i <= 512; i++ {
		v, ok := tr.Remove(i)
		require.True(t, ok)
		require.Equal(t, i*10, v)
		require.True(t, tr.IsValid(), "after remove %d", i)
	}
	assert.Equal(t, 512, tr.Len())

	k, _, ok := tr.Min()
	require.True(t, ok)
	assert.Equal(t, 513, k)
	_, ok = tr.Lookup(100)
	assert.False(t, ok)
}

func TestTree_DuplicateInsertRejected(t *testing.T) {
	t.Parallel()

	tr := NewOrdered[string, int]()
	assert.True(t, tr.Insert("a", 1))
	assert.False(t, tr.Insert("a", 2))
	v, ok := tr.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 1, v, "duplicate insert must not overwrite")
	assert.Equal(t, 1, tr.Len())
}

func TestTree_Closest(t *testing.T) {
	t.Parallel()

	tr := NewOrdered[uint64, string]()
	for _, k := range []uint64{10, 20, 30, 40} {
		tr.Insert(k, strconv.FormatUint(k, 10))
	}

	cases := []struct {
		key         uint64
		left, right uint64
		lok, rok    bool
	}{
		{key: 5, right: 10, rok: true},
		{key: 10, left: 10, right: 10, lok: true, rok: true},
		{key: 25, left: 20, right: 30, lok: true, rok: true},
		{key: 45, left: 40, lok: true},
	}
	for _, tc := range cases {
		t.Run(strconv.FormatUint(tc.key, 10), func(t *testing.T) {
			k, _, ok := tr.ClosestLeft(tc.key)
			assert.Equal(t, tc.lok, ok)
			if ok {
				assert.Equal(t, tc.left, k)
			}
			k, v, ok := tr.ClosestRight(tc.key)
			assert.Equal(t, tc.rok, ok)
			if ok {
				assert.Equal(t, tc.right, k)
				assert.Equal(t, strconv.FormatUint(tc.right, 10), v)
			}
		})
	}

	empty := NewOrdered[uint64, string]()
	_, _, ok := empty.ClosestLeft(1)
	assert.False(t, ok)
	_, _, ok = empty.Min()
	assert.False(t, ok)
}

func TestTree_RandomOps(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(42))
	tr := NewOrdered[int, int]()
	ref := map[int]int{}

	for i := 0; i < 5000; i++ {
		k := r.Intn(300)
		if r.Intn(3) == 0 {
			_, want := ref[k]
			_, ok := tr.Remove(k)
			require.Equal(t, want, ok)
			delete(ref, k)
		} else {
			_, exists := ref[k]
			require.Equal(t, !exists, tr.Insert(k, i))
			if !exists {
				ref[k] = i
			}
		}
		if i%50 == 0 {
			require.NoError(t, tr.Validate())
		}
	}
	require.NoError(t, tr.Validate())

	keys := make([]int, 0, len(ref))
	for k := range ref {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var got []int
	for k, v := range tr.All() {
		got = append(got, k)
		require.Equal(t, ref[k], v)
	}
	assert.Equal(t, keys, got)
}

func TestTree_ValidateDetectsCorruption(t *testing.T) {
	t.Parallel()

	tr := NewOrdered[int, struct{}]()
	for i := 0; i < 16; i++ {
		tr.Insert(i, struct{}{})
	}
	require.True(t, tr.IsValid())

	tr.root.color = red
	err := tr.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	tr.root.color = black

	tr.n++
	assert.ErrorIs(t, tr.Validate(), ErrInvalid)
}

func TestTree_WriteDOT(t *testing.T) {
	t.Parallel()

	tr := NewOrdered[int, string]()
	for _, k := range []int{2, 1, 3} {
		tr.Insert(k, "v"+strconv.Itoa(k))
	}

	var buf bytes.Buffer
	require.NoError(t, tr.WriteDOT(&buf, func(k int, v string) string { return v }))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph rbtree {"))
	assert.Contains(t, out, `label="v2", fillcolor=black`)
	assert.Contains(t, out, `label="v1", fillcolor=red`)
	// three nodes and four NIL leaves
	assert.Equal(t, 4, strings.Count(out, `"NIL"`))
	assert.Equal(t, 6, strings.Count(out, "->"))
}

func FuzzTree(f *testing.F) {
	f.Add([]byte{1, 2, 3, 130, 131, 4})
	f.Fuzz(func(t *testing.T, ops []byte) {
		tr := NewOrdered[byte, struct{}]()
		for _, op := range ops {
			k := op & 0x3f
			if op&0x80 != 0 {
				tr.Remove(k)
			} else {
				tr.Insert(k, struct{}{})
			}
		}
		if err := tr.Validate(); err != nil {
			t.Fatal(err)
		}
	})
}

func BenchmarkTree_InsertRemove(b *testing.B) {
	tr := NewOrdered[int, int]()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		k := i & 1023
		if !tr.Insert(k, i) {
			tr.Remove(k)
		}
	}
}
