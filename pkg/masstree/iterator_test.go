// pkg/masstree/iterator_test.go
package masstree

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"
	"testing"
)

func TestIterator_AscendingOrder(t *testing.T) {
	tree := Create()

	keys := []string{"banana", "apple", "cherry", "date", "elderberry"}
	for _, k := range keys {
		if err := Put(tree, []byte(k), k); err != nil {
			t.Fatalf("Put %q failed: %v", k, err)
		}
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var got []string
	it := IterFrom(tree, nil)
	for it.Next() {
		got = append(got, string(it.Key()))
	}

	if len(got) != len(sorted) {
		t.Fatalf("expected %d keys, got %d: %v", len(sorted), len(got), got)
	}
	for i := range sorted {
		if got[i] != sorted[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], sorted[i])
		}
	}
}

func TestIterator_FromMidpoint(t *testing.T) {
	tree := Create()
	for i := 0; i < 20; i++ {
		key := []byte(fmt.Sprintf("k%02d", i))
		Put(tree, key, i)
	}

	it := IterFrom(tree, []byte("k10"))
	var got []int
	for it.Next() {
		var v int
		fmt.Sscanf(string(it.Key()), "k%d", &v)
		got = append(got, v)
	}

	if len(got) != 10 {
		t.Fatalf("expected 10 keys from k10 onward, got %d: %v", len(got), got)
	}
	for i, v := range got {
		if v != 10+i {
			t.Errorf("index %d: got %d, want %d", i, v, 10+i)
		}
	}
}

func TestIterator_EmptyTree(t *testing.T) {
	tree := Create()
	it := IterFrom(tree, nil)
	if it.Next() {
		t.Error("expected no keys in an empty tree")
	}
}

func TestIterator_CrossesLayerBoundary(t *testing.T) {
	tree := Create()

	keys := [][]byte{
		{1, 1, 1, 1, 1, 1, 1, 1, 3},
		{1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 2},
		{2},
		{0},
	}
	for _, k := range keys {
		if err := Put(tree, k, fmt.Sprintf("%v", k)); err != nil {
			t.Fatalf("Put %v failed: %v", k, err)
		}
	}

	sortedKeys := append([][]byte(nil), keys...)
	sort.Slice(sortedKeys, func(i, j int) bool {
		return bytes.Compare(sortedKeys[i], sortedKeys[j]) < 0
	})

	it := IterFrom(tree, nil)
	i := 0
	for it.Next() {
		if !bytes.Equal(it.Key(), sortedKeys[i]) {
			t.Errorf("index %d: got %v, want %v", i, it.Key(), sortedKeys[i])
		}
		i++
	}
	if i != len(sortedKeys) {
		t.Errorf("expected %d keys, got %d", len(sortedKeys), i)
	}
}

func TestIterator_MatchesOracleRandomized(t *testing.T) {
	tree := Create()
	oracle := map[string]int{}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		klen := rng.Intn(20) + 1
		k := make([]byte, klen)
		for j := range k {
			k[j] = byte(rng.Intn(4)) // small alphabet to force key collisions/prefixes
		}
		v := rng.Int()
		if err := Put(tree, k, v); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		oracle[string(k)] = v
	}

	var oracleKeys []string
	for k := range oracle {
		oracleKeys = append(oracleKeys, k)
	}
	sort.Strings(oracleKeys)

	var gotKeys []string
	it := IterFrom(tree, nil)
	for it.Next() {
		k := string(it.Key())
		gotKeys = append(gotKeys, k)
		if it.Value() != oracle[k] {
			t.Errorf("key %q: got %v, want %v", k, it.Value(), oracle[k])
		}
	}

	if len(gotKeys) != len(oracleKeys) {
		t.Fatalf("expected %d keys, got %d", len(oracleKeys), len(gotKeys))
	}
	for i := range oracleKeys {
		if gotKeys[i] != oracleKeys[i] {
			t.Errorf("index %d: got %q, want %q", i, gotKeys[i], oracleKeys[i])
		}
	}
}
