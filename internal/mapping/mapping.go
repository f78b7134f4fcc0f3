// Package mapping implements the persistent, immutable map that backs context
// propagation state.
//
// A [Map] associates variable identities (opaque uint64 keys) with arbitrary
// values. Maps are never mutated, deriving a map with [Map.Set] produces a new
// Map sharing all unchanged structure with its predecessor. Two Maps compare
// equal with == if and only if they are the same derivation, which is what
// lets callers check "is this still the mapping I installed?" by identity
// rather than by contents.
package mapping

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	radix  = 6          // Number of key bits consumed per trie level
	fanout = 1 << radix // Maximum number of children per node
	mask   = fanout - 1 // Extracts the bottom radix bits of a key
)

// Map is an immutable mapping of variable identities to values.
//
// The zero value is the empty Map and is ready to use. All methods are safe
// for concurrent use because a Map can never change once created.
type Map struct {
	root *node
	size int
}

// node is a single bitmap-indexed trie node. The bitmap records which of the
// 64 possible slots at this level are occupied, entries holds the occupied
// slots in ascending bit order.
type node struct {
	bitmap  uint64
	entries []entry
}

// entry is one occupied slot in a node. It is either a leaf (child == nil, key
// and value are meaningful) or an interior link (child != nil).
type entry struct {
	value any
	child *node
	key   uint64
}

// Get returns the value associated with key and whether it was present.
func (m Map) Get(key uint64) (value any, ok bool) {
	n := m.root
	shift := 0
	for n != nil {
		bit := uint64(1) << ((key >> shift) & mask)
		if n.bitmap&bit == 0 {
			return nil, false
		}

		e := n.entries[index(n.bitmap, bit)]
		if e.child == nil {
			if e.key == key {
				return e.value, true
			}
			return nil, false
		}

		n = e.child
		shift += radix
	}

	return nil, false
}

// Set returns a new Map in which key is associated with value and every other
// key is associated exactly as it was in m. The receiver is unchanged.
func (m Map) Set(key uint64, value any) Map {
	root, replaced := insert(m.root, key, value, 0)
	size := m.size
	if !replaced {
		size++
	}

	return Map{root: root, size: size}
}

// Len returns the number of keys present in the Map.
func (m Map) Len() int {
	return m.size
}

// String returns a compact debug representation of the Map. Iteration order
// follows the trie so it is stable for any given derivation history.
func (m Map) String() string {
	builder := &strings.Builder{}
	builder.WriteByte('{')
	first := true
	walk(m.root, func(key uint64, value any) {
		if !first {
			builder.WriteString(", ")
		}
		first = false
		fmt.Fprintf(builder, "%d: %v", key, value)
	})
	builder.WriteByte('}')

	return builder.String()
}

// index converts a bitmap bit into an index into a node's entries slice by
// counting the occupied slots below it.
func index(bitmap, bit uint64) int {
	return bits.OnesCount64(bitmap & (bit - 1))
}

// insert returns a copy of n in which key maps to value, path copying only the
// nodes along the route from the root to the affected slot. replaced reports
// whether key was already present.
func insert(n *node, key uint64, value any, shift int) (inserted *node, replaced bool) {
	bit := uint64(1) << ((key >> shift) & mask)

	if n == nil {
		return &node{
			bitmap:  bit,
			entries: []entry{{key: key, value: value}},
		}, false
	}

	idx := index(n.bitmap, bit)

	if n.bitmap&bit == 0 {
		// Free slot, splice a new leaf into a copied node
		entries := make([]entry, 0, len(n.entries)+1)
		entries = append(entries, n.entries[:idx]...)
		entries = append(entries, entry{key: key, value: value})
		entries = append(entries, n.entries[idx:]...)

		return &node{bitmap: n.bitmap | bit, entries: entries}, false
	}

	// Occupied slot, copy the node then fix up the one entry
	entries := make([]entry, len(n.entries))
	copy(entries, n.entries)
	copied := &node{bitmap: n.bitmap, entries: entries}

	e := entries[idx]
	switch {
	case e.child != nil:
		// Interior link, recurse one level down
		child, wasReplaced := insert(e.child, key, value, shift+radix)
		entries[idx] = entry{child: child}
		return copied, wasReplaced
	case e.key == key:
		// Same key, rebind in place (of the copy)
		entries[idx] = entry{key: key, value: value}
		return copied, true
	default:
		// Two distinct keys collide at this level, push the existing leaf
		// down a level then insert on top of it. Distinct keys must differ
		// in some chunk so this terminates.
		child, _ := insert(nil, e.key, e.value, shift+radix)
		child, _ = insert(child, key, value, shift+radix)
		entries[idx] = entry{child: child}
		return copied, false
	}
}

// walk visits every leaf under n in trie order.
func walk(n *node, visit func(key uint64, value any)) {
	if n == nil {
		return
	}

	for _, e := range n.entries {
		if e.child != nil {
			walk(e.child, visit)
		} else {
			visit(e.key, e.value)
		}
	}
}
