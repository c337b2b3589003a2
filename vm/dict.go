package vm

import (
	"hash/fnv"
	"reflect"
)

// ---------------------------------------------------------------------------
// Dict: Cell to Cell multimap
// ---------------------------------------------------------------------------
//
// Keys compare by numeric value for numbers (so 1, 1.0 and 1+0i address
// the same slot), by content for strings, and by handle identity for
// symbols and every other compound variant. A key may carry several
// values, like the multimap it replaces.

type dictEntry struct {
	key Cell
	val Cell
}

// Dict is a mutable multimap from cells to cells.
type Dict struct {
	buckets map[uint64][]dictEntry
	size    int
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{buckets: make(map[uint64][]dictEntry)}
}

// CellHash hashes a cell consistently with the dict's key equality:
// numbers hash their canonical value, strings their content, everything
// else its identity.
func CellHash(c Cell) uint64 {
	switch c.Type() {
	case TagNone, TagNil:
		return 0
	case TagBool:
		if c.Bool() {
			return 1
		}
		return 2
	case TagChar:
		return uint64(c.Char()) * 0x9e3779b97f4a7c15
	case TagNumber:
		return c.Number().Hash()
	case TagString:
		h := fnv.New64a()
		for _, r := range *c.Str() {
			var buf [4]byte
			buf[0] = byte(r)
			buf[1] = byte(r >> 8)
			buf[2] = byte(r >> 16)
			buf[3] = byte(r >> 24)
			h.Write(buf[:])
		}
		return h.Sum64()
	case TagOpcode:
		return uint64(c.Opcode())
	default:
		h := fnv.New64a()
		ptr := uint64(reflect.ValueOf(c.ref).Pointer())
		for i := 0; i < 8; i++ {
			h.Write([]byte{byte(ptr >> (8 * i))})
		}
		return h.Sum64()
	}
}

// dictKeyEqual is the key equivalence: numeric for numbers, content for
// strings, identity otherwise.
func dictKeyEqual(a, b Cell) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.Number().NumEq(b.Number())
	}
	if a.IsString() && b.IsString() {
		return Equal(a, b)
	}
	return Eq(a, b)
}

// IsEmpty reports whether the dict has no entries.
func (d *Dict) IsEmpty() bool { return d.size == 0 }

// Size returns the number of stored entries.
func (d *Dict) Size() int { return d.size }

// Clear removes every entry.
func (d *Dict) Clear() {
	d.buckets = make(map[uint64][]dictEntry)
	d.size = 0
}

// Insert adds a key-value entry. Duplicate keys accumulate.
func (d *Dict) Insert(key, val Cell) {
	h := CellHash(key)
	d.buckets[h] = append(d.buckets[h], dictEntry{key: key, val: val})
	d.size++
}

// Find returns the first value stored under key.
func (d *Dict) Find(key Cell) (Cell, bool) {
	for _, e := range d.buckets[CellHash(key)] {
		if dictKeyEqual(e.key, key) {
			return e.val, true
		}
	}
	return Cell{}, false
}

// Count returns the number of entries stored under key.
func (d *Dict) Count(key Cell) int {
	n := 0
	for _, e := range d.buckets[CellHash(key)] {
		if dictKeyEqual(e.key, key) {
			n++
		}
	}
	return n
}

// Erase removes all entries stored under key and returns how many were
// dropped.
func (d *Dict) Erase(key Cell) int {
	h := CellHash(key)
	bucket := d.buckets[h]
	kept := bucket[:0]
	dropped := 0
	for _, e := range bucket {
		if dictKeyEqual(e.key, key) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		delete(d.buckets, h)
	} else {
		d.buckets[h] = kept
	}
	d.size -= dropped
	return dropped
}

// Each calls fn for every entry. Iteration order is unspecified.
func (d *Dict) Each(fn func(key, val Cell)) {
	for _, bucket := range d.buckets {
		for _, e := range bucket {
			fn(e.key, e.val)
		}
	}
}
