// Copyright (c) 2025 The pngler authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package table implements a prefix table for matching short binary keys,
// such as file signatures, against the leading bytes of a buffer.
package table

// TableSize matches the uint16 hash space of the prefix hash.
const TableSize = 65536

// PrefixTable stores key-value pairs keyed by short byte strings and supports
// walking all stored keys that prefix a given input. The marker array lets a
// negative probe bail out after a single indexed load per input byte; the
// hash folds each byte in with a 2-bit shift, so keys longer than 8 bytes may
// collide and are disambiguated by the exact-match map.
type PrefixTable[T any] struct {
	table [TableSize]byte
	elems map[string]T
}

// Marker states for a prefix hash slot.
const (
	none = iota
	presentMarker // some stored key passes through this prefix
	elemMarker    // this prefix is itself a stored key
)

// New creates an empty PrefixTable.
func New[T any]() *PrefixTable[T] {
	return &PrefixTable[T]{
		elems: make(map[string]T),
	}
}

// Insert adds a key-value pair, marking every prefix of key on the way.
func (t *PrefixTable[T]) Insert(key []byte, v T) {
	var h uint16
	for _, b := range key {
		h = (h << 2) + uint16(b)
		// An elemMarker set by a shorter key must not be downgraded.
		t.table[h] = max(t.table[h], presentMarker)
	}
	t.table[h] = elemMarker
	t.elems[string(key)] = v
}

// Get retrieves the value stored under the exact key.
func (t *PrefixTable[T]) Get(key []byte) (T, bool) {
	v, found := t.elems[string(key)]
	return v, found
}

// Walk calls onMatch for every stored key that is a prefix of key, shortest
// first, stopping early when onMatch returns true or when no stored key
// continues past the current byte.
func (t *PrefixTable[T]) Walk(key []byte, onMatch func(T) bool) {
	var h uint16
	for i, b := range key {
		h = (h << 2) + uint16(b)

		marker := t.table[h]
		if marker == none {
			return
		}
		if marker == elemMarker {
			v, ok := t.elems[string(key[:i+1])]
			if ok && onMatch(v) {
				return
			}
		}
	}
}

// Size returns the number of stored key-value pairs.
func (t *PrefixTable[T]) Size() int {
	return len(t.elems)
}
