// Package hash provides the deterministic 32-bit digest the relation engine
// hashes attribute values with. The only contract that matters is that the
// same bytes, hashed under the same attribute index, always produce the same
// digest — within a single build of this package, across runs and
// processes, since bucket placement is derived from it and persisted to
// disk.
package hash

import "github.com/spaolacci/murmur3"

// attrSeed decorrelates the digest across attribute positions so that two
// attributes holding identical bytes don't collide bit-for-bit. Without
// this, a choice vector drawing bits from several attributes of the same
// value would effectively be drawing the same bits over and over.
func attrSeed(attr int) uint32 {
	return uint32(attr)*0x9E3779B9 + 0x85EBCA6B
}

// Of returns the 32-bit digest of value as the attr-th attribute of a tuple.
func Of(attr int, value []byte) uint32 {
	return murmur3.Sum32WithSeed(value, attrSeed(attr))
}
