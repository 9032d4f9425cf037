// Package pager implements the on-disk page format and the thin file
// abstractions the relation engine builds bucket files out of. A Page is the
// only byte-exact structure on disk; everything above this package only ever
// positions itself at id*PageSize.
package pager

import (
	"bytes"
	"encoding/binary"
)

const (
	// PageSize is the fixed size of every page in the data and overflow
	// files.
	PageSize = 1024
	// headerSize is ntuples (4) + free (4) + ovflow (4).
	headerSize = 12

	ntuplesOffset = 0
	freeOffset    = 4
	ovflowOffset  = 8

	// DataSize is the number of bytes available for packed tuples on a page.
	DataSize = PageSize - headerSize
)

// PageID addresses a page within a single file (the data file or the
// overflow file each have their own zero-based id space).
type PageID uint32

// NoPage is the sentinel meaning "no next page in this overflow chain". It
// is the all-ones value of PageID.
const NoPage PageID = ^PageID(0)

// Page is a fixed PageSize-byte in-memory buffer with the header described
// in spec §3/§4.3: a tuple count, a free-space cursor, an overflow link, and
// a packed run of NUL-terminated tuple strings filling the remainder.
type Page struct {
	content []byte
}

// New returns an empty in-memory page: ntuples=0, free=0, ovflow=NoPage.
func New() *Page {
	p := &Page{content: make([]byte, PageSize)}
	p.SetOvflow(NoPage)
	return p
}

// FromBytes wraps an existing PageSize-byte buffer (as read off disk) as a
// Page without copying it.
func FromBytes(b []byte) *Page {
	return &Page{content: b}
}

// Bytes returns the page's raw backing buffer, suitable for writing to disk
// verbatim.
func (p *Page) Bytes() []byte {
	return p.content
}

func (p *Page) NTuples() int {
	return int(binary.LittleEndian.Uint32(p.content[ntuplesOffset : ntuplesOffset+4]))
}

func (p *Page) setNTuples(n int) {
	binary.LittleEndian.PutUint32(p.content[ntuplesOffset:ntuplesOffset+4], uint32(n))
}

// Free is the byte offset into the data area where the next tuple would be
// appended.
func (p *Page) Free() int {
	return int(binary.LittleEndian.Uint32(p.content[freeOffset : freeOffset+4]))
}

func (p *Page) setFree(n int) {
	binary.LittleEndian.PutUint32(p.content[freeOffset:freeOffset+4], uint32(n))
}

// FreeSpace is the number of bytes still available in the data area.
func (p *Page) FreeSpace() int {
	return DataSize - p.Free()
}

// Ovflow returns the page-id of the next page in this bucket's overflow
// chain, or NoPage.
func (p *Page) Ovflow() PageID {
	return PageID(binary.LittleEndian.Uint32(p.content[ovflowOffset : ovflowOffset+4]))
}

// SetOvflow sets the overflow link.
func (p *Page) SetOvflow(id PageID) {
	binary.LittleEndian.PutUint32(p.content[ovflowOffset:ovflowOffset+4], uint32(id))
}

// CanAdd reports whether the serialized tuple (including its NUL
// terminator) would fit in the page's remaining free space.
func (p *Page) CanAdd(tuple []byte) bool {
	return len(tuple)+1 <= p.FreeSpace()
}

// Add appends the serialized tuple (followed by a NUL terminator) to the
// page's data area. It returns false without modifying the page if the
// tuple does not fit.
func (p *Page) Add(tuple []byte) bool {
	if !p.CanAdd(tuple) {
		return false
	}
	start := headerSize + p.Free()
	n := copy(p.content[start:], tuple)
	p.content[start+n] = 0
	p.setFree(p.Free() + len(tuple) + 1)
	p.setNTuples(p.NTuples() + 1)
	return true
}

// Reset clears the page's tuple run back to empty, preserving whatever
// overflow link it currently has. Used by the split protocol to empty each
// page of the source bucket's overflow chain in place without breaking the
// links between them (spec §4.4.3).
func (p *Page) Reset() {
	p.setNTuples(0)
	p.setFree(0)
}

// Tuples returns the tuples packed into the page's data area, in on-disk
// order (the order they were appended, modulo a Reset).
func (p *Page) Tuples() [][]byte {
	out := make([][]byte, 0, p.NTuples())
	data := p.content[headerSize : headerSize+p.Free()]
	for i := 0; i < p.NTuples(); i++ {
		idx := bytes.IndexByte(data, 0)
		if idx < 0 {
			break
		}
		tuple := make([]byte, idx)
		copy(tuple, data[:idx])
		out = append(out, tuple)
		data = data[idx+1:]
	}
	return out
}
