package relation

import (
	"encoding/binary"
	"os"

	"github.com/linhash/mahrel/errs"
)

// descriptor is the persisted header of a relation's .info file: eight
// fixed-width counters in declared order, followed by the choice vector.
// Every field is written little-endian, whatever the host's native byte
// order.
type descriptor struct {
	nattrs    uint32
	d         uint32
	sp        uint32
	npages    uint32
	ntups     uint32
	c         uint32
	insertion uint32
	splitting uint32
	cv        ChoiceVector
}

const (
	descCounters   = 8
	descCounterLen = descCounters * 4
	descItemLen    = 8 // (att, bit) as two uint32
	descLen        = descCounterLen + MaxChVec*descItemLen
)

func (desc *descriptor) marshal() []byte {
	buf := make([]byte, descLen)
	binary.LittleEndian.PutUint32(buf[0:4], desc.nattrs)
	binary.LittleEndian.PutUint32(buf[4:8], desc.d)
	binary.LittleEndian.PutUint32(buf[8:12], desc.sp)
	binary.LittleEndian.PutUint32(buf[12:16], desc.npages)
	binary.LittleEndian.PutUint32(buf[16:20], desc.ntups)
	binary.LittleEndian.PutUint32(buf[20:24], desc.c)
	binary.LittleEndian.PutUint32(buf[24:28], desc.insertion)
	binary.LittleEndian.PutUint32(buf[28:32], desc.splitting)
	for i, item := range desc.cv {
		off := descCounterLen + i*descItemLen
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(item.Att))
		binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(item.Bit))
	}
	return buf
}

func unmarshalDescriptor(buf []byte) (*descriptor, error) {
	if len(buf) < descLen {
		return nil, errs.Newf(errs.Corruption, "unmarshalDescriptor", "info file is %d bytes, want at least %d", len(buf), descLen)
	}
	desc := &descriptor{
		nattrs:    binary.LittleEndian.Uint32(buf[0:4]),
		d:         binary.LittleEndian.Uint32(buf[4:8]),
		sp:        binary.LittleEndian.Uint32(buf[8:12]),
		npages:    binary.LittleEndian.Uint32(buf[12:16]),
		ntups:     binary.LittleEndian.Uint32(buf[16:20]),
		c:         binary.LittleEndian.Uint32(buf[20:24]),
		insertion: binary.LittleEndian.Uint32(buf[24:28]),
		splitting: binary.LittleEndian.Uint32(buf[28:32]),
	}
	for i := 0; i < MaxChVec; i++ {
		off := descCounterLen + i*descItemLen
		desc.cv[i] = ChoiceItem{
			Att: int(binary.LittleEndian.Uint32(buf[off : off+4])),
			Bit: int(binary.LittleEndian.Uint32(buf[off+4 : off+8])),
		}
	}
	return desc, nil
}

// capacityHint is the per-page tuple-count heuristic used as the split
// trigger. It is a rough estimate, not real free space, and is kept exactly
// as specified (spec §9): it is not "fixed" to reflect actual page layout.
func capacityHint(nattrs uint32) uint32 {
	if nattrs == 0 {
		nattrs = 1
	}
	return 1024 / (10 * nattrs)
}

// infoStore reads and writes a relation's .info file. It is deliberately not
// built on the page abstraction: the descriptor has no page structure of its
// own, just a flat header (spec §6).
type infoStore struct {
	useMemory bool
	path      string
	mem       []byte
}

func openInfoStore(path string, useMemory bool) (*infoStore, error) {
	s := &infoStore{useMemory: useMemory, path: path}
	if useMemory {
		return s, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return nil, errs.New(errs.IO, "openInfoStore", err)
		}
	}
	return s, nil
}

func (s *infoStore) read() (*descriptor, error) {
	var buf []byte
	if s.useMemory {
		buf = s.mem
	} else {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return nil, errs.New(errs.IO, "readInfo", err)
		}
		buf = b
	}
	return unmarshalDescriptor(buf)
}

func (s *infoStore) write(desc *descriptor) error {
	buf := desc.marshal()
	if s.useMemory {
		s.mem = buf
		return nil
	}
	if err := os.WriteFile(s.path, buf, 0644); err != nil {
		return errs.New(errs.IO, "writeInfo", err)
	}
	return nil
}
