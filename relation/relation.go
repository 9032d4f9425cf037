// Package relation implements the multi-attribute linear-hash engine: the
// three-file bucket layout, hash-based bucket addressing, insertion with
// on-the-fly splitting, and the diagnostic bucket walk. The wildcard query
// engine built on top of it lives in query.go.
package relation

import (
	"bytes"
	"os"

	"github.com/rs/zerolog"

	"github.com/linhash/mahrel/bitutil"
	"github.com/linhash/mahrel/errs"
	"github.com/linhash/mahrel/hash"
	"github.com/linhash/mahrel/pager"
)

// Relation owns the three bucket files (.info, .data, .ovflow) backing a
// single MAH-indexed table, plus the in-memory descriptor kept in sync with
// the info file.
type Relation struct {
	path      string
	useMemory bool
	nattrs    int

	info   *infoStore
	data   *pager.File
	ovflow *pager.File
	lock   *pager.RelationLock
	desc   *descriptor

	log zerolog.Logger
}

func infoPath(base string) string   { return base + ".info" }
func dataPath(base string) string   { return base + ".data" }
func ovflowPath(base string) string { return base + ".ovflow" }

func newLogger(path string) zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Str("relation", path).Logger()
}

// NewRelation creates the three backing files for a fresh relation, with
// npages empty primary pages pre-allocated and the choice vector parsed from
// cvStr. It fails if a relation is already open at path (see
// pager.LockRelationFile).
func NewRelation(path string, useMemory bool, nattrs, npages, depth int, cvStr string) (*Relation, error) {
	if nattrs <= 0 {
		return nil, errs.Newf(errs.Parse, "newRelation", "nattrs must be positive, got %d", nattrs)
	}
	if npages <= 0 {
		return nil, errs.Newf(errs.Parse, "newRelation", "npages must be positive, got %d", npages)
	}
	cv, err := ParseChoiceVector(cvStr)
	if err != nil {
		return nil, err
	}

	lock, err := pager.LockRelationFile(infoPath(path), useMemory)
	if err != nil {
		return nil, err
	}
	info, err := openInfoStore(infoPath(path), useMemory)
	if err != nil {
		lock.Close()
		return nil, err
	}
	data, err := pager.OpenFile(dataPath(path), useMemory)
	if err != nil {
		lock.Close()
		return nil, err
	}
	ovflow, err := pager.OpenFile(ovflowPath(path), useMemory)
	if err != nil {
		data.Close()
		lock.Close()
		return nil, err
	}

	desc := &descriptor{
		nattrs: uint32(nattrs),
		d:      uint32(depth),
		sp:     0,
		c:      capacityHint(uint32(nattrs)),
		cv:     cv,
	}
	for i := 0; i < npages; i++ {
		id, err := data.AddPage()
		if err != nil {
			ovflow.Close()
			data.Close()
			lock.Close()
			return nil, err
		}
		if int(id) != i {
			ovflow.Close()
			data.Close()
			lock.Close()
			return nil, errs.Newf(errs.Corruption, "newRelation", "unexpected primary page id %d, want %d", id, i)
		}
		desc.npages++
	}

	r := &Relation{
		path: path, useMemory: useMemory, nattrs: nattrs,
		info: info, data: data, ovflow: ovflow, lock: lock, desc: desc,
		log: newLogger(path),
	}
	if err := r.info.write(r.desc); err != nil {
		ovflow.Close()
		data.Close()
		lock.Close()
		return nil, err
	}
	r.log.Info().Int("nattrs", nattrs).Int("npages", npages).Int("depth", depth).Str("cv", cvStr).Msg("relation created")
	return r, nil
}

// OpenRelation rehydrates a relation's descriptor from an existing set of
// bucket files. It fails with errs.NotFound, without creating anything on
// disk, when the relation's info file doesn't already exist.
func OpenRelation(path string, useMemory bool) (*Relation, error) {
	if !useMemory {
		if _, err := os.Stat(infoPath(path)); err != nil {
			if os.IsNotExist(err) {
				return nil, errs.Newf(errs.NotFound, "openRelation", "relation %q does not exist", path)
			}
			return nil, errs.New(errs.IO, "openRelation", err)
		}
	}

	lock, err := pager.LockRelationFile(infoPath(path), useMemory)
	if err != nil {
		return nil, err
	}
	info, err := openInfoStore(infoPath(path), useMemory)
	if err != nil {
		lock.Close()
		return nil, err
	}
	desc, err := info.read()
	if err != nil {
		lock.Close()
		return nil, err
	}
	data, err := pager.OpenFile(dataPath(path), useMemory)
	if err != nil {
		lock.Close()
		return nil, err
	}
	ovflow, err := pager.OpenFile(ovflowPath(path), useMemory)
	if err != nil {
		data.Close()
		lock.Close()
		return nil, err
	}
	r := &Relation{
		path: path, useMemory: useMemory, nattrs: int(desc.nattrs),
		info: info, data: data, ovflow: ovflow, lock: lock, desc: desc,
		log: newLogger(path),
	}
	r.log.Info().Uint32("d", desc.d).Uint32("sp", desc.sp).Uint32("npages", desc.npages).Msg("relation opened")
	return r, nil
}

// Close flushes the descriptor back to the info file and releases the
// relation's files and lock.
func (r *Relation) Close() error {
	writeErr := r.info.write(r.desc)
	dataErr := r.data.Close()
	ovflowErr := r.ovflow.Close()
	lockErr := r.lock.Close()
	r.log.Info().Msg("relation closed")
	for _, err := range []error{writeErr, dataErr, ovflowErr, lockErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// NAttrs is the relation's fixed schema width.
func (r *Relation) NAttrs() int { return r.nattrs }

func compositeHash(fields [][]byte, cv ChoiceVector) uint32 {
	var h uint32
	for i, item := range cv {
		// cv is zero-padded past its parsed entries; item.Att == 0 there, which
		// is always in range, so this only skips genuinely out-of-range indices.
		if item.Att >= len(fields) {
			continue
		}
		digest := hash.Of(item.Att, fields[item.Att])
		if bitutil.IsSet(digest, uint(item.Bit)) {
			h = bitutil.Set(h, uint(i))
		}
	}
	return h
}

// bucketAddr applies the MAH addressing rule of spec §4.4.1: low d bits,
// bumped to d+1 bits when that falls below the split pointer.
func bucketAddr(h uint32, d, sp uint32) uint32 {
	p := bitutil.Lower(h, uint(d))
	if p < sp {
		p = bitutil.Lower(h, uint(d+1))
	}
	return p
}

func (r *Relation) splitFields(raw string) ([][]byte, error) {
	fields := bytes.Split([]byte(raw), []byte(","))
	if len(fields) != r.nattrs {
		return nil, errs.Newf(errs.Parse, "insert", "tuple has %d attributes, relation has %d", len(fields), r.nattrs)
	}
	for _, f := range fields {
		if len(f) == 0 {
			return nil, errs.Newf(errs.Parse, "insert", "tuple attribute must not be empty")
		}
		if bytes.IndexByte(f, 0) >= 0 {
			return nil, errs.Newf(errs.Parse, "insert", "tuple attribute must not contain a NUL byte")
		}
	}
	return fields, nil
}

// Insert adds tuple (a comma-joined string of nattrs non-empty fields) to
// the relation, triggering a split first if the per-page insertion budget
// has been exhausted (spec §4.4.2). It returns the id of the primary page
// the tuple's bucket hashes to.
func (r *Relation) Insert(raw string) (pager.PageID, error) {
	fields, err := r.splitFields(raw)
	if err != nil {
		return 0, err
	}

	if r.desc.splitting == 0 && r.desc.insertion == r.desc.c {
		r.desc.splitting = 1
		if err := r.split(); err != nil {
			return 0, err
		}
		r.desc.splitting = 0
		r.desc.insertion = 0
	}

	h := compositeHash(fields, r.desc.cv)
	p := bucketAddr(h, r.desc.d, r.desc.sp)
	serialized := bytes.Join(fields, []byte(","))

	if err := r.insertIntoBucket(pager.PageID(p), serialized); err != nil {
		return 0, err
	}
	if r.desc.splitting == 0 {
		r.desc.ntups++
		r.desc.insertion++
	}
	return pager.PageID(p), nil
}

// insertIntoBucket walks the primary page and its overflow chain looking for
// room, allocating a fresh overflow page as a last resort (spec §4.4.2 steps
// 3-5).
func (r *Relation) insertIntoBucket(primaryID pager.PageID, tuple []byte) error {
	primary, err := r.data.GetPage(primaryID)
	if err != nil {
		return err
	}
	if primary.CanAdd(tuple) {
		primary.Add(tuple)
		return r.data.PutPage(primaryID, primary)
	}

	lastIsData := true
	lastID := primaryID
	last := primary
	for last.Ovflow() != pager.NoPage {
		nextID := last.Ovflow()
		next, err := r.ovflow.GetPage(nextID)
		if err != nil {
			return err
		}
		if next.CanAdd(tuple) {
			next.Add(tuple)
			return r.ovflow.PutPage(nextID, next)
		}
		lastIsData = false
		lastID = nextID
		last = next
	}

	newID, err := r.ovflow.AddPage()
	if err != nil {
		return err
	}
	fresh, err := r.ovflow.GetPage(newID)
	if err != nil {
		return err
	}
	if !fresh.CanAdd(tuple) {
		return errs.Newf(errs.NoSpace, "insert", "tuple of %d bytes does not fit on a fresh page", len(tuple))
	}
	fresh.Add(tuple)
	if err := r.ovflow.PutPage(newID, fresh); err != nil {
		return err
	}
	last.SetOvflow(newID)
	if lastIsData {
		return r.data.PutPage(lastID, last)
	}
	return r.ovflow.PutPage(lastID, last)
}

// split extends the address space by one bucket, re-inserting everything
// bucket sp held under the new depth (spec §4.4.3). The caller is
// responsible for having already set desc.splitting so the re-inserts below
// do not bump ntups/insertion.
func (r *Relation) split() error {
	sp := r.desc.sp
	d := r.desc.d

	newID, err := r.data.AddPage()
	if err != nil {
		return err
	}
	if want := pager.PageID(sp + (1 << d)); newID != want {
		return errs.Newf(errs.Corruption, "split", "expected new bucket id %d got %d", want, newID)
	}
	r.desc.npages++

	srcID := pager.PageID(sp)
	srcPrimary, err := r.data.GetPage(srcID)
	if err != nil {
		return err
	}
	tuples := append([][]byte{}, srcPrimary.Tuples()...)

	var chainIDs []pager.PageID
	walk := srcPrimary
	for walk.Ovflow() != pager.NoPage {
		nextID := walk.Ovflow()
		next, err := r.ovflow.GetPage(nextID)
		if err != nil {
			return err
		}
		tuples = append(tuples, next.Tuples()...)
		chainIDs = append(chainIDs, nextID)
		walk = next
	}

	fresh := pager.New()
	fresh.SetOvflow(srcPrimary.Ovflow())
	if err := r.data.PutPage(srcID, fresh); err != nil {
		return err
	}
	for _, id := range chainIDs {
		p, err := r.ovflow.GetPage(id)
		if err != nil {
			return err
		}
		p.Reset()
		if err := r.ovflow.PutPage(id, p); err != nil {
			return err
		}
	}

	r.desc.sp++

	for _, t := range tuples {
		if _, err := r.Insert(string(t)); err != nil {
			return err
		}
	}

	if r.desc.sp == (1 << r.desc.d) {
		r.desc.d++
		r.desc.sp = 0
	}

	r.log.Debug().Uint32("d", r.desc.d).Uint32("sp", r.desc.sp).Uint32("npages", r.desc.npages).Int("reinserted", len(tuples)).Msg("split complete")
	return nil
}

// BucketStat is one primary-or-overflow page in a bucket's chain, in walk
// order, as reported by Stats.
type BucketStat struct {
	ID        pager.PageID
	NTuples   int
	FreeBytes int
	Ovflow    pager.PageID
}

// Stats is the diagnostic snapshot produced by relationStats (spec §4.4.4):
// the global counters plus, per bucket, its full chain.
type Stats struct {
	NAttrs    int
	D         uint32
	SP        uint32
	NPages    uint32
	NTups     uint32
	C         uint32
	Insertion uint32
	Buckets   [][]BucketStat
}

// Stats walks every bucket's primary page and overflow chain and reports the
// global counters alongside the per-bucket layout.
func (r *Relation) Stats() (Stats, error) {
	s := Stats{
		NAttrs: r.nattrs, D: r.desc.d, SP: r.desc.sp, NPages: r.desc.npages,
		NTups: r.desc.ntups, C: r.desc.c, Insertion: r.desc.insertion,
	}
	for id := pager.PageID(0); id < pager.PageID(r.desc.npages); id++ {
		page, err := r.data.GetPage(id)
		if err != nil {
			return Stats{}, err
		}
		chain := []BucketStat{{ID: id, NTuples: page.NTuples(), FreeBytes: page.FreeSpace(), Ovflow: page.Ovflow()}}
		next := page.Ovflow()
		for next != pager.NoPage {
			op, err := r.ovflow.GetPage(next)
			if err != nil {
				return Stats{}, err
			}
			chain = append(chain, BucketStat{ID: next, NTuples: op.NTuples(), FreeBytes: op.FreeSpace(), Ovflow: op.Ovflow()})
			next = op.Ovflow()
		}
		s.Buckets = append(s.Buckets, chain)
	}
	return s, nil
}
