package relation

import (
	"bytes"

	"github.com/linhash/mahrel/bitutil"
	"github.com/linhash/mahrel/errs"
	"github.com/linhash/mahrel/hash"
	"github.com/linhash/mahrel/pager"
)

// Query is the iterator a wildcard pattern compiles to (spec §4.5). Each
// call to Next streams the next matching tuple, resuming across calls until
// every candidate bucket has been exhausted. A Query holds a non-owning
// handle on its Relation; it must not outlive the relation it was created
// from.
type Query struct {
	r       *Relation
	pattern [][]byte

	known    uint32
	starBits []int

	bitSeq    uint32
	bitSeqMax uint32

	pending    [][]byte
	pendingIdx int
	exhausted  bool
}

func isWildcard(field []byte) bool {
	return len(field) == 1 && field[0] == '?'
}

// NewQuery compiles pattern against the relation's current depth and choice
// vector. Non-wildcard attributes contribute known bits; wildcarded
// attributes that fall within the bottom d+1 choice-vector positions become
// star bits to enumerate over.
func (r *Relation) NewQuery(pattern string) (*Query, error) {
	fields := bytes.Split([]byte(pattern), []byte(","))
	if len(fields) != r.nattrs {
		return nil, errs.Newf(errs.Parse, "query", "pattern has %d attributes, relation has %d", len(fields), r.nattrs)
	}

	q := &Query{r: r, pattern: fields}
	d := r.desc.d
	for i := 0; i <= int(d); i++ {
		item := r.desc.cv[i]
		// cv is zero-padded past its parsed entries; item.Att == 0 there, which
		// is always in range, so this only skips genuinely out-of-range indices.
		if item.Att >= len(fields) {
			continue
		}
		field := fields[item.Att]
		if isWildcard(field) {
			q.starBits = append(q.starBits, i)
			continue
		}
		digest := hash.Of(item.Att, field)
		if bitutil.IsSet(digest, uint(item.Bit)) {
			q.known = bitutil.Set(q.known, uint(i))
		}
	}
	nstars := len(q.starBits)
	q.bitSeqMax = (uint32(1) << uint(nstars)) - 1
	return q, nil
}

func (q *Query) unknownBits(bitSeq uint32) uint32 {
	var u uint32
	for j, pos := range q.starBits {
		if bitutil.IsSet(bitSeq, uint(j)) {
			u = bitutil.Set(u, uint(pos))
		}
	}
	return u
}

// addrForBitSeq addresses the candidate bucket for one value of bitSeq,
// implementing the §4.5.2 distinction between a known and an unknown bit at
// position d. ok is false when the bucket doesn't exist yet (high buckets
// not yet split into).
func (q *Query) addrForBitSeq(bitSeq uint32) (pager.PageID, bool) {
	r := q.r
	malHash := q.known | q.unknownBits(bitSeq)
	d := r.desc.d

	highestStarIsD := len(q.starBits) > 0 && q.starBits[len(q.starBits)-1] == int(d)
	if !highestStarIsD {
		return pager.PageID(bucketAddr(malHash, d, r.desc.sp)), true
	}

	p := bitutil.Lower(malHash, uint(d)+1)
	if pager.PageID(p) >= pager.PageID(r.desc.npages) {
		return 0, false
	}
	return pager.PageID(p), true
}

func (r *Relation) bucketTuples(id pager.PageID) ([][]byte, error) {
	page, err := r.data.GetPage(id)
	if err != nil {
		return nil, err
	}
	out := append([][]byte{}, page.Tuples()...)
	next := page.Ovflow()
	for next != pager.NoPage {
		op, err := r.ovflow.GetPage(next)
		if err != nil {
			return nil, err
		}
		out = append(out, op.Tuples()...)
		next = op.Ovflow()
	}
	return out, nil
}

func (q *Query) matches(fields [][]byte) bool {
	for i, pf := range q.pattern {
		if isWildcard(pf) {
			continue
		}
		if !bytes.Equal(fields[i], pf) {
			return false
		}
	}
	return true
}

// Next returns the next tuple (split into its comma-separated fields)
// matching the pattern, or ok=false once every candidate bucket has been
// scanned.
func (q *Query) Next() (fields [][]byte, ok bool, err error) {
	if q.exhausted {
		return nil, false, nil
	}
	for {
		for q.pendingIdx < len(q.pending) {
			raw := q.pending[q.pendingIdx]
			q.pendingIdx++
			f := bytes.Split(raw, []byte(","))
			if q.matches(f) {
				return f, true, nil
			}
		}
		if q.bitSeq > q.bitSeqMax {
			q.exhausted = true
			return nil, false, nil
		}
		id, bucketOK := q.addrForBitSeq(q.bitSeq)
		q.bitSeq++
		if !bucketOK {
			continue
		}
		tuples, err := q.r.bucketTuples(id)
		if err != nil {
			return nil, false, err
		}
		q.pending = tuples
		q.pendingIdx = 0
	}
}
