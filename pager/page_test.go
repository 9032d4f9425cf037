package pager

import (
	"bytes"
	"testing"
)

func TestNewPageIsEmpty(t *testing.T) {
	p := New()
	if p.NTuples() != 0 {
		t.Errorf("want 0 tuples got %d", p.NTuples())
	}
	if p.Free() != 0 {
		t.Errorf("want free 0 got %d", p.Free())
	}
	if p.Ovflow() != NoPage {
		t.Errorf("want NoPage got %d", p.Ovflow())
	}
	if p.FreeSpace() != DataSize {
		t.Errorf("want freespace %d got %d", DataSize, p.FreeSpace())
	}
}

func TestAddToPage(t *testing.T) {
	p := New()
	tuple := []byte("alpha,bravo")
	if !p.Add(tuple) {
		t.Fatal("expected tuple to fit")
	}
	if p.NTuples() != 1 {
		t.Errorf("want 1 tuple got %d", p.NTuples())
	}
	if p.Free() != len(tuple)+1 {
		t.Errorf("want free %d got %d", len(tuple)+1, p.Free())
	}
	got := p.Tuples()
	if len(got) != 1 || !bytes.Equal(got[0], tuple) {
		t.Errorf("want %v got %v", tuple, got)
	}
}

func TestAddToPageFailsWhenFull(t *testing.T) {
	p := New()
	big := bytes.Repeat([]byte("x"), DataSize)
	if p.Add(big) {
		t.Fatal("expected the tuple plus its NUL terminator to overflow the page")
	}
	if p.NTuples() != 0 {
		t.Errorf("a failed add must not mutate the page, got %d tuples", p.NTuples())
	}
}

func TestOvflowAccessors(t *testing.T) {
	p := New()
	p.SetOvflow(PageID(7))
	if got := p.Ovflow(); got != 7 {
		t.Errorf("want 7 got %d", got)
	}
	p.SetOvflow(NoPage)
	if got := p.Ovflow(); got != NoPage {
		t.Errorf("want NoPage got %d", got)
	}
}

func TestResetPreservesOvflow(t *testing.T) {
	p := New()
	p.Add([]byte("keep-the-chain"))
	p.SetOvflow(PageID(3))
	p.Reset()
	if p.NTuples() != 0 {
		t.Errorf("want 0 tuples after reset got %d", p.NTuples())
	}
	if p.Free() != 0 {
		t.Errorf("want free 0 after reset got %d", p.Free())
	}
	if p.Ovflow() != 3 {
		t.Errorf("reset must preserve the overflow link, want 3 got %d", p.Ovflow())
	}
}

func TestTuplesRoundTrip(t *testing.T) {
	p := New()
	want := [][]byte{[]byte("one,uno"), []byte("two,dos"), []byte("three,tres")}
	for _, tuple := range want {
		if !p.Add(tuple) {
			t.Fatalf("expected %q to fit", tuple)
		}
	}
	got := p.Tuples()
	if len(got) != len(want) {
		t.Fatalf("want %d tuples got %d", len(want), len(got))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("tuple %d: want %q got %q", i, want[i], got[i])
		}
	}
}

func TestFromBytesRoundTripsThroughWire(t *testing.T) {
	p := New()
	p.Add([]byte("roundtrip"))
	p.SetOvflow(PageID(42))

	p2 := FromBytes(p.Bytes())
	if p2.NTuples() != 1 {
		t.Errorf("want 1 tuple got %d", p2.NTuples())
	}
	if p2.Ovflow() != 42 {
		t.Errorf("want ovflow 42 got %d", p2.Ovflow())
	}
	got := p2.Tuples()
	if !bytes.Equal(got[0], []byte("roundtrip")) {
		t.Errorf("want roundtrip got %q", got[0])
	}
}
