package pager

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestAddPageAndGetPage(t *testing.T) {
	f, err := OpenFile("", true)
	if err != nil {
		t.Fatal(err)
	}
	id, err := f.AddPage()
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 {
		t.Errorf("want first page id 0 got %d", id)
	}
	if f.NumPages() != 1 {
		t.Errorf("want 1 page got %d", f.NumPages())
	}

	p, err := f.GetPage(id)
	if err != nil {
		t.Fatal(err)
	}
	p.Add([]byte("hello"))
	if err := f.PutPage(id, p); err != nil {
		t.Fatal(err)
	}

	reread, err := f.GetPage(id)
	if err != nil {
		t.Fatal(err)
	}
	got := reread.Tuples()
	if len(got) != 1 || !bytes.Equal(got[0], []byte("hello")) {
		t.Errorf("want [hello] got %v", got)
	}
}

func TestFilePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rel.data")

	f, err := OpenFile(path, false)
	if err != nil {
		t.Fatal(err)
	}
	id, err := f.AddPage()
	if err != nil {
		t.Fatal(err)
	}
	p, err := f.GetPage(id)
	if err != nil {
		t.Fatal(err)
	}
	p.Add([]byte("persisted"))
	if err := f.PutPage(id, p); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenFile(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.NumPages() != 1 {
		t.Errorf("want 1 page after reopen got %d", reopened.NumPages())
	}
	p2, err := reopened.GetPage(id)
	if err != nil {
		t.Fatal(err)
	}
	got := p2.Tuples()
	if len(got) != 1 || !bytes.Equal(got[0], []byte("persisted")) {
		t.Errorf("want [persisted] got %v", got)
	}
}
