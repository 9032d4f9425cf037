package pager

import "github.com/linhash/mahrel/errs"

// File is a page-aligned file: page i occupies bytes [i*PageSize,
// (i+1)*PageSize). It does not cache pages across calls — spec §5 requires
// every operation to fetch fresh copies, so a straightforward implementation
// cannot suffer stale-cache anomalies. Each GetPage allocates a new buffer;
// each PutPage writes it back and the caller is done with it.
type File struct {
	store    storage
	numPages PageID
}

// OpenFile opens (or creates) a page-aligned file at path, or an in-memory
// equivalent when useMemory is true. The existing page count is derived
// from the underlying storage size so reopening a file resumes with the
// right id for the next AddPage.
func OpenFile(path string, useMemory bool) (*File, error) {
	var s storage
	var err error
	if useMemory {
		s = newMemoryStorage()
	} else {
		s, err = newFileStorage(path)
		if err != nil {
			return nil, err
		}
	}
	size, err := s.Size()
	if err != nil {
		return nil, err
	}
	return &File{store: s, numPages: PageID(size / PageSize)}, nil
}

// NumPages is the number of pages currently allocated in the file.
func (f *File) NumPages() PageID {
	return f.numPages
}

// GetPage reads page id off disk into a fresh buffer.
func (f *File) GetPage(id PageID) (*Page, error) {
	buf := make([]byte, PageSize)
	if _, err := f.store.ReadAt(buf, int64(id)*PageSize); err != nil {
		return nil, errs.New(errs.IO, "getPage", err)
	}
	return FromBytes(buf), nil
}

// PutPage writes page back to its slot at id, consuming it: the caller
// should not touch p again afterwards.
func (f *File) PutPage(id PageID, p *Page) error {
	if _, err := f.store.WriteAt(p.Bytes(), int64(id)*PageSize); err != nil {
		return errs.New(errs.IO, "putPage", err)
	}
	return nil
}

// AddPage appends a fresh empty page and returns its id. The page is
// flushed to disk immediately so NumPages and on-disk size stay in sync.
func (f *File) AddPage() (PageID, error) {
	id := f.numPages
	if err := f.PutPage(id, New()); err != nil {
		return 0, err
	}
	f.numPages++
	return id, nil
}

// Close releases the underlying storage.
func (f *File) Close() error {
	return f.store.Close()
}
