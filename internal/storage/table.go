// Package storage implements spec.md §4.2–§4.4: the append-only
// fixed-width Table, its ArrayTable wrapper, and the StorageManager that
// owns a directory of such tables keyed by type name.
package storage

import (
	"io"
	"os"

	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/ttlog"
)

// Table is an append-only file of fixed-width records over one on-disk
// type. It is purely byte-oriented: callers are responsible for
// encoding/decoding the logical value on either side (the primitive codec
// for scalar tables, or the composite/array reference encoding for
// everything else) — this mirrors spec.md §4.2, which describes the
// on-disk layout as "N records back-to-back" with count derived from file
// size, independent of what those bytes mean.
type Table struct {
	path  string
	width uint
	file  *os.File
}

// OpenTable opens (creating if necessary) the table file at path, sized
// to fixed-width records of width bytes. If the file's size is not an
// exact multiple of width, the trailing partial record is truncated away
// (spec.md §4.2's "partial writes leave the file in a state where the
// trailing bytes are ignored on re-open").
func OpenTable(path string, width uint) (*Table, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, ttcore.NewStorageError("open", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, ttcore.NewStorageError("stat", path, err)
	}

	complete := (info.Size() / int64(width)) * int64(width)
	if complete != info.Size() {
		if err := file.Truncate(complete); err != nil {
			file.Close()
			return nil, ttcore.NewStorageError("truncate", path, err)
		}

		ttlog.Table(path).WithField("discarded_bytes", info.Size()-complete).
			Warn("truncating incomplete trailing record")
	}

	return &Table{path: path, width: width, file: file}, nil
}

// Width returns the fixed record width of this table, in bytes.
func (t *Table) Width() uint { return t.width }

// Count returns the number of complete records currently stored.
func (t *Table) Count() (int, error) {
	info, err := t.file.Stat()
	if err != nil {
		return 0, ttcore.NewStorageError("stat", t.path, err)
	}

	return int(info.Size() / int64(t.width)), nil
}

// Insert appends record (which must be exactly Width() bytes) and returns
// its index, per spec.md §3.2 inv. 6: issued indices never change and
// never alias another record, since inserts are always appended under a
// single write syscall at the current end-of-file.
func (t *Table) Insert(record []byte) (int, error) {
	if uint(len(record)) != t.width {
		return 0, &ttcore.WidthMismatchError{Expected: int(t.width), Actual: len(record)}
	}

	count, err := t.Count()
	if err != nil {
		return 0, err
	}

	if _, err := t.file.Seek(0, io.SeekEnd); err != nil {
		return 0, ttcore.NewStorageError("seek", t.path, err)
	}

	if _, err := t.file.Write(record); err != nil {
		return 0, ttcore.NewStorageError("write", t.path, err)
	}

	return count, nil
}

// Get reads the record at index.
func (t *Table) Get(index int) ([]byte, error) {
	count, err := t.Count()
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= count {
		return nil, &ttcore.IndexError{Index: index, Count: count}
	}

	buf := make([]byte, t.width)

	if _, err := t.file.ReadAt(buf, int64(index)*int64(t.width)); err != nil {
		return nil, ttcore.NewStorageError("read", t.path, err)
	}

	return buf, nil
}

// Update overwrites the record at index in place. Count is unchanged,
// since the write replaces an existing fixed-width record rather than
// appending (spec.md §3.4, §8 invariant 6).
func (t *Table) Update(index int, record []byte) error {
	if uint(len(record)) != t.width {
		return &ttcore.WidthMismatchError{Expected: int(t.width), Actual: len(record)}
	}

	count, err := t.Count()
	if err != nil {
		return err
	}

	if index < 0 || index >= count {
		return &ttcore.IndexError{Index: index, Count: count}
	}

	if _, err := t.file.WriteAt(record, int64(index)*int64(t.width)); err != nil {
		return ttcore.NewStorageError("write", t.path, err)
	}

	return nil
}

// Close flushes and releases the underlying file handle.
func (t *Table) Close() error {
	if err := t.file.Close(); err != nil {
		return ttcore.NewStorageError("close", t.path, err)
	}

	return nil
}
