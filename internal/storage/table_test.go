package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curious-machines/typed-tables/internal/storage"
	"github.com/curious-machines/typed-tables/internal/ttcore"
)

func TestTableInsertAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.bin")

	table, err := storage.OpenTable(path, 4)
	require.NoError(t, err)
	defer table.Close()

	idx0, err := table.Insert([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 0, idx0)

	idx1, err := table.Insert([]byte{5, 6, 7, 8})
	require.NoError(t, err)
	assert.Equal(t, 1, idx1)

	got, err := table.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)

	count, err := table.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTableInsertWidthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.bin")

	table, err := storage.OpenTable(path, 4)
	require.NoError(t, err)
	defer table.Close()

	_, err = table.Insert([]byte{1, 2, 3})
	require.Error(t, err)

	var widthErr *ttcore.WidthMismatchError
	assert.ErrorAs(t, err, &widthErr)
}

func TestTableGetIndexOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.bin")

	table, err := storage.OpenTable(path, 4)
	require.NoError(t, err)
	defer table.Close()

	_, err = table.Insert([]byte{1, 2, 3, 4})
	require.NoError(t, err)

	_, err = table.Get(1)
	require.Error(t, err)

	var idxErr *ttcore.IndexError
	assert.ErrorAs(t, err, &idxErr)

	_, err = table.Get(-1)
	require.Error(t, err)
	assert.ErrorAs(t, err, &idxErr)
}

func TestTableUpdateInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.bin")

	table, err := storage.OpenTable(path, 4)
	require.NoError(t, err)
	defer table.Close()

	_, err = table.Insert([]byte{1, 2, 3, 4})
	require.NoError(t, err)

	require.NoError(t, table.Update(0, []byte{9, 9, 9, 9}))

	got, err := table.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9, 9}, got)

	count, err := table.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTableReopenTruncatesPartialTrailingRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.bin")

	table, err := storage.OpenTable(path, 4)
	require.NoError(t, err)

	_, err = table.Insert([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, table.Close())

	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xff, 0xff})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := storage.OpenTable(path, 4)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestArrayTableEmptyInsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget_elements.bin")

	elements, err := storage.OpenTable(path, 8)
	require.NoError(t, err)

	arrTable := storage.NewArrayTable(elements)
	defer arrTable.Close()

	start, length, err := arrTable.Insert(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, length)

	got, err := arrTable.Get(0, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestArrayTableInsertAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget_elements.bin")

	elements, err := storage.OpenTable(path, 8)
	require.NoError(t, err)

	arrTable := storage.NewArrayTable(elements)
	defer arrTable.Close()

	start, length, err := arrTable.Insert([][]byte{
		{0, 0, 0, 0, 0, 0, 0, 1},
		{0, 0, 0, 0, 0, 0, 0, 2},
		{0, 0, 0, 0, 0, 0, 0, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, length)

	got, err := arrTable.Get(start, length)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, byte(2), got[1][7])

	start2, _, err := arrTable.Insert([][]byte{{0, 0, 0, 0, 0, 0, 0, 4}})
	require.NoError(t, err)
	assert.Equal(t, 3, start2)
}
