package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curious-machines/typed-tables/internal/schemalang"
	"github.com/curious-machines/typed-tables/internal/storage"
)

func TestManagerGetTableForComposite(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		type Point {
			x: uint32,
			y: uint32
		}
	`)
	require.NoError(t, err)

	dir := t.TempDir()
	mgr, err := storage.New(dir, reg)
	require.NoError(t, err)
	defer mgr.Close()

	table, err := mgr.GetTable("Point")
	require.NoError(t, err)
	assert.Equal(t, uint(8), table.Width()) // x (uint32, 4 bytes) + y (uint32, 4 bytes)

	_, err = os.Stat(filepath.Join(dir, "Point.bin"))
	require.NoError(t, err)

	// Second call returns the same open table, not a new one.
	again, err := mgr.GetTable("Point")
	require.NoError(t, err)
	assert.Same(t, table, again)
}

func TestManagerGetTableForPrimitiveAlias(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins("alias uuid as uint128")
	require.NoError(t, err)

	dir := t.TempDir()
	mgr, err := storage.New(dir, reg)
	require.NoError(t, err)
	defer mgr.Close()

	table, err := mgr.GetTable("uuid")
	require.NoError(t, err)
	assert.Equal(t, uint(16), table.Width())
}

func TestManagerGetTableRejectsArray(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		type Node {
			value: uint8,
			children: Node[]
		}
	`)
	require.NoError(t, err)

	dir := t.TempDir()
	mgr, err := storage.New(dir, reg)
	require.NoError(t, err)
	defer mgr.Close()

	_, err = mgr.GetTable("Node[]")
	require.Error(t, err)
}

func TestManagerFileNamingSanitizesArraySuffix(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		alias names as character[]
	`)
	require.NoError(t, err)

	dir := t.TempDir()
	mgr, err := storage.New(dir, reg)
	require.NoError(t, err)
	defer mgr.Close()

	arr, err := mgr.GetArrayTable("names")
	require.NoError(t, err)

	start, length, err := arr.Insert([][]byte{{'h', 0, 0, 0}, {'i', 0, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, length)

	_, err = os.Stat(filepath.Join(dir, "names_elements.bin"))
	require.NoError(t, err)
}

func TestManagerCloseClosesAllTables(t *testing.T) {
	reg, err := schemalang.ParseWithBuiltins(`
		type Point {
			x: uint32,
			y: uint32
		}
	`)
	require.NoError(t, err)

	dir := t.TempDir()
	mgr, err := storage.New(dir, reg)
	require.NoError(t, err)

	_, err = mgr.GetTable("Point")
	require.NoError(t, err)

	require.NoError(t, mgr.Close())
}
