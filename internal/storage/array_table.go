package storage

// ArrayTable wraps an elements Table, producing and consuming the
// (start_index,length) reference pairs spec.md §4.3 describes. Elements
// are stored as the reference-width encoding of the array's element type
// (see internal/instance for how that encoding is produced/decoded) —
// ArrayTable itself only deals in already-encoded element blobs.
type ArrayTable struct {
	elements *Table
}

// NewArrayTable wraps elements as an ArrayTable.
func NewArrayTable(elements *Table) *ArrayTable {
	return &ArrayTable{elements: elements}
}

// Elements exposes the underlying elements table, e.g. for direct
// element-by-element access during load.
func (a *ArrayTable) Elements() *Table { return a.elements }

// Insert appends each element in order and returns the (start_index,
// length) reference pair. Empty input returns (0,0); readers must treat
// length==0 as the empty array regardless of start_index (spec.md §4.3).
func (a *ArrayTable) Insert(elements [][]byte) (start int, length int, err error) {
	if len(elements) == 0 {
		return 0, 0, nil
	}

	start, err = a.elements.Count()
	if err != nil {
		return 0, 0, err
	}

	for _, elem := range elements {
		if _, err := a.elements.Insert(elem); err != nil {
			return 0, 0, err
		}
	}

	return start, len(elements), nil
}

// Get returns the length consecutive element blobs starting at start.
func (a *ArrayTable) Get(start, length int) ([][]byte, error) {
	if length == 0 {
		return nil, nil
	}

	result := make([][]byte, length)

	for i := 0; i < length; i++ {
		elem, err := a.elements.Get(start + i)
		if err != nil {
			return nil, err
		}

		result[i] = elem
	}

	return result, nil
}

// Close closes the underlying elements table.
func (a *ArrayTable) Close() error {
	return a.elements.Close()
}
