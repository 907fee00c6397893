package ledger

// RawTable is an unnormalized tabular ledger as it arrives from an export
// file: a header row plus string cells. The normalizer is the only consumer;
// all typed coercion happens there.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}

	return -1
}

// HasColumn reports whether the named column exists.
func (t *RawTable) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// HasColumns reports whether every named column exists.
func (t *RawTable) HasColumns(names ...string) bool {
	for _, name := range names {
		if !t.HasColumn(name) {
			return false
		}
	}

	return true
}

// Cell returns the value at the given row for the named column. Returns the
// empty string when the column does not exist or the row is short.
func (t *RawTable) Cell(row int, name string) string {
	idx := t.ColumnIndex(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return ""
	}

	return t.Rows[row][idx]
}
