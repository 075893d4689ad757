package report

// Key identifies a row. Enrolled tables key on StudentID alone and leave
// DisplayName empty; unlisted tables key on both.
type Key struct {
	StudentID   string
	DisplayName string
}

// Table is a course-wide table of one value kind: one row per student, one
// column per assignment. Cells never merged in read as Fill, so the fill
// value is chosen per table instead of a blanket zero.
type Table[T any] struct {
	Fill    T
	Columns []string

	keys  []Key
	index map[Key]int
	cells []map[string]T
}

// NewTable returns a table with a fixed set of rows, used as the left side
// of LeftMerge.
func NewTable[T any](fill T, keys []Key) *Table[T] {
	t := &Table[T]{Fill: fill, index: make(map[Key]int, len(keys))}
	for _, k := range keys {
		t.addRow(k)
	}
	return t
}

func (t *Table[T]) addRow(k Key) int {
	if i, ok := t.index[k]; ok {
		return i
	}
	t.keys = append(t.keys, k)
	t.cells = append(t.cells, make(map[string]T))
	t.index[k] = len(t.keys) - 1
	return len(t.keys) - 1
}

func (t *Table[T]) addColumn(column string) {
	for _, c := range t.Columns {
		if c == column {
			return
		}
	}
	t.Columns = append(t.Columns, column)
}

// LeftMerge adds a column holding values for the existing rows. Values for
// keys without a row are dropped; rows without a value keep Fill.
func (t *Table[T]) LeftMerge(column string, values map[Key]T) {
	t.addColumn(column)
	for k, v := range values {
		if i, ok := t.index[k]; ok {
			t.cells[i][column] = v
		}
	}
}

// OuterMerge adds a column and appends a row for every key not seen
// before, in the order given.
func (t *Table[T]) OuterMerge(column string, keys []Key, values map[Key]T) {
	t.addColumn(column)
	for _, k := range keys {
		i := t.addRow(k)
		if v, ok := values[k]; ok {
			t.cells[i][column] = v
		}
	}
}

func (t *Table[T]) Keys() []Key {
	return append([]Key(nil), t.keys...)
}

func (t *Table[T]) Get(k Key, column string) T {
	i, ok := t.index[k]
	if !ok {
		return t.Fill
	}
	v, ok := t.cells[i][column]
	if !ok {
		return t.Fill
	}
	return v
}

// Row returns the cells of k in column order.
func (t *Table[T]) Row(k Key) []T {
	row := make([]T, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = t.Get(k, c)
	}
	return row
}
