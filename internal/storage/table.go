package storage

// Table is a schema-flexible in-memory dataset. Unknown columns are carried
// through untouched so that legacy files keep every field they had.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

func NewTable(columns []string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, name := range t.Columns {
		if _, exists := t.index[name]; !exists {
			t.index[name] = i
		}
	}
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether name is part of the header
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of name, or -1
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// AddColumn appends name with value filled into every row.
// It returns false when the column already exists.
func (t *Table) AddColumn(name, value string) bool {
	if t.HasColumn(name) {
		return false
	}
	t.Columns = append(t.Columns, name)
	t.index[name] = len(t.Columns) - 1
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], value)
	}
	return true
}

// AppendRow adds a row, padding or truncating it to the header width
func (t *Table) AppendRow(row []string) {
	t.Rows = append(t.Rows, t.fit(row))
}

func (t *Table) fit(row []string) []string {
	out := make([]string, len(t.Columns))
	copy(out, row)
	return out
}

// Get returns the cell at row/column, or "" for unknown columns
func (t *Table) Get(row int, column string) string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// Set writes a cell and reports whether the stored value changed
func (t *Table) Set(row int, column, value string) bool {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return false
	}
	if t.Rows[row][i] == value {
		return false
	}
	t.Rows[row][i] = value
	return true
}

// Record returns row as a column-name map
func (t *Table) Record(row int) map[string]string {
	record := make(map[string]string, len(t.Columns))
	if row < 0 || row >= len(t.Rows) {
		return record
	}
	for name, i := range t.index {
		record[name] = t.Rows[row][i]
	}
	return record
}
