// Package overview maintains the week overview artifact: a markdown table
// keyed by (day, meeting name). Updates rewrite only the addressed row, so
// manual edits to every other line survive byte-for-byte.
package overview

import (
	"fmt"
	"os"
	"strings"

	"daybook/internal/fileutil"
	"daybook/internal/prep"
)

var columns = []string{"Day", "Meeting", "Time", "Category", "Prep", "Type"}

// Row is one meeting line in the overview table.
type Row struct {
	Day      string
	Meeting  string
	Time     string
	Category string
	Status   string
	Type     string

	// raw holds the original file line; empty for rows created or touched
	// during this session, which are rendered fresh on save.
	raw string
}

// Key identifies a row within the table.
func (r Row) Key() string {
	return normalizeKey(r.Day) + "|" + normalizeKey(r.Meeting)
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Table is a loaded week overview document.
type Table struct {
	path     string
	preamble []string
	rows     []*Row
	trailer  []string
}

// New creates an empty overview document for a week.
func New(path string, week int) *Table {
	return &Table{
		path: path,
		preamble: []string{
			fmt.Sprintf("# Week %02d Overview", week),
			"",
		},
	}
}

// Load parses an existing overview file. A missing file returns an empty
// table bound to the path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Table{path: path}, nil
		}
		return nil, fmt.Errorf("read overview: %w", err)
	}

	table := &Table{path: path}
	inTable := false
	tableDone := false
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		isRow := strings.HasPrefix(trimmed, "|")
		switch {
		case !inTable && !isRow:
			table.preamble = append(table.preamble, line)
		case !inTable && isRow:
			inTable = true
			// Header and separator lines are regenerated on save.
			if !isHeaderOrSeparator(trimmed) {
				table.appendParsed(line)
			}
		case inTable && isRow && !tableDone:
			if !isHeaderOrSeparator(trimmed) {
				table.appendParsed(line)
			}
		default:
			tableDone = true
			table.trailer = append(table.trailer, line)
		}
	}
	return table, nil
}

func isHeaderOrSeparator(trimmed string) bool {
	cells := splitCells(trimmed)
	if len(cells) == 0 {
		return false
	}
	if strings.EqualFold(cells[0], columns[0]) {
		return true
	}
	return strings.Trim(cells[0], "-: ") == ""
}

func (t *Table) appendParsed(line string) {
	cells := splitCells(strings.TrimSpace(line))
	row := &Row{raw: line}
	get := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	row.Day = get(0)
	row.Meeting = get(1)
	row.Time = get(2)
	row.Category = get(3)
	row.Status = get(4)
	row.Type = get(5)
	t.rows = append(t.rows, row)
}

func splitCells(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, strings.TrimSpace(part))
	}
	return cells
}

// Rows returns the table's rows in document order.
func (t *Table) Rows() []Row {
	out := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, *row)
	}
	return out
}

// Upsert inserts a row or updates the one with the same (day, meeting) key.
// The touched row is re-rendered; all others keep their original bytes.
func (t *Table) Upsert(row Row) {
	row.raw = ""
	for i, existing := range t.rows {
		if existing.Key() == row.Key() {
			t.rows[i] = &row
			return
		}
	}
	t.rows = append(t.rows, &row)
}

// SetStatus updates just the prep column of the addressed row, reporting
// whether the row exists.
func (t *Table) SetStatus(day, meeting string, status prep.Status) bool {
	key := normalizeKey(day) + "|" + normalizeKey(meeting)
	for _, row := range t.rows {
		if row.Key() == key {
			row.Status = status.Icon()
			row.raw = ""
			return true
		}
	}
	return false
}

// Save writes the document atomically: preamble, regenerated header,
// original bytes for untouched rows, rendered lines for touched ones.
func (t *Table) Save() error {
	var b strings.Builder
	for _, line := range t.preamble {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(t.preamble) == 0 {
		b.WriteString("# Week Overview\n\n")
	}
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")
	for _, row := range t.rows {
		if row.raw != "" {
			b.WriteString(row.raw)
		} else {
			b.WriteString(renderRow(*row))
		}
		b.WriteByte('\n')
	}
	for _, line := range t.trailer {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return fileutil.WriteFileAtomic(t.path, []byte(b.String()), 0o644)
}

func renderRow(row Row) string {
	cells := []string{row.Day, row.Meeting, row.Time, row.Category, row.Status, row.Type}
	return "| " + strings.Join(cells, " | ") + " |"
}
