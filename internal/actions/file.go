package actions

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"daybook/internal/fileutil"
)

var (
	checkboxRe   = regexp.MustCompile(`^(\s*)- \[( |x|X)\] (.*)$`)
	idCommentRe  = regexp.MustCompile(`\s*<!--\s*id:([0-9a-fA-F-]+)\s*-->\s*$`)
	annotationRe = regexp.MustCompile(`\s*\((due|owner|status|source|created|waiting-on):\s*([^)]*)\)`)
)

// List is one checkbox file: the master list or a per-entity satellite.
// Non-checkbox lines (headings, notes) are preserved byte-for-byte; only
// lines whose item changed during the session are re-rendered.
type List struct {
	Path   string
	Entity string

	lines []string
	// itemLine maps an item index to its line index; -1 for appended items.
	items    []*Item
	itemLine []int
	dirty    map[int]bool
}

// LoadList parses a checkbox file. Missing files yield an empty list bound
// to the path.
func LoadList(path string) (*List, error) {
	list := &List{Path: path, Entity: entityFromPath(path), dirty: make(map[int]bool)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return list, nil
		}
		return nil, fmt.Errorf("read action list: %w", err)
	}
	for idx, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		list.lines = append(list.lines, line)
		if item, ok := parseLine(line); ok {
			list.items = append(list.items, item)
			list.itemLine = append(list.itemLine, idx)
		}
	}
	return list, nil
}

func entityFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Items returns the parsed items in file order.
func (l *List) Items() []*Item {
	return l.items
}

// Find returns the first item matched by the predicate.
func (l *List) Find(match func(*Item) bool) *Item {
	for _, item := range l.items {
		if match(item) {
			return item
		}
	}
	return nil
}

// MarkDirty records that an item was mutated and its line must be
// re-rendered on save.
func (l *List) MarkDirty(item *Item) {
	for i, candidate := range l.items {
		if candidate == item {
			l.dirty[i] = true
			return
		}
	}
}

// Append adds a new item to the end of the file.
func (l *List) Append(item *Item) {
	l.items = append(l.items, item)
	l.itemLine = append(l.itemLine, -1)
	l.dirty[len(l.items)-1] = true
}

// ModTime returns the file's last modification time, zero when the file does
// not exist yet.
func (l *List) ModTime() time.Time {
	info, err := os.Stat(l.Path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Save rewrites the file atomically, keeping untouched lines as they were.
func (l *List) Save() error {
	if len(l.dirty) == 0 {
		return nil
	}
	lines := make([]string, len(l.lines))
	copy(lines, l.lines)
	var appended []string
	for i, item := range l.items {
		if !l.dirty[i] {
			continue
		}
		if l.itemLine[i] >= 0 {
			lines[l.itemLine[i]] = RenderLine(*item)
		} else {
			appended = append(appended, RenderLine(*item))
		}
	}
	base := len(lines)
	lines = append(lines, appended...)
	content := strings.Join(lines, "\n") + "\n"
	if err := fileutil.WriteFileAtomic(l.Path, []byte(content), 0o644); err != nil {
		return err
	}
	// Re-sync the in-memory view so a later mutation and save still lands
	// on the right line.
	l.lines = lines
	next := base
	for i := range l.items {
		if l.itemLine[i] < 0 {
			l.itemLine[i] = next
			next++
		}
	}
	l.dirty = make(map[int]bool)
	return nil
}

// parseLine reads one checkbox line into an Item. Lines that are not
// checkboxes return false.
func parseLine(line string) (*Item, bool) {
	match := checkboxRe.FindStringSubmatch(line)
	if match == nil {
		return nil, false
	}
	item := &Item{Status: StatusOpen}
	if match[2] == "x" || match[2] == "X" {
		item.Status = StatusCompleted
	}
	rest := match[3]

	if id := idCommentRe.FindStringSubmatch(rest); id != nil {
		item.ID = strings.ToLower(id[1])
		rest = idCommentRe.ReplaceAllString(rest, "")
	}
	for _, annotation := range annotationRe.FindAllStringSubmatch(rest, -1) {
		value := strings.TrimSpace(annotation[2])
		switch annotation[1] {
		case "due":
			if due, err := time.Parse(DateLayout, value); err == nil {
				item.Due = due
			}
		case "owner":
			item.Owner = value
		case "waiting-on":
			item.Owner = value
			item.Delegated = true
		case "status":
			if status, ok := ParseStatus(value); ok && item.Status != StatusCompleted {
				item.Status = status
			}
		case "source":
			item.Source = value
		case "created":
			if created, err := time.Parse(DateLayout, value); err == nil {
				item.Created = created
			}
		}
	}
	item.Title = strings.TrimSpace(annotationRe.ReplaceAllString(rest, ""))
	return item, item.Title != ""
}

// RenderLine writes an item back out in the canonical checkbox form.
func RenderLine(item Item) string {
	var b strings.Builder
	if item.Completed() {
		b.WriteString("- [x] ")
	} else {
		b.WriteString("- [ ] ")
	}
	b.WriteString(item.Title)
	if !item.Due.IsZero() {
		fmt.Fprintf(&b, " (due: %s)", item.Due.Format(DateLayout))
	}
	if item.Owner != "" {
		if item.Delegated {
			fmt.Fprintf(&b, " (waiting-on: %s)", item.Owner)
		} else {
			fmt.Fprintf(&b, " (owner: %s)", item.Owner)
		}
	}
	if item.Status != StatusOpen && item.Status != StatusCompleted {
		fmt.Fprintf(&b, " (status: %s)", item.Status)
	}
	if item.Source != "" {
		fmt.Fprintf(&b, " (source: %s)", item.Source)
	}
	if !item.Created.IsZero() {
		fmt.Fprintf(&b, " (created: %s)", item.Created.Format(DateLayout))
	}
	if item.ID != "" {
		fmt.Fprintf(&b, " <!-- id:%s -->", item.ID)
	}
	return b.String()
}
