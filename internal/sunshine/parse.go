// Package sunshine derives the streaming target order from Sunshine's log.
//
// Sunshine prints the Wayland outputs it can capture between two sentinel
// lines. The order of that listing is the order the client-side hotkeys
// select, which is not necessarily the physical left-to-right order.
package sunshine

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	StartSentinel = "Start of Wayland monitor list"
	EndSentinel   = "End of Wayland monitor list"
)

// ErrNoMapping means a log source did not contain a usable monitor list.
var ErrNoMapping = errors.New("no monitor mapping available")

// Examples:
//
//	Monitor 0 is HDMI-A-1: XXX Projector (HDMI-A-1)
//	Monitor 2 is SUNSHINE:
//	Monitor 3 is DP-2
var monitorLine = regexp.MustCompile(`Monitor\s+(\d+)\s+is\s+([^\s:]+)\s*(?::\s*(.*))?$`)

// Entry is one monitor as listed by Sunshine.
type Entry struct {
	Index       int    // assigned target index (encounter order)
	Reported    int    // the <N> Sunshine printed
	Name        string // compositor output name, e.g. "DP-1"
	Description string
}

// Table maps output names to target indices. It is immutable once built.
type Table struct {
	entries []Entry
	byName  map[string]int
}

// NewTable builds a table from names in encounter order. Duplicates keep
// their first index.
func NewTable(names ...string) *Table {
	entries := make([]Entry, 0, len(names))
	for i, name := range names {
		entries = append(entries, Entry{Reported: i, Name: name})
	}
	return newTable(entries)
}

func newTable(found []Entry) *Table {
	t := &Table{byName: make(map[string]int, len(found))}
	for _, e := range found {
		if _, dup := t.byName[e.Name]; dup {
			continue
		}
		e.Index = len(t.entries)
		t.byName[e.Name] = e.Index
		t.entries = append(t.entries, e)
	}
	return t
}

// Lookup returns the target index for an output name.
func (t *Table) Lookup(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	idx, ok := t.byName[name]
	return idx, ok
}

// Len returns the number of distinct outputs.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the table in index order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Names returns output names in index order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Name
	}
	return out
}

// Equal reports whether two tables assign the same indices.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i, name := range t.Names() {
		if idx, ok := other.Lookup(name); !ok || idx != i {
			return false
		}
	}
	return true
}

// ParseLog extracts the most recent complete monitor list from log text.
// A start sentinel without a following end sentinel is ignored; if no
// complete section exists, or the section lists no monitors, ErrNoMapping
// is returned and no partial table is produced.
func ParseLog(text string) (*Table, error) {
	var (
		section  []string
		inside   bool
		complete [][]string
		sawStart bool
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, StartSentinel):
			// A restart mid-listing discards the unterminated section.
			inside = true
			sawStart = true
			section = section[:0]
		case strings.Contains(line, EndSentinel):
			if inside {
				complete = append(complete, append([]string(nil), section...))
			}
			inside = false
		case inside:
			section = append(section, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMapping, err)
	}

	if len(complete) == 0 {
		if !sawStart {
			return nil, fmt.Errorf("%w: start marker %q not found", ErrNoMapping, StartSentinel)
		}
		return nil, fmt.Errorf("%w: end marker %q not found", ErrNoMapping, EndSentinel)
	}

	last := complete[len(complete)-1]
	var found []Entry
	for _, line := range last {
		m := monitorLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		reported, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		desc := strings.TrimSpace(m[3])
		if desc == "" {
			desc = m[2]
		}
		found = append(found, Entry{Reported: reported, Name: m[2], Description: desc})
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: monitor list is empty", ErrNoMapping)
	}

	return newTable(found), nil
}
