package sunshine

import (
	"errors"
	"strings"
	"testing"
)

const journalSample = `Oct 16 10:00:01 host sunshine[812]: [2025:10:16:10:00:01]: Info: Sunshine version: v2025.1
Oct 16 10:00:01 host sunshine[812]: [2025:10:16:10:00:01]: Info: -------- Start of Wayland monitor list --------
Oct 16 10:00:01 host sunshine[812]: [2025:10:16:10:00:01]: Info: Monitor 0 is HDMI-A-1: XXX Projector (HDMI-A-1)
Oct 16 10:00:01 host sunshine[812]: [2025:10:16:10:00:01]: Info: Monitor 1 is DP-1: Dell U2720Q (DP-1)
Oct 16 10:00:01 host sunshine[812]: [2025:10:16:10:00:01]: Info: --------- End of Wayland monitor list ---------
`

func TestParseLog_DenseIndicesInEncounterOrder(t *testing.T) {
	table, err := ParseLog(journalSample)
	if err != nil {
		t.Fatalf("ParseLog error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", table.Len())
	}
	for name, want := range map[string]int{"HDMI-A-1": 0, "DP-1": 1} {
		got, ok := table.Lookup(name)
		if !ok || got != want {
			t.Fatalf("Lookup(%q) = %d, %v; want %d", name, got, ok, want)
		}
	}
	entries := table.Entries()
	if entries[0].Description != "XXX Projector (HDMI-A-1)" {
		t.Fatalf("unexpected description %q", entries[0].Description)
	}
}

func TestParseLog_EncounterOrderBeatsReportedNumber(t *testing.T) {
	text := strings.Join([]string{
		"-------- Start of Wayland monitor list --------",
		"Monitor 2 is SUNSHINE:",
		"Monitor 0 is DP-1: Dell",
		"Monitor 1 is HDMI-A-1",
		"--------- End of Wayland monitor list ---------",
	}, "\n")
	table, err := ParseLog(text)
	if err != nil {
		t.Fatalf("ParseLog error: %v", err)
	}
	got := table.Names()
	want := []string{"SUNSHINE", "DP-1", "HDMI-A-1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	if e := table.Entries()[0]; e.Reported != 2 || e.Description != "SUNSHINE" {
		t.Fatalf("unexpected first entry %+v", e)
	}
}

func TestParseLog_DuplicatesKeepFirstIndex(t *testing.T) {
	text := strings.Join([]string{
		StartSentinel,
		"Monitor 0 is DP-1: a",
		"Monitor 1 is DP-1: b",
		"Monitor 2 is DP-2: c",
		EndSentinel,
	}, "\n")
	table, err := ParseLog(text)
	if err != nil {
		t.Fatalf("ParseLog error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 entries after dedup, got %d", table.Len())
	}
	if idx, _ := table.Lookup("DP-2"); idx != 1 {
		t.Fatalf("DP-2 index = %d, want 1 (dense)", idx)
	}
	if table.Entries()[0].Description != "a" {
		t.Fatalf("duplicate replaced the first entry")
	}
}

func TestParseLog_UsesMostRecentCompleteSection(t *testing.T) {
	text := strings.Join([]string{
		StartSentinel,
		"Monitor 0 is DP-1: old",
		EndSentinel,
		"restart",
		StartSentinel,
		"Monitor 0 is HDMI-A-1: new",
		"Monitor 1 is DP-1: new",
		EndSentinel,
		StartSentinel,
		"Monitor 0 is DP-9: truncated",
	}, "\n")
	table, err := ParseLog(text)
	if err != nil {
		t.Fatalf("ParseLog error: %v", err)
	}
	if got := strings.Join(table.Names(), ","); got != "HDMI-A-1,DP-1" {
		t.Fatalf("Names() = %s, want HDMI-A-1,DP-1", got)
	}
}

func TestParseLog_MissingSentinels(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "no start", text: "Monitor 0 is DP-1: x\n" + EndSentinel},
		{name: "no end", text: StartSentinel + "\nMonitor 0 is DP-1: x\n"},
		{name: "end before start", text: EndSentinel + "\nMonitor 0 is DP-1: x\n" + StartSentinel},
		{name: "empty list", text: StartSentinel + "\nsomething else\n" + EndSentinel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseLog(tt.text)
			if !errors.Is(err, ErrNoMapping) {
				t.Fatalf("expected ErrNoMapping, got %v", err)
			}
			if table != nil {
				t.Fatalf("expected no table, got %v", table.Names())
			}
		})
	}
}

func TestTable_Equal(t *testing.T) {
	a := NewTable("DP-1", "HDMI-A-1")
	if !a.Equal(NewTable("DP-1", "HDMI-A-1")) {
		t.Fatal("expected equal tables")
	}
	if a.Equal(NewTable("HDMI-A-1", "DP-1")) {
		t.Fatal("expected different order to be unequal")
	}
	var nilTable *Table
	if !nilTable.Equal(NewTable()) {
		t.Fatal("expected nil and empty tables to be equal")
	}
}
