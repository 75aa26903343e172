package scanstats

import (
	"strings"
	"testing"
)

func TestNewStartsClock(t *testing.T) {
	s := New()
	if s.StartTime.IsZero() {
		t.Error("New() should set StartTime")
	}
}

func TestStringReportsCounters(t *testing.T) {
	s := New()
	s.FilesEncountered.Store(10)
	s.SetsFound.Store(2)
	s.SpaceOccupied.Store(1024)

	out := s.String()
	for _, want := range []string{"10", "2 sets", "KiB"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() = %q, missing %q", out, want)
		}
	}
}
