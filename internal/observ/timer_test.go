package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("load")
	time.Sleep(time.Millisecond)
	tm.End(idx, "3 bundles")

	report := tm.Report()
	if len(report.Phases) != 1 {
		t.Fatalf("phases = %d", len(report.Phases))
	}
	p := report.Phases[0]
	if p.Name != "load" || p.Note != "3 bundles" {
		t.Errorf("phase = %+v", p)
	}
	if p.DurationMS <= 0 {
		t.Error("duration not recorded")
	}
	if report.TotalMS < p.DurationMS {
		t.Error("total below phase sum")
	}

	if !strings.Contains(tm.Summary(), "load") {
		t.Error("summary missing phase name")
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	idx := tm.Begin("anything")
	tm.End(idx, "")
	if got := tm.Report(); len(got.Phases) != 0 {
		t.Errorf("nil timer recorded %d phases", len(got.Phases))
	}
}

func TestEndOutOfRangeIgnored(t *testing.T) {
	tm := NewTimer()
	tm.End(5, "nope")
	if len(tm.Report().Phases) != 0 {
		t.Error("out of range End recorded a phase")
	}
}
