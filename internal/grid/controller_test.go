package grid

import (
	"context"
	"testing"
	"time"

	"flexitime/internal/domain/rollcall"
)

func TestInitializeLoadsWindowAndCatalog(t *testing.T) {
	g := newTestGrid(t, nil, func(f *fakeClient) {
		f.putEntry(rollcall.Entry{EmployeeID: "e1", Date: day(0), PresenceType: "office", Source: rollcall.SourceManual})
	})

	w := g.ct.Window()
	if !w.Start.Equal(testMonday) || w.TotalDays() != 14 {
		t.Fatalf("initial window = %s +%d days", w.Start, w.TotalDays())
	}
	if cell := g.cell(t, ref("e1", 0)); cell.Kind != CellSolid {
		t.Fatalf("loaded entry did not render, kind = %v", cell.Kind)
	}
}

func TestExpandRightGrowsByStep(t *testing.T) {
	g := newTestGrid(t, func(cfg *Config) {
		cfg.ScrollThrottle = time.Nanosecond
	}, nil)

	g.ct.expand(context.Background(), EdgeRight)

	w := g.ct.Window()
	if w.TotalDays() != 28 {
		t.Fatalf("TotalDays = %d after one step, want 28", w.TotalDays())
	}
	g.ct.grid.mu.Lock()
	expanding := g.ct.grid.isExpanding
	g.ct.grid.mu.Unlock()
	if expanding {
		t.Fatalf("isExpanding must clear after a completed expansion")
	}
}

func TestExpandLeftMergesOlderEntries(t *testing.T) {
	g := newTestGrid(t, nil, func(f *fakeClient) {
		f.putEntry(rollcall.Entry{EmployeeID: "e1", Date: day(-7), PresenceType: "office", Source: rollcall.SourceManual})
	})

	if _, ok := g.entryCache()[ref("e1", -7).Key()]; ok {
		t.Fatalf("entry outside the window must not load yet")
	}

	g.ct.expand(context.Background(), EdgeLeft)

	entry, ok := g.entryCache()[ref("e1", -7).Key()]
	if !ok || entry.PresenceType != "office" {
		t.Fatalf("left expansion must merge the older entry, got %+v", entry)
	}
	if cell := g.cell(t, ref("e1", -7)); cell.Kind != CellSolid {
		t.Fatalf("merged entry did not render, kind = %v", cell.Kind)
	}
}

func TestExpandStopsAtWindowCap(t *testing.T) {
	g := newTestGrid(t, func(cfg *Config) {
		cfg.WindowMaxDays = 42
	}, nil)

	for i := 0; i < 10; i++ {
		g.ct.expand(context.Background(), EdgeRight)
	}

	if w := g.ct.Window(); w.TotalDays() != 42 {
		t.Fatalf("TotalDays = %d, want the 42 cap", w.TotalDays())
	}
	before := g.client.eventCallCount()
	g.ct.expand(context.Background(), EdgeRight)
	if g.client.eventCallCount() != before {
		t.Fatalf("a capped window must not fetch again")
	}
}

func TestExpandFailureClearsFlagAndNotifies(t *testing.T) {
	g := newTestGrid(t, nil, nil)

	g.client.mu.Lock()
	g.client.failEvents = true
	g.client.mu.Unlock()

	g.ct.expand(context.Background(), EdgeRight)

	if g.notifier.count(NoticeError) == 0 {
		t.Fatalf("failed expansion must notify")
	}
	g.ct.grid.mu.Lock()
	expanding := g.ct.grid.isExpanding
	g.ct.grid.mu.Unlock()
	if expanding {
		t.Fatalf("isExpanding must clear after a failed expansion")
	}
	if w := g.ct.Window(); w.TotalDays() != 14 {
		t.Fatalf("a failed expansion must keep the old window, got %d days", w.TotalDays())
	}
}

func TestSetShowWeekendsRebuildsColumns(t *testing.T) {
	g := newTestGrid(t, nil, nil)

	inWindow := func(r rollcall.CellRef) bool {
		g.ct.grid.mu.Lock()
		defer g.ct.grid.mu.Unlock()
		_, ok := g.ct.grid.coordOf(r)
		return ok
	}

	g.ct.SetShowWeekends(false)
	if inWindow(ref("e1", 5)) {
		t.Fatalf("saturday column must disappear when weekends are hidden")
	}

	g.ct.SetShowWeekends(true)
	if !inWindow(ref("e1", 5)) {
		t.Fatalf("saturday column must come back")
	}
}
