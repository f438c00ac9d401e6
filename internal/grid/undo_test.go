package grid

import (
	"context"
	"fmt"
	"testing"

	"flexitime/internal/domain/rollcall"
)

func TestUndoRestoresOverwrittenEntries(t *testing.T) {
	g := newTestGrid(t, hideWeekends, func(f *fakeClient) {
		f.putEntry(rollcall.Entry{EmployeeID: "e1", Date: day(0), PresenceType: "office", Source: rollcall.SourceManual})
	})

	refs := []rollcall.CellRef{ref("e1", 0), ref("e1", 1)}
	g.ct.Data.ApplyToSelection(context.Background(), refs, "remote")
	if g.ct.Undo.Depth() != 1 {
		t.Fatalf("bulk apply should leave one undo record, depth = %d", g.ct.Undo.Depth())
	}

	g.ct.Undo.UndoLast(context.Background())

	cache := g.entryCache()
	if entry, ok := cache[ref("e1", 0).Key()]; !ok || entry.PresenceType != "office" {
		t.Fatalf("undo must restore the original office entry, got %+v", cache[ref("e1", 0).Key()])
	}
	if _, ok := cache[ref("e1", 1).Key()]; ok {
		t.Fatalf("undo must delete the entry that did not exist before")
	}
	if g.ct.Undo.Depth() != 0 {
		t.Fatalf("undo should pop the record, depth = %d", g.ct.Undo.Depth())
	}
}

func TestUndoRestoresSplitEntries(t *testing.T) {
	g := newTestGrid(t, hideWeekends, func(f *fakeClient) {
		f.putEntry(rollcall.Entry{
			EmployeeID: "e1", Date: day(0), IsHalfDay: true,
			AMPresenceType: "office", PMPresenceType: "remote", Source: rollcall.SourceManual,
		})
	})

	g.ct.Data.ApplyToSelection(context.Background(), []rollcall.CellRef{ref("e1", 0)}, "office")
	g.ct.Undo.UndoLast(context.Background())

	entry, ok := g.entryCache()[ref("e1", 0).Key()]
	if !ok || !entry.IsHalfDay || entry.AMPresenceType != "office" || entry.PMPresenceType != "remote" {
		t.Fatalf("undo must restore the split pair, got %+v", entry)
	}
}

func TestUndoFailureKeepsRecord(t *testing.T) {
	g := newTestGrid(t, hideWeekends, nil)

	g.ct.Data.ApplyToSelection(context.Background(), []rollcall.CellRef{ref("e1", 0)}, "office")
	if g.ct.Undo.Depth() != 1 {
		t.Fatalf("expected one record before the failed undo")
	}

	g.client.mu.Lock()
	g.client.failBulk = true
	g.client.mu.Unlock()

	g.ct.Undo.UndoLast(context.Background())
	if g.ct.Undo.Depth() != 1 {
		t.Fatalf("a failed undo must keep the record for retry, depth = %d", g.ct.Undo.Depth())
	}
	if g.notifier.count(NoticeError) == 0 {
		t.Fatalf("failed undo must surface an error notice")
	}

	g.client.mu.Lock()
	g.client.failBulk = false
	g.client.mu.Unlock()

	g.ct.Undo.UndoLast(context.Background())
	if g.ct.Undo.Depth() != 0 {
		t.Fatalf("retried undo should pop the record, depth = %d", g.ct.Undo.Depth())
	}
	if _, ok := g.entryCache()[ref("e1", 0).Key()]; ok {
		t.Fatalf("retried undo must clear the written cell")
	}
}

func TestUndoStackIsBounded(t *testing.T) {
	g := newTestGrid(t, func(cfg *Config) {
		hideWeekends(cfg)
		cfg.UndoCapacity = 3
	}, nil)

	for i := 0; i < 5; i++ {
		record := g.ct.Undo.PrepareUndoState([]rollcall.CellRef{ref("e1", i)}, fmt.Sprintf("step %d", i))
		g.ct.Undo.PushUndo(record)
	}
	if g.ct.Undo.Depth() != 3 {
		t.Fatalf("stack depth = %d, want the configured cap 3", g.ct.Undo.Depth())
	}
}

func TestUndoOnEmptyStackHints(t *testing.T) {
	g := newTestGrid(t, hideWeekends, nil)

	g.ct.Undo.UndoLast(context.Background())
	if g.notifier.count(NoticeHint) == 0 {
		t.Fatalf("undo with nothing recorded should hint, not fail")
	}
}
