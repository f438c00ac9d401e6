package grid

import (
	"testing"
	"time"

	"flexitime/internal/domain/rollcall"
)

func TestRenderWeekendBeatsEverything(t *testing.T) {
	g := newTestGrid(t, nil, func(f *fakeClient) {
		// Offset 5 is a Saturday. Even an entry on it renders as weekend.
		f.putEntry(rollcall.Entry{EmployeeID: "e1", Date: day(5), PresenceType: "office", Source: rollcall.SourceManual})
	})

	if cell := g.cell(t, ref("e1", 5)); cell.Kind != CellWeekend {
		t.Fatalf("weekend cell kind = %v, want CellWeekend", cell.Kind)
	}
}

func TestRenderPendingLeaveOutranksEntry(t *testing.T) {
	g := newTestGrid(t, nil, func(f *fakeClient) {
		f.putEntry(rollcall.Entry{EmployeeID: "e1", Date: day(0), PresenceType: "office", Source: rollcall.SourceManual})
		f.putPendingLeave("e1", day(0), rollcall.PendingLeave{
			ApplicationID: "LA-1", Status: rollcall.AppStatusOpen,
			Label: "Annual Leave", Color: "#fef3c7", Icon: "sun",
		})
	})

	cell := g.cell(t, ref("e1", 0))
	if cell.Kind != CellPendingLeave {
		t.Fatalf("cell kind = %v, want CellPendingLeave over the saved entry", cell.Kind)
	}
	if cell.Fill != FillStriped || !cell.Locked {
		t.Fatalf("pending leave must render striped and locked, got fill=%v locked=%v", cell.Fill, cell.Locked)
	}
}

func TestRenderSplitEntry(t *testing.T) {
	g := newTestGrid(t, nil, func(f *fakeClient) {
		f.putEntry(rollcall.Entry{
			EmployeeID: "e1", Date: day(0), IsHalfDay: true,
			AMPresenceType: "office", PMPresenceType: "remote", Source: rollcall.SourceManual,
		})
	})

	cell := g.cell(t, ref("e1", 0))
	if cell.Kind != CellSplit {
		t.Fatalf("cell kind = %v, want CellSplit", cell.Kind)
	}
	if cell.AMColor == "" || cell.PMColor == "" || cell.AMColor == cell.PMColor {
		t.Fatalf("split halves must carry their own colors, got am=%q pm=%q", cell.AMColor, cell.PMColor)
	}
}

func TestRenderSolidEntryCarriesTypeVisuals(t *testing.T) {
	g := newTestGrid(t, nil, func(f *fakeClient) {
		f.putEntry(rollcall.Entry{EmployeeID: "e1", Date: day(0), PresenceType: "office", Source: rollcall.SourceManual})
	})

	cell := g.cell(t, ref("e1", 0))
	if cell.Kind != CellSolid || cell.Color != "#dbeafe" || cell.Label != "Office" {
		t.Fatalf("solid cell = kind %v color %q label %q", cell.Kind, cell.Color, cell.Label)
	}
}

func TestRenderTentativeLeaveIsStriped(t *testing.T) {
	g := newTestGrid(t, nil, func(f *fakeClient) {
		f.putEntry(rollcall.Entry{
			EmployeeID: "e1", Date: day(0), PresenceType: "office",
			LeaveStatus: rollcall.StatusTentative, Source: rollcall.SourceManual,
		})
	})

	if cell := g.cell(t, ref("e1", 0)); cell.Fill != FillStriped {
		t.Fatalf("tentative leave must render striped, got %v", cell.Fill)
	}
}

func TestRenderPastEmptyCellIsMissing(t *testing.T) {
	// Pin today to midway through the window so earlier days are in the past.
	g := newTestGrid(t, func(cfg *Config) {
		cfg.Now = func() time.Time { return testMonday.AddDate(0, 0, 3) }
	}, nil)

	if cell := g.cell(t, ref("e1", 0)); cell.Kind != CellMissing {
		t.Fatalf("past empty weekday = %v, want CellMissing", cell.Kind)
	}
	if cell := g.cell(t, ref("e1", 4)); cell.Kind != CellBlank {
		t.Fatalf("future empty weekday = %v, want CellBlank", cell.Kind)
	}
}
