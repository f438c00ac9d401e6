package rollcall

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestGroupConsecutiveRanges(t *testing.T) {
	info := map[string]PresenceInfo{"annual_leave": {ID: "annual_leave", Label: "Annual Leave"}}
	entries := []Entry{
		{EmployeeID: "e1", Date: "2026-07-03", PresenceType: "annual_leave"},
		{EmployeeID: "e1", Date: "2026-07-01", PresenceType: "annual_leave"},
		{EmployeeID: "e1", Date: "2026-07-02", PresenceType: "annual_leave"},
		{EmployeeID: "e1", Date: "2026-07-06", PresenceType: "annual_leave"},
		{EmployeeID: "e1", Date: "2026-07-07", PresenceType: "sick_leave"},
	}

	ranges := groupConsecutiveRanges(entries, info)
	if len(ranges) != 3 {
		t.Fatalf("got %d ranges, want 3: %+v", len(ranges), ranges)
	}
	first := ranges[0]
	if first.FromDate != "2026-07-01" || first.ToDate != "2026-07-03" || first.Days != 3 {
		t.Fatalf("first range = %+v", first)
	}
	if first.Label != "Annual Leave" {
		t.Fatalf("label = %q, want the catalog label", first.Label)
	}
	if ranges[1].FromDate != "2026-07-06" || ranges[1].Days != 1 {
		t.Fatalf("second range = %+v", ranges[1])
	}
	// The type change on the 7th starts a new range even though the dates
	// are consecutive.
	if ranges[2].PresenceType != "sick_leave" {
		t.Fatalf("third range = %+v", ranges[2])
	}
}

func TestInclusiveDays(t *testing.T) {
	if got := inclusiveDays("2026-07-01", "2026-07-01"); got != 1 {
		t.Fatalf("same-day span = %v, want 1", got)
	}
	if got := inclusiveDays("2026-07-01", "2026-07-05"); got != 5 {
		t.Fatalf("five-day span = %v", got)
	}
	if got := inclusiveDays("2026-07-05", "2026-07-01"); got != 0 {
		t.Fatalf("inverted span = %v, want 0", got)
	}
}

func TestPlanningSummaryCollectsSections(t *testing.T) {
	store := newFakeStore()
	store.employees = []Employee{{ID: "e1", Name: "Avery"}, {ID: "e2", Name: "Blake"}}
	store.names["e1"] = "Avery"
	store.names["e2"] = "Blake"
	store.entries["e1|2026-03-02"] = Entry{EmployeeID: "e1", Date: "2026-03-02", PresenceType: "annual_leave"}
	store.entries["e1|2026-03-03"] = Entry{EmployeeID: "e1", Date: "2026-03-03", PresenceType: "annual_leave"}
	store.openApps = []LeaveApplication{{
		ID: "LA-1", EmployeeID: "e2", LeaveType: "Annual Leave",
		FromDate: "2026-08-03", ToDate: "2026-08-07", Status: AppStatusOpen,
	}}
	store.dayCounts = []DayCount{
		{Date: "2026-08-03", Count: 2, Employees: []string{"e1", "e2"}},
		{Date: "2026-08-04", Count: 3, Employees: []string{"e1", "e2", "e3"}},
	}
	svc := newTestService(store)

	summary, err := svc.PlanningSummary(context.Background(), hrViewer, 2026, "")
	if err != nil {
		t.Fatalf("PlanningSummary: %v", err)
	}

	if summary.Year != 2026 || summary.TotalDays != 2 {
		t.Fatalf("year/total = %d/%d", summary.Year, summary.TotalDays)
	}
	if len(summary.Tentative) != 1 || summary.Tentative[0].EmployeeName != "Avery" {
		t.Fatalf("tentative = %+v", summary.Tentative)
	}
	if len(summary.Pending) != 1 || summary.Pending[0].Days != 5 {
		t.Fatalf("pending = %+v", summary.Pending)
	}
	if len(summary.Conflicts) != 1 || summary.Conflicts[0].Date != "2026-08-04" {
		t.Fatalf("only days at the threshold are conflicts, got %+v", summary.Conflicts)
	}
}

func TestPlanningSummaryDefaultsToCurrentYear(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	summary, err := svc.PlanningSummary(context.Background(), hrViewer, 0, "")
	if err != nil {
		t.Fatalf("PlanningSummary: %v", err)
	}
	if summary.Year != time.Now().Year() {
		t.Fatalf("year = %d", summary.Year)
	}
}

func TestSummaryScopeManaged(t *testing.T) {
	store := newFakeStore()
	store.managed["mgr"] = []string{"e1", "e2"}
	svc := newTestService(store)

	ids, err := svc.summaryScope(context.Background(), approverViewer, "managed")
	if err != nil || len(ids) != 2 {
		t.Fatalf("managed scope = %v err %v", ids, err)
	}

	ids, err = svc.summaryScope(context.Background(), approverViewer, "")
	if err != nil || len(ids) != 3 {
		t.Fatalf("default scope should be self plus reports, got %v err %v", ids, err)
	}
}

func TestPlanningSummaryPDFWritesFile(t *testing.T) {
	svc := newTestService(newFakeStore())
	summary := &PlanningSummary{
		Year: 2026,
		Tentative: []TentativeEmployee{{
			Employee: "e1", EmployeeName: "Avery", Days: 2,
			DateRanges: []DateRange{{FromDate: "2026-03-02", ToDate: "2026-03-03", Label: "Annual Leave", Days: 2}},
		}},
		Pending: []PendingApplication{{
			ID: "LA-1", Employee: "e2", EmployeeName: "Blake",
			LeaveType: "Annual Leave", FromDate: "2026-08-03", ToDate: "2026-08-07", Days: 5,
		}},
		Conflicts: []ConflictDay{{Date: "2026-08-04", Count: 3, Employees: []string{"e1", "e2", "e3"}}},
	}

	dir := t.TempDir()
	path, err := svc.PlanningSummaryPDF(summary, dir)
	if err != nil {
		t.Fatalf("PlanningSummaryPDF: %v", err)
	}
	if !strings.HasSuffix(path, "leave-planning-2026.pdf") {
		t.Fatalf("path = %q", path)
	}
	stat, err := os.Stat(path)
	if err != nil || stat.Size() == 0 {
		t.Fatalf("pdf not written: %v", err)
	}
}
