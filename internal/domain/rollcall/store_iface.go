package rollcall

import (
	"context"
	"time"
)

// StoreAPI is everything the roll-call service needs from persistence. The pgx
// implementation lives in store.go / store_data.go; tests use fakes.
type StoreAPI interface {
	ListRollCallEmployees(ctx context.Context, filters EmployeeFilters) ([]Employee, error)
	EmployeeName(ctx context.Context, employeeID string) (string, error)
	ManagedEmployeeIDs(ctx context.Context, managerID string) ([]string, error)
	ManagedEmployeeSet(ctx context.Context, managerID string, candidates []string) (map[string]bool, error)

	EntriesInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]Entry, error)
	EntriesByKeys(ctx context.Context, refs []CellRef) ([]Entry, error)
	ExistingEntryKeys(ctx context.Context, employeeIDs []string, from, to time.Time) (map[string]bool, error)
	ExistingEntriesForRefs(ctx context.Context, refs []CellRef) (map[string]Entry, error)
	GetEntry(ctx context.Context, employeeID, date string) (Entry, bool, error)

	UpsertEntry(ctx context.Context, e Entry) error
	BulkUpsertEntries(ctx context.Context, entries []Entry) error
	DeleteEntries(ctx context.Context, refs []CellRef) error

	PresenceTypeInfo(ctx context.Context) (map[string]PresenceInfo, error)
	LeaveRequiringTypeIDs(ctx context.Context) (map[string]bool, error)
	PresenceTypeByLeaveType(ctx context.Context) (map[string]PresenceInfo, error)

	LeaveAppStatuses(ctx context.Context, appIDs []string) (map[string]string, error)
	OpenLeaveApplications(ctx context.Context, employeeIDs []string, from, to time.Time) ([]LeaveApplication, error)
	FindLinkableLeaveApplication(ctx context.Context, employeeID, date, leaveType string) (string, error)
	CountOpenLeaveApplications(ctx context.Context, employeeIDs []string) (int, error)

	RecordedHours(ctx context.Context, employeeID, date string) (float64, error)
	EmployeesMissingPattern(ctx context.Context, employeeIDs []string, refDate time.Time) ([]MissingPattern, error)
	PatternsInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]WorkPattern, error)
	HolidaysInRange(ctx context.Context, from, to time.Time) ([]Holiday, error)
	EmployeeRegions(ctx context.Context, employeeIDs []string) (map[string]string, error)

	TentativeLeaveEntries(ctx context.Context, employeeIDs []string, from, to time.Time, leaveTypeIDs []string) ([]Entry, error)
	OpenApplicationsFrom(ctx context.Context, employeeIDs []string, from time.Time) ([]LeaveApplication, error)
	LeaveDayCounts(ctx context.Context, employeeIDs []string, from, to time.Time, leaveTypeIDs []string) ([]DayCount, error)
}

// PresenceInfo is the label/icon/color subset of the catalog the roll-call
// service decorates entries with.
type PresenceInfo struct {
	ID        string
	Label     string
	Icon      string
	Color     string
	LeaveType string
}

type WorkPattern struct {
	EmployeeID string
	ValidFrom  time.Time
	ValidTo    *time.Time
	Hours      [7]float64 // indexed by time.Weekday
}

func (p WorkPattern) Covers(date time.Time) bool {
	if date.Before(p.ValidFrom) {
		return false
	}
	return p.ValidTo == nil || !date.After(*p.ValidTo)
}

type Holiday struct {
	Date   time.Time
	Name   string
	Region string
}

// DayCount is one date with the distinct employees on leave that day.
type DayCount struct {
	Date      string
	Count     int
	Employees []string
}
