package rollcall

import (
	"context"
	"time"
)

// fakeStore is an in-memory StoreAPI for service tests. Zero-value maps are
// lazily created so tests only seed what they care about.
type fakeStore struct {
	employees   []Employee
	names       map[string]string
	entries     map[string]Entry
	managed     map[string][]string
	info        map[string]PresenceInfo
	leaveTypes  map[string]bool
	appStatuses map[string]string
	linkable    map[string]string
	hours       map[string]float64
	holidays    []Holiday
	regions     map[string]string
	patterns    []WorkPattern
	openApps    []LeaveApplication
	dayCounts   []DayCount
	openCount   int

	upserts int
	deletes [][]CellRef
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		names:       map[string]string{},
		entries:     map[string]Entry{},
		managed:     map[string][]string{},
		info:        map[string]PresenceInfo{},
		leaveTypes:  map[string]bool{},
		appStatuses: map[string]string{},
		linkable:    map[string]string{},
		hours:       map[string]float64{},
		regions:     map[string]string{},
	}
}

var _ StoreAPI = (*fakeStore)(nil)

func (f *fakeStore) ListRollCallEmployees(ctx context.Context, filters EmployeeFilters) ([]Employee, error) {
	return f.employees, nil
}

func (f *fakeStore) EmployeeName(ctx context.Context, employeeID string) (string, error) {
	if name, ok := f.names[employeeID]; ok {
		return name, nil
	}
	return employeeID, nil
}

func (f *fakeStore) ManagedEmployeeIDs(ctx context.Context, managerID string) ([]string, error) {
	return f.managed[managerID], nil
}

func (f *fakeStore) ManagedEmployeeSet(ctx context.Context, managerID string, candidates []string) (map[string]bool, error) {
	set := map[string]bool{}
	for _, id := range f.managed[managerID] {
		for _, candidate := range candidates {
			if candidate == id {
				set[id] = true
			}
		}
	}
	return set, nil
}

func (f *fakeStore) EntriesInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]Entry, error) {
	var out []Entry
	for _, e := range f.entries {
		day, err := time.Parse(DateFormat, e.Date)
		if err != nil || day.Before(from) || day.After(to) {
			continue
		}
		for _, id := range employeeIDs {
			if e.EmployeeID == id {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) EntriesByKeys(ctx context.Context, refs []CellRef) ([]Entry, error) {
	var out []Entry
	for _, ref := range refs {
		if e, ok := f.entries[ref.Key()]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ExistingEntryKeys(ctx context.Context, employeeIDs []string, from, to time.Time) (map[string]bool, error) {
	entries, _ := f.EntriesInRange(ctx, employeeIDs, from, to)
	keys := map[string]bool{}
	for _, e := range entries {
		keys[e.EmployeeID+"|"+e.Date] = true
	}
	return keys, nil
}

func (f *fakeStore) ExistingEntriesForRefs(ctx context.Context, refs []CellRef) (map[string]Entry, error) {
	out := map[string]Entry{}
	for _, ref := range refs {
		if e, ok := f.entries[ref.Key()]; ok {
			out[ref.Key()] = e
		}
	}
	return out, nil
}

func (f *fakeStore) GetEntry(ctx context.Context, employeeID, date string) (Entry, bool, error) {
	e, ok := f.entries[employeeID+"|"+date]
	return e, ok, nil
}

func (f *fakeStore) UpsertEntry(ctx context.Context, e Entry) error {
	f.upserts++
	f.entries[e.EmployeeID+"|"+e.Date] = e
	return nil
}

func (f *fakeStore) BulkUpsertEntries(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		f.upserts++
		f.entries[e.EmployeeID+"|"+e.Date] = e
	}
	return nil
}

func (f *fakeStore) DeleteEntries(ctx context.Context, refs []CellRef) error {
	f.deletes = append(f.deletes, refs)
	for _, ref := range refs {
		delete(f.entries, ref.Key())
	}
	return nil
}

func (f *fakeStore) PresenceTypeInfo(ctx context.Context) (map[string]PresenceInfo, error) {
	return f.info, nil
}

func (f *fakeStore) LeaveRequiringTypeIDs(ctx context.Context) (map[string]bool, error) {
	return f.leaveTypes, nil
}

func (f *fakeStore) PresenceTypeByLeaveType(ctx context.Context) (map[string]PresenceInfo, error) {
	out := map[string]PresenceInfo{}
	for _, pt := range f.info {
		if pt.LeaveType != "" {
			out[pt.LeaveType] = pt
		}
	}
	return out, nil
}

func (f *fakeStore) LeaveAppStatuses(ctx context.Context, appIDs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range appIDs {
		if status, ok := f.appStatuses[id]; ok {
			out[id] = status
		}
	}
	return out, nil
}

func (f *fakeStore) OpenLeaveApplications(ctx context.Context, employeeIDs []string, from, to time.Time) ([]LeaveApplication, error) {
	return f.openApps, nil
}

func (f *fakeStore) FindLinkableLeaveApplication(ctx context.Context, employeeID, date, leaveType string) (string, error) {
	return f.linkable[employeeID+"|"+date+"|"+leaveType], nil
}

func (f *fakeStore) CountOpenLeaveApplications(ctx context.Context, employeeIDs []string) (int, error) {
	return f.openCount, nil
}

func (f *fakeStore) RecordedHours(ctx context.Context, employeeID, date string) (float64, error) {
	return f.hours[employeeID+"|"+date], nil
}

func (f *fakeStore) EmployeesMissingPattern(ctx context.Context, employeeIDs []string, refDate time.Time) ([]MissingPattern, error) {
	return nil, nil
}

func (f *fakeStore) PatternsInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]WorkPattern, error) {
	return f.patterns, nil
}

func (f *fakeStore) HolidaysInRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	var out []Holiday
	for _, h := range f.holidays {
		if h.Date.Before(from) || h.Date.After(to) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeStore) EmployeeRegions(ctx context.Context, employeeIDs []string) (map[string]string, error) {
	return f.regions, nil
}

func (f *fakeStore) TentativeLeaveEntries(ctx context.Context, employeeIDs []string, from, to time.Time, leaveTypeIDs []string) ([]Entry, error) {
	var out []Entry
	for _, e := range f.entries {
		if !f.leaveTypes[e.PresenceType] || e.LeaveApplication != "" {
			continue
		}
		day, err := time.Parse(DateFormat, e.Date)
		if err != nil || day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) OpenApplicationsFrom(ctx context.Context, employeeIDs []string, from time.Time) ([]LeaveApplication, error) {
	return f.openApps, nil
}

func (f *fakeStore) LeaveDayCounts(ctx context.Context, employeeIDs []string, from, to time.Time, leaveTypeIDs []string) ([]DayCount, error) {
	return f.dayCounts, nil
}
