package grid

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"flexitime/internal/domain/presence"
	"flexitime/internal/domain/rollcall"
)

// testMonday pins the window start for every grid test.
var testMonday = time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)

type bulkSaveCall struct {
	Refs         []rollcall.CellRef
	PresenceType string
}

type splitSaveCall struct {
	Refs   []rollcall.CellRef
	AMType string
	PMType string
}

var _ Client = (*fakeClient)(nil)

// fakeClient keeps authoritative entries server-side, so refreshes after
// saves and undos return the mutated truth rather than the initial snapshot.
type fakeClient struct {
	mu sync.Mutex

	employees     []rollcall.Employee
	entries       map[string]rollcall.Entry
	pendingLeaves map[string]map[string][]rollcall.PendingLeave
	catalog       []presence.Type
	editable      rollcall.EditableEmployees

	bulkSaves   []bulkSaveCall
	splitSaves  []splitSaveCall
	bulkDeletes [][]rollcall.CellRef
	eventCalls  int

	failBulk   bool
	failEvents bool

	// onBulkSave/onSplitSave run at the start of the matching wire call,
	// before the server state mutates, so tests can observe in-flight view
	// state. The grid lock is free at that point.
	onBulkSave  func()
	onSplitSave func()
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		employees: []rollcall.Employee{
			{ID: "e1", Name: "Avery"},
			{ID: "e2", Name: "Blake"},
			{ID: "e3", Name: "Casey"},
		},
		entries:       map[string]rollcall.Entry{},
		pendingLeaves: map[string]map[string][]rollcall.PendingLeave{},
		catalog: []presence.Type{
			{ID: "office", Label: "Office", Color: "#dbeafe", ExpectWorkHours: true, AvailableToAll: true},
			{ID: "remote", Label: "Remote", Color: "#dcfce7", ExpectWorkHours: true, AvailableToAll: true},
			{ID: "holiday", Label: "Public Holiday", Color: "#ede9fe", AvailableToAll: true},
			{ID: "special", Label: "Special Assignment", Color: "#e0e7ff", ExpectWorkHours: true, AvailableToAll: false},
		},
		editable: rollcall.EditableEmployees{CanEditAll: true},
	}
}

func (f *fakeClient) putEntry(entry rollcall.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := rollcall.CellRef{Employee: entry.EmployeeID, Date: entry.Date}.Key()
	f.entries[key] = entry
}

func (f *fakeClient) putPendingLeave(employee, date string, leave rollcall.PendingLeave) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingLeaves[employee] == nil {
		f.pendingLeaves[employee] = map[string][]rollcall.PendingLeave{}
	}
	f.pendingLeaves[employee][date] = append(f.pendingLeaves[employee][date], leave)
}

func (f *fakeClient) GetEvents(ctx context.Context, from, to time.Time, filters rollcall.EmployeeFilters) (*rollcall.EventsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventCalls++
	if f.failEvents {
		return nil, errors.New("events unavailable")
	}

	result := &rollcall.EventsResult{
		Employees:     f.employees,
		Entries:       map[string][]rollcall.Entry{},
		PendingLeaves: map[string]map[string][]rollcall.PendingLeave{},
	}
	for _, entry := range f.entries {
		day, err := time.Parse(rollcall.DateFormat, entry.Date)
		if err != nil || day.Before(from) || day.After(to) {
			continue
		}
		result.Entries[entry.EmployeeID] = append(result.Entries[entry.EmployeeID], entry)
	}
	for employee, byDate := range f.pendingLeaves {
		result.PendingLeaves[employee] = byDate
	}
	return result, nil
}

func (f *fakeClient) GetEditableEmployees(ctx context.Context) (rollcall.EditableEmployees, error) {
	return f.editable, nil
}

func (f *fakeClient) GetPresenceTypeCatalog(ctx context.Context) ([]presence.Type, error) {
	return f.catalog, nil
}

func (f *fakeClient) GetAvailablePresenceTypes(ctx context.Context, employee, date string) ([]presence.Type, error) {
	return f.catalog, nil
}

func (f *fakeClient) SaveEntry(ctx context.Context, employee, date, presenceType string, isHalfDay bool) (rollcall.Entry, error) {
	entry := rollcall.Entry{EmployeeID: employee, Date: date, PresenceType: presenceType, IsHalfDay: isHalfDay, Source: rollcall.SourceManual}
	f.putEntry(entry)
	return entry, nil
}

func (f *fakeClient) SaveSplitEntry(ctx context.Context, employee, date, amType, pmType string) (rollcall.Entry, error) {
	entry := rollcall.Entry{EmployeeID: employee, Date: date, IsHalfDay: true, AMPresenceType: amType, PMPresenceType: pmType, Source: rollcall.SourceManual}
	f.putEntry(entry)
	return entry, nil
}

func (f *fakeClient) SaveBulkEntries(ctx context.Context, refs []rollcall.CellRef, presenceType string) (rollcall.BulkSaveResult, error) {
	if f.onBulkSave != nil {
		f.onBulkSave()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBulk {
		return rollcall.BulkSaveResult{}, errors.New("save rejected")
	}
	f.bulkSaves = append(f.bulkSaves, bulkSaveCall{Refs: append([]rollcall.CellRef(nil), refs...), PresenceType: presenceType})

	result := rollcall.BulkSaveResult{Saved: len(refs), Total: len(refs)}
	for _, ref := range refs {
		entry := rollcall.Entry{EmployeeID: ref.Employee, Date: ref.Date, PresenceType: presenceType, Source: rollcall.SourceManual}
		f.entries[ref.Key()] = entry
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func (f *fakeClient) SaveBulkSplitEntries(ctx context.Context, refs []rollcall.CellRef, amType, pmType string) (rollcall.BulkSaveResult, error) {
	if f.onSplitSave != nil {
		f.onSplitSave()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBulk {
		return rollcall.BulkSaveResult{}, errors.New("save rejected")
	}
	f.splitSaves = append(f.splitSaves, splitSaveCall{Refs: append([]rollcall.CellRef(nil), refs...), AMType: amType, PMType: pmType})

	result := rollcall.BulkSaveResult{Saved: len(refs), Total: len(refs)}
	for _, ref := range refs {
		entry := rollcall.Entry{EmployeeID: ref.Employee, Date: ref.Date, IsHalfDay: true, AMPresenceType: amType, PMPresenceType: pmType, Source: rollcall.SourceManual}
		f.entries[ref.Key()] = entry
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func (f *fakeClient) DeleteBulkEntries(ctx context.Context, refs []rollcall.CellRef) (rollcall.BulkDeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBulk {
		return rollcall.BulkDeleteResult{}, errors.New("delete rejected")
	}
	f.bulkDeletes = append(f.bulkDeletes, append([]rollcall.CellRef(nil), refs...))

	result := rollcall.BulkDeleteResult{Total: len(refs)}
	for _, ref := range refs {
		delete(f.entries, ref.Key())
		result.Entries = append(result.Entries, ref)
		result.Deleted++
	}
	return result, nil
}

func (f *fakeClient) GetPendingReviewCount(ctx context.Context) (rollcall.PendingReview, error) {
	return rollcall.PendingReview{}, nil
}

func (f *fakeClient) eventCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventCalls
}

type notice struct {
	Level   NoticeLevel
	Message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(level NoticeLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{Level: level, Message: message})
}

func (n *recordingNotifier) count(level NoticeLevel) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, msg := range n.notices {
		if msg.Level == level {
			total++
		}
	}
	return total
}

type testGrid struct {
	ct       *Controller
	client   *fakeClient
	notifier *recordingNotifier
}

func newTestGrid(t *testing.T, mutate func(*Config), seed func(*fakeClient)) *testGrid {
	t.Helper()

	client := newFakeClient()
	if seed != nil {
		seed(client)
	}

	cfg := Config{
		Now:          func() time.Time { return testMonday },
		InitialDays:  14,
		ShowWeekends: true,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	notifier := &recordingNotifier{}
	ct := New(client, notifier, nil, cfg)
	if err := ct.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return &testGrid{ct: ct, client: client, notifier: notifier}
}

// day returns the date string offset days after the pinned Monday.
func day(offset int) string {
	return testMonday.AddDate(0, 0, offset).Format(rollcall.DateFormat)
}

func ref(employee string, offset int) rollcall.CellRef {
	return rollcall.CellRef{Employee: employee, Date: day(offset)}
}

func (g *testGrid) selectionKeys() []string {
	return sortedKeysOfSelection(g.ct.grid)
}

func sortedKeysOfSelection(c *Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := map[string]bool{}
	for key := range c.selection {
		set[key] = true
	}
	return sortedKeys(set)
}

// cell copies one render handle under the grid lock.
func (g *testGrid) cell(t *testing.T, r rollcall.CellRef) CellView {
	t.Helper()
	c := g.ct.grid
	c.mu.Lock()
	defer c.mu.Unlock()
	handle, ok := g.ct.Renderer.handle(r)
	if !ok {
		t.Fatalf("no render handle for %s", r.Key())
	}
	return *handle
}

func (g *testGrid) entryCache() map[string]rollcall.Entry {
	c := g.ct.grid
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make(map[string]rollcall.Entry, len(c.entries))
	for key, entry := range c.entries {
		snapshot[key] = entry
	}
	return snapshot
}
