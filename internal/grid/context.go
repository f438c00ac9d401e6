package grid

import (
	"context"
	"sync"
	"time"

	"flexitime/internal/domain/presence"
	"flexitime/internal/domain/rollcall"
)

// Config tunes the engine's timing and window behavior. Zero values take the
// defaults below.
type Config struct {
	SaveDebounce   time.Duration
	RenderDebounce time.Duration
	ScrollThrottle time.Duration
	ExpandTimeout  time.Duration
	WindowMaxDays  int
	InitialDays    int
	ExpandStep     int
	UndoCapacity   int

	ShowWeekends        bool
	PreferNicknames     bool
	HolidayPresenceType string

	// Now is overridable so tests can pin the window.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.SaveDebounce <= 0 {
		c.SaveDebounce = 300 * time.Millisecond
	}
	if c.RenderDebounce <= 0 {
		c.RenderDebounce = 50 * time.Millisecond
	}
	if c.ScrollThrottle <= 0 {
		c.ScrollThrottle = 100 * time.Millisecond
	}
	if c.ExpandTimeout <= 0 {
		c.ExpandTimeout = 10 * time.Second
	}
	if c.WindowMaxDays <= 0 {
		c.WindowMaxDays = 180
	}
	if c.InitialDays <= 0 {
		c.InitialDays = 28
	}
	if c.ExpandStep <= 0 {
		c.ExpandStep = 14
	}
	if c.UndoCapacity <= 0 {
		c.UndoCapacity = 50
	}
	if c.HolidayPresenceType == "" {
		c.HolidayPresenceType = "holiday"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Mode is the cell interaction mode.
type Mode int

const (
	ModeNone Mode = iota
	ModeSplit
)

// Coord addresses a cell by grid position: Row is the employee index, Col the
// visible-day index.
type Coord struct {
	Row int
	Col int
}

// Context owns all shared mutable grid state. Components hold a reference to
// it instead of reading globals; the mutex stands in for the single UI thread
// of the original event-loop model. Exported component methods acquire it,
// unexported helpers expect it held, and it is released around every Client
// call.
type Context struct {
	mu sync.Mutex

	cfg      Config
	client   Client
	notifier Notifier
	sink     ViewSink

	// baseCtx parents timer-driven client calls that have no caller context.
	baseCtx context.Context

	window        DateWindow
	visibleDays   []time.Time
	dayIndex      map[string]int
	employees     []rollcall.Employee
	employeeIndex map[string]int

	types     map[string]presence.Type
	typeOrder []presence.Type

	entries       map[string]rollcall.Entry
	pendingLeaves map[string]map[string][]rollcall.PendingLeave

	canEditAll      bool
	editable        map[string]bool
	currentEmployee string

	selection map[string]rollcall.CellRef

	mode        Mode
	splitAM     string
	splitPM     string
	splitBuffer []rollcall.CellRef

	isFlushing  bool
	isExpanding bool
}

func newContext(client Client, notifier Notifier, sink ViewSink, cfg Config) *Context {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if sink == nil {
		sink = nopSink{}
	}
	cfg = cfg.withDefaults()
	c := &Context{
		cfg:           cfg,
		client:        client,
		notifier:      notifier,
		sink:          sink,
		baseCtx:       context.Background(),
		window:        NewWindow(cfg.Now(), cfg.InitialDays),
		types:         map[string]presence.Type{},
		entries:       map[string]rollcall.Entry{},
		pendingLeaves: map[string]map[string][]rollcall.PendingLeave{},
		editable:      map[string]bool{},
		selection:     map[string]rollcall.CellRef{},
	}
	c.rebuildDays()
	return c
}

// rebuildDays refreshes the visible-day index after the window or the weekend
// toggle changed.
func (c *Context) rebuildDays() {
	c.visibleDays = c.window.VisibleDays(c.cfg.ShowWeekends)
	c.dayIndex = make(map[string]int, len(c.visibleDays))
	for i, d := range c.visibleDays {
		c.dayIndex[formatDate(d)] = i
	}
}

func (c *Context) setEmployees(employees []rollcall.Employee) {
	c.employees = employees
	c.employeeIndex = make(map[string]int, len(employees))
	for i, e := range employees {
		c.employeeIndex[e.ID] = i
	}
}

func (c *Context) refAt(coord Coord) (rollcall.CellRef, bool) {
	if coord.Row < 0 || coord.Row >= len(c.employees) || coord.Col < 0 || coord.Col >= len(c.visibleDays) {
		return rollcall.CellRef{}, false
	}
	return rollcall.CellRef{
		Employee: c.employees[coord.Row].ID,
		Date:     formatDate(c.visibleDays[coord.Col]),
	}, true
}

func (c *Context) coordOf(ref rollcall.CellRef) (Coord, bool) {
	row, ok := c.employeeIndex[ref.Employee]
	if !ok {
		return Coord{}, false
	}
	col, ok := c.dayIndex[ref.Date]
	if !ok {
		return Coord{}, false
	}
	return Coord{Row: row, Col: col}, true
}

func (c *Context) entryAt(ref rollcall.CellRef) (rollcall.Entry, bool) {
	entry, ok := c.entries[ref.Key()]
	return entry, ok
}

func (c *Context) pendingLeavesAt(ref rollcall.CellRef) []rollcall.PendingLeave {
	byDate, ok := c.pendingLeaves[ref.Employee]
	if !ok {
		return nil
	}
	return byDate[ref.Date]
}

func (c *Context) employeeEditable(id string) bool {
	return c.canEditAll || c.editable[id]
}

func (c *Context) isWeekendDate(date string) bool {
	t, err := time.Parse(rollcall.DateFormat, date)
	if err != nil {
		return false
	}
	return IsWeekend(t)
}

// protectedReason reports why a cell must never be written or deleted:
// pending leave, server lock, approved leave, or a holiday entry. Empty
// string means the cell is fair game.
func (c *Context) protectedReason(ref rollcall.CellRef) string {
	if len(c.pendingLeavesAt(ref)) > 0 {
		return "pending leave"
	}
	entry, ok := c.entryAt(ref)
	if !ok {
		return ""
	}
	switch {
	case entry.IsLocked:
		return "locked"
	case entry.LeaveStatus == rollcall.StatusApproved:
		return "approved leave"
	case entry.PresenceType == c.cfg.HolidayPresenceType:
		return "holiday"
	}
	return ""
}

// replaceEvents swaps in a fresh authoritative snapshot from the server.
func (c *Context) replaceEvents(result *rollcall.EventsResult) {
	c.setEmployees(result.Employees)
	c.entries = map[string]rollcall.Entry{}
	for employee, entries := range result.Entries {
		for _, entry := range entries {
			c.entries[rollcall.CellRef{Employee: employee, Date: entry.Date}.Key()] = entry
		}
	}
	c.pendingLeaves = result.PendingLeaves
	if c.pendingLeaves == nil {
		c.pendingLeaves = map[string]map[string][]rollcall.PendingLeave{}
	}
	if result.CurrentEmployee != "" {
		c.currentEmployee = result.CurrentEmployee
	}
}

// mergeEvents folds an expansion fetch into the existing caches without
// discarding entries outside the fetched range.
func (c *Context) mergeEvents(result *rollcall.EventsResult) {
	for employee, entries := range result.Entries {
		for _, entry := range entries {
			c.entries[rollcall.CellRef{Employee: employee, Date: entry.Date}.Key()] = entry
		}
	}
	for employee, byDate := range result.PendingLeaves {
		if c.pendingLeaves[employee] == nil {
			c.pendingLeaves[employee] = map[string][]rollcall.PendingLeave{}
		}
		for date, leaves := range byDate {
			c.pendingLeaves[employee][date] = leaves
		}
	}
}

func (c *Context) setCatalog(types []presence.Type) {
	c.typeOrder = types
	c.types = make(map[string]presence.Type, len(types))
	for _, t := range types {
		c.types[t.ID] = t
	}
}

func (c *Context) typeByID(id string) (presence.Type, bool) {
	t, ok := c.types[id]
	return t, ok
}
