package grid

import (
	"time"

	"flexitime/internal/domain/rollcall"
)

// CellKind is the visual classification of one cell, decided by a strict
// precedence chain: weekend, pending leave, split entry, solid entry, missing
// past date, blank.
type CellKind int

const (
	CellBlank CellKind = iota
	CellWeekend
	CellSolid
	CellSplit
	CellPendingLeave
	CellMissing
)

// CellView is the render handle for one cell. The renderer rebuilds the full
// set on Render and patches single handles in place afterwards; the key index
// gives O(1) lookup without walking rows.
type CellView struct {
	Employee string
	Date     string
	Row      int
	Col      int

	Kind     CellKind
	Color    string
	Fill     FillStyle
	Icon     string
	AMColor  string
	AMFill   FillStyle
	AMIcon   string
	PMColor  string
	PMFill   FillStyle
	PMIcon   string
	Label    string
	Locked   bool
	Selected bool
	Saving   bool
}

func (v *CellView) ref() rollcall.CellRef {
	return rollcall.CellRef{Employee: v.Employee, Date: v.Date}
}

// GridView is one complete rendered grid: the visible day columns, employee
// rows in display order, and the cells row-major.
type GridView struct {
	Days      []time.Time
	Employees []string
	Rows      [][]*CellView
}

type Renderer struct {
	grid *Context

	view        *GridView
	index       map[string]*CellView
	renderTimer *time.Timer
}

func newRenderer(grid *Context) *Renderer {
	return &Renderer{grid: grid, index: map[string]*CellView{}}
}

// Render rebuilds the whole view and the cell index, then hands the result to
// the sink. Expensive; callers with small deltas should prefer RenderDebounced
// or the per-cell patch path.
func (r *Renderer) Render() {
	r.grid.mu.Lock()
	defer r.grid.mu.Unlock()
	r.renderLocked()
}

func (r *Renderer) renderLocked() {
	c := r.grid
	view := &GridView{
		Days:      c.visibleDays,
		Employees: make([]string, len(c.employees)),
		Rows:      make([][]*CellView, len(c.employees)),
	}
	index := make(map[string]*CellView, len(c.employees)*len(c.visibleDays))

	for row, employee := range c.employees {
		view.Employees[row] = DisplayName(employee, c.cfg.PreferNicknames)
		cells := make([]*CellView, len(c.visibleDays))
		for col, day := range c.visibleDays {
			ref := rollcall.CellRef{Employee: employee.ID, Date: formatDate(day)}
			cell := r.classify(ref)
			cell.Row = row
			cell.Col = col
			cell.Selected = hasRef(c.selection, ref)
			cells[col] = cell
			index[ref.Key()] = cell
		}
		view.Rows[row] = cells
	}

	r.view = view
	r.index = index
	c.sink.GridRendered(view)
}

// RenderDebounced coalesces bursts of render requests into one full render.
// The first request arms the timer; followers within the window ride along.
func (r *Renderer) RenderDebounced() {
	r.grid.mu.Lock()
	defer r.grid.mu.Unlock()
	r.renderDebouncedLocked()
}

func (r *Renderer) renderDebouncedLocked() {
	if r.renderTimer != nil {
		return
	}
	r.renderTimer = time.AfterFunc(r.grid.cfg.RenderDebounce, func() {
		r.grid.mu.Lock()
		defer r.grid.mu.Unlock()
		r.renderTimer = nil
		r.renderLocked()
	})
}

// UpdateCell recomputes one handle from the cache and notifies the sink,
// leaving every other cell untouched.
func (r *Renderer) UpdateCell(ref rollcall.CellRef) {
	r.grid.mu.Lock()
	defer r.grid.mu.Unlock()
	r.updateCellLocked(ref)
}

func (r *Renderer) updateCellLocked(ref rollcall.CellRef) {
	cell, ok := r.index[ref.Key()]
	if !ok {
		return
	}
	fresh := r.classify(ref)
	fresh.Row = cell.Row
	fresh.Col = cell.Col
	fresh.Selected = cell.Selected
	fresh.Saving = cell.Saving
	*cell = *fresh
	r.grid.sink.CellUpdated(cell)
}

func (r *Renderer) handle(ref rollcall.CellRef) (*CellView, bool) {
	cell, ok := r.index[ref.Key()]
	return cell, ok
}

// patchOptimistic repaints a cell as the given presence type before the server
// has confirmed anything. The entry cache is deliberately not touched; it
// catches up when the pending queue flushes.
func (r *Renderer) patchOptimistic(ref rollcall.CellRef, presenceType string) {
	cell, ok := r.index[ref.Key()]
	if !ok {
		return
	}
	cell.Kind = CellSolid
	cell.Fill = FillSolid
	cell.Color = defaultCellColor
	cell.Icon = ""
	cell.Label = ""
	if pt, ok := r.grid.typeByID(presenceType); ok {
		cell.Color = ColorToken(pt.Color)
		cell.Icon = pt.Icon
		cell.Label = pt.Label
	}
	cell.Saving = true
	r.grid.sink.CellUpdated(cell)
}

// patchOptimisticSplit repaints a cell as an AM/PM split ahead of
// confirmation, same contract as patchOptimistic.
func (r *Renderer) patchOptimisticSplit(ref rollcall.CellRef, amType, pmType string) {
	cell, ok := r.index[ref.Key()]
	if !ok {
		return
	}
	cell.Kind = CellSplit
	cell.Color = ""
	cell.Fill = FillSolid
	cell.Icon = ""
	cell.Label = ""
	cell.AMColor, cell.AMIcon = r.typeVisual(amType)
	cell.PMColor, cell.PMIcon = r.typeVisual(pmType)
	cell.AMFill = FillSolid
	cell.PMFill = FillSolid
	cell.Saving = true
	r.grid.sink.CellUpdated(cell)
}

// patchOptimisticClear blanks a cell ahead of a queued delete.
func (r *Renderer) patchOptimisticClear(ref rollcall.CellRef) {
	cell, ok := r.index[ref.Key()]
	if !ok {
		return
	}
	cell.Kind = CellBlank
	cell.Color = ""
	cell.Fill = FillSolid
	cell.Icon = ""
	cell.Label = ""
	cell.Saving = true
	r.grid.sink.CellUpdated(cell)
}

func (r *Renderer) setSaving(ref rollcall.CellRef, saving bool) {
	if cell, ok := r.index[ref.Key()]; ok && cell.Saving != saving {
		cell.Saving = saving
		r.grid.sink.CellUpdated(cell)
	}
}

// classify runs the precedence chain for one cell. Later branches must never
// override earlier ones.
func (r *Renderer) classify(ref rollcall.CellRef) *CellView {
	c := r.grid
	cell := &CellView{Employee: ref.Employee, Date: ref.Date}

	if c.isWeekendDate(ref.Date) {
		cell.Kind = CellWeekend
		return cell
	}

	// A pending leave outranks any entry for the same cell: the open
	// application governs the day until it is resolved.
	if leaves := c.pendingLeavesAt(ref); len(leaves) > 0 {
		lead := leaves[0]
		cell.Kind = CellPendingLeave
		cell.Color = ColorToken(lead.Color)
		cell.Icon = lead.Icon
		cell.Label = lead.Label
		cell.Fill = FillStriped
		cell.Locked = true
		return cell
	}

	if entry, ok := c.entryAt(ref); ok {
		cell.Locked = entry.IsLocked
		if entry.IsHalfDay && entry.AMPresenceType != "" && entry.PMPresenceType != "" {
			cell.Kind = CellSplit
			cell.AMColor, cell.AMIcon = r.typeVisual(entry.AMPresenceType)
			cell.PMColor, cell.PMIcon = r.typeVisual(entry.PMPresenceType)
			cell.AMFill = FillForStatus(entry.AMLeaveStatus)
			cell.PMFill = FillForStatus(entry.PMLeaveStatus)
			return cell
		}
		if entry.PresenceType != "" {
			cell.Kind = CellSolid
			cell.Color, cell.Icon = r.typeVisual(entry.PresenceType)
			cell.Fill = FillForStatus(entry.LeaveStatus)
			if pt, ok := c.typeByID(entry.PresenceType); ok {
				cell.Label = pt.Label
			}
			return cell
		}
	}

	if day, err := time.Parse(rollcall.DateFormat, ref.Date); err == nil && day.Before(midnight(c.cfg.Now())) {
		cell.Kind = CellMissing
		return cell
	}

	cell.Kind = CellBlank
	return cell
}

func (r *Renderer) typeVisual(typeID string) (color, icon string) {
	if pt, ok := r.grid.typeByID(typeID); ok {
		return ColorToken(pt.Color), pt.Icon
	}
	return defaultCellColor, ""
}

func hasRef(set map[string]rollcall.CellRef, ref rollcall.CellRef) bool {
	_, ok := set[ref.Key()]
	return ok
}
