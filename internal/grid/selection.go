package grid

import (
	"sort"

	"flexitime/internal/domain/presence"
	"flexitime/internal/domain/rollcall"
)

// SelectionManager owns the volatile set of selected cells. Every logical
// add or remove flips the matching render handle's Selected flag exactly
// once, so the highlight can never drift from the set.
type SelectionManager struct {
	grid     *Context
	renderer *Renderer

	anchor rollcall.CellRef
}

func newSelectionManager(grid *Context, renderer *Renderer) *SelectionManager {
	return &SelectionManager{grid: grid, renderer: renderer}
}

// SelectionInfo aggregates the selection for the status bar and for deciding
// which bulk actions are legal.
type SelectionInfo struct {
	Count           int
	EditableCount   int
	LockedCount     int
	EmptyCount      int
	HasTentative    bool
	HasDraft        bool
	HasApproved     bool
	HasPendingLeave bool
	HasEmpty        bool
	LeaveApps       []string
	PresenceTypes   []string
	Employees       []string
}

func (s *SelectionManager) SelectCell(ref rollcall.CellRef) {
	s.grid.mu.Lock()
	defer s.grid.mu.Unlock()
	s.selectCellLocked(ref)
}

func (s *SelectionManager) selectCellLocked(ref rollcall.CellRef) {
	if !s.selectableLocked(ref) {
		return
	}
	if hasRef(s.grid.selection, ref) {
		return
	}
	s.grid.selection[ref.Key()] = ref
	s.anchor = ref
	s.setHighlight(ref, true)
}

func (s *SelectionManager) ToggleCell(ref rollcall.CellRef) {
	s.grid.mu.Lock()
	defer s.grid.mu.Unlock()
	s.toggleCellLocked(ref)
}

func (s *SelectionManager) toggleCellLocked(ref rollcall.CellRef) {
	if hasRef(s.grid.selection, ref) {
		delete(s.grid.selection, ref.Key())
		s.setHighlight(ref, false)
		return
	}
	s.selectCellLocked(ref)
}

func (s *SelectionManager) ClearSelection() {
	s.grid.mu.Lock()
	defer s.grid.mu.Unlock()
	s.clearSelectionLocked()
}

func (s *SelectionManager) clearSelectionLocked() {
	for _, ref := range s.grid.selection {
		s.setHighlight(ref, false)
	}
	s.grid.selection = map[string]rollcall.CellRef{}
}

// DragRectangle replaces the selection with every selectable cell inside the
// inclusive bounding rectangle of the two coordinates. Weekend columns are
// excluded from drag selection even when weekends are shown.
func (s *SelectionManager) DragRectangle(start, current Coord) {
	s.grid.mu.Lock()
	defer s.grid.mu.Unlock()
	s.dragRectangleLocked(start, current)
}

func (s *SelectionManager) dragRectangleLocked(start, current Coord) {
	minRow, maxRow := ordered(start.Row, current.Row)
	minCol, maxCol := ordered(start.Col, current.Col)

	wanted := map[string]rollcall.CellRef{}
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			ref, ok := s.grid.refAt(Coord{Row: row, Col: col})
			if !ok || s.grid.isWeekendDate(ref.Date) || !s.selectableLocked(ref) {
				continue
			}
			wanted[ref.Key()] = ref
		}
	}

	for key, ref := range s.grid.selection {
		if _, keep := wanted[key]; !keep {
			delete(s.grid.selection, key)
			s.setHighlight(ref, false)
		}
	}
	for key, ref := range wanted {
		if !hasRef(s.grid.selection, ref) {
			s.grid.selection[key] = ref
			s.setHighlight(ref, true)
		}
	}
	if ref, ok := s.grid.refAt(start); ok {
		s.anchor = ref
	}
}

// Info walks the selection once and aggregates everything the UI needs.
func (s *SelectionManager) Info() SelectionInfo {
	s.grid.mu.Lock()
	defer s.grid.mu.Unlock()
	return s.infoLocked()
}

func (s *SelectionManager) infoLocked() SelectionInfo {
	info := SelectionInfo{}
	apps := map[string]bool{}
	types := map[string]bool{}
	employees := map[string]bool{}

	for _, ref := range s.grid.selection {
		info.Count++
		employees[ref.Employee] = true
		if len(s.grid.pendingLeavesAt(ref)) > 0 {
			info.HasPendingLeave = true
		}

		entry, ok := s.grid.entryAt(ref)
		if !ok {
			info.HasEmpty = true
			info.EmptyCount++
			info.EditableCount++
			continue
		}
		if entry.IsLocked {
			info.LockedCount++
		} else {
			info.EditableCount++
		}
		switch entry.LeaveStatus {
		case rollcall.StatusTentative:
			info.HasTentative = true
		case rollcall.StatusDraft:
			info.HasDraft = true
		case rollcall.StatusApproved:
			info.HasApproved = true
		}
		if entry.LeaveApplication != "" {
			apps[entry.LeaveApplication] = true
		}
		if entry.PresenceType != "" {
			types[entry.PresenceType] = true
		}
	}

	info.LeaveApps = sortedKeys(apps)
	info.PresenceTypes = sortedKeys(types)
	info.Employees = sortedKeys(employees)
	return info
}

// AvailableTypesForSelection narrows the palette for the current selection.
// One employee keeps the whole catalog as candidates (the server re-validates
// on save); several employees narrow to availableToAll types, because the
// cross-employee grant intersection is unknowable client-side.
func (s *SelectionManager) AvailableTypesForSelection() []presence.Type {
	s.grid.mu.Lock()
	defer s.grid.mu.Unlock()
	return s.availableTypesLocked()
}

func (s *SelectionManager) availableTypesLocked() []presence.Type {
	employees := map[string]bool{}
	for _, ref := range s.grid.selection {
		employees[ref.Employee] = true
	}
	if len(employees) <= 1 {
		return s.grid.typeOrder
	}
	var narrowed []presence.Type
	for _, t := range s.grid.typeOrder {
		if t.AvailableToAll {
			narrowed = append(narrowed, t)
		}
	}
	return narrowed
}

// Refs returns the selection as a stable-ordered slice.
func (s *SelectionManager) Refs() []rollcall.CellRef {
	s.grid.mu.Lock()
	defer s.grid.mu.Unlock()
	return s.refsLocked()
}

func (s *SelectionManager) refsLocked() []rollcall.CellRef {
	refs := make([]rollcall.CellRef, 0, len(s.grid.selection))
	for _, ref := range s.grid.selection {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Employee != refs[j].Employee {
			return refs[i].Employee < refs[j].Employee
		}
		return refs[i].Date < refs[j].Date
	})
	return refs
}

func (s *SelectionManager) selectableLocked(ref rollcall.CellRef) bool {
	if s.grid.isWeekendDate(ref.Date) {
		return false
	}
	if !s.grid.employeeEditable(ref.Employee) {
		return false
	}
	if entry, ok := s.grid.entryAt(ref); ok && entry.IsLocked {
		return false
	}
	return true
}

func (s *SelectionManager) setHighlight(ref rollcall.CellRef, selected bool) {
	if cell, ok := s.renderer.handle(ref); ok {
		cell.Selected = selected
		s.grid.sink.CellUpdated(cell)
	}
}

func ordered(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
