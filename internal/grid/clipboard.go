package grid

import (
	"context"
	"fmt"

	"flexitime/internal/domain/rollcall"
)

type patternKind int

const (
	patternEmpty patternKind = iota
	patternFull
	patternSplit
)

// PatternItem is one cell of a copied pattern, addressed relative to the
// bounding box's top-left corner.
type PatternItem struct {
	RowOff int
	ColOff int
	Kind   patternKind

	PresenceType string
	AMType       string
	PMType       string
}

// Pattern is a session-local rectangular clipboard. It survives until the
// next copy; it never touches the OS clipboard.
type Pattern struct {
	Rows  int
	Cols  int
	Items map[[2]int]PatternItem
}

type ClipboardManager struct {
	grid      *Context
	selection *SelectionManager
	data      *DataManager
	undo      *UndoManager

	pattern *Pattern
}

func newClipboardManager(grid *Context, selection *SelectionManager, data *DataManager, undo *UndoManager) *ClipboardManager {
	return &ClipboardManager{grid: grid, selection: selection, data: data, undo: undo}
}

func (m *ClipboardManager) HasPattern() bool {
	m.grid.mu.Lock()
	defer m.grid.mu.Unlock()
	return m.pattern != nil
}

// CopySelection captures the current selection as a relative pattern. A
// selection with no non-empty cells copies nothing; the user gets a hint
// instead of an error.
func (m *ClipboardManager) CopySelection() {
	m.grid.mu.Lock()
	defer m.grid.mu.Unlock()
	m.copySelectionLocked()
}

func (m *ClipboardManager) copySelectionLocked() {
	refs := m.selection.refsLocked()
	if len(refs) == 0 {
		m.grid.notifier.Notify(NoticeHint, "select cells to copy first")
		return
	}

	var kept []rollcall.CellRef
	var coords []Coord
	for _, ref := range refs {
		coord, found := m.grid.coordOf(ref)
		if !found {
			continue
		}
		kept = append(kept, ref)
		coords = append(coords, coord)
	}
	if len(kept) == 0 {
		return
	}
	minRow, minCol := coords[0].Row, coords[0].Col
	for _, coord := range coords {
		if coord.Row < minRow {
			minRow = coord.Row
		}
		if coord.Col < minCol {
			minCol = coord.Col
		}
	}

	pattern := &Pattern{Items: map[[2]int]PatternItem{}}
	nonEmpty := 0
	for i, ref := range kept {
		coord := coords[i]
		item := PatternItem{RowOff: coord.Row - minRow, ColOff: coord.Col - minCol, Kind: patternEmpty}
		if entry, found := m.grid.entryAt(ref); found {
			switch {
			case entry.IsHalfDay && entry.AMPresenceType != "" && entry.PMPresenceType != "":
				item.Kind = patternSplit
				item.AMType = entry.AMPresenceType
				item.PMType = entry.PMPresenceType
				nonEmpty++
			case entry.PresenceType != "":
				item.Kind = patternFull
				item.PresenceType = entry.PresenceType
				nonEmpty++
			}
		}
		pattern.Items[[2]int{item.RowOff, item.ColOff}] = item
		if item.RowOff+1 > pattern.Rows {
			pattern.Rows = item.RowOff + 1
		}
		if item.ColOff+1 > pattern.Cols {
			pattern.Cols = item.ColOff + 1
		}
	}

	if nonEmpty == 0 {
		m.grid.notifier.Notify(NoticeHint, "nothing to copy, the selection is empty")
		return
	}

	m.pattern = pattern
	m.grid.notifier.Notify(NoticeInfo, fmt.Sprintf("copied %d cells", nonEmpty))
}

// PasteSelection anchors the pattern at the target selection's top-left and
// tiles it across the target bounding box, clipped to that box. Protected
// cells are skipped and counted; everything actually written lands in one
// undo record, and persistence is grouped by type, split pair, and delete.
func (m *ClipboardManager) PasteSelection(callCtx context.Context) {
	m.grid.mu.Lock()
	defer m.grid.mu.Unlock()
	m.pasteSelectionLocked(callCtx)
}

func (m *ClipboardManager) pasteSelectionLocked(callCtx context.Context) {
	if m.pattern == nil {
		m.grid.notifier.Notify(NoticeHint, "copy cells before pasting")
		return
	}
	refs := m.selection.refsLocked()
	if len(refs) == 0 {
		m.grid.notifier.Notify(NoticeHint, "select a paste target first")
		return
	}

	minRow, minCol, maxRow, maxCol, ok := m.boundingBoxLocked(refs)
	if !ok {
		return
	}

	var written []rollcall.CellRef
	var items []PatternItem
	skipped := 0
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			item, found := m.pattern.Items[[2]int{(row - minRow) % m.pattern.Rows, (col - minCol) % m.pattern.Cols}]
			if !found {
				continue
			}
			ref, exists := m.grid.refAt(Coord{Row: row, Col: col})
			if !exists || m.grid.isWeekendDate(ref.Date) {
				continue
			}
			if m.grid.protectedReason(ref) != "" {
				skipped++
				continue
			}
			if item.Kind == patternEmpty {
				if _, hasEntry := m.grid.entryAt(ref); !hasEntry {
					continue
				}
			}
			written = append(written, ref)
			items = append(items, item)
		}
	}

	if len(written) == 0 {
		m.grid.notifier.Notify(NoticeHint, "nothing to paste here")
		return
	}

	record := m.undo.prepareLocked(written, "paste")
	batch := newWriteBatch()
	for i, ref := range written {
		switch items[i].Kind {
		case patternFull:
			batch.addFull(items[i].PresenceType, ref)
		case patternSplit:
			batch.addSplit(items[i].AMType, items[i].PMType, ref)
		case patternEmpty:
			batch.addDelete(ref)
		}
	}

	if err := m.data.executeBatchLocked(callCtx, batch); err != nil {
		m.data.failBulkLocked(callCtx)
		return
	}
	m.undo.pushLocked(record)
	m.data.reportCounts(len(written), skipped, "pasted")
}

// boundingBoxLocked maps refs to coordinates and returns the inclusive
// rectangle they span. Refs outside the current window are dropped.
func (m *ClipboardManager) boundingBoxLocked(refs []rollcall.CellRef) (minRow, minCol, maxRow, maxCol int, ok bool) {
	first := true
	for _, ref := range refs {
		coord, found := m.grid.coordOf(ref)
		if !found {
			continue
		}
		if first {
			minRow, maxRow = coord.Row, coord.Row
			minCol, maxCol = coord.Col, coord.Col
			first = false
			continue
		}
		if coord.Row < minRow {
			minRow = coord.Row
		}
		if coord.Row > maxRow {
			maxRow = coord.Row
		}
		if coord.Col < minCol {
			minCol = coord.Col
		}
		if coord.Col > maxCol {
			maxCol = coord.Col
		}
	}
	return minRow, minCol, maxRow, maxCol, !first
}
