package grid

import (
	"context"

	"flexitime/internal/domain/rollcall"
)

// Key is a normalized keyboard action. The host shell translates raw key
// chords (ctrl/cmd+c and friends) into these before calling KeyDown.
type Key int

const (
	KeyCopy Key = iota
	KeyPaste
	KeyUndo
	KeyDelete
	KeyEscape
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
)

// EventManager turns pointer and keyboard input into actions on the other
// managers. Drag state lives here: pressed tracks an active pointer, moved
// tracks whether the pointer ever left the start cell, which separates a
// click-select from a drag-paint.
type EventManager struct {
	grid      *Context
	selection *SelectionManager
	clipboard *ClipboardManager
	undo      *UndoManager
	data      *DataManager

	pressed   bool
	moved     bool
	dragStart Coord
}

func newEventManager(grid *Context, selection *SelectionManager, clipboard *ClipboardManager, undo *UndoManager, data *DataManager) *EventManager {
	return &EventManager{grid: grid, selection: selection, clipboard: clipboard, undo: undo, data: data}
}

// PointerDown starts interaction on a cell. A plain press clears the old
// selection and selects the start cell; a modifier press toggles membership
// without starting a drag.
func (e *EventManager) PointerDown(coord Coord, modifier bool) {
	e.grid.mu.Lock()
	defer e.grid.mu.Unlock()

	ref, ok := e.grid.refAt(coord)
	if !ok {
		return
	}

	if modifier {
		e.selection.toggleCellLocked(ref)
		return
	}

	if !e.selection.selectableLocked(ref) {
		return
	}
	e.pressed = true
	e.moved = false
	e.dragStart = coord
	e.selection.clearSelectionLocked()
	e.selection.selectCellLocked(ref)
}

// PointerMove extends the drag rectangle. Lookup is index-based, so
// continuous recomputation during a drag stays cheap.
func (e *EventManager) PointerMove(coord Coord) {
	e.grid.mu.Lock()
	defer e.grid.mu.Unlock()

	if !e.pressed {
		return
	}
	if coord != e.dragStart {
		e.moved = true
	}
	if e.moved {
		e.selection.dragRectangleLocked(e.dragStart, coord)
	}
}

// PointerUp ends the drag. In split mode with both halves chosen the final
// selection is applied immediately; otherwise the selection persists and
// waits for an explicit action.
func (e *EventManager) PointerUp(callCtx context.Context) {
	e.grid.mu.Lock()
	defer e.grid.mu.Unlock()

	if !e.pressed {
		return
	}
	e.pressed = false
	e.moved = false

	if e.grid.mode == ModeSplit && e.grid.splitAM != "" && e.grid.splitPM != "" {
		refs := e.selection.refsLocked()
		am, pm := e.grid.splitAM, e.grid.splitPM
		e.exitSplitModeLocked()
		e.data.applyBulkLocked(callCtx, refs, func(batch *writeBatch, ref rollcall.CellRef) {
			batch.addSplit(am, pm, ref)
		}, func(ref rollcall.CellRef) {
			e.data.renderer.patchOptimisticSplit(ref, am, pm)
		}, "apply split")
		e.selection.clearSelectionLocked()
	}
}

// PaletteClick applies a presence type to the selection. With nothing
// selected the user gets a hint instead of a silent no-op.
func (e *EventManager) PaletteClick(callCtx context.Context, presenceType string) {
	e.grid.mu.Lock()
	defer e.grid.mu.Unlock()

	if e.grid.mode == ModeSplit {
		e.chooseSplitHalfLocked(callCtx, presenceType)
		return
	}

	refs := e.selection.refsLocked()
	if len(refs) == 0 {
		e.grid.notifier.Notify(NoticeHint, "select cells first, then pick a presence type")
		return
	}
	if len(refs) == 1 {
		if reason := e.data.applyToCellLocked(refs[0], presenceType); reason != "" {
			e.grid.notifier.Notify(NoticeHint, "cell not changed: "+reason)
		}
		return
	}
	e.data.applyBulkLocked(callCtx, refs, func(batch *writeBatch, ref rollcall.CellRef) {
		batch.addFull(presenceType, ref)
	}, func(ref rollcall.CellRef) {
		e.data.renderer.patchOptimistic(ref, presenceType)
	}, "apply "+presenceType)
	e.selection.clearSelectionLocked()
}

// EnterSplitMode starts AM/PM assignment. The live selection is snapshotted
// into a side buffer because dialog interaction may clear it before both
// halves are chosen.
func (e *EventManager) EnterSplitMode() {
	e.grid.mu.Lock()
	defer e.grid.mu.Unlock()

	if e.grid.mode == ModeSplit {
		return
	}
	e.grid.mode = ModeSplit
	e.grid.splitAM = ""
	e.grid.splitPM = ""
	e.grid.splitBuffer = e.selection.refsLocked()
	e.grid.notifier.Notify(NoticeHint, "split mode: pick the morning presence type")
}

func (e *EventManager) chooseSplitHalfLocked(callCtx context.Context, presenceType string) {
	if e.grid.splitAM == "" {
		e.grid.splitAM = presenceType
		e.grid.notifier.Notify(NoticeHint, "now pick the afternoon presence type")
		return
	}
	e.grid.splitPM = presenceType

	refs := e.selection.refsLocked()
	if len(refs) == 0 {
		refs = e.grid.splitBuffer
	}
	am, pm := e.grid.splitAM, e.grid.splitPM
	e.exitSplitModeLocked()
	if len(refs) == 0 {
		e.grid.notifier.Notify(NoticeHint, "select cells for the split day first")
		return
	}
	e.data.applyBulkLocked(callCtx, refs, func(batch *writeBatch, ref rollcall.CellRef) {
		batch.addSplit(am, pm, ref)
	}, func(ref rollcall.CellRef) {
		e.data.renderer.patchOptimisticSplit(ref, am, pm)
	}, "apply split")
	e.selection.clearSelectionLocked()
}

func (e *EventManager) exitSplitModeLocked() {
	e.grid.mode = ModeNone
	e.grid.splitAM = ""
	e.grid.splitPM = ""
	e.grid.splitBuffer = nil
}

// KeyDown dispatches keyboard shortcuts. Escape leaves split mode first and
// clears the selection only when there is no mode to leave.
func (e *EventManager) KeyDown(callCtx context.Context, key Key) {
	switch key {
	case KeyCopy:
		e.clipboard.CopySelection()
	case KeyPaste:
		e.clipboard.PasteSelection(callCtx)
	case KeyUndo:
		e.undo.UndoLast(callCtx)
	case KeyDelete:
		e.data.DeleteSelectedCells(callCtx, e.selection.Refs())
	case KeyEscape:
		e.grid.mu.Lock()
		if e.grid.mode == ModeSplit {
			e.exitSplitModeLocked()
			e.grid.mu.Unlock()
			return
		}
		e.selection.clearSelectionLocked()
		e.grid.mu.Unlock()
	case KeyArrowUp:
		e.moveAnchor(-1, 0)
	case KeyArrowDown:
		e.moveAnchor(1, 0)
	case KeyArrowLeft:
		e.moveAnchor(0, -1)
	case KeyArrowRight:
		e.moveAnchor(0, 1)
	}
}

// moveAnchor moves the single-cell selection by one row or one visible
// column. Column movement is over visible days, so hidden weekends are
// skipped by construction.
func (e *EventManager) moveAnchor(rowDelta, colDelta int) {
	if rowDelta == 0 && colDelta == 0 {
		return
	}
	e.grid.mu.Lock()
	defer e.grid.mu.Unlock()

	coord, ok := e.grid.coordOf(e.selection.anchor)
	if !ok {
		return
	}
	next := Coord{Row: coord.Row + rowDelta, Col: coord.Col + colDelta}
	for {
		ref, exists := e.grid.refAt(next)
		if !exists {
			return
		}
		if e.selection.selectableLocked(ref) {
			e.selection.clearSelectionLocked()
			e.selection.selectCellLocked(ref)
			return
		}
		next.Row += rowDelta
		next.Col += colDelta
	}
}
