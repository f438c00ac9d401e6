package grid

import (
	"context"
	"time"

	"flexitime/internal/domain/rollcall"
)

type undoEntry struct {
	Ref rollcall.CellRef
	// Previous is the entry snapshot before the action; nil means the cell
	// was empty.
	Previous *rollcall.Entry
}

type UndoRecord struct {
	Action  string
	Entries []undoEntry
	At      time.Time
}

// UndoManager keeps a bounded LIFO stack of pre-mutation snapshots.
type UndoManager struct {
	grid *Context
	data *DataManager

	stack []UndoRecord
}

func newUndoManager(grid *Context, data *DataManager) *UndoManager {
	return &UndoManager{grid: grid, data: data}
}

// PrepareUndoState snapshots the cells' current state. It must run before the
// action mutates anything, or the snapshot captures post-mutation values.
func (u *UndoManager) PrepareUndoState(refs []rollcall.CellRef, action string) UndoRecord {
	u.grid.mu.Lock()
	defer u.grid.mu.Unlock()
	return u.prepareLocked(refs, action)
}

func (u *UndoManager) prepareLocked(refs []rollcall.CellRef, action string) UndoRecord {
	record := UndoRecord{Action: action, At: time.Now()}
	for _, ref := range refs {
		item := undoEntry{Ref: ref}
		if entry, ok := u.grid.entryAt(ref); ok {
			snapshot := entry
			item.Previous = &snapshot
		}
		record.Entries = append(record.Entries, item)
	}
	return record
}

func (u *UndoManager) PushUndo(record UndoRecord) {
	u.grid.mu.Lock()
	defer u.grid.mu.Unlock()
	u.pushLocked(record)
}

func (u *UndoManager) pushLocked(record UndoRecord) {
	if len(record.Entries) == 0 {
		return
	}
	u.stack = append(u.stack, record)
	if limit := u.grid.cfg.UndoCapacity; len(u.stack) > limit {
		u.stack = u.stack[len(u.stack)-limit:]
	}
}

func (u *UndoManager) Depth() int {
	u.grid.mu.Lock()
	defer u.grid.mu.Unlock()
	return len(u.stack)
}

// UndoLast replays the newest record: cells that were empty are deleted,
// everything else is re-saved grouped the same way paste groups its writes. A
// failed undo pushes the record back so it stays retryable; a successful one
// refreshes from the server so local and authoritative state agree.
func (u *UndoManager) UndoLast(callCtx context.Context) {
	u.grid.mu.Lock()
	defer u.grid.mu.Unlock()
	u.undoLastLocked(callCtx)
}

func (u *UndoManager) undoLastLocked(callCtx context.Context) {
	if len(u.stack) == 0 {
		u.grid.notifier.Notify(NoticeHint, "nothing to undo")
		return
	}
	record := u.stack[len(u.stack)-1]
	u.stack = u.stack[:len(u.stack)-1]

	batch := newWriteBatch()
	for _, item := range record.Entries {
		switch {
		case item.Previous == nil:
			batch.addDelete(item.Ref)
		case item.Previous.IsHalfDay && item.Previous.AMPresenceType != "" && item.Previous.PMPresenceType != "":
			batch.addSplit(item.Previous.AMPresenceType, item.Previous.PMPresenceType, item.Ref)
		case item.Previous.PresenceType != "":
			batch.addFull(item.Previous.PresenceType, item.Ref)
		default:
			batch.addDelete(item.Ref)
		}
	}

	if err := u.data.executeBatchLocked(callCtx, batch); err != nil {
		u.stack = append(u.stack, record)
		u.grid.notifier.Notify(NoticeError, "undo failed, the change was kept")
		return
	}

	if err := u.data.refreshLocked(callCtx); err != nil {
		u.grid.notifier.Notify(NoticeError, "undo applied but refresh failed")
	}
}
