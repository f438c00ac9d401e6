package grid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flexitime/internal/domain/rollcall"
)

// cellSaveState is the per-cell persistence state machine. A cell moves
// clean -> dirtyPending on an optimistic edit, dirtyPending -> saving when the
// flush picks it up, saving -> clean on a confirmed response, and any error
// sends it to failed until the full refresh wipes the slate.
type cellSaveState int

const (
	cellClean cellSaveState = iota
	cellDirtyPending
	cellSaving
	cellFailed
)

type mutationKind int

const (
	mutationSet mutationKind = iota
	mutationDelete
)

// pendingMutation is the last intended change for one cell. Later edits to the
// same cell overwrite earlier ones in the queue.
type pendingMutation struct {
	Ref          rollcall.CellRef
	Kind         mutationKind
	PresenceType string
}

// flushRetryDelay is how long a flush request waits when another flush is
// already in flight.
const flushRetryDelay = 500 * time.Millisecond

// DataManager is the persistence boundary: optimistic cell patches, the
// debounced pending-save queue, grouped bulk writes, and cache reconciliation
// against server responses.
type DataManager struct {
	grid     *Context
	renderer *Renderer
	undo     *UndoManager

	queue      map[string]pendingMutation
	saveStates map[string]cellSaveState
	saveTimer  *time.Timer
}

func newDataManager(grid *Context, renderer *Renderer) *DataManager {
	return &DataManager{
		grid:       grid,
		renderer:   renderer,
		queue:      map[string]pendingMutation{},
		saveStates: map[string]cellSaveState{},
	}
}

func (d *DataManager) setUndo(undo *UndoManager) { d.undo = undo }

// ApplyToCell is the single-cell optimistic edit path: paint the cell now,
// queue the write, and restart the debounce so rapid edits coalesce into one
// flush. The skip reason is empty when the edit was accepted.
func (d *DataManager) ApplyToCell(employee, date, presenceType string) (skipReason string) {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()
	return d.applyToCellLocked(rollcall.CellRef{Employee: employee, Date: date}, presenceType)
}

func (d *DataManager) applyToCellLocked(ref rollcall.CellRef, presenceType string) string {
	if reason := d.grid.protectedReason(ref); reason != "" {
		return reason
	}

	d.renderer.patchOptimistic(ref, presenceType)
	d.queue[ref.Key()] = pendingMutation{Ref: ref, Kind: mutationSet, PresenceType: presenceType}
	d.saveStates[ref.Key()] = cellDirtyPending
	d.restartSaveTimerLocked()
	return ""
}

// ClearCell queues a single-cell delete through the same debounced path.
func (d *DataManager) ClearCell(employee, date string) (skipReason string) {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()
	return d.clearCellLocked(rollcall.CellRef{Employee: employee, Date: date})
}

func (d *DataManager) clearCellLocked(ref rollcall.CellRef) string {
	if reason := d.grid.protectedReason(ref); reason != "" {
		return reason
	}
	if _, ok := d.grid.entryAt(ref); !ok {
		if _, queued := d.queue[ref.Key()]; !queued {
			return "empty"
		}
	}

	d.renderer.patchOptimisticClear(ref)
	d.queue[ref.Key()] = pendingMutation{Ref: ref, Kind: mutationDelete}
	d.saveStates[ref.Key()] = cellDirtyPending
	d.restartSaveTimerLocked()
	return ""
}

// restartSaveTimerLocked (re)arms the debounce. Every new edit pushes the
// flush out again; only a quiet window actually flushes.
func (d *DataManager) restartSaveTimerLocked() {
	if d.saveTimer != nil {
		d.saveTimer.Stop()
	}
	d.saveTimer = time.AfterFunc(d.grid.cfg.SaveDebounce, func() {
		d.FlushSaves(d.grid.baseCtx)
	})
}

// FlushSaves drains the pending queue. Flushes are mutually exclusive: when
// one is already in flight the request is rescheduled after a short delay
// rather than dropped or run concurrently.
func (d *DataManager) FlushSaves(callCtx context.Context) {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()
	d.flushSavesLocked(callCtx)
}

func (d *DataManager) flushSavesLocked(callCtx context.Context) {
	if d.grid.isFlushing {
		time.AfterFunc(flushRetryDelay, func() {
			d.FlushSaves(callCtx)
		})
		return
	}
	if len(d.queue) == 0 {
		return
	}

	d.grid.isFlushing = true
	defer func() { d.grid.isFlushing = false }()

	queue := d.queue
	d.queue = map[string]pendingMutation{}

	batch := newWriteBatch()
	for _, m := range queue {
		d.saveStates[m.Ref.Key()] = cellSaving
		d.renderer.setSaving(m.Ref, true)
		switch m.Kind {
		case mutationSet:
			batch.addFull(m.PresenceType, m.Ref)
		case mutationDelete:
			batch.addDelete(m.Ref)
		}
	}

	if err := d.executeBatchLocked(callCtx, batch); err != nil {
		for _, m := range queue {
			d.saveStates[m.Ref.Key()] = cellFailed
		}
		d.grid.notifier.Notify(NoticeError, "saving failed, reloading")
		if err := d.refreshLocked(callCtx); err != nil {
			d.grid.notifier.Notify(NoticeError, "reload failed, the grid may be stale")
		}
		return
	}

	for _, m := range queue {
		d.saveStates[m.Ref.Key()] = cellClean
		d.renderer.setSaving(m.Ref, false)
	}
}

// ApplyToSelection writes one presence type to every unprotected cell in the
// selection with a single undo record and grouped persistence, then reports
// applied versus skipped counts. Surviving cells repaint before the first
// round trip so the click lands instantly; the confirmed entries reconcile
// them afterwards.
func (d *DataManager) ApplyToSelection(callCtx context.Context, refs []rollcall.CellRef, presenceType string) {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()
	d.applyBulkLocked(callCtx, refs, func(batch *writeBatch, ref rollcall.CellRef) {
		batch.addFull(presenceType, ref)
	}, func(ref rollcall.CellRef) {
		d.renderer.patchOptimistic(ref, presenceType)
	}, "apply "+presenceType)
}

// ApplySplitToSelection is the AM/PM variant of ApplyToSelection.
func (d *DataManager) ApplySplitToSelection(callCtx context.Context, refs []rollcall.CellRef, amType, pmType string) {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()
	d.applyBulkLocked(callCtx, refs, func(batch *writeBatch, ref rollcall.CellRef) {
		batch.addSplit(amType, pmType, ref)
	}, func(ref rollcall.CellRef) {
		d.renderer.patchOptimisticSplit(ref, amType, pmType)
	}, "apply split")
}

// DeleteSelectedCells clears every unprotected, non-empty cell in the
// selection. Holiday and approved-leave entries never leave through this path.
func (d *DataManager) DeleteSelectedCells(callCtx context.Context, refs []rollcall.CellRef) {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()

	var survivors []rollcall.CellRef
	skipped := 0
	for _, ref := range refs {
		if d.grid.protectedReason(ref) != "" {
			skipped++
			continue
		}
		if _, ok := d.grid.entryAt(ref); !ok {
			continue
		}
		survivors = append(survivors, ref)
	}
	if len(survivors) == 0 {
		if skipped > 0 {
			d.grid.notifier.Notify(NoticeHint, fmt.Sprintf("%d protected cells were not cleared", skipped))
		}
		return
	}

	record := d.undo.prepareLocked(survivors, "clear")
	batch := newWriteBatch()
	for _, ref := range survivors {
		batch.addDelete(ref)
	}

	if err := d.executeBatchLocked(callCtx, batch); err != nil {
		d.failBulkLocked(callCtx)
		return
	}
	d.undo.pushLocked(record)
	d.reportCounts(len(survivors), skipped, "cleared")
}

func (d *DataManager) applyBulkLocked(callCtx context.Context, refs []rollcall.CellRef, add func(*writeBatch, rollcall.CellRef), paint func(rollcall.CellRef), action string) {
	var survivors []rollcall.CellRef
	skipped := 0
	for _, ref := range refs {
		if d.grid.protectedReason(ref) != "" {
			skipped++
			continue
		}
		survivors = append(survivors, ref)
	}
	if len(survivors) == 0 {
		d.grid.notifier.Notify(NoticeHint, "no editable cells in the selection")
		return
	}

	record := d.undo.prepareLocked(survivors, action)
	batch := newWriteBatch()
	for _, ref := range survivors {
		paint(ref)
		add(batch, ref)
	}

	if err := d.executeBatchLocked(callCtx, batch); err != nil {
		d.failBulkLocked(callCtx)
		return
	}
	d.undo.pushLocked(record)
	d.reportCounts(len(survivors), skipped, "updated")
}

func (d *DataManager) failBulkLocked(callCtx context.Context) {
	d.grid.notifier.Notify(NoticeError, "saving failed, reloading")
	if err := d.refreshLocked(callCtx); err != nil {
		d.grid.notifier.Notify(NoticeError, "reload failed, the grid may be stale")
	}
}

func (d *DataManager) reportCounts(applied, skipped int, verb string) {
	if skipped > 0 {
		d.grid.notifier.Notify(NoticeInfo, fmt.Sprintf("%d cells %s, %d skipped", applied, verb, skipped))
		return
	}
	d.grid.notifier.Notify(NoticeInfo, fmt.Sprintf("%d cells %s", applied, verb))
}

// Refresh replaces all grid data with a fresh authoritative snapshot and
// re-renders. Any optimistic state is discarded.
func (d *DataManager) Refresh(callCtx context.Context) error {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()
	return d.refreshLocked(callCtx)
}

func (d *DataManager) refreshLocked(callCtx context.Context) error {
	c := d.grid
	from, to := c.window.Start, c.window.End

	c.mu.Unlock()
	result, err := c.client.GetEvents(callCtx, from, to, rollcall.EmployeeFilters{})
	c.mu.Lock()
	if err != nil {
		return err
	}

	c.replaceEvents(result)
	d.saveStates = map[string]cellSaveState{}
	d.renderer.renderLocked()
	return nil
}

// writeBatch collects a mixed set of cell writes grouped the way the wire
// wants them: one bulk call per presence type, one per AM/PM pair, one delete
// call. Group order is first-seen so server-side write order stays
// predictable.
type writeBatch struct {
	full       map[string][]rollcall.CellRef
	fullOrder  []string
	split      map[string][]rollcall.CellRef
	splitOrder []string
	deletes    []rollcall.CellRef
}

func newWriteBatch() *writeBatch {
	return &writeBatch{
		full:  map[string][]rollcall.CellRef{},
		split: map[string][]rollcall.CellRef{},
	}
}

func (b *writeBatch) addFull(presenceType string, ref rollcall.CellRef) {
	if _, ok := b.full[presenceType]; !ok {
		b.fullOrder = append(b.fullOrder, presenceType)
	}
	b.full[presenceType] = append(b.full[presenceType], ref)
}

func (b *writeBatch) addSplit(amType, pmType string, ref rollcall.CellRef) {
	key := amType + "|" + pmType
	if _, ok := b.split[key]; !ok {
		b.splitOrder = append(b.splitOrder, key)
	}
	b.split[key] = append(b.split[key], ref)
}

func (b *writeBatch) addDelete(ref rollcall.CellRef) {
	b.deletes = append(b.deletes, ref)
}

func (b *writeBatch) empty() bool {
	return len(b.full) == 0 && len(b.split) == 0 && len(b.deletes) == 0
}

// executeBatchLocked issues the batch's bulk calls sequentially, releasing the
// state lock around each network round trip and folding every confirmed
// response into the entry cache and the rendered cells. The first failure
// aborts the rest; the caller decides how to recover.
func (d *DataManager) executeBatchLocked(callCtx context.Context, batch *writeBatch) error {
	if batch.empty() {
		return nil
	}
	c := d.grid

	for _, presenceType := range batch.fullOrder {
		refs := batch.full[presenceType]
		c.mu.Unlock()
		result, err := c.client.SaveBulkEntries(callCtx, refs, presenceType)
		c.mu.Lock()
		if err != nil {
			return err
		}
		d.absorbSavedLocked(result.Entries)
	}

	for _, pair := range batch.splitOrder {
		refs := batch.split[pair]
		amType, pmType, _ := strings.Cut(pair, "|")
		c.mu.Unlock()
		result, err := c.client.SaveBulkSplitEntries(callCtx, refs, amType, pmType)
		c.mu.Lock()
		if err != nil {
			return err
		}
		d.absorbSavedLocked(result.Entries)
	}

	if len(batch.deletes) > 0 {
		c.mu.Unlock()
		result, err := c.client.DeleteBulkEntries(callCtx, batch.deletes)
		c.mu.Lock()
		if err != nil {
			return err
		}
		for _, ref := range result.Entries {
			delete(c.entries, ref.Key())
			d.renderer.updateCellLocked(ref)
		}
	}

	return nil
}

// absorbSavedLocked reconciles confirmed entries into the cache and repatches
// their cells in the same step, so cache and view never diverge.
func (d *DataManager) absorbSavedLocked(entries []rollcall.Entry) {
	for _, entry := range entries {
		ref := rollcall.CellRef{Employee: entry.EmployeeID, Date: entry.Date}
		d.grid.entries[ref.Key()] = entry
		d.renderer.updateCellLocked(ref)
	}
}
