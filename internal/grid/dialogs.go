package grid

import (
	"context"
	"fmt"

	"flexitime/internal/domain/presence"
	"flexitime/internal/domain/rollcall"
)

// BulkAction names an operation the bulk dialog may offer for the current
// selection.
type BulkAction string

const (
	ActionApplyType BulkAction = "apply"
	ActionSplitDay  BulkAction = "split"
	ActionClear     BulkAction = "clear"
	ActionCopy      BulkAction = "copy"
)

// DialogModel is a renderable modal: a title, body lines, the offered presence
// types and actions. The shell renders it; confirmation comes back through
// the Confirm methods.
type DialogModel struct {
	Title   string
	Lines   []string
	Types   []presence.Type
	Actions []BulkAction
	Cell    rollcall.CellRef
}

type Dialogs struct {
	grid      *Context
	selection *SelectionManager
	data      *DataManager
}

func newDialogs(grid *Context, selection *SelectionManager, data *DataManager) *Dialogs {
	return &Dialogs{grid: grid, selection: selection, data: data}
}

// PresenceDialog builds the single-cell assignment dialog. A cell governed by
// a leave application gets the read-only explanation instead.
func (d *Dialogs) PresenceDialog(ref rollcall.CellRef) DialogModel {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()

	if model, governed := d.leaveExplanationLocked(ref); governed {
		return model
	}

	model := DialogModel{
		Title: "Set presence for " + ref.Date,
		Types: d.grid.typeOrder,
		Cell:  ref,
	}
	if entry, ok := d.grid.entryAt(ref); ok && entry.PresenceType != "" {
		if pt, found := d.grid.typeByID(entry.PresenceType); found {
			model.Lines = append(model.Lines, "currently: "+pt.Label)
		}
	}
	return model
}

// ConfirmPresence applies the dialog's choice through the optimistic path.
func (d *Dialogs) ConfirmPresence(ref rollcall.CellRef, presenceType string) {
	if reason := d.data.ApplyToCell(ref.Employee, ref.Date, presenceType); reason != "" {
		d.grid.notifier.Notify(NoticeHint, "cell not changed: "+reason)
	}
}

// BulkDialog summarizes the selection and offers only the actions that are
// legal for it.
func (d *Dialogs) BulkDialog() DialogModel {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()

	info := d.selection.infoLocked()
	model := DialogModel{
		Title: fmt.Sprintf("%d cells selected", info.Count),
		Types: d.selection.availableTypesLocked(),
	}
	model.Lines = append(model.Lines, fmt.Sprintf("%d editable, %d locked", info.EditableCount, info.LockedCount))
	if info.HasApproved {
		model.Lines = append(model.Lines, "approved leave in the selection stays untouched")
	}
	if info.HasPendingLeave {
		model.Lines = append(model.Lines, "cells with pending leave applications are skipped")
	}

	if info.EditableCount > 0 {
		model.Actions = append(model.Actions, ActionApplyType, ActionSplitDay, ActionClear)
	}
	if info.Count > info.EmptyCount {
		model.Actions = append(model.Actions, ActionCopy)
	}
	return model
}

// ConfirmBulk runs a bulk dialog action against the current selection.
func (d *Dialogs) ConfirmBulk(callCtx context.Context, action BulkAction, presenceType string) {
	refs := d.selection.Refs()
	switch action {
	case ActionApplyType:
		d.data.ApplyToSelection(callCtx, refs, presenceType)
	case ActionClear:
		d.data.DeleteSelectedCells(callCtx, refs)
	}
}

// LeaveExplanation builds the read-only dialog for a cell governed by a leave
// application or a configuration problem.
func (d *Dialogs) LeaveExplanation(ref rollcall.CellRef) (DialogModel, bool) {
	d.grid.mu.Lock()
	defer d.grid.mu.Unlock()
	return d.leaveExplanationLocked(ref)
}

func (d *Dialogs) leaveExplanationLocked(ref rollcall.CellRef) (DialogModel, bool) {
	if leaves := d.grid.pendingLeavesAt(ref); len(leaves) > 0 {
		lead := leaves[0]
		return DialogModel{
			Title: "Pending leave application",
			Lines: []string{
				fmt.Sprintf("%s is covered by open application %s (%s)", ref.Date, lead.ApplicationID, lead.LeaveType),
				"approve or cancel the application to edit this day",
			},
			Cell: ref,
		}, true
	}

	entry, ok := d.grid.entryAt(ref)
	if !ok {
		return DialogModel{}, false
	}
	if entry.LeaveStatus == rollcall.StatusApproved && entry.LeaveApplication != "" {
		return DialogModel{
			Title: "Approved leave",
			Lines: []string{
				fmt.Sprintf("%s is governed by approved application %s", ref.Date, entry.LeaveApplication),
				"cancel the leave application to change this day",
			},
			Cell: ref,
		}, true
	}
	if entry.IsLocked {
		return DialogModel{
			Title: "Locked entry",
			Lines: []string{ref.Date + " is locked and cannot be edited"},
			Cell:  ref,
		}, true
	}
	return DialogModel{}, false
}
