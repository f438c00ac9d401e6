package grid

import (
	"context"
	"fmt"
	"time"

	"flexitime/internal/domain/rollcall"
)

// Edge names a horizontal scroll boundary of the grid.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
)

// Controller composes the managers and owns the grid lifecycle. The
// embedding shell drives it through exactly two hooks, Initialize and
// Refresh, plus the input forwarding on Events.
type Controller struct {
	grid *Context

	Renderer  *Renderer
	Selection *SelectionManager
	Clipboard *ClipboardManager
	Undo      *UndoManager
	Data      *DataManager
	Events    *EventManager
	Dialogs   *Dialogs

	lastScroll    time.Time
	trailingTimer *time.Timer
	trailingEdge  Edge
	expandToken   int
}

func New(client Client, notifier Notifier, sink ViewSink, cfg Config) *Controller {
	grid := newContext(client, notifier, sink, cfg)
	renderer := newRenderer(grid)
	selection := newSelectionManager(grid, renderer)
	data := newDataManager(grid, renderer)
	undo := newUndoManager(grid, data)
	data.setUndo(undo)
	clipboard := newClipboardManager(grid, selection, data, undo)
	events := newEventManager(grid, selection, clipboard, undo, data)

	ct := &Controller{
		grid:      grid,
		Renderer:  renderer,
		Selection: selection,
		Clipboard: clipboard,
		Undo:      undo,
		Data:      data,
		Events:    events,
	}
	ct.Dialogs = newDialogs(grid, selection, data)
	return ct
}

// Initialize performs the first load: events for the initial window, the
// permission snapshot, and the presence-type catalog, then renders. The
// pending-review count is polled afterwards without blocking the caller.
func (ct *Controller) Initialize(callCtx context.Context) error {
	c := ct.grid
	c.mu.Lock()
	from, to := c.window.Start, c.window.End
	c.mu.Unlock()

	events, err := c.client.GetEvents(callCtx, from, to, rollcall.EmployeeFilters{})
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	editable, err := c.client.GetEditableEmployees(callCtx)
	if err != nil {
		return fmt.Errorf("load editable employees: %w", err)
	}
	catalog, err := c.client.GetPresenceTypeCatalog(callCtx)
	if err != nil {
		return fmt.Errorf("load presence types: %w", err)
	}

	c.mu.Lock()
	c.replaceEvents(events)
	c.canEditAll = editable.CanEditAll
	c.editable = map[string]bool{}
	for _, id := range editable.EditableEmployees {
		c.editable[id] = true
	}
	c.setCatalog(catalog)
	ct.Renderer.renderLocked()
	c.mu.Unlock()

	go ct.pollPendingReview(callCtx)
	return nil
}

func (ct *Controller) pollPendingReview(callCtx context.Context) {
	review, err := ct.grid.client.GetPendingReviewCount(callCtx)
	if err != nil {
		return
	}
	if review.CanApprove && review.Count > 0 {
		ct.grid.notifier.Notify(NoticeInfo, fmt.Sprintf("%d entries are waiting for review", review.Count))
	}
}

// Refresh reloads everything in the current window from the server.
func (ct *Controller) Refresh(callCtx context.Context) error {
	return ct.Data.Refresh(callCtx)
}

// Window returns the current date window.
func (ct *Controller) Window() DateWindow {
	ct.grid.mu.Lock()
	defer ct.grid.mu.Unlock()
	return ct.grid.window
}

// ScrollNearEdge is called by the shell whenever scrolling approaches either
// horizontal boundary. Calls are throttled leading and trailing: the first
// event reacts immediately and the final resting position is re-evaluated
// after the throttle window.
func (ct *Controller) ScrollNearEdge(callCtx context.Context, edge Edge) {
	c := ct.grid
	c.mu.Lock()
	throttle := c.cfg.ScrollThrottle
	now := time.Now()
	if since := now.Sub(ct.lastScroll); since < throttle {
		ct.trailingEdge = edge
		if ct.trailingTimer == nil {
			ct.trailingTimer = time.AfterFunc(throttle-since, func() {
				c.mu.Lock()
				ct.trailingTimer = nil
				trailing := ct.trailingEdge
				ct.lastScroll = time.Now()
				c.mu.Unlock()
				ct.expand(callCtx, trailing)
			})
		}
		c.mu.Unlock()
		return
	}
	ct.lastScroll = now
	c.mu.Unlock()
	ct.expand(callCtx, edge)
}

// expand grows the window one step toward the edge. Expansion is mutually
// exclusive via isExpanding, and a safety timeout clears a flag left behind
// by a hung request so expansion can never be disabled permanently.
func (ct *Controller) expand(callCtx context.Context, edge Edge) {
	c := ct.grid
	c.mu.Lock()

	if c.isExpanding {
		c.mu.Unlock()
		return
	}

	var next DateWindow
	var added int
	if edge == EdgeLeft {
		next, added = c.window.ExpandLeft(c.cfg.ExpandStep, c.cfg.WindowMaxDays)
	} else {
		next, added = c.window.ExpandRight(c.cfg.ExpandStep, c.cfg.WindowMaxDays)
	}
	if added == 0 {
		c.mu.Unlock()
		return
	}

	c.isExpanding = true
	ct.expandToken++
	token := ct.expandToken
	time.AfterFunc(c.cfg.ExpandTimeout, func() {
		c.mu.Lock()
		if ct.expandToken == token && c.isExpanding {
			c.isExpanding = false
		}
		c.mu.Unlock()
	})

	var fetchFrom, fetchTo time.Time
	if edge == EdgeLeft {
		fetchFrom, fetchTo = next.Start, c.window.Start.AddDate(0, 0, -1)
	} else {
		fetchFrom, fetchTo = c.window.End.AddDate(0, 0, 1), next.End
	}
	c.mu.Unlock()

	result, err := c.client.GetEvents(callCtx, fetchFrom, fetchTo, rollcall.EmployeeFilters{})

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if ct.expandToken == token {
			c.isExpanding = false
		}
	}()

	if err != nil {
		c.notifier.Notify(NoticeError, "loading more days failed")
		return
	}

	c.window = next
	c.mergeEvents(result)
	c.rebuildDays()
	ct.Renderer.renderLocked()

	if edge == EdgeLeft {
		addedWindow := DateWindow{Start: fetchFrom, End: fetchTo}
		c.sink.ShiftAnchor(len(addedWindow.VisibleDays(c.cfg.ShowWeekends)))
	}
}

// SetShowWeekends flips the weekend display toggle and re-renders. Weekend
// cells stay non-editable either way.
func (ct *Controller) SetShowWeekends(show bool) {
	ct.grid.mu.Lock()
	defer ct.grid.mu.Unlock()
	if ct.grid.cfg.ShowWeekends == show {
		return
	}
	ct.grid.cfg.ShowWeekends = show
	ct.grid.rebuildDays()
	ct.Renderer.renderLocked()
}
