// Package grid implements the interactive roll-call editor: a stateful,
// spreadsheet-style view over roll-call entries with drag selection, clipboard
// pattern paste, undo, and optimistic writes batched behind a debounce. It
// talks to the roll-call service through the Client interface and reports to
// the embedding shell through ViewSink and Notifier.
package grid

import (
	"context"
	"time"

	"flexitime/internal/domain/presence"
	"flexitime/internal/domain/rollcall"
)

// Client is the persistence and authorization boundary. Every call may block
// on the network; the engine releases its state lock while a call is in
// flight.
type Client interface {
	GetEvents(ctx context.Context, from, to time.Time, filters rollcall.EmployeeFilters) (*rollcall.EventsResult, error)
	GetEditableEmployees(ctx context.Context) (rollcall.EditableEmployees, error)
	GetPresenceTypeCatalog(ctx context.Context) ([]presence.Type, error)
	GetAvailablePresenceTypes(ctx context.Context, employee, date string) ([]presence.Type, error)
	SaveEntry(ctx context.Context, employee, date, presenceType string, isHalfDay bool) (rollcall.Entry, error)
	SaveSplitEntry(ctx context.Context, employee, date, amType, pmType string) (rollcall.Entry, error)
	SaveBulkEntries(ctx context.Context, refs []rollcall.CellRef, presenceType string) (rollcall.BulkSaveResult, error)
	SaveBulkSplitEntries(ctx context.Context, refs []rollcall.CellRef, amType, pmType string) (rollcall.BulkSaveResult, error)
	DeleteBulkEntries(ctx context.Context, refs []rollcall.CellRef) (rollcall.BulkDeleteResult, error)
	GetPendingReviewCount(ctx context.Context) (rollcall.PendingReview, error)
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeHint
	NoticeError
)

// Notifier receives user-facing messages. Failures never escape the engine as
// panics; they end up here.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// ViewSink is the render output. GridRendered delivers a freshly built view,
// CellUpdated a single patched handle, ShiftAnchor asks the host to move its
// horizontal scroll position by the given number of columns after the window
// grew on the left.
type ViewSink interface {
	GridRendered(view *GridView)
	CellUpdated(cell *CellView)
	ShiftAnchor(cols int)
}

type nopNotifier struct{}

func (nopNotifier) Notify(NoticeLevel, string) {}

type nopSink struct{}

func (nopSink) GridRendered(*GridView) {}
func (nopSink) CellUpdated(*CellView)  {}
func (nopSink) ShiftAnchor(int)        {}
