package rollcall

import "errors"

var (
	// ErrForbidden: the viewer may not edit the targeted employee's entries.
	ErrForbidden = errors.New("you can only edit your own roll call entries")

	// ErrNoEmployeeRecord: the user account has no linked employee record.
	// Administrator-fixable configuration error, surfaced verbatim.
	ErrNoEmployeeRecord = errors.New("your user account is not linked to an employee record, please contact HR")

	ErrEntryLocked          = errors.New("this entry is locked and cannot be modified")
	ErrApprovedLeaveExists  = errors.New("an approved leave application exists for this date, cancel the leave first")
	ErrHoursRecorded        = errors.New("hours are already recorded for this date, clear them first")
	ErrLeaveAppRequired     = errors.New("this presence type requires a leave application, create one first")
	ErrPresenceTypeNotFound = errors.New("presence type not found")
	ErrInvalidDateRange     = errors.New("invalid date range")
)
