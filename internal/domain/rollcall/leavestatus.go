package rollcall

// statusCache carries the pre-fetched data leave-status computation needs so a
// batch of entries costs zero extra queries.
type statusCache struct {
	leaveTypes      map[string]bool
	appStatuses     map[string]string
	viewerEmployee  string
	viewerIsHR      bool
	managedByViewer map[string]bool
}

// canViewDraftStatus: draft visibility is limited to the employee, their line
// manager, and HR. Everyone else sees draft entries as tentative.
func (c *statusCache) canViewDraftStatus(entryEmployee string) bool {
	if c.viewerIsHR {
		return true
	}
	if c.viewerEmployee != "" && c.viewerEmployee == entryEmployee {
		return true
	}
	return c.managedByViewer[entryEmployee]
}

func (c *statusCache) statusFor(presenceType, leaveApplication, entryEmployee string) LeaveStatus {
	if !c.leaveTypes[presenceType] {
		return StatusNone
	}
	if leaveApplication == "" {
		return StatusTentative
	}
	if c.appStatuses[leaveApplication] == AppStatusApproved {
		return StatusApproved
	}
	if c.canViewDraftStatus(entryEmployee) {
		return StatusDraft
	}
	return StatusTentative
}

var statusPriority = map[LeaveStatus]int{
	StatusTentative: 3,
	StatusDraft:     2,
	StatusApproved:  1,
	StatusNone:      0,
}

// worstStatus picks the status that needs the most attention; AM wins ties.
func worstStatus(am, pm LeaveStatus) LeaveStatus {
	if statusPriority[am] >= statusPriority[pm] {
		return am
	}
	return pm
}

// decorateEntry fills the leave-status fields. Split entries get independent
// AM/PM statuses; the overall status is the worst of the two.
func (c *statusCache) decorateEntry(e *Entry) {
	if e.IsHalfDay && e.AMPresenceType != "" && e.PMPresenceType != "" {
		e.AMLeaveStatus = c.statusFor(e.AMPresenceType, e.LeaveApplication, e.EmployeeID)
		e.PMLeaveStatus = c.statusFor(e.PMPresenceType, e.LeaveApplication, e.EmployeeID)
		e.LeaveStatus = worstStatus(e.AMLeaveStatus, e.PMLeaveStatus)
		return
	}
	e.LeaveStatus = c.statusFor(e.PresenceType, e.LeaveApplication, e.EmployeeID)
	e.AMLeaveStatus = ""
	e.PMLeaveStatus = ""
}
