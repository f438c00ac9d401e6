package rollcall

// LeaveStatus describes how an entry relates to the leave workflow. Worst to
// best: tentative (leave-type presence with no application), draft (application
// exists, not approved), approved, none (not leave at all).
type LeaveStatus string

const (
	StatusNone      LeaveStatus = "none"
	StatusTentative LeaveStatus = "tentative"
	StatusDraft     LeaveStatus = "draft"
	StatusApproved  LeaveStatus = "approved"
)

const (
	SourceManual  = "Manual"
	SourceSystem  = "System"
	SourcePattern = "Pattern"
)

const (
	AppStatusOpen      = "Open"
	AppStatusApproved  = "Approved"
	AppStatusRejected  = "Rejected"
	AppStatusCancelled = "Cancelled"
)

// DateFormat is the wire format for all roll-call dates.
const DateFormat = "2006-01-02"

type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Nickname   string `json:"nickname,omitempty"`
	Image      string `json:"image,omitempty"`
	Department string `json:"department,omitempty"`
}

// Entry is the persisted presence record for one (employee, date) pair.
type Entry struct {
	ID               string      `json:"id"`
	EmployeeID       string      `json:"employee"`
	Date             string      `json:"date"`
	PresenceType     string      `json:"presenceType,omitempty"`
	PresenceIcon     string      `json:"presenceTypeIcon,omitempty"`
	PresenceLabel    string      `json:"presenceTypeLabel,omitempty"`
	IsHalfDay        bool        `json:"isHalfDay"`
	AMPresenceType   string      `json:"amPresenceType,omitempty"`
	PMPresenceType   string      `json:"pmPresenceType,omitempty"`
	AMPresenceIcon   string      `json:"amPresenceIcon,omitempty"`
	PMPresenceIcon   string      `json:"pmPresenceIcon,omitempty"`
	IsLocked         bool        `json:"isLocked"`
	LeaveApplication string      `json:"leaveApplication,omitempty"`
	Source           string      `json:"source"`
	LeaveStatus      LeaveStatus `json:"leaveStatus"`
	AMLeaveStatus    LeaveStatus `json:"amLeaveStatus,omitempty"`
	PMLeaveStatus    LeaveStatus `json:"pmLeaveStatus,omitempty"`
}

// PendingLeave projects an open leave application onto one date. It is
// read-only from the grid's point of view and takes precedence over any entry.
type PendingLeave struct {
	ApplicationID string `json:"name"`
	LeaveType     string `json:"leaveType"`
	Status        string `json:"status"`
	IsHalfDay     bool   `json:"isHalfDay"`
	PresenceType  string `json:"presenceType,omitempty"`
	Icon          string `json:"icon"`
	Label         string `json:"label"`
	Color         string `json:"color"`
}

// CellRef addresses one grid cell on the wire.
type CellRef struct {
	Employee string `json:"employee"`
	Date     string `json:"date"`
}

func (c CellRef) Key() string { return c.Employee + "|" + c.Date }

type EmployeeFilters struct {
	Company    string `json:"company,omitempty"`
	Department string `json:"department,omitempty"`
}

type MissingPattern struct {
	Employee     string `json:"employee"`
	EmployeeName string `json:"employeeName"`
}

type EventsWarnings struct {
	MissingWorkPatterns []MissingPattern `json:"missingWorkPatterns,omitempty"`
}

// EventsResult is the single combined payload the grid bootstraps from.
// PendingLeaves is keyed employee -> date -> applications.
type EventsResult struct {
	Employees       []Employee                           `json:"employees"`
	Entries         map[string][]Entry                   `json:"entries"`
	PendingLeaves   map[string]map[string][]PendingLeave `json:"pendingLeaves"`
	CurrentEmployee string                               `json:"currentEmployee,omitempty"`
	Warnings        EventsWarnings                       `json:"warnings"`
}

type BulkSaveResult struct {
	Saved   int     `json:"saved"`
	Total   int     `json:"total"`
	Entries []Entry `json:"entries"`
}

type FailedCell struct {
	CellRef
	Reason string `json:"reason"`
}

type BulkDeleteResult struct {
	Deleted int          `json:"deleted"`
	Total   int          `json:"total"`
	Entries []CellRef    `json:"entries"`
	Failed  []FailedCell `json:"failedEntries,omitempty"`
}

type EditableEmployees struct {
	CanEditAll        bool     `json:"canEditAll"`
	EditableEmployees []string `json:"editableEmployees"`
}

type PendingReview struct {
	Count      int  `json:"count"`
	CanApprove bool `json:"canApprove"`
}

// LeaveApplication rows as the service reads them for pending-leave expansion.
type LeaveApplication struct {
	ID          string
	EmployeeID  string
	LeaveType   string
	FromDate    string
	ToDate      string
	HalfDay     bool
	HalfDayDate string
	Status      string
}
