package presence

// Type is one entry of the presence-type catalog. The catalog is loaded once
// per grid session and treated as read-only; IDs are stable slugs ("office",
// "remote", "annual_leave", ...).
type Type struct {
	ID                       string `json:"id"`
	Label                    string `json:"label"`
	Icon                     string `json:"icon"`
	Color                    string `json:"color"`
	ExpectWorkHours          bool   `json:"expectWorkHours"`
	RequiresLeaveApplication bool   `json:"requiresLeaveApplication"`
	LeaveType                string `json:"leaveType,omitempty"`
	AvailableToAll           bool   `json:"availableToAll"`
	SortOrder                int    `json:"sortOrder"`
}
