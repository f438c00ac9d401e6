package rollcall

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"flexitime/internal/domain/auth"
)

type DateRange struct {
	FromDate     string `json:"fromDate"`
	ToDate       string `json:"toDate"`
	PresenceType string `json:"presenceType"`
	Label        string `json:"label"`
	Days         int    `json:"days"`
}

type TentativeEmployee struct {
	Employee     string      `json:"employee"`
	EmployeeName string      `json:"employeeName"`
	Days         int         `json:"days"`
	DateRanges   []DateRange `json:"dateRanges"`
}

type PendingApplication struct {
	ID           string  `json:"name"`
	Employee     string  `json:"employee"`
	EmployeeName string  `json:"employeeName"`
	LeaveType    string  `json:"leaveType"`
	FromDate     string  `json:"fromDate"`
	ToDate       string  `json:"toDate"`
	Days         float64 `json:"days"`
}

type ConflictDay struct {
	Date      string   `json:"date"`
	Count     int      `json:"count"`
	Employees []string `json:"employees"`
}

// PlanningSummary aggregates the leave planning picture for one year:
// tentative days not yet backed by an application, applications awaiting
// approval, and days where too many people are away at once.
type PlanningSummary struct {
	Year      int                  `json:"year"`
	Tentative []TentativeEmployee  `json:"tentative"`
	TotalDays int                  `json:"totalTentativeDays"`
	Pending   []PendingApplication `json:"pendingApproval"`
	Conflicts []ConflictDay        `json:"conflicts"`
}

func (s *Service) PlanningSummary(ctx context.Context, viewer auth.UserContext, year int, scope string) (*PlanningSummary, error) {
	if year == 0 {
		year = time.Now().Year()
	}
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	employeeIDs, err := s.summaryScope(ctx, viewer, scope)
	if err != nil {
		return nil, err
	}
	summary := &PlanningSummary{Year: year, Tentative: []TentativeEmployee{}, Pending: []PendingApplication{}, Conflicts: []ConflictDay{}}
	if len(employeeIDs) == 0 {
		return summary, nil
	}

	leaveTypes, err := s.Store.LeaveRequiringTypeIDs(ctx)
	if err != nil {
		return nil, err
	}
	leaveTypeIDs := make([]string, 0, len(leaveTypes))
	for id := range leaveTypes {
		leaveTypeIDs = append(leaveTypeIDs, id)
	}
	sort.Strings(leaveTypeIDs)

	info, err := s.Store.PresenceTypeInfo(ctx)
	if err != nil {
		return nil, err
	}

	if len(leaveTypeIDs) > 0 {
		entries, err := s.Store.TentativeLeaveEntries(ctx, employeeIDs, yearStart, yearEnd, leaveTypeIDs)
		if err != nil {
			return nil, err
		}
		summary.Tentative, summary.TotalDays, err = s.groupTentative(ctx, entries, info)
		if err != nil {
			return nil, err
		}
	}

	apps, err := s.Store.OpenApplicationsFrom(ctx, employeeIDs, yearStart)
	if err != nil {
		return nil, err
	}
	for _, la := range apps {
		name, err := s.Store.EmployeeName(ctx, la.EmployeeID)
		if err != nil {
			return nil, err
		}
		summary.Pending = append(summary.Pending, PendingApplication{
			ID:           la.ID,
			Employee:     la.EmployeeID,
			EmployeeName: name,
			LeaveType:    la.LeaveType,
			FromDate:     la.FromDate,
			ToDate:       la.ToDate,
			Days:         inclusiveDays(la.FromDate, la.ToDate),
		})
	}

	if len(leaveTypeIDs) > 0 {
		counts, err := s.Store.LeaveDayCounts(ctx, employeeIDs, yearStart, yearEnd, leaveTypeIDs)
		if err != nil {
			return nil, err
		}
		for _, c := range counts {
			if c.Count >= s.ConflictThreshold {
				summary.Conflicts = append(summary.Conflicts, ConflictDay(c))
			}
		}
	}

	return summary, nil
}

func (s *Service) summaryScope(ctx context.Context, viewer auth.UserContext, scope string) ([]string, error) {
	switch {
	case scope == "managed" && viewer.EmployeeID != "":
		return s.Store.ManagedEmployeeIDs(ctx, viewer.EmployeeID)
	case viewer.IsHR() || scope == "all":
		employees, err := s.Store.ListRollCallEmployees(ctx, EmployeeFilters{})
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(employees))
		for i, e := range employees {
			ids[i] = e.ID
		}
		return ids, nil
	case scope != "":
		return []string{scope}, nil
	case viewer.EmployeeID != "":
		ids := []string{viewer.EmployeeID}
		reports, err := s.Store.ManagedEmployeeIDs(ctx, viewer.EmployeeID)
		if err != nil {
			return nil, err
		}
		return append(ids, reports...), nil
	default:
		return nil, nil
	}
}

// groupTentative folds per-day tentative entries into consecutive same-type
// date ranges per employee, sorted by total days descending.
func (s *Service) groupTentative(ctx context.Context, entries []Entry, info map[string]PresenceInfo) ([]TentativeEmployee, int, error) {
	byEmployee := map[string][]Entry{}
	for _, e := range entries {
		byEmployee[e.EmployeeID] = append(byEmployee[e.EmployeeID], e)
	}

	var result []TentativeEmployee
	total := 0
	for emp, empEntries := range byEmployee {
		name, err := s.Store.EmployeeName(ctx, emp)
		if err != nil {
			return nil, 0, err
		}
		ranges := groupConsecutiveRanges(empEntries, info)
		total += len(empEntries)
		result = append(result, TentativeEmployee{
			Employee:     emp,
			EmployeeName: name,
			Days:         len(empEntries),
			DateRanges:   ranges,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Days > result[j].Days })
	return result, total, nil
}

func groupConsecutiveRanges(entries []Entry, info map[string]PresenceInfo) []DateRange {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	var ranges []DateRange
	var current *DateRange
	for _, e := range entries {
		label := e.PresenceType
		if pt, ok := info[e.PresenceType]; ok {
			label = pt.Label
		}
		if current != nil && current.PresenceType == e.PresenceType && nextDay(current.ToDate) == e.Date {
			current.ToDate = e.Date
			current.Days++
			continue
		}
		if current != nil {
			ranges = append(ranges, *current)
		}
		current = &DateRange{
			FromDate:     e.Date,
			ToDate:       e.Date,
			PresenceType: e.PresenceType,
			Label:        label,
			Days:         1,
		}
	}
	if current != nil {
		ranges = append(ranges, *current)
	}
	return ranges
}

func nextDay(date string) string {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(DateFormat)
}

func inclusiveDays(from, to string) float64 {
	start, err := time.Parse(DateFormat, from)
	if err != nil {
		return 0
	}
	end, err := time.Parse(DateFormat, to)
	if err != nil || end.Before(start) {
		return 0
	}
	return end.Sub(start).Hours()/24 + 1
}

// PlanningSummaryPDF renders the summary to a PDF file under dir and returns
// its path.
func (s *Service) PlanningSummaryPDF(summary *PlanningSummary, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(dir, fmt.Sprintf("leave-planning-%d.pdf", summary.Year))

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Leave Planning %d", summary.Year))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Tentative leave: %d days across %d employees", summary.TotalDays, len(summary.Tentative)))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	for _, emp := range summary.Tentative {
		pdf.Cell(0, 7, fmt.Sprintf("%s: %d days", emp.EmployeeName, emp.Days))
		pdf.Ln(6)
		for _, r := range emp.DateRanges {
			pdf.Cell(0, 6, fmt.Sprintf("   %s to %s (%s, %d days)", r.FromDate, r.ToDate, r.Label, r.Days))
			pdf.Ln(5)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Awaiting approval: %d", len(summary.Pending)))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	for _, app := range summary.Pending {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %s %s to %s (%.1f days)", app.EmployeeName, app.LeaveType, app.FromDate, app.ToDate, app.Days))
		pdf.Ln(5)
	}

	if len(summary.Conflicts) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Conflict days")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		for _, c := range summary.Conflicts {
			pdf.Cell(0, 6, fmt.Sprintf("%s: %d employees away", c.Date, c.Count))
			pdf.Ln(5)
		}
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
