package rollcall

import (
	"context"
	"fmt"
	"time"

	"flexitime/internal/domain/auth"
)

type Service struct {
	Store StoreAPI

	HolidayAutofill bool
	DayOffAutofill  bool
	HolidayTypeID   string
	DayOffTypeID    string

	// ConflictThreshold is the minimum number of overlapping leaves on one day
	// before the planning summary reports it as a conflict.
	ConflictThreshold int
}

func NewService(store StoreAPI, holidayTypeID, dayOffTypeID string) *Service {
	return &Service{
		Store:             store,
		HolidayAutofill:   true,
		DayOffAutofill:    true,
		HolidayTypeID:     holidayTypeID,
		DayOffTypeID:      dayOffTypeID,
		ConflictThreshold: 3,
	}
}

// canEditEmployeeEntry: HR edits anyone, everyone edits themselves, approvers
// edit their direct reports.
func (s *Service) canEditEmployeeEntry(ctx context.Context, viewer auth.UserContext, target string) (bool, error) {
	if target == "" {
		return false, nil
	}
	if viewer.IsHR() {
		return true, nil
	}
	if viewer.EmployeeID == "" {
		return false, nil
	}
	if viewer.EmployeeID == target {
		return true, nil
	}
	if viewer.IsApprover() {
		managed, err := s.Store.ManagedEmployeeSet(ctx, viewer.EmployeeID, []string{target})
		if err != nil {
			return false, err
		}
		return managed[target], nil
	}
	return false, nil
}

func (s *Service) EditableEmployees(ctx context.Context, viewer auth.UserContext) (EditableEmployees, error) {
	if viewer.IsHR() {
		return EditableEmployees{CanEditAll: true, EditableEmployees: []string{}}, nil
	}
	if viewer.EmployeeID == "" {
		return EditableEmployees{EditableEmployees: []string{}}, nil
	}

	editable := []string{viewer.EmployeeID}
	if viewer.IsApprover() {
		reports, err := s.Store.ManagedEmployeeIDs(ctx, viewer.EmployeeID)
		if err != nil {
			return EditableEmployees{}, err
		}
		editable = append(editable, reports...)
	}
	return EditableEmployees{EditableEmployees: editable}, nil
}

// GetEvents is the single combined fetch the grid bootstraps and refreshes
// from: employees, decorated entries grouped by employee, pending leaves
// expanded per date, and configuration warnings.
func (s *Service) GetEvents(ctx context.Context, viewer auth.UserContext, from, to time.Time, filters EmployeeFilters) (*EventsResult, error) {
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	employees, err := s.Store.ListRollCallEmployees(ctx, filters)
	if err != nil {
		return nil, err
	}

	result := &EventsResult{
		Employees:       employees,
		Entries:         map[string][]Entry{},
		PendingLeaves:   map[string]map[string][]PendingLeave{},
		CurrentEmployee: viewer.EmployeeID,
	}
	if len(employees) == 0 {
		return result, nil
	}

	employeeIDs := make([]string, len(employees))
	for i, e := range employees {
		employeeIDs[i] = e.ID
	}

	existing, err := s.Store.ExistingEntryKeys(ctx, employeeIDs, from, to)
	if err != nil {
		return nil, err
	}
	s.autofillSystemEntries(ctx, employeeIDs, from, to, existing)

	entries, err := s.Store.EntriesInRange(ctx, employeeIDs, from, to)
	if err != nil {
		return nil, err
	}

	cache, err := s.buildStatusCache(ctx, viewer, entries, employeeIDs)
	if err != nil {
		return nil, err
	}
	info, err := s.Store.PresenceTypeInfo(ctx)
	if err != nil {
		return nil, err
	}

	for _, id := range employeeIDs {
		result.Entries[id] = []Entry{}
		result.PendingLeaves[id] = map[string][]PendingLeave{}
	}
	for i := range entries {
		cache.decorateEntry(&entries[i])
		decorateWithInfo(&entries[i], info)
		result.Entries[entries[i].EmployeeID] = append(result.Entries[entries[i].EmployeeID], entries[i])
	}

	if err := s.expandPendingLeaves(ctx, result, employeeIDs, from, to); err != nil {
		return nil, err
	}

	missing, err := s.Store.EmployeesMissingPattern(ctx, employeeIDs, from)
	if err != nil {
		return nil, err
	}
	result.Warnings.MissingWorkPatterns = missing

	return result, nil
}

// expandPendingLeaves projects each open application onto the dates it covers
// inside the window, joined with the presence type mapped to its leave type.
func (s *Service) expandPendingLeaves(ctx context.Context, result *EventsResult, employeeIDs []string, from, to time.Time) error {
	apps, err := s.Store.OpenLeaveApplications(ctx, employeeIDs, from, to)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		return nil
	}

	byLeaveType, err := s.Store.PresenceTypeByLeaveType(ctx)
	if err != nil {
		return err
	}

	for _, la := range apps {
		appFrom, err := time.Parse(DateFormat, la.FromDate)
		if err != nil {
			continue
		}
		appTo, err := time.Parse(DateFormat, la.ToDate)
		if err != nil {
			continue
		}

		pt, hasType := byLeaveType[la.LeaveType]
		for date := appFrom; !date.After(appTo); date = date.AddDate(0, 0, 1) {
			if date.Before(from) || date.After(to) {
				continue
			}
			dateKey := date.Format(DateFormat)
			leave := PendingLeave{
				ApplicationID: la.ID,
				LeaveType:     la.LeaveType,
				Status:        la.Status,
				IsHalfDay:     la.HalfDay && la.HalfDayDate == dateKey,
				Icon:          "\U0001F4CB",
				Label:         la.LeaveType,
				Color:         "#fef3c7",
			}
			if hasType {
				leave.PresenceType = pt.ID
				leave.Icon = pt.Icon
				leave.Label = pt.Label
				leave.Color = pt.Color
			}
			byDate := result.PendingLeaves[la.EmployeeID]
			if byDate == nil {
				byDate = map[string][]PendingLeave{}
				result.PendingLeaves[la.EmployeeID] = byDate
			}
			byDate[dateKey] = append(byDate[dateKey], leave)
		}
	}
	return nil
}

func (s *Service) buildStatusCache(ctx context.Context, viewer auth.UserContext, entries []Entry, employeeIDs []string) (*statusCache, error) {
	leaveTypes, err := s.Store.LeaveRequiringTypeIDs(ctx)
	if err != nil {
		return nil, err
	}

	var appIDs []string
	for _, e := range entries {
		if e.LeaveApplication != "" {
			appIDs = append(appIDs, e.LeaveApplication)
		}
	}
	statuses, err := s.Store.LeaveAppStatuses(ctx, appIDs)
	if err != nil {
		return nil, err
	}

	managed := map[string]bool{}
	if !viewer.IsHR() && viewer.EmployeeID != "" {
		managed, err = s.Store.ManagedEmployeeSet(ctx, viewer.EmployeeID, employeeIDs)
		if err != nil {
			return nil, err
		}
	}

	return &statusCache{
		leaveTypes:      leaveTypes,
		appStatuses:     statuses,
		viewerEmployee:  viewer.EmployeeID,
		viewerIsHR:      viewer.IsHR(),
		managedByViewer: managed,
	}, nil
}

func decorateWithInfo(e *Entry, info map[string]PresenceInfo) {
	if pt, ok := info[e.PresenceType]; ok {
		e.PresenceIcon = pt.Icon
		e.PresenceLabel = pt.Label
	}
	if pt, ok := info[e.AMPresenceType]; ok {
		e.AMPresenceIcon = pt.Icon
	}
	if pt, ok := info[e.PMPresenceType]; ok {
		e.PMPresenceIcon = pt.Icon
	}
}

// validatePresenceType guards leave-type presence saves: an approved
// application blocks the edit, recorded hours block leave, and a leave-type
// presence without any application to link to is rejected. Returns the
// application to auto-link, if one exists.
func (s *Service) validatePresenceType(ctx context.Context, employeeID, date, presenceType string) (string, error) {
	if presenceType == "" {
		return "", nil
	}

	leaveTypes, err := s.Store.LeaveRequiringTypeIDs(ctx)
	if err != nil {
		return "", err
	}
	if !leaveTypes[presenceType] {
		return "", nil
	}

	info, err := s.Store.PresenceTypeInfo(ctx)
	if err != nil {
		return "", err
	}
	pt, ok := info[presenceType]
	if !ok {
		return "", ErrPresenceTypeNotFound
	}

	existing, found, err := s.Store.GetEntry(ctx, employeeID, date)
	if err != nil {
		return "", err
	}
	if found && existing.LeaveApplication != "" {
		statuses, err := s.Store.LeaveAppStatuses(ctx, []string{existing.LeaveApplication})
		if err != nil {
			return "", err
		}
		if statuses[existing.LeaveApplication] == AppStatusApproved {
			return "", fmt.Errorf("%s: %w", date, ErrApprovedLeaveExists)
		}
	}

	hours, err := s.Store.RecordedHours(ctx, employeeID, date)
	if err != nil {
		return "", err
	}
	if hours > 0 {
		return "", fmt.Errorf("%s has %.1f hours recorded: %w", date, hours, ErrHoursRecorded)
	}

	appID, err := s.Store.FindLinkableLeaveApplication(ctx, employeeID, date, pt.LeaveType)
	if err != nil {
		return "", err
	}
	if appID == "" {
		return "", fmt.Errorf("%q on %s: %w", presenceType, date, ErrLeaveAppRequired)
	}
	return appID, nil
}

// SaveEntry writes one full-day entry, clearing any split fields.
func (s *Service) SaveEntry(ctx context.Context, viewer auth.UserContext, employeeID, date, presenceType string, isHalfDay bool) (Entry, error) {
	ok, err := s.canEditEmployeeEntry(ctx, viewer, employeeID)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrForbidden
	}

	appID, err := s.validatePresenceType(ctx, employeeID, date, presenceType)
	if err != nil {
		return Entry{}, err
	}

	existing, found, err := s.Store.GetEntry(ctx, employeeID, date)
	if err != nil {
		return Entry{}, err
	}
	if found && existing.IsLocked {
		return Entry{}, ErrEntryLocked
	}

	entry := Entry{
		EmployeeID:       employeeID,
		Date:             date,
		PresenceType:     presenceType,
		IsHalfDay:        isHalfDay,
		LeaveApplication: appID,
		Source:           SourceManual,
	}
	if err := s.Store.UpsertEntry(ctx, entry); err != nil {
		return Entry{}, err
	}
	return s.fetchDecorated(ctx, viewer, employeeID, date)
}

// SaveSplitEntry writes an AM/PM split day. The main presence type mirrors the
// AM half for consumers that only read the single-type field.
func (s *Service) SaveSplitEntry(ctx context.Context, viewer auth.UserContext, employeeID, date, amType, pmType string) (Entry, error) {
	ok, err := s.canEditEmployeeEntry(ctx, viewer, employeeID)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrForbidden
	}

	amApp, err := s.validatePresenceType(ctx, employeeID, date, amType)
	if err != nil {
		return Entry{}, err
	}
	pmApp, err := s.validatePresenceType(ctx, employeeID, date, pmType)
	if err != nil {
		return Entry{}, err
	}
	appID := amApp
	if appID == "" {
		appID = pmApp
	}

	existing, found, err := s.Store.GetEntry(ctx, employeeID, date)
	if err != nil {
		return Entry{}, err
	}
	if found && existing.IsLocked {
		return Entry{}, ErrEntryLocked
	}

	entry := Entry{
		EmployeeID:       employeeID,
		Date:             date,
		PresenceType:     amType,
		IsHalfDay:        true,
		AMPresenceType:   amType,
		PMPresenceType:   pmType,
		LeaveApplication: appID,
		Source:           SourceManual,
	}
	if err := s.Store.UpsertEntry(ctx, entry); err != nil {
		return Entry{}, err
	}
	return s.fetchDecorated(ctx, viewer, employeeID, date)
}

func (s *Service) fetchDecorated(ctx context.Context, viewer auth.UserContext, employeeID, date string) (Entry, error) {
	entry, _, err := s.Store.GetEntry(ctx, employeeID, date)
	if err != nil {
		return Entry{}, err
	}
	cache, err := s.buildStatusCache(ctx, viewer, []Entry{entry}, []string{employeeID})
	if err != nil {
		return Entry{}, err
	}
	info, err := s.Store.PresenceTypeInfo(ctx)
	if err != nil {
		return Entry{}, err
	}
	cache.decorateEntry(&entry)
	decorateWithInfo(&entry, info)
	return entry, nil
}

// checkBulkPermission verifies the viewer may edit every employee in the batch.
func (s *Service) checkBulkPermission(ctx context.Context, viewer auth.UserContext, refs []CellRef) error {
	if viewer.IsHR() {
		return nil
	}
	if viewer.EmployeeID == "" {
		return ErrNoEmployeeRecord
	}

	targets := map[string]bool{}
	for _, ref := range refs {
		if ref.Employee != viewer.EmployeeID {
			targets[ref.Employee] = true
		}
	}
	if len(targets) == 0 {
		return nil
	}
	if !viewer.IsApprover() {
		return ErrForbidden
	}

	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	managed, err := s.Store.ManagedEmployeeSet(ctx, viewer.EmployeeID, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !managed[id] {
			return ErrForbidden
		}
	}
	return nil
}

// SaveBulk applies one presence type to every referenced cell. dayPart "am" or
// "pm" converts the target cells to splits, keeping the other half from the
// existing entry. Locked cells are skipped, not errors.
func (s *Service) SaveBulk(ctx context.Context, viewer auth.UserContext, refs []CellRef, presenceType, dayPart string) (BulkSaveResult, error) {
	if len(refs) == 0 {
		return BulkSaveResult{}, nil
	}
	if err := s.checkBulkPermission(ctx, viewer, refs); err != nil {
		return BulkSaveResult{}, err
	}

	info, err := s.Store.PresenceTypeInfo(ctx)
	if err != nil {
		return BulkSaveResult{}, err
	}
	if _, ok := info[presenceType]; !ok {
		return BulkSaveResult{}, fmt.Errorf("%q: %w", presenceType, ErrPresenceTypeNotFound)
	}

	existingMap, err := s.Store.ExistingEntriesForRefs(ctx, refs)
	if err != nil {
		return BulkSaveResult{}, err
	}

	var toWrite []Entry
	for _, ref := range refs {
		existing, found := existingMap[ref.Key()]
		if found && existing.IsLocked {
			continue
		}

		entry := Entry{
			EmployeeID:   ref.Employee,
			Date:         ref.Date,
			PresenceType: presenceType,
			Source:       SourceManual,
		}
		switch dayPart {
		case "am":
			entry.IsHalfDay = true
			entry.AMPresenceType = presenceType
			entry.PMPresenceType = otherHalf(existing, found, false)
		case "pm":
			entry.IsHalfDay = true
			entry.PMPresenceType = presenceType
			entry.AMPresenceType = otherHalf(existing, found, true)
			entry.PresenceType = entry.AMPresenceType
		}
		toWrite = append(toWrite, entry)
	}

	if err := s.Store.BulkUpsertEntries(ctx, toWrite); err != nil {
		return BulkSaveResult{}, err
	}
	return s.bulkResult(ctx, viewer, refs, len(toWrite))
}

// otherHalf resolves what the non-targeted half of a converted split keeps:
// the existing half if present, else the existing full-day type, else the new
// type itself (both halves equal).
func otherHalf(existing Entry, found, am bool) string {
	if !found {
		return ""
	}
	half := existing.PMPresenceType
	if am {
		half = existing.AMPresenceType
	}
	if half != "" {
		return half
	}
	return existing.PresenceType
}

// SaveBulkSplit applies the same AM/PM pair to every referenced cell.
func (s *Service) SaveBulkSplit(ctx context.Context, viewer auth.UserContext, refs []CellRef, amType, pmType string) (BulkSaveResult, error) {
	if len(refs) == 0 {
		return BulkSaveResult{}, nil
	}
	if err := s.checkBulkPermission(ctx, viewer, refs); err != nil {
		return BulkSaveResult{}, err
	}

	info, err := s.Store.PresenceTypeInfo(ctx)
	if err != nil {
		return BulkSaveResult{}, err
	}
	for _, id := range []string{amType, pmType} {
		if _, ok := info[id]; !ok {
			return BulkSaveResult{}, fmt.Errorf("%q: %w", id, ErrPresenceTypeNotFound)
		}
	}

	existingMap, err := s.Store.ExistingEntriesForRefs(ctx, refs)
	if err != nil {
		return BulkSaveResult{}, err
	}

	var toWrite []Entry
	for _, ref := range refs {
		if existing, found := existingMap[ref.Key()]; found && existing.IsLocked {
			continue
		}
		toWrite = append(toWrite, Entry{
			EmployeeID:     ref.Employee,
			Date:           ref.Date,
			PresenceType:   amType,
			IsHalfDay:      true,
			AMPresenceType: amType,
			PMPresenceType: pmType,
			Source:         SourceManual,
		})
	}

	if err := s.Store.BulkUpsertEntries(ctx, toWrite); err != nil {
		return BulkSaveResult{}, err
	}
	return s.bulkResult(ctx, viewer, refs, len(toWrite))
}

// bulkResult re-fetches the written rows so the grid reconciles against what
// the database actually holds, not what the client asked for.
func (s *Service) bulkResult(ctx context.Context, viewer auth.UserContext, refs []CellRef, saved int) (BulkSaveResult, error) {
	entries, err := s.Store.EntriesByKeys(ctx, refs)
	if err != nil {
		return BulkSaveResult{}, err
	}

	employeeIDs := make([]string, 0, len(refs))
	seen := map[string]bool{}
	for _, ref := range refs {
		if !seen[ref.Employee] {
			seen[ref.Employee] = true
			employeeIDs = append(employeeIDs, ref.Employee)
		}
	}

	cache, err := s.buildStatusCache(ctx, viewer, entries, employeeIDs)
	if err != nil {
		return BulkSaveResult{}, err
	}
	info, err := s.Store.PresenceTypeInfo(ctx)
	if err != nil {
		return BulkSaveResult{}, err
	}
	for i := range entries {
		cache.decorateEntry(&entries[i])
		decorateWithInfo(&entries[i], info)
	}

	return BulkSaveResult{Saved: saved, Total: len(refs), Entries: entries}, nil
}

// DeleteBulk removes the referenced entries. Locked entries are reported as
// failed, never deleted.
func (s *Service) DeleteBulk(ctx context.Context, viewer auth.UserContext, refs []CellRef) (BulkDeleteResult, error) {
	if len(refs) == 0 {
		return BulkDeleteResult{}, nil
	}
	if err := s.checkBulkPermission(ctx, viewer, refs); err != nil {
		return BulkDeleteResult{}, err
	}

	existingMap, err := s.Store.ExistingEntriesForRefs(ctx, refs)
	if err != nil {
		return BulkDeleteResult{}, err
	}

	result := BulkDeleteResult{Total: len(refs)}
	var toDelete []CellRef
	for _, ref := range refs {
		existing, found := existingMap[ref.Key()]
		if !found {
			continue
		}
		if existing.IsLocked {
			result.Failed = append(result.Failed, FailedCell{CellRef: ref, Reason: "locked"})
			continue
		}
		toDelete = append(toDelete, ref)
	}

	if err := s.Store.DeleteEntries(ctx, toDelete); err != nil {
		return BulkDeleteResult{}, err
	}
	result.Deleted = len(toDelete)
	result.Entries = toDelete
	return result, nil
}

// PendingReviewCount backs the review badge: HR counts every open application,
// approvers count their direct reports', everyone else approves nothing.
func (s *Service) PendingReviewCount(ctx context.Context, viewer auth.UserContext) (PendingReview, error) {
	if viewer.IsHR() {
		count, err := s.Store.CountOpenLeaveApplications(ctx, nil)
		if err != nil {
			return PendingReview{}, err
		}
		return PendingReview{Count: count, CanApprove: true}, nil
	}

	if viewer.IsApprover() && viewer.EmployeeID != "" {
		managed, err := s.Store.ManagedEmployeeIDs(ctx, viewer.EmployeeID)
		if err != nil {
			return PendingReview{}, err
		}
		if len(managed) == 0 {
			return PendingReview{}, nil
		}
		count, err := s.Store.CountOpenLeaveApplications(ctx, managed)
		if err != nil {
			return PendingReview{}, err
		}
		return PendingReview{Count: count, CanApprove: true}, nil
	}

	return PendingReview{}, nil
}
