package rollcall

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	DB DB
}

func NewStore(db DB) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

func (s *Store) ListRollCallEmployees(ctx context.Context, filters EmployeeFilters) ([]Employee, error) {
	query := `
    SELECT e.id, e.employee_name, e.nickname, e.image, COALESCE(e.department, '')
    FROM employees e
    JOIN companies c ON e.company_id = c.id
    WHERE e.status = 'Active' AND e.show_in_roll_call`
	args := []any{}
	if filters.Company != "" {
		args = append(args, filters.Company)
		query += fmt.Sprintf(" AND c.name = $%d", len(args))
	}
	if filters.Department != "" {
		args = append(args, filters.Department)
		query += fmt.Sprintf(" AND e.department = $%d", len(args))
	}
	query += " ORDER BY e.employee_name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Nickname, &e.Image, &e.Department); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) EmployeeName(ctx context.Context, employeeID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, `SELECT employee_name FROM employees WHERE id = $1`, employeeID).Scan(&name)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	return name, err
}

func (s *Store) ManagedEmployeeIDs(ctx context.Context, managerID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM employees
    WHERE reports_to = $1 AND status = 'Active'
  `, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ManagedEmployeeSet resolves which of the candidates report to the manager in
// one query instead of per-employee checks.
func (s *Store) ManagedEmployeeSet(ctx context.Context, managerID string, candidates []string) (map[string]bool, error) {
	managed := map[string]bool{}
	if managerID == "" || len(candidates) == 0 {
		return managed, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM employees
    WHERE id = ANY($1) AND reports_to = $2
  `, candidates, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		managed[id] = true
	}
	return managed, rows.Err()
}

const entryColumns = `
    r.id, r.employee_id, r.date, COALESCE(r.presence_type, ''), r.is_half_day,
    COALESCE(r.am_presence_type, ''), COALESCE(r.pm_presence_type, ''),
    r.is_locked, COALESCE(r.leave_application::text, ''), r.source`

func scanEntry(rows pgx.Rows) (Entry, error) {
	var e Entry
	var date time.Time
	err := rows.Scan(&e.ID, &e.EmployeeID, &date, &e.PresenceType, &e.IsHalfDay,
		&e.AMPresenceType, &e.PMPresenceType, &e.IsLocked, &e.LeaveApplication, &e.Source)
	if err != nil {
		return Entry{}, err
	}
	e.Date = date.Format(DateFormat)
	return e, nil
}

func (s *Store) EntriesInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+entryColumns+`
    FROM roll_call_entries r
    WHERE r.employee_id = ANY($1) AND r.date BETWEEN $2 AND $3
    ORDER BY r.employee_id, r.date
  `, employeeIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) EntriesByKeys(ctx context.Context, refs []CellRef) ([]Entry, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	employees, dates := refColumns(refs)
	rows, err := s.DB.Query(ctx, `
    SELECT`+entryColumns+`
    FROM roll_call_entries r
    JOIN unnest($1::uuid[], $2::date[]) AS k(employee_id, date)
      ON r.employee_id = k.employee_id AND r.date = k.date
  `, employees, dates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ExistingEntryKeys(ctx context.Context, employeeIDs []string, from, to time.Time) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, date FROM roll_call_entries
    WHERE employee_id = ANY($1) AND date BETWEEN $2 AND $3
  `, employeeIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := map[string]bool{}
	for rows.Next() {
		var employee string
		var date time.Time
		if err := rows.Scan(&employee, &date); err != nil {
			return nil, err
		}
		keys[employee+"|"+date.Format(DateFormat)] = true
	}
	return keys, rows.Err()
}

func (s *Store) ExistingEntriesForRefs(ctx context.Context, refs []CellRef) (map[string]Entry, error) {
	entries, err := s.EntriesByKeys(ctx, refs)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byKey[e.EmployeeID+"|"+e.Date] = e
	}
	return byKey, nil
}

func (s *Store) GetEntry(ctx context.Context, employeeID, date string) (Entry, bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+entryColumns+`
    FROM roll_call_entries r
    WHERE r.employee_id = $1 AND r.date = $2
  `, employeeID, date)
	if err != nil {
		return Entry{}, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return Entry{}, false, rows.Err()
	}
	e, err := scanEntry(rows)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s *Store) PresenceTypeInfo(ctx context.Context) (map[string]PresenceInfo, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, label, icon, color, COALESCE(leave_type, '') FROM presence_types
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	info := map[string]PresenceInfo{}
	for rows.Next() {
		var p PresenceInfo
		if err := rows.Scan(&p.ID, &p.Label, &p.Icon, &p.Color, &p.LeaveType); err != nil {
			return nil, err
		}
		info[p.ID] = p
	}
	return info, rows.Err()
}

func (s *Store) LeaveRequiringTypeIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM presence_types WHERE requires_leave_application
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (s *Store) PresenceTypeByLeaveType(ctx context.Context) (map[string]PresenceInfo, error) {
	info, err := s.PresenceTypeInfo(ctx)
	if err != nil {
		return nil, err
	}
	byLeave := map[string]PresenceInfo{}
	for _, p := range info {
		if p.LeaveType != "" {
			byLeave[p.LeaveType] = p
		}
	}
	return byLeave, nil
}

func (s *Store) LeaveAppStatuses(ctx context.Context, appIDs []string) (map[string]string, error) {
	statuses := map[string]string{}
	if len(appIDs) == 0 {
		return statuses, nil
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, status FROM leave_applications WHERE id = ANY($1)
  `, appIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		statuses[id] = status
	}
	return statuses, rows.Err()
}

func (s *Store) OpenLeaveApplications(ctx context.Context, employeeIDs []string, from, to time.Time) ([]LeaveApplication, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, leave_type, from_date, to_date, half_day, half_day_date, status
    FROM leave_applications
    WHERE employee_id = ANY($1) AND from_date <= $3 AND to_date >= $2 AND status = 'Open'
  `, employeeIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeaveApplications(rows)
}

func scanLeaveApplications(rows pgx.Rows) ([]LeaveApplication, error) {
	var apps []LeaveApplication
	for rows.Next() {
		var la LeaveApplication
		var fromDate, toDate time.Time
		var halfDayDate sql.NullTime
		if err := rows.Scan(&la.ID, &la.EmployeeID, &la.LeaveType, &fromDate, &toDate,
			&la.HalfDay, &halfDayDate, &la.Status); err != nil {
			return nil, err
		}
		la.FromDate = fromDate.Format(DateFormat)
		la.ToDate = toDate.Format(DateFormat)
		if halfDayDate.Valid {
			la.HalfDayDate = halfDayDate.Time.Format(DateFormat)
		}
		apps = append(apps, la)
	}
	return apps, rows.Err()
}

// FindLinkableLeaveApplication returns an open or approved application covering
// the date for the given leave type, used to auto-link saved entries.
func (s *Store) FindLinkableLeaveApplication(ctx context.Context, employeeID, date, leaveType string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM leave_applications
    WHERE employee_id = $1 AND from_date <= $2 AND to_date >= $2
      AND leave_type = $3 AND status IN ('Open', 'Approved')
    ORDER BY created_at DESC
    LIMIT 1
  `, employeeID, date, leaveType).Scan(&id)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	return id, err
}

func (s *Store) CountOpenLeaveApplications(ctx context.Context, employeeIDs []string) (int, error) {
	var count int
	var err error
	if employeeIDs == nil {
		err = s.DB.QueryRow(ctx, `
      SELECT COUNT(1) FROM leave_applications WHERE status = 'Open'
    `).Scan(&count)
	} else {
		err = s.DB.QueryRow(ctx, `
      SELECT COUNT(1) FROM leave_applications WHERE status = 'Open' AND employee_id = ANY($1)
    `, employeeIDs).Scan(&count)
	}
	return count, err
}

func (s *Store) RecordedHours(ctx context.Context, employeeID, date string) (float64, error) {
	var hours float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(hours, 0) FROM recorded_hours WHERE employee_id = $1 AND date = $2
  `, employeeID, date).Scan(&hours)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return hours, err
}

func refColumns(refs []CellRef) ([]string, []string) {
	employees := make([]string, 0, len(refs))
	dates := make([]string, 0, len(refs))
	for _, ref := range refs {
		employees = append(employees, ref.Employee)
		dates = append(dates, ref.Date)
	}
	return employees, dates
}
