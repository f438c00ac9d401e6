package rollcall

import (
	"context"
	"database/sql"
	"time"
)

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// UpsertEntry writes one entry keyed by (employee, date). Split fields are
// written as given; callers clear them when saving a full day.
func (s *Store) UpsertEntry(ctx context.Context, e Entry) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO roll_call_entries
      (employee_id, date, presence_type, is_half_day, am_presence_type, pm_presence_type,
       leave_application, source, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
    ON CONFLICT (employee_id, date) DO UPDATE SET
      presence_type = EXCLUDED.presence_type,
      is_half_day = EXCLUDED.is_half_day,
      am_presence_type = EXCLUDED.am_presence_type,
      pm_presence_type = EXCLUDED.pm_presence_type,
      leave_application = COALESCE(EXCLUDED.leave_application, roll_call_entries.leave_application),
      source = EXCLUDED.source,
      updated_at = now()
  `, e.EmployeeID, e.Date, nullable(e.PresenceType), e.IsHalfDay,
		nullable(e.AMPresenceType), nullable(e.PMPresenceType),
		nullable(e.LeaveApplication), e.Source)
	return err
}

// BulkUpsertEntries writes the whole batch in one statement. Locked rows are
// expected to be filtered out by the caller; the WHERE guard is the server-side
// backstop.
func (s *Store) BulkUpsertEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	employees := make([]string, 0, len(entries))
	dates := make([]string, 0, len(entries))
	types := make([]sql.NullString, 0, len(entries))
	halfDays := make([]bool, 0, len(entries))
	amTypes := make([]sql.NullString, 0, len(entries))
	pmTypes := make([]sql.NullString, 0, len(entries))
	sources := make([]string, 0, len(entries))

	for _, e := range entries {
		employees = append(employees, e.EmployeeID)
		dates = append(dates, e.Date)
		types = append(types, nullString(e.PresenceType))
		halfDays = append(halfDays, e.IsHalfDay)
		amTypes = append(amTypes, nullString(e.AMPresenceType))
		pmTypes = append(pmTypes, nullString(e.PMPresenceType))
		sources = append(sources, e.Source)
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO roll_call_entries
      (employee_id, date, presence_type, is_half_day, am_presence_type, pm_presence_type, source, updated_at)
    SELECT u.employee_id, u.date, u.presence_type, u.is_half_day, u.am_presence_type, u.pm_presence_type, u.source, now()
    FROM unnest($1::uuid[], $2::date[], $3::text[], $4::boolean[], $5::text[], $6::text[], $7::text[])
      AS u(employee_id, date, presence_type, is_half_day, am_presence_type, pm_presence_type, source)
    ON CONFLICT (employee_id, date) DO UPDATE SET
      presence_type = EXCLUDED.presence_type,
      is_half_day = EXCLUDED.is_half_day,
      am_presence_type = EXCLUDED.am_presence_type,
      pm_presence_type = EXCLUDED.pm_presence_type,
      source = EXCLUDED.source,
      updated_at = now()
    WHERE NOT roll_call_entries.is_locked
  `, employees, dates, types, halfDays, amTypes, pmTypes, sources)
	return err
}

// DeleteEntries removes the referenced rows, never touching locked ones.
func (s *Store) DeleteEntries(ctx context.Context, refs []CellRef) error {
	if len(refs) == 0 {
		return nil
	}
	employees, dates := refColumns(refs)
	_, err := s.DB.Exec(ctx, `
    DELETE FROM roll_call_entries r
    USING unnest($1::uuid[], $2::date[]) AS k(employee_id, date)
    WHERE r.employee_id = k.employee_id AND r.date = k.date AND NOT r.is_locked
  `, employees, dates)
	return err
}

func (s *Store) EmployeesMissingPattern(ctx context.Context, employeeIDs []string, refDate time.Time) ([]MissingPattern, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.employee_name
    FROM employees e
    WHERE e.id = ANY($1)
      AND NOT EXISTS (
        SELECT 1 FROM work_patterns p
        WHERE p.employee_id = e.id
          AND p.valid_from <= $2
          AND (p.valid_to >= $2 OR p.valid_to IS NULL)
      )
    ORDER BY e.employee_name
  `, employeeIDs, refDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []MissingPattern
	for rows.Next() {
		var m MissingPattern
		if err := rows.Scan(&m.Employee, &m.EmployeeName); err != nil {
			return nil, err
		}
		missing = append(missing, m)
	}
	return missing, rows.Err()
}

func (s *Store) PatternsInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]WorkPattern, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id, valid_from, valid_to,
           monday_hours, tuesday_hours, wednesday_hours, thursday_hours,
           friday_hours, saturday_hours, sunday_hours
    FROM work_patterns
    WHERE employee_id = ANY($1)
      AND valid_from <= $3
      AND (valid_to >= $2 OR valid_to IS NULL)
    ORDER BY employee_id, valid_from DESC
  `, employeeIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []WorkPattern
	for rows.Next() {
		var p WorkPattern
		var validTo sql.NullTime
		if err := rows.Scan(&p.EmployeeID, &p.ValidFrom, &validTo,
			&p.Hours[time.Monday], &p.Hours[time.Tuesday], &p.Hours[time.Wednesday],
			&p.Hours[time.Thursday], &p.Hours[time.Friday], &p.Hours[time.Saturday],
			&p.Hours[time.Sunday]); err != nil {
			return nil, err
		}
		if validTo.Valid {
			t := validTo.Time
			p.ValidTo = &t
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func (s *Store) HolidaysInRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT date, name, region FROM holidays
    WHERE date BETWEEN $1 AND $2
    ORDER BY date
  `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.Date, &h.Name, &h.Region); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) EmployeeRegions(ctx context.Context, employeeIDs []string) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(holiday_region, '') FROM employees WHERE id = ANY($1)
  `, employeeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regions := map[string]string{}
	for rows.Next() {
		var id, region string
		if err := rows.Scan(&id, &region); err != nil {
			return nil, err
		}
		regions[id] = region
	}
	return regions, rows.Err()
}

func (s *Store) TentativeLeaveEntries(ctx context.Context, employeeIDs []string, from, to time.Time, leaveTypeIDs []string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+entryColumns+`
    FROM roll_call_entries r
    WHERE r.employee_id = ANY($1)
      AND r.date BETWEEN $2 AND $3
      AND r.presence_type = ANY($4)
      AND r.leave_application IS NULL
      AND NOT r.is_locked
    ORDER BY r.employee_id, r.date
  `, employeeIDs, from, to, leaveTypeIDs)
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

func (s *Store) OpenApplicationsFrom(ctx context.Context, employeeIDs []string, from time.Time) ([]LeaveApplication, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, leave_type, from_date, to_date, half_day, half_day_date, status
    FROM leave_applications
    WHERE employee_id = ANY($1) AND status = 'Open' AND to_date >= $2
    ORDER BY from_date
  `, employeeIDs, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeaveApplications(rows)
}

func (s *Store) LeaveDayCounts(ctx context.Context, employeeIDs []string, from, to time.Time, leaveTypeIDs []string) ([]DayCount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT date, COUNT(DISTINCT employee_id), array_agg(DISTINCT employee_id)
    FROM roll_call_entries
    WHERE employee_id = ANY($1)
      AND date BETWEEN $2 AND $3
      AND presence_type = ANY($4)
    GROUP BY date
    ORDER BY date
  `, employeeIDs, from, to, leaveTypeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []DayCount
	for rows.Next() {
		var c DayCount
		var date time.Time
		var employees []string
		if err := rows.Scan(&date, &c.Count, &employees); err != nil {
			return nil, err
		}
		c.Date = date.Format(DateFormat)
		c.Employees = employees
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
