package presence

import (
	"context"
	"database/sql"
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

var _ StoreAPI = (*Store)(nil)

func NewStore(db DB) *Store {
	return &Store{DB: db}
}

func (s *Store) ListTypes(ctx context.Context) ([]Type, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, label, icon, color, expect_work_hours, requires_leave_application,
           COALESCE(leave_type, ''), available_to_all, sort_order
    FROM presence_types
    ORDER BY sort_order, label
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []Type
	for rows.Next() {
		var t Type
		if err := rows.Scan(&t.ID, &t.Label, &t.Icon, &t.Color, &t.ExpectWorkHours,
			&t.RequiresLeaveApplication, &t.LeaveType, &t.AvailableToAll, &t.SortOrder); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// GrantedTypeIDs returns the non-public presence types the employee holds a
// currently valid grant for.
func (s *Store) GrantedTypeIDs(ctx context.Context, employeeID string, onDate time.Time) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT presence_type, from_date, to_date
    FROM presence_grants
    WHERE employee_id = $1
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	granted := map[string]bool{}
	for rows.Next() {
		var typeID string
		var from, to sql.NullTime
		if err := rows.Scan(&typeID, &from, &to); err != nil {
			return nil, err
		}
		if from.Valid && onDate.Before(from.Time) {
			continue
		}
		if to.Valid && onDate.After(to.Time) {
			continue
		}
		granted[typeID] = true
	}
	return granted, rows.Err()
}

// ExpectedHours returns the work-pattern hours for the employee on the date,
// or 0 when no pattern covers it.
func (s *Store) ExpectedHours(ctx context.Context, employeeID string, date time.Time) (float64, error) {
	column := weekdayColumn(date.Weekday())
	var hours float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(`+column+`, 0)
    FROM work_patterns
    WHERE employee_id = $1
      AND valid_from <= $2
      AND (valid_to >= $2 OR valid_to IS NULL)
    ORDER BY valid_from DESC
    LIMIT 1
  `, employeeID, date).Scan(&hours)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return hours, nil
}

func weekdayColumn(day time.Weekday) string {
	switch day {
	case time.Monday:
		return "monday_hours"
	case time.Tuesday:
		return "tuesday_hours"
	case time.Wednesday:
		return "wednesday_hours"
	case time.Thursday:
		return "thursday_hours"
	case time.Friday:
		return "friday_hours"
	case time.Saturday:
		return "saturday_hours"
	default:
		return "sunday_hours"
	}
}
