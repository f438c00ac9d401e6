package presence

import (
	"context"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

const listTypesQuery = `
    SELECT id, label, icon, color, expect_work_hours, requires_leave_application,
           COALESCE(leave_type, ''), available_to_all, sort_order
    FROM presence_types
    ORDER BY sort_order, label
  `

const grantsQuery = `
    SELECT presence_type, from_date, to_date
    FROM presence_grants
    WHERE employee_id = $1
  `

const mondayHoursQuery = `
    SELECT COALESCE(monday_hours, 0)
    FROM work_patterns
    WHERE employee_id = $1
      AND valid_from <= $2
      AND (valid_to >= $2 OR valid_to IS NULL)
    ORDER BY valid_from DESC
    LIMIT 1
  `

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestListTypes(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "label", "icon", "color", "expect_work_hours",
		"requires_leave_application", "leave_type", "available_to_all", "sort_order"}).
		AddRow("office", "Office", "🏢", "blue", true, false, "", true, 1).
		AddRow("annual_leave", "Annual Leave", "🌴", "purple", false, true, "Annual Leave", true, 2)

	mock.ExpectQuery(regexp.QuoteMeta(listTypesQuery)).WillReturnRows(rows)

	types, err := store.ListTypes(context.Background())
	if err != nil {
		t.Fatalf("ListTypes returned error: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("got %d types, want 2", len(types))
	}
	if types[1].ID != "annual_leave" || types[1].LeaveType != "Annual Leave" || !types[1].RequiresLeaveApplication {
		t.Fatalf("unexpected type: %+v", types[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGrantedTypeIDsRespectsDateWindow(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	pastEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	futureStart := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"presence_type", "from_date", "to_date"}).
		AddRow("special", nil, nil).
		AddRow("expired", nil, pastEnd).
		AddRow("upcoming", futureStart, nil)

	mock.ExpectQuery(regexp.QuoteMeta(grantsQuery)).WithArgs("e1").WillReturnRows(rows)

	granted, err := store.GrantedTypeIDs(context.Background(), "e1", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GrantedTypeIDs returned error: %v", err)
	}
	if !granted["special"] {
		t.Fatal("open-ended grant should apply")
	}
	if granted["expired"] || granted["upcoming"] {
		t.Fatalf("out-of-window grants applied: %v", granted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExpectedHoursUsesWeekdayColumn(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	monday := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"hours"}).AddRow(7.5)
	mock.ExpectQuery(regexp.QuoteMeta(mondayHoursQuery)).WithArgs("e1", monday).WillReturnRows(rows)

	hours, err := store.ExpectedHours(context.Background(), "e1", monday)
	if err != nil {
		t.Fatalf("ExpectedHours returned error: %v", err)
	}
	if hours != 7.5 {
		t.Fatalf("hours = %v, want 7.5", hours)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExpectedHoursNoPatternIsZero(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	monday := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(mondayHoursQuery)).WithArgs("e1", monday).
		WillReturnRows(pgxmock.NewRows([]string{"hours"}))

	hours, err := store.ExpectedHours(context.Background(), "e1", monday)
	if err != nil {
		t.Fatalf("ExpectedHours returned error: %v", err)
	}
	if hours != 0 {
		t.Fatalf("hours = %v, want 0 when no pattern covers the date", hours)
	}
}
