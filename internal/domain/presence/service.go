package presence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLeaveTypeMissing marks a catalog misconfiguration: a presence type that
// requires a leave application must name the leave type it maps to. This is an
// administrator-fixable error and is surfaced verbatim to the user.
var ErrLeaveTypeMissing = errors.New("presence type requires a leave application but has no linked leave type")

// StoreAPI is everything the presence service needs from persistence. The pgx
// implementation lives in store.go; tests use fakes.
type StoreAPI interface {
	ListTypes(ctx context.Context) ([]Type, error)
	GrantedTypeIDs(ctx context.Context, employeeID string, onDate time.Time) (map[string]bool, error)
	ExpectedHours(ctx context.Context, employeeID string, date time.Time) (float64, error)
}

type Service struct {
	Store StoreAPI

	// DayOffTypeID is hidden from the palette on days where the employee's
	// work pattern expects hours.
	DayOffTypeID string
}

func NewService(store StoreAPI, dayOffTypeID string) *Service {
	return &Service{Store: store, DayOffTypeID: dayOffTypeID}
}

func (s *Service) Catalog(ctx context.Context) ([]Type, error) {
	types, err := s.Store.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		if t.RequiresLeaveApplication && t.LeaveType == "" {
			return nil, fmt.Errorf("presence type %q: %w", t.ID, ErrLeaveTypeMissing)
		}
	}
	return types, nil
}

// AvailableTypes returns the catalog subset the employee may select on a date:
// public types plus individually granted ones, minus the day-off type when the
// work pattern expects hours that day.
func (s *Service) AvailableTypes(ctx context.Context, employeeID string, date time.Time) ([]Type, error) {
	types, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	granted, err := s.Store.GrantedTypeIDs(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}

	expectedHours, err := s.Store.ExpectedHours(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}

	var available []Type
	for _, t := range types {
		if !t.AvailableToAll && !granted[t.ID] {
			continue
		}
		if s.DayOffTypeID != "" && t.ID == s.DayOffTypeID && expectedHours > 0 {
			continue
		}
		available = append(available, t)
	}
	return available, nil
}
