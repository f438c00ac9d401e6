package rollcall

import (
	"context"
	"log/slog"
	"time"
)

// ensureHolidayEntries batch-creates System entries for holidays in the range.
// Holidays take precedence over pattern day-offs, so callers run this first.
// The existing-key set is shared between autofill passes so duplicates are
// impossible within one request.
func (s *Service) ensureHolidayEntries(ctx context.Context, employeeIDs []string, from, to time.Time, existing map[string]bool) error {
	if !s.HolidayAutofill || len(employeeIDs) == 0 {
		return nil
	}

	holidays, err := s.Store.HolidaysInRange(ctx, from, to)
	if err != nil {
		return err
	}
	if len(holidays) == 0 {
		return nil
	}

	regions, err := s.Store.EmployeeRegions(ctx, employeeIDs)
	if err != nil {
		return err
	}

	var toCreate []Entry
	for _, h := range holidays {
		date := h.Date.Format(DateFormat)
		for _, emp := range employeeIDs {
			// Region-scoped holidays only apply to matching employees.
			if h.Region != "" && h.Region != regions[emp] {
				continue
			}
			key := emp + "|" + date
			if existing[key] {
				continue
			}
			toCreate = append(toCreate, Entry{
				EmployeeID:   emp,
				Date:         date,
				PresenceType: s.HolidayTypeID,
				Source:       SourceSystem,
			})
			existing[key] = true
		}
	}

	return s.Store.BulkUpsertEntries(ctx, toCreate)
}

// ensureDayOffEntries batch-creates System entries for weekdays where the
// employee's work pattern expects zero hours. Weekends are never day-off
// entries; they are blank cells the grid renders as such.
func (s *Service) ensureDayOffEntries(ctx context.Context, employeeIDs []string, from, to time.Time, existing map[string]bool) error {
	if !s.DayOffAutofill || s.DayOffTypeID == "" || len(employeeIDs) == 0 {
		return nil
	}

	patterns, err := s.Store.PatternsInRange(ctx, employeeIDs, from, to)
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		return nil
	}

	byEmployee := map[string][]WorkPattern{}
	for _, p := range patterns {
		byEmployee[p.EmployeeID] = append(byEmployee[p.EmployeeID], p)
	}

	var toCreate []Entry
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		dateKey := date.Format(DateFormat)
		for _, emp := range employeeIDs {
			key := emp + "|" + dateKey
			if existing[key] {
				continue
			}
			pattern, ok := patternForDate(byEmployee[emp], date)
			if !ok || pattern.Hours[date.Weekday()] != 0 {
				continue
			}
			toCreate = append(toCreate, Entry{
				EmployeeID:   emp,
				Date:         dateKey,
				PresenceType: s.DayOffTypeID,
				Source:       SourcePattern,
			})
			existing[key] = true
		}
	}

	return s.Store.BulkUpsertEntries(ctx, toCreate)
}

// patternForDate picks the newest pattern covering the date; the store returns
// patterns sorted by valid_from descending.
func patternForDate(patterns []WorkPattern, date time.Time) (WorkPattern, bool) {
	for _, p := range patterns {
		if p.Covers(date) {
			return p, true
		}
	}
	return WorkPattern{}, false
}

// autofillSystemEntries runs both passes; failures are logged, never fatal, so
// a missing holiday table cannot take down the whole events fetch.
func (s *Service) autofillSystemEntries(ctx context.Context, employeeIDs []string, from, to time.Time, existing map[string]bool) {
	if err := s.ensureHolidayEntries(ctx, employeeIDs, from, to, existing); err != nil {
		slog.Warn("holiday autofill failed", "err", err)
	}
	if err := s.ensureDayOffEntries(ctx, employeeIDs, from, to, existing); err != nil {
		slog.Warn("day off autofill failed", "err", err)
	}
}
