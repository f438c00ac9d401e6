package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"flexitime/internal/domain/auth"
	"flexitime/internal/platform/config"
)

type presenceTypeSeed struct {
	id          string
	label       string
	icon        string
	color       string
	expectWork  bool
	requiresApp bool
	leaveType   string
	public      bool
	sortOrder   int
}

var defaultPresenceTypes = []presenceTypeSeed{
	{id: "office", label: "Office", icon: "\U0001F3E2", color: "#dbeafe", expectWork: true, public: true, sortOrder: 10},
	{id: "remote", label: "Remote", icon: "\U0001F3E0", color: "#dcfce7", expectWork: true, public: true, sortOrder: 20},
	{id: "travel", label: "Business Travel", icon: "✈️", color: "#e0e7ff", expectWork: true, public: true, sortOrder: 30},
	{id: "annual_leave", label: "Annual Leave", icon: "\U0001F334", color: "#fef3c7", requiresApp: true, leaveType: "Annual Leave", public: true, sortOrder: 40},
	{id: "sick_leave", label: "Sick Leave", icon: "\U0001F912", color: "#fee2e2", requiresApp: true, leaveType: "Sick Leave", public: true, sortOrder: 50},
	{id: "parental_leave", label: "Parental Leave", icon: "\U0001F476", color: "#fce7f3", requiresApp: true, leaveType: "Parental Leave", public: false, sortOrder: 60},
	{id: "day_off", label: "Day Off", icon: "\U0001F4A4", color: "#f3f4f6", public: true, sortOrder: 70},
	{id: "holiday", label: "Public Holiday", icon: "\U0001F389", color: "#ede9fe", public: true, sortOrder: 80},
}

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	companyID, err := ensureCompany(ctx, pool, cfg.SeedCompanyName)
	if err != nil {
		return err
	}

	if err := ensurePresenceTypes(ctx, pool); err != nil {
		return err
	}

	return ensureHRUser(ctx, pool, companyID, cfg.SeedHREmail, cfg.SeedHRPassword)
}

func ensureCompany(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM companies WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = pool.QueryRow(ctx, "INSERT INTO companies (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensurePresenceTypes(ctx context.Context, pool *pgxpool.Pool) error {
	for _, pt := range defaultPresenceTypes {
		var leaveType any
		if pt.leaveType != "" {
			leaveType = pt.leaveType
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO presence_types
				(id, label, icon, color, expect_work_hours, requires_leave_application, leave_type, available_to_all, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			pt.id, pt.label, pt.icon, pt.color, pt.expectWork, pt.requiresApp, leaveType, pt.public, pt.sortOrder)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureHRUser(ctx context.Context, pool *pgxpool.Pool, companyID, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	var employeeID string
	err = pool.QueryRow(ctx,
		"INSERT INTO employees (company_id, employee_name, show_in_roll_call) VALUES ($1, $2, FALSE) RETURNING id",
		companyID, "HR Administrator").Scan(&employeeID)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	err = pool.QueryRow(ctx,
		"INSERT INTO users (email, password_hash, role, employee_id) VALUES ($1, $2, $3, $4) RETURNING id",
		email, hash, auth.RoleHR, employeeID).Scan(&id)
	if err != nil {
		return err
	}
	return nil
}
