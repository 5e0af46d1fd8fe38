package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Accrual store (SQLite).
var Migrations = migrate.NewGroup("accrual")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_accrual_customers",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accrual_customers (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    currency    TEXT NOT NULL DEFAULT '',
    tax_percent TEXT NOT NULL DEFAULT '0',
    metadata    TEXT NOT NULL DEFAULT '{}',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS accrual_customers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_accrual_components",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accrual_components (
    id            TEXT PRIMARY KEY,
    offering_id   TEXT NOT NULL DEFAULT '',
    type          TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL DEFAULT '',
    measured_unit TEXT NOT NULL DEFAULT '',
    billing_type  TEXT NOT NULL DEFAULT 'fixed',
    factor        INTEGER NOT NULL DEFAULT 1,
    metadata      TEXT NOT NULL DEFAULT '{}',
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_accrual_components_offering_type ON accrual_components (offering_id, type);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS accrual_components`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_accrual_plans",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accrual_plans (
    id          TEXT PRIMARY KEY,
    offering_id TEXT NOT NULL DEFAULT '',
    name        TEXT NOT NULL DEFAULT '',
    currency    TEXT NOT NULL DEFAULT '',
    unit        TEXT NOT NULL DEFAULT 'day',
    status      TEXT NOT NULL DEFAULT 'draft',
    components  TEXT NOT NULL DEFAULT '[]',
    metadata    TEXT NOT NULL DEFAULT '{}',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_accrual_plans_offering ON accrual_plans (offering_id);
CREATE INDEX IF NOT EXISTS idx_accrual_plans_status ON accrual_plans (offering_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS accrual_plans`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_accrual_resources",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accrual_resources (
    id           TEXT PRIMARY KEY,
    customer_id  TEXT NOT NULL DEFAULT '',
    offering_id  TEXT NOT NULL DEFAULT '',
    plan_id      TEXT NOT NULL DEFAULT '',
    name         TEXT NOT NULL DEFAULT '',
    state        TEXT NOT NULL DEFAULT 'creating',
    limits       TEXT NOT NULL DEFAULT '{}',
    project_id   TEXT NOT NULL DEFAULT '',
    project_name TEXT NOT NULL DEFAULT '',
    metadata     TEXT NOT NULL DEFAULT '{}',
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_accrual_resources_customer ON accrual_resources (customer_id);
CREATE INDEX IF NOT EXISTS idx_accrual_resources_state ON accrual_resources (customer_id, state);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS accrual_resources`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_accrual_plan_periods",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accrual_plan_periods (
    id          TEXT PRIMARY KEY,
    resource_id TEXT NOT NULL DEFAULT '',
    plan_id     TEXT NOT NULL DEFAULT '',
    start_time  TEXT NOT NULL DEFAULT (datetime('now')),
    end_time    TEXT,
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_accrual_plan_periods_resource ON accrual_plan_periods (resource_id, start_time);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accrual_plan_periods_active ON accrual_plan_periods (resource_id) WHERE end_time IS NULL;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS accrual_plan_periods`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_accrual_usage_reports",
			Version: "20240101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accrual_usage_reports (
    id             TEXT PRIMARY KEY,
    resource_id    TEXT NOT NULL DEFAULT '',
    component_type TEXT NOT NULL DEFAULT '',
    plan_period_id TEXT NOT NULL DEFAULT '',
    amount         TEXT NOT NULL DEFAULT '0',
    year           INTEGER NOT NULL DEFAULT 0,
    month          INTEGER NOT NULL DEFAULT 0,
    recorded_at    TEXT NOT NULL DEFAULT (datetime('now')),
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_accrual_usage_tuple ON accrual_usage_reports (resource_id, component_type, year, month);
CREATE INDEX IF NOT EXISTS idx_accrual_usage_recorded ON accrual_usage_reports (recorded_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS accrual_usage_reports`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_accrual_invoices",
			Version: "20240101000007",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accrual_invoices (
    id            TEXT PRIMARY KEY,
    customer_id   TEXT NOT NULL DEFAULT '',
    year          INTEGER NOT NULL DEFAULT 0,
    month         INTEGER NOT NULL DEFAULT 0,
    state         TEXT NOT NULL DEFAULT 'pending',
    currency      TEXT NOT NULL DEFAULT '',
    tax_percent   TEXT NOT NULL DEFAULT '0',
    total_price   TEXT NOT NULL DEFAULT '0',
    total_current TEXT NOT NULL DEFAULT '0',
    number        TEXT NOT NULL DEFAULT '',
    invoice_date  TEXT,
    due_date      TEXT,
    paid_at       TEXT,
    metadata      TEXT NOT NULL DEFAULT '{}',
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_accrual_invoices_customer_period ON accrual_invoices (customer_id, year, month);
CREATE INDEX IF NOT EXISTS idx_accrual_invoices_state ON accrual_invoices (state);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS accrual_invoices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_accrual_invoice_items",
			Version: "20240101000008",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS accrual_invoice_items (
    id            TEXT PRIMARY KEY,
    invoice_id    TEXT NOT NULL DEFAULT '',
    scope_kind    TEXT NOT NULL DEFAULT '',
    scope_id      TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL DEFAULT '',
    details       TEXT NOT NULL DEFAULT '{}',
    unit          TEXT NOT NULL DEFAULT '',
    unit_price    TEXT NOT NULL DEFAULT '0',
    currency      TEXT NOT NULL DEFAULT '',
    quantity      TEXT NOT NULL DEFAULT '0',
    measured_unit TEXT NOT NULL DEFAULT '',
    start_time    TEXT NOT NULL DEFAULT (datetime('now')),
    end_time      TEXT,
    project_id    TEXT NOT NULL DEFAULT '',
    project_name  TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_accrual_invoice_items_invoice ON accrual_invoice_items (invoice_id);
CREATE INDEX IF NOT EXISTS idx_accrual_invoice_items_scope ON accrual_invoice_items (scope_kind, scope_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS accrual_invoice_items`)
				return err
			},
		},
	)
}
