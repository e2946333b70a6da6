package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"financecalc/internal/finance"
)

// ErrNoActivePolicy is returned when the database holds no active policy.
var ErrNoActivePolicy = errors.New("no active tax policy")

// PolicyRepository persists tax policies in SQLite. Exactly one policy is
// active at a time; saving a policy activates it.
type PolicyRepository struct {
	db *sql.DB
}

func NewPolicyRepository(dbPath string) (*PolicyRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PolicyRepository{db: db}, nil
}

func (r *PolicyRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load returns the active policy with its slabs in order.
func (r *PolicyRepository) Load(ctx context.Context) (finance.TaxPolicy, error) {
	var (
		p  finance.TaxPolicy
		id int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, fiscal_year, standard_deduction, rebate_threshold, cess_rate
		FROM tax_policies
		WHERE active = 1
		ORDER BY id DESC
		LIMIT 1`).Scan(&id, &p.Name, &p.FiscalYear, &p.StandardDeduction, &p.RebateThreshold, &p.CessRate)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNoActivePolicy
	}
	if err != nil {
		return p, fmt.Errorf("query active policy: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT upper_bound, rate FROM tax_slabs
		WHERE policy_id = ?
		ORDER BY position`, id)
	if err != nil {
		return p, fmt.Errorf("query slabs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			upper sql.NullFloat64
			slab  finance.TaxSlab
		)
		if err := rows.Scan(&upper, &slab.Rate); err != nil {
			return p, fmt.Errorf("scan slab: %w", err)
		}
		if upper.Valid {
			slab.UpperBound = upper.Float64
		}
		p.Slabs = append(p.Slabs, slab)
	}
	if err := rows.Err(); err != nil {
		return p, fmt.Errorf("iterate slabs: %w", err)
	}
	return p, nil
}

// Save stores policy and makes it the active one. Previous policies are
// kept for history.
func (r *PolicyRepository) Save(ctx context.Context, policy finance.TaxPolicy) (int64, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE tax_policies SET active = 0 WHERE active = 1`); err != nil {
		return 0, fmt.Errorf("deactivate policies: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tax_policies (name, fiscal_year, standard_deduction, rebate_threshold, cess_rate, active)
		VALUES (?, ?, ?, ?, ?, 1)`,
		policy.Name, policy.FiscalYear, policy.StandardDeduction, policy.RebateThreshold, policy.CessRate)
	if err != nil {
		return 0, fmt.Errorf("insert policy: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("policy id: %w", err)
	}

	for i, s := range policy.Slabs {
		var upper any
		if s.UpperBound > 0 {
			upper = s.UpperBound
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tax_slabs (policy_id, position, upper_bound, rate) VALUES (?, ?, ?, ?)`,
			id, i+1, upper, s.Rate); err != nil {
			return 0, fmt.Errorf("insert slab %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit policy: %w", err)
	}

	slog.InfoContext(ctx, "Tax policy saved to SQLite",
		"id", id,
		"policy", policy.Name,
		"fiscal_year", policy.FiscalYear,
		"slabs", len(policy.Slabs))

	return id, nil
}

// PolicySummary is one row of the policy history.
type PolicySummary struct {
	ID         int64
	Name       string
	FiscalYear string
	Active     bool
	CreatedAt  string
}

// List returns every stored policy, newest first.
func (r *PolicyRepository) List(ctx context.Context) ([]PolicySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, fiscal_year, active, created_at
		FROM tax_policies
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []PolicySummary
	for rows.Next() {
		var s PolicySummary
		if err := rows.Scan(&s.ID, &s.Name, &s.FiscalYear, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
