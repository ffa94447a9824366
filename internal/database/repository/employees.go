package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

const employeeColumns = `id, code, name, email, active, synthesized, created_at, updated_at`

// EmployeeRepo handles employee identities.
type EmployeeRepo struct{ db DBTX }

func NewEmployeeRepo(db DBTX) *EmployeeRepo { return &EmployeeRepo{db: db} }

func (r *EmployeeRepo) GetByID(ctx context.Context, id int64) (*Employee, error) {
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
}

func (r *EmployeeRepo) GetByCode(ctx context.Context, code string) (*Employee, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE code = ?`, code)
}

// GetByEmail matches case-insensitively.
func (r *EmployeeRepo) GetByEmail(ctx context.Context, email string) (*Employee, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = ? COLLATE NOCASE ORDER BY id LIMIT 1`, email)
}

// Insert stores e and returns its id. A zero e.ID lets sqlite pick one.
func (r *EmployeeRepo) Insert(ctx context.Context, e Employee) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if e.ID != 0 {
		res, err = r.db.ExecContext(ctx, `
		INSERT INTO employees(id, code, name, email, active, synthesized, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			e.ID, e.Code, e.Name, e.Email, e.Active, e.Synthesized)
	} else {
		res, err = r.db.ExecContext(ctx, `
		INSERT INTO employees(code, name, email, active, synthesized, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			e.Code, e.Name, e.Email, e.Active, e.Synthesized)
	}
	if err != nil {
		return 0, err
	}
	if e.ID != 0 {
		return e.ID, nil
	}
	return res.LastInsertId()
}

// UpdateName changes the display name only; email and active state are
// owned by the employee directory.
func (r *EmployeeRepo) UpdateName(ctx context.Context, id int64, name string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE employees SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	return err
}

func (r *EmployeeRepo) List(ctx context.Context) ([]Employee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EmployeeRepo) getOne(ctx context.Context, query string, args ...any) (*Employee, error) {
	e, err := scanEmployee(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func scanEmployee(row scanner) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Code, &e.Name, &e.Email, &e.Active, &e.Synthesized, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
