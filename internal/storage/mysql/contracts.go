package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fieldcrm-billing/internal/storage"
)

func (s *Storage) FindActiveContracts(ctx context.Context, clientCode string, today time.Time) ([]storage.Contract, error) {
	const op = "storage.mysql.FindActiveContracts"

	// Soonest expiry first, so the contract closest to expiring is consumed
	// before the others.
	stmt := `SELECT id, client_code, status, included_hours, used_hours, remaining_hours, start_date, expiry_date
	         FROM contracts
	         WHERE client_code = ? AND status = 'active' AND expiry_date >= ?
	         ORDER BY expiry_date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, stmt, clientCode, today.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var contracts []storage.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return contracts, nil
}

func (s *Storage) GetContract(ctx context.Context, id int64) (*storage.Contract, error) {
	const op = "storage.mysql.GetContract"

	stmt := `SELECT id, client_code, status, included_hours, used_hours, remaining_hours, start_date, expiry_date
	         FROM contracts WHERE id = ?`

	c, err := scanContract(s.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrContractNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

// DebitContract decreases the remaining balance by min(hours, remaining)
// inside a single transaction with a row lock, so two concurrent debits
// against the same contract cannot lose an update.
func (s *Storage) DebitContract(ctx context.Context, id int64, hours float64, today time.Time) (storage.DebitResult, error) {
	const op = "storage.mysql.DebitContract"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.DebitResult{}, fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	c, err := lockContract(ctx, tx, id)
	if err != nil {
		return storage.DebitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if !c.AcceptsDebits(today) {
		return storage.DebitResult{}, storage.ErrContractNotActive
	}

	debited := hours
	if debited > c.RemainingHours {
		debited = c.RemainingHours
	}
	overflow := hours - debited

	used := c.UsedHours + debited
	remaining := c.IncludedHours - used

	_, err = tx.ExecContext(ctx,
		`UPDATE contracts SET used_hours = ?, remaining_hours = ? WHERE id = ?`,
		used, remaining, id)
	if err != nil {
		return storage.DebitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return storage.DebitResult{}, fmt.Errorf("%s: commit: %w", op, err)
	}

	return storage.DebitResult{HoursDebited: debited, HoursOverflow: overflow}, nil
}

// CreditContract gives hours back after an intervention is edited or deleted
// before invoicing. used_hours is clamped at zero.
func (s *Storage) CreditContract(ctx context.Context, id int64, hours float64) error {
	const op = "storage.mysql.CreditContract"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	c, err := lockContract(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	used := c.UsedHours - hours
	if used < 0 {
		used = 0
	}
	remaining := c.IncludedHours - used

	_, err = tx.ExecContext(ctx,
		`UPDATE contracts SET used_hours = ?, remaining_hours = ? WHERE id = ?`,
		used, remaining, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func lockContract(ctx context.Context, tx *sql.Tx, id int64) (storage.Contract, error) {
	stmt := `SELECT id, client_code, status, included_hours, used_hours, remaining_hours, start_date, expiry_date
	         FROM contracts WHERE id = ? FOR UPDATE`

	c, err := scanContract(tx.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Contract{}, storage.ErrContractNotFound
		}
		return storage.Contract{}, err
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (storage.Contract, error) {
	var c storage.Contract
	var status string

	err := row.Scan(&c.ID, &c.ClientCode, &status, &c.IncludedHours, &c.UsedHours,
		&c.RemainingHours, &c.StartDate, &c.ExpiryDate)
	if err != nil {
		return storage.Contract{}, err
	}

	c.Status = storage.ParseContractStatus(status)
	return c, nil
}
