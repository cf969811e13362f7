package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fieldcrm-billing/internal/storage"
)

func (s *Storage) GetTariffByCode(ctx context.Context, code string) (*storage.TariffLine, error) {
	const op = "storage.mysql.GetTariffByCode"

	stmt := `SELECT code, description, category, unit_price, unit FROM tariffs WHERE code = ?`

	t, err := scanTariff(s.db.QueryRowContext(ctx, stmt, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTariffNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

func (s *Storage) ListTariffs(ctx context.Context) ([]storage.TariffLine, error) {
	const op = "storage.mysql.ListTariffs"

	stmt := `SELECT code, description, category, unit_price, unit FROM tariffs ORDER BY category, code`

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tariffs []storage.TariffLine
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tariffs = append(tariffs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tariffs, nil
}

func (s *Storage) SaveTariff(ctx context.Context, t storage.TariffLine) error {
	const op = "storage.mysql.SaveTariff"

	stmt := `INSERT INTO tariffs (code, description, category, unit_price, unit) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt, t.Code, t.Description, t.Category.String(),
		t.UnitPrice.StringFixed(4), t.Unit.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UpdateTariff(ctx context.Context, t storage.TariffLine) error {
	const op = "storage.mysql.UpdateTariff"

	stmt := `UPDATE tariffs SET description = ?, category = ?, unit_price = ?, unit = ? WHERE code = ?`

	res, err := s.db.ExecContext(ctx, stmt, t.Description, t.Category.String(),
		t.UnitPrice.StringFixed(4), t.Unit.String(), t.Code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrTariffNotFound
	}

	return nil
}

func scanTariff(row rowScanner) (storage.TariffLine, error) {
	var t storage.TariffLine
	var category, unit, price string

	if err := row.Scan(&t.Code, &t.Description, &category, &price, &unit); err != nil {
		return storage.TariffLine{}, err
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return storage.TariffLine{}, fmt.Errorf("unit_price: %w", err)
	}

	t.Category = storage.ParseTariffCategory(category)
	t.Unit = storage.ParseTariffUnit(unit)
	t.UnitPrice = p
	return t, nil
}
