package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fieldcrm-billing/internal/storage"
)

func (s *Storage) GetClient(ctx context.Context, code string) (*storage.Client, error) {
	const op = "storage.mysql.GetClient"

	stmt := `SELECT code, name, tariff_category, address, city, vat_number, distance_km
	         FROM clients WHERE code = ?`

	var c storage.Client
	var category string
	err := s.db.QueryRowContext(ctx, stmt, code).Scan(&c.Code, &c.Name, &category,
		&c.Address, &c.City, &c.VATNumber, &c.DistanceKm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrClientNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.TariffCategory = storage.ParseTariffCategory(category)
	return &c, nil
}

// UpdateClientDistance caches a resolved one-way distance on the client
// row so the geocoding collaborator is hit at most once per client.
func (s *Storage) UpdateClientDistance(ctx context.Context, code string, km float64) error {
	const op = "storage.mysql.UpdateClientDistance"

	_, err := s.db.ExecContext(ctx, `UPDATE clients SET distance_km = ? WHERE code = ?`, km, code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetMachine(ctx context.Context, id int64) (*storage.Machine, error) {
	const op = "storage.mysql.GetMachine"

	stmt := `SELECT id, serial_number, warranty_expiry, warranty_extension_expiry
	         FROM machines WHERE id = ?`

	var m storage.Machine
	err := s.db.QueryRowContext(ctx, stmt, id).Scan(&m.ID, &m.SerialNumber,
		&m.WarrantyExpiry, &m.WarrantyExtensionExpiry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMachineNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &m, nil
}
