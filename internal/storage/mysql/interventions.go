package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fieldcrm-billing/internal/storage"
)

const interventionColumns = `id, ticket_id, technician_id, client_code, machine_id, contract_id,
	date, start_time, end_time, effective_hours, billable_hours, classification, courtesy_reason,
	hours_deducted, mode, description, invoiced, invoice_number`

func (s *Storage) SaveIntervention(ctx context.Context, rec storage.InterventionRecord) (int64, error) {
	const op = "storage.mysql.SaveIntervention"

	stmt := `INSERT INTO interventions (ticket_id, technician_id, client_code, machine_id, contract_id,
	         date, start_time, end_time, effective_hours, billable_hours, classification, courtesy_reason,
	         hours_deducted, mode, description, invoiced)
	         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`

	exec, err := s.db.ExecContext(ctx, stmt, rec.TicketID, rec.TechnicianID, rec.ClientCode,
		rec.MachineID, rec.ContractID, rec.Date, rec.StartTime, rec.EndTime,
		rec.EffectiveHours, rec.BillableHours, rec.Classification.String(), rec.CourtesyReason,
		rec.HoursDeductedFromContract, rec.Mode.String(), rec.Description)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return exec.LastInsertId()
}

func (s *Storage) GetIntervention(ctx context.Context, id int64) (*storage.InterventionRecord, error) {
	const op = "storage.mysql.GetIntervention"

	stmt := `SELECT ` + interventionColumns + ` FROM interventions WHERE id = ?`

	rec, err := scanIntervention(s.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrInterventionNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rec, nil
}

func (s *Storage) ListInterventionsByTicket(ctx context.Context, ticketID int64) ([]storage.InterventionRecord, error) {
	const op = "storage.mysql.ListInterventionsByTicket"

	stmt := `SELECT ` + interventionColumns + ` FROM interventions WHERE ticket_id = ? ORDER BY date, start_time`

	return s.listInterventions(ctx, op, stmt, ticketID)
}

// ListInvoiceableInterventions returns the un-invoiced records of a ticket
// that still carry hours to bill: pending-invoice work and the overflow part
// of contract work. Courtesy and warranty records are never returned.
func (s *Storage) ListInvoiceableInterventions(ctx context.Context, ticketID int64) ([]storage.InterventionRecord, error) {
	const op = "storage.mysql.ListInvoiceableInterventions"

	stmt := `SELECT ` + interventionColumns + ` FROM interventions
	         WHERE ticket_id = ? AND invoiced = 0
	           AND classification IN ('pending_invoice', 'contract')
	           AND billable_hours > hours_deducted
	         ORDER BY date, start_time`

	return s.listInterventions(ctx, op, stmt, ticketID)
}

func (s *Storage) ListInterventionsByIDs(ctx context.Context, ids []int64) ([]storage.InterventionRecord, error) {
	const op = "storage.mysql.ListInterventionsByIDs"

	if len(ids) == 0 {
		return nil, nil
	}

	stmt := `SELECT ` + interventionColumns + ` FROM interventions
	         WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY date, start_time`

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	return s.listInterventions(ctx, op, stmt, args...)
}

func (s *Storage) listInterventions(ctx context.Context, op, stmt string, args ...any) ([]storage.InterventionRecord, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var recs []storage.InterventionRecord
	for rows.Next() {
		rec, err := scanIntervention(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return recs, nil
}

// UpdateIntervention rewrites the billing fields of an un-invoiced record.
// The invoiced = 0 guard makes editing an invoiced record a no-op error
// even if two operators race.
func (s *Storage) UpdateIntervention(ctx context.Context, rec storage.InterventionRecord) error {
	const op = "storage.mysql.UpdateIntervention"

	stmt := `UPDATE interventions SET contract_id = ?, date = ?, start_time = ?, end_time = ?,
	         effective_hours = ?, billable_hours = ?, classification = ?, courtesy_reason = ?,
	         hours_deducted = ?, mode = ?, description = ?
	         WHERE id = ? AND invoiced = 0`

	res, err := s.db.ExecContext(ctx, stmt, rec.ContractID, rec.Date, rec.StartTime, rec.EndTime,
		rec.EffectiveHours, rec.BillableHours, rec.Classification.String(), rec.CourtesyReason,
		rec.HoursDeductedFromContract, rec.Mode.String(), rec.Description, rec.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrInterventionInvoiced
	}

	return nil
}

func (s *Storage) DeleteIntervention(ctx context.Context, id int64) error {
	const op = "storage.mysql.DeleteIntervention"

	res, err := s.db.ExecContext(ctx, `DELETE FROM interventions WHERE id = ? AND invoiced = 0`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrInterventionInvoiced
	}

	return nil
}

func scanIntervention(row rowScanner) (storage.InterventionRecord, error) {
	var rec storage.InterventionRecord
	var classification, mode string
	var reason sql.NullString

	err := row.Scan(&rec.ID, &rec.TicketID, &rec.TechnicianID, &rec.ClientCode, &rec.MachineID,
		&rec.ContractID, &rec.Date, &rec.StartTime, &rec.EndTime, &rec.EffectiveHours,
		&rec.BillableHours, &classification, &reason, &rec.HoursDeductedFromContract,
		&mode, &rec.Description, &rec.Invoiced, &rec.InvoiceNumber)
	if err != nil {
		return storage.InterventionRecord{}, err
	}

	rec.Classification = storage.ParseClassification(classification)
	rec.Mode = storage.ParseInterventionMode(mode)
	rec.CourtesyReason = reason.String
	return rec, nil
}
