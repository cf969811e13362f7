package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fieldcrm-billing/internal/storage"
)

// CreateInvoice persists the header, the ordered lines and the invoiced flag
// on the source interventions in one transaction. The sequential number is
// assigned inside the transaction; the conditional invoiced = 0 update is the
// double-invoicing guard — if another process got to any of the records
// first, the whole invoice rolls back with ErrDoubleInvoiceConflict.
func (s *Storage) CreateInvoice(ctx context.Context, inv *storage.Invoice) error {
	const op = "storage.mysql.CreateInvoice"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	var number int64
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(number), 0) + 1 FROM invoices FOR UPDATE`).Scan(&number)
	if err != nil {
		return fmt.Errorf("%s: next number: %w", op, err)
	}
	inv.Number = number

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoices (id, number, client_code, ticket_id, subtotal, vat_rate, vat_amount,
		 total, is_holiday, issue_date, due_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Number, inv.ClientCode, inv.TicketID, inv.Subtotal.StringFixed(2),
		inv.VATRate.StringFixed(4), inv.VATAmount.StringFixed(2), inv.Total.StringFixed(2),
		inv.IsHoliday, inv.IssueDate, inv.DueDate, inv.Status.String())
	if err != nil {
		return fmt.Errorf("%s: insert header: %w", op, err)
	}

	lineStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO invoice_lines (invoice_id, position, tariff_code, description, quantity, unit_price, line_total)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%s: prepare lines: %w", op, err)
	}
	defer lineStmt.Close()

	for i, line := range inv.Lines {
		_, err := lineStmt.ExecContext(ctx, inv.ID, i, line.TariffCode, line.Description,
			line.Quantity.StringFixed(2), line.UnitPrice.StringFixed(4), line.LineTotal.StringFixed(2))
		if err != nil {
			return fmt.Errorf("%s: insert line %d: %w", op, i, err)
		}
	}

	if len(inv.InterventionIDs) > 0 {
		mark := `UPDATE interventions SET invoiced = 1, invoice_number = ?
		         WHERE id IN (` + placeholders(len(inv.InterventionIDs)) + `) AND invoiced = 0`
		args := make([]any, 0, len(inv.InterventionIDs)+1)
		args = append(args, inv.Number)
		for _, id := range inv.InterventionIDs {
			args = append(args, id)
		}

		res, err := tx.ExecContext(ctx, mark, args...)
		if err != nil {
			return fmt.Errorf("%s: mark interventions: %w", op, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if affected != int64(len(inv.InterventionIDs)) {
			return storage.ErrDoubleInvoiceConflict
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (s *Storage) GetInvoice(ctx context.Context, id string) (*storage.Invoice, error) {
	const op = "storage.mysql.GetInvoice"

	stmt := `SELECT id, number, client_code, ticket_id, subtotal, vat_rate, vat_amount, total,
	         is_holiday, issue_date, due_date, status
	         FROM invoices WHERE id = ?`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if inv.Lines, err = s.invoiceLines(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM interventions WHERE invoice_number = ? ORDER BY id`, inv.Number)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var rid int64
		if err := rows.Scan(&rid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		inv.InterventionIDs = append(inv.InterventionIDs, rid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &inv, nil
}

func (s *Storage) ListInvoices(ctx context.Context, clientCode string) ([]storage.Invoice, error) {
	const op = "storage.mysql.ListInvoices"

	stmt := `SELECT id, number, client_code, ticket_id, subtotal, vat_rate, vat_amount, total,
	         is_holiday, issue_date, due_date, status
	         FROM invoices`
	var args []any
	if clientCode != "" {
		stmt += ` WHERE client_code = ?`
		args = append(args, clientCode)
	}
	stmt += ` ORDER BY number DESC`

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var invoices []storage.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return invoices, nil
}

func (s *Storage) invoiceLines(ctx context.Context, invoiceID string) ([]storage.InvoiceLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tariff_code, description, quantity, unit_price, line_total
		 FROM invoice_lines WHERE invoice_id = ? ORDER BY position`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []storage.InvoiceLine
	for rows.Next() {
		var line storage.InvoiceLine
		var qty, price, total string
		if err := rows.Scan(&line.TariffCode, &line.Description, &qty, &price, &total); err != nil {
			return nil, err
		}
		if line.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if line.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if line.LineTotal, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanInvoice(row rowScanner) (storage.Invoice, error) {
	var inv storage.Invoice
	var subtotal, vatRate, vatAmount, total, status string

	err := row.Scan(&inv.ID, &inv.Number, &inv.ClientCode, &inv.TicketID, &subtotal, &vatRate,
		&vatAmount, &total, &inv.IsHoliday, &inv.IssueDate, &inv.DueDate, &status)
	if err != nil {
		return storage.Invoice{}, err
	}

	if inv.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return storage.Invoice{}, err
	}
	if inv.VATRate, err = decimal.NewFromString(vatRate); err != nil {
		return storage.Invoice{}, err
	}
	if inv.VATAmount, err = decimal.NewFromString(vatAmount); err != nil {
		return storage.Invoice{}, err
	}
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return storage.Invoice{}, err
	}

	inv.Status = storage.ParseInvoiceStatus(status)
	return inv, nil
}
