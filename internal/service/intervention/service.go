// Package intervention decides how a logged work session is paid for:
// contract hours, courtesy, warranty, or pending invoice.
package intervention

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fieldcrm-billing/internal/service/rounding"
	"fieldcrm-billing/internal/storage"
)

type Storage interface {
	SaveIntervention(ctx context.Context, rec storage.InterventionRecord) (int64, error)
	GetIntervention(ctx context.Context, id int64) (*storage.InterventionRecord, error)
	UpdateIntervention(ctx context.Context, rec storage.InterventionRecord) error
	DeleteIntervention(ctx context.Context, id int64) error
	GetMachine(ctx context.Context, id int64) (*storage.Machine, error)
}

type ContractLedger interface {
	Debit(ctx context.Context, contractID int64, hours float64) (storage.DebitResult, error)
	Credit(ctx context.Context, contractID int64, hours float64) error
}

type Service struct {
	storage Storage
	ledger  ContractLedger
}

func NewService(storage Storage, ledger ContractLedger) *Service {
	return &Service{storage: storage, ledger: ledger}
}

type Request struct {
	TicketID     int64
	TechnicianID int64
	ClientCode   string
	MachineID    int64
	Date         time.Time
	Start        time.Time
	End          time.Time
	Mode         storage.InterventionMode
	Description  string

	// Billing selection made by the operator.
	Courtesy       bool
	CourtesyReason string
	Warranty       bool
	ContractID     *int64
}

// Create validates the request, classifies it and persists the record. All
// validation happens before the contract debit, so a rejected request never
// touches the ledger.
func (s *Service) Create(ctx context.Context, req Request) (*storage.InterventionRecord, error) {
	const op = "service.intervention.Create"

	rec, err := s.classify(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.debit(ctx, rec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.storage.SaveIntervention(ctx, *rec)
	if err != nil {
		// The debit already happened; give the hours back so the ledger
		// does not leak on a failed insert.
		if cerr := s.creditBack(ctx, rec); cerr != nil {
			return nil, fmt.Errorf("%s: save failed and credit rollback failed: %w", op, cerr)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec.ID = id
	return rec, nil
}

// Update replaces the billing fields of an un-invoiced record. The new
// request is validated first, so a rejected edit never touches the ledger;
// only then are the previously debited hours credited back and the new
// classification re-debited.
func (s *Service) Update(ctx context.Context, id int64, req Request) (*storage.InterventionRecord, error) {
	const op = "service.intervention.Update"

	existing, err := s.storage.GetIntervention(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if existing.Invoiced {
		return nil, storage.ErrInterventionInvoiced
	}

	rec, err := s.classify(ctx, req)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	if existing.HoursDeductedFromContract > 0 && existing.ContractID != nil {
		if err := s.ledger.Credit(ctx, *existing.ContractID, existing.HoursDeductedFromContract); err != nil {
			return nil, fmt.Errorf("%s: credit previous debit: %w", op, err)
		}
	}

	if err := s.debit(ctx, rec); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateIntervention(ctx, *rec); err != nil {
		// Same compensation as Create: the new debit already happened.
		if cerr := s.creditBack(ctx, rec); cerr != nil {
			return nil, fmt.Errorf("%s: update failed and credit rollback failed: %w", op, cerr)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rec, nil
}

// Delete removes an un-invoiced record, crediting back any debited hours.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "service.intervention.Delete"

	existing, err := s.storage.GetIntervention(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if existing.Invoiced {
		return storage.ErrInterventionInvoiced
	}

	if existing.HoursDeductedFromContract > 0 && existing.ContractID != nil {
		if err := s.ledger.Credit(ctx, *existing.ContractID, existing.HoursDeductedFromContract); err != nil {
			return fmt.Errorf("%s: credit previous debit: %w", op, err)
		}
	}

	if err := s.storage.DeleteIntervention(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) classify(ctx context.Context, req Request) (*storage.InterventionRecord, error) {
	const op = "service.intervention.classify"

	dur, err := rounding.Round(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	rec := &storage.InterventionRecord{
		TicketID:       req.TicketID,
		TechnicianID:   req.TechnicianID,
		ClientCode:     req.ClientCode,
		MachineID:      req.MachineID,
		Date:           req.Date,
		StartTime:      req.Start,
		EndTime:        req.End,
		EffectiveHours: dur.EffectiveHours,
		BillableHours:  dur.BillableHours,
		Mode:           req.Mode,
		Description:    req.Description,
	}

	switch {
	case req.Courtesy:
		if strings.TrimSpace(req.CourtesyReason) == "" {
			return nil, storage.ErrMissingCourtesyReason
		}
		rec.Classification = storage.ClassCourtesy
		rec.CourtesyReason = req.CourtesyReason

	case req.Warranty || req.Mode == storage.ModeWarranty:
		machine, err := s.storage.GetMachine(ctx, req.MachineID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !machine.WarrantyValidOn(req.Date) {
			return nil, storage.ErrWarrantyNotValid
		}
		rec.Classification = storage.ClassWarranty

	case req.ContractID != nil:
		rec.Classification = storage.ClassContract
		rec.ContractID = req.ContractID

	default:
		rec.Classification = storage.ClassPendingInvoice
	}

	return rec, nil
}

// debit charges the contract once the request has passed validation.
func (s *Service) debit(ctx context.Context, rec *storage.InterventionRecord) error {
	if rec.Classification != storage.ClassContract || rec.ContractID == nil {
		return nil
	}

	res, err := s.ledger.Debit(ctx, *rec.ContractID, rec.BillableHours)
	if err != nil {
		return err
	}
	rec.HoursDeductedFromContract = res.HoursDebited
	// Overflow stays on the record as billable-but-not-deducted hours
	// and is picked up by invoicing later.

	return nil
}

// creditBack reverses a debit when the write that should have carried it
// fails.
func (s *Service) creditBack(ctx context.Context, rec *storage.InterventionRecord) error {
	if rec.HoursDeductedFromContract <= 0 || rec.ContractID == nil {
		return nil
	}
	return s.ledger.Credit(ctx, *rec.ContractID, rec.HoursDeductedFromContract)
}
