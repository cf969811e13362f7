package storage

import "errors"

// Business errors surfaced to handlers. Wrapped with the op constant on the
// way up, so callers match with errors.Is.
var (
	ErrInvalidInterval        = errors.New("end time must be after start time")
	ErrMissingCourtesyReason  = errors.New("courtesy intervention requires a reason")
	ErrWarrantyNotValid       = errors.New("machine warranty is not valid on the intervention date")
	ErrContractNotActive      = errors.New("contract is not active")
	ErrContractNotFound       = errors.New("contract not found")
	ErrMissingTariffSelection = errors.New("no tariff line for the client rate category")
	ErrEmptyInvoice           = errors.New("invoice subtotal must be positive")
	ErrDoubleInvoiceConflict  = errors.New("intervention already invoiced")
	ErrInterventionInvoiced   = errors.New("intervention is invoiced and cannot be changed")
	ErrInterventionNotFound   = errors.New("intervention not found")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrTariffNotFound         = errors.New("tariff not found")
	ErrClientNotFound         = errors.New("client not found")
	ErrMachineNotFound        = errors.New("machine not found")
)
