// Package ledger owns the contract hour balances. All mutation goes through
// Debit/Credit; the storage layer applies each as a single locked
// read-modify-write so concurrent debits against one contract cannot race.
package ledger

import (
	"context"
	"fmt"
	"time"

	"fieldcrm-billing/internal/storage"
)

type ContractStorage interface {
	FindActiveContracts(ctx context.Context, clientCode string, today time.Time) ([]storage.Contract, error)
	GetContract(ctx context.Context, id int64) (*storage.Contract, error)
	DebitContract(ctx context.Context, id int64, hours float64, today time.Time) (storage.DebitResult, error)
	CreditContract(ctx context.Context, id int64, hours float64) error
}

type Ledger struct {
	storage ContractStorage
	now     func() time.Time
}

func New(storage ContractStorage) *Ledger {
	return &Ledger{storage: storage, now: time.Now}
}

// FindActiveContracts lists the contracts a new intervention may charge,
// soonest expiry first.
func (l *Ledger) FindActiveContracts(ctx context.Context, clientCode string) ([]storage.Contract, error) {
	const op = "service.ledger.FindActiveContracts"

	contracts, err := l.storage.FindActiveContracts(ctx, clientCode, l.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return contracts, nil
}

func (l *Ledger) GetContract(ctx context.Context, id int64) (*storage.Contract, error) {
	const op = "service.ledger.GetContract"

	c, err := l.storage.GetContract(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// Debit charges hours to a contract. The balance never goes negative: the
// part the contract cannot cover comes back as HoursOverflow and stays
// invoiceable on the intervention.
func (l *Ledger) Debit(ctx context.Context, contractID int64, hours float64) (storage.DebitResult, error) {
	const op = "service.ledger.Debit"

	if hours <= 0 {
		return storage.DebitResult{}, nil
	}

	res, err := l.storage.DebitContract(ctx, contractID, hours, l.now())
	if err != nil {
		return storage.DebitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// Credit returns hours to a contract when an intervention is edited or
// deleted before invoicing.
func (l *Ledger) Credit(ctx context.Context, contractID int64, hours float64) error {
	const op = "service.ledger.Credit"

	if hours <= 0 {
		return nil
	}

	if err := l.storage.CreditContract(ctx, contractID, hours); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
