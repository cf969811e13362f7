// Package invoice assembles un-invoiced interventions of one ticket into a
// priced, VAT-computed invoice and commits it atomically.
package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fieldcrm-billing/internal/storage"
)

type Storage interface {
	GetClient(ctx context.Context, code string) (*storage.Client, error)
	ListTariffs(ctx context.Context) ([]storage.TariffLine, error)
	ListInterventionsByIDs(ctx context.Context, ids []int64) ([]storage.InterventionRecord, error)
	CreateInvoice(ctx context.Context, inv *storage.Invoice) error
}

// DistanceResolver returns the client's one-way distance in km, nil when it
// cannot be resolved. Resolution failure means "no surcharge", never an error.
type DistanceResolver interface {
	Resolve(ctx context.Context, client storage.Client) *float64
}

// DocumentPayload is what the document-generation collaborator receives
// after an invoice commits.
type DocumentPayload struct {
	InvoiceID     string                       `json:"invoice_id"`
	Number        int64                        `json:"number"`
	Client        storage.Client               `json:"client"`
	TicketID      int64                        `json:"ticket_id"`
	Lines         []storage.InvoiceLine        `json:"lines"`
	Interventions []storage.InterventionRecord `json:"interventions"`
	Subtotal      decimal.Decimal              `json:"subtotal"`
	VATAmount     decimal.Decimal              `json:"vat_amount"`
	Total         decimal.Decimal              `json:"total"`
	IssueDate     time.Time                    `json:"issue_date"`
	DueDate       time.Time                    `json:"due_date"`
}

// Notifier hands the payload to the async document worker. Enqueue must not
// block: a full queue drops the job (it can be regenerated later).
type Notifier interface {
	Enqueue(p DocumentPayload) bool
}

type Builder struct {
	storage  Storage
	distance DistanceResolver
	notifier Notifier
	log      *slog.Logger
	vatRate  decimal.Decimal
	now      func() time.Time
}

func NewBuilder(log *slog.Logger, st Storage, distance DistanceResolver, notifier Notifier, vatRate float64) *Builder {
	return &Builder{
		storage:  st,
		distance: distance,
		notifier: notifier,
		log:      log,
		vatRate:  decimal.NewFromFloat(vatRate),
		now:      time.Now,
	}
}

type CreateRequest struct {
	ClientCode      string
	TicketID        int64
	InterventionIDs []int64
	IsHoliday       bool
	Extras          []ExtraLine
	DueInDays       int
}

// Create prices the selected interventions and commits the invoice. The
// commit marks every source record invoiced in the same transaction that
// inserts the header, so an intervention can never land on two invoices.
func (b *Builder) Create(ctx context.Context, req CreateRequest) (*storage.Invoice, error) {
	const op = "service.invoice.Create"

	var (
		client        *storage.Client
		tariffs       []storage.TariffLine
		interventions []storage.InterventionRecord
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		client, err = b.storage.GetClient(gCtx, req.ClientCode)
		if err != nil {
			return fmt.Errorf("client: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tariffs, err = b.storage.ListTariffs(gCtx)
		if err != nil {
			return fmt.Errorf("tariffs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		interventions, err = b.storage.ListInterventionsByIDs(gCtx, req.InterventionIDs)
		if err != nil {
			return fmt.Errorf("interventions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	selected, err := selectable(interventions, req.ClientCode, req.TicketID)
	if err != nil {
		return nil, err
	}
	// An invoice must bill at least one intervention; extras alone cannot
	// carry a batch of courtesy or warranty work.
	if len(selected) == 0 {
		return nil, storage.ErrEmptyInvoice
	}

	distance := b.distance.Resolve(ctx, *client)

	draft, err := Price(PriceInput{
		Interventions: selected,
		Client:        *client,
		Tariffs:       tariffs,
		DistanceKm:    distance,
		IsHoliday:     req.IsHoliday,
		Extras:        req.Extras,
		VATRate:       b.vatRate,
	})
	if err != nil {
		return nil, err
	}

	dueInDays := req.DueInDays
	if dueInDays <= 0 {
		dueInDays = 30
	}

	issue := b.now()
	ids := make([]int64, 0, len(selected))
	for _, rec := range selected {
		ids = append(ids, rec.ID)
	}

	inv := &storage.Invoice{
		ID:              uuid.NewString(),
		ClientCode:      client.Code,
		TicketID:        req.TicketID,
		InterventionIDs: ids,
		Lines:           draft.Lines,
		Subtotal:        draft.Subtotal,
		VATRate:         b.vatRate,
		VATAmount:       draft.VATAmount,
		Total:           draft.Total,
		IsHoliday:       req.IsHoliday,
		IssueDate:       issue,
		DueDate:         issue.AddDate(0, 0, dueInDays),
		Status:          storage.InvoiceIssued,
	}

	if err := b.storage.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Best effort from here on: the invoice is already the source of truth.
	if b.notifier != nil {
		ok := b.notifier.Enqueue(DocumentPayload{
			InvoiceID:     inv.ID,
			Number:        inv.Number,
			Client:        *client,
			TicketID:      inv.TicketID,
			Lines:         inv.Lines,
			Interventions: selected,
			Subtotal:      inv.Subtotal,
			VATAmount:     inv.VATAmount,
			Total:         inv.Total,
			IssueDate:     inv.IssueDate,
			DueDate:       inv.DueDate,
		})
		if !ok {
			b.log.Error("document notification dropped, queue full",
				slog.String("op", op), slog.String("invoice_id", inv.ID))
		}
	}

	return inv, nil
}

// selectable filters the loaded records down to what may be invoiced.
// Courtesy and warranty work is silently excluded; a record that is already
// invoiced aborts the whole batch.
func selectable(recs []storage.InterventionRecord, clientCode string, ticketID int64) ([]storage.InterventionRecord, error) {
	var out []storage.InterventionRecord
	for _, rec := range recs {
		if rec.Invoiced {
			return nil, storage.ErrDoubleInvoiceConflict
		}
		if rec.ClientCode != clientCode || rec.TicketID != ticketID {
			return nil, fmt.Errorf("intervention %d does not belong to ticket %d: %w",
				rec.ID, ticketID, storage.ErrInterventionNotFound)
		}
		if !rec.Classification.Billable() {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
