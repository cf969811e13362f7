package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"fieldcrm-billing/internal/service/invoice"
	"fieldcrm-billing/internal/storage"
)

type InvoiceCreator interface {
	Create(ctx context.Context, req invoice.CreateRequest) (*storage.Invoice, error)
}

type ExtraLine struct {
	TariffCode  string           `json:"tariff_code"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type Request struct {
	ClientCode      string      `json:"client_code"`
	TicketID        int64       `json:"ticket_id"`
	InterventionIDs []int64     `json:"intervention_ids"`
	IsHoliday       bool        `json:"is_holiday"`
	Extras          []ExtraLine `json:"extras"`
	DueInDays       int         `json:"due_in_days"`
}

type Response struct {
	Invoice *storage.Invoice `json:"invoice,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func SaveInvoice(log *slog.Logger, builder InvoiceCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.invoices.save.SaveInvoice"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.ClientCode == "" || req.TicketID == 0 || len(req.InterventionIDs) == 0 {
			http.Error(w, "client_code, ticket_id and intervention_ids are required", http.StatusBadRequest)
			return
		}

		extras := make([]invoice.ExtraLine, 0, len(req.Extras))
		for _, e := range req.Extras {
			extras = append(extras, invoice.ExtraLine{
				TariffCode:  e.TariffCode,
				Description: e.Description,
				Quantity:    e.Quantity,
				UnitPrice:   e.UnitPrice,
			})
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		inv, err := builder.Create(ctx, invoice.CreateRequest{
			ClientCode:      req.ClientCode,
			TicketID:        req.TicketID,
			InterventionIDs: req.InterventionIDs,
			IsHoliday:       req.IsHoliday,
			Extras:          extras,
			DueInDays:       req.DueInDays,
		})
		if err != nil {
			writeError(w, r, log, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Invoice: inv})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrDoubleInvoiceConflict):
		// The client must reload the intervention list and retry.
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, Response{Error: err.Error()})
	case errors.Is(err, storage.ErrEmptyInvoice),
		errors.Is(err, storage.ErrMissingTariffSelection),
		errors.Is(err, storage.ErrTariffNotFound):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, Response{Error: err.Error()})
	case errors.Is(err, storage.ErrClientNotFound),
		errors.Is(err, storage.ErrInterventionNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Response{Error: err.Error()})
	default:
		log.Error("failed to create invoice", slog.String("op", op), slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Response{Error: "failed to create invoice"})
	}
}
