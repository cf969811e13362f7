package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fieldcrm-billing/internal/storage"
)

type InvoiceReader interface {
	GetInvoice(ctx context.Context, id string) (*storage.Invoice, error)
	ListInvoices(ctx context.Context, clientCode string) ([]storage.Invoice, error)
}

func GetInvoice(log *slog.Logger, st InvoiceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.invoices.get.GetInvoice"

		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}

		inv, err := st.GetInvoice(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrInvoiceNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			log.Error("failed to load invoice", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, inv)
	}
}

func GetInvoices(log *slog.Logger, st InvoiceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.invoices.get.GetInvoices"

		invoices, err := st.ListInvoices(r.Context(), r.URL.Query().Get("client"))
		if err != nil {
			log.Error("failed to list invoices", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if invoices == nil {
			invoices = []storage.Invoice{}
		}
		render.JSON(w, r, invoices)
	}
}
