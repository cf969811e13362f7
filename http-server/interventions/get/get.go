package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fieldcrm-billing/internal/storage"
)

type InterventionReader interface {
	GetIntervention(ctx context.Context, id int64) (*storage.InterventionRecord, error)
	ListInterventionsByTicket(ctx context.Context, ticketID int64) ([]storage.InterventionRecord, error)
	ListInvoiceableInterventions(ctx context.Context, ticketID int64) ([]storage.InterventionRecord, error)
}

func GetIntervention(log *slog.Logger, st InterventionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.interventions.get.GetIntervention"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		rec, err := st.GetIntervention(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrInterventionNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			log.Error("failed to load intervention", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, rec)
	}
}

func GetTicketInterventions(log *slog.Logger, st InterventionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.interventions.get.GetTicketInterventions"

		ticketID, err := strconv.ParseInt(chi.URLParam(r, "ticketId"), 10, 64)
		if err != nil {
			http.Error(w, "invalid ticket id", http.StatusBadRequest)
			return
		}

		var recs []storage.InterventionRecord
		if r.URL.Query().Get("invoiceable") == "1" {
			recs, err = st.ListInvoiceableInterventions(r.Context(), ticketID)
		} else {
			recs, err = st.ListInterventionsByTicket(r.Context(), ticketID)
		}
		if err != nil {
			log.Error("failed to list interventions", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if recs == nil {
			recs = []storage.InterventionRecord{}
		}
		render.JSON(w, r, recs)
	}
}
