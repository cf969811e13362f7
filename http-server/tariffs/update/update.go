package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fieldcrm-billing/internal/storage"
)

type TariffUpdater interface {
	UpdateTariff(ctx context.Context, t storage.TariffLine) error
}

type Response struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// UpdateTariffAdmin rewrites a catalogue entry. Admin only.
func UpdateTariffAdmin(log *slog.Logger, st TariffUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tariffs.update.UpdateTariffAdmin"

		code := chi.URLParam(r, "code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		var t storage.TariffLine
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		t.Code = code

		if err := st.UpdateTariff(r.Context(), t); err != nil {
			if errors.Is(err, storage.ErrTariffNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			log.Error("failed to update tariff", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to update tariff"})
			return
		}

		render.JSON(w, r, Response{Status: "updated"})
	}
}
