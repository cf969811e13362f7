package save

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"fieldcrm-billing/internal/storage"
)

type TariffWriter interface {
	SaveTariff(ctx context.Context, t storage.TariffLine) error
}

type Response struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SaveTariffAdmin creates a catalogue entry. Admin only.
func SaveTariffAdmin(log *slog.Logger, st TariffWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tariffs.save.SaveTariffAdmin"

		var t storage.TariffLine
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if t.Code == "" || t.Unit == storage.UnitUnknown || t.Category == storage.CategoryUnknown {
			http.Error(w, "code, unit and category are required", http.StatusBadRequest)
			return
		}

		if err := st.SaveTariff(r.Context(), t); err != nil {
			log.Error("failed to save tariff", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "failed to save tariff"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Status: "created"})
	}
}
