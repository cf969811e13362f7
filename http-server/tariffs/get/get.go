package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"fieldcrm-billing/internal/storage"
)

type TariffReader interface {
	ListTariffs(ctx context.Context) ([]storage.TariffLine, error)
}

func GetTariffs(log *slog.Logger, st TariffReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tariffs.get.GetTariffs"

		tariffs, err := st.ListTariffs(r.Context())
		if err != nil {
			log.Error("failed to list tariffs", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if tariffs == nil {
			tariffs = []storage.TariffLine{}
		}
		render.JSON(w, r, tariffs)
	}
}
