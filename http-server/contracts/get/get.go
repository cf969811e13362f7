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

type ContractReader interface {
	FindActiveContracts(ctx context.Context, clientCode string) ([]storage.Contract, error)
	GetContract(ctx context.Context, id int64) (*storage.Contract, error)
}

// GetActiveContracts lists the contracts a new intervention may charge,
// soonest expiry first.
func GetActiveContracts(log *slog.Logger, ledger ContractReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contracts.get.GetActiveContracts"

		clientCode := r.URL.Query().Get("client")
		if clientCode == "" {
			http.Error(w, "client query parameter is required", http.StatusBadRequest)
			return
		}

		contracts, err := ledger.FindActiveContracts(r.Context(), clientCode)
		if err != nil {
			log.Error("failed to list contracts", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if contracts == nil {
			contracts = []storage.Contract{}
		}
		render.JSON(w, r, contracts)
	}
}

func GetContract(log *slog.Logger, ledger ContractReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contracts.get.GetContract"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		c, err := ledger.GetContract(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrContractNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			log.Error("failed to load contract", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, c)
	}
}
