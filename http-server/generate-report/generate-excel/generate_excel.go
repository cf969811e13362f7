package generate_excel

import (
	"context"
	"log/slog"
	"net/http"
)

type RegisterGenerator interface {
	InvoiceRegister(ctx context.Context, clientCode string) ([]byte, error)
}

// GenerateInvoiceRegister streams the invoice register workbook.
func GenerateInvoiceRegister(log *slog.Logger, svc RegisterGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.generate-excel.GenerateInvoiceRegister"

		data, err := svc.InvoiceRegister(r.Context(), r.URL.Query().Get("client"))
		if err != nil {
			log.Error("failed to generate register", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="invoice-register.xlsx"`)
		if _, err := w.Write(data); err != nil {
			log.Error("failed to write response", slog.String("op", op), slog.String("error", err.Error()))
		}
	}
}
