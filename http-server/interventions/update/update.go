package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fieldcrm-billing/internal/service/intervention"
	"fieldcrm-billing/internal/storage"
)

type InterventionEditor interface {
	Update(ctx context.Context, id int64, req intervention.Request) (*storage.InterventionRecord, error)
	Delete(ctx context.Context, id int64) error
}

type Request struct {
	TicketID       int64  `json:"ticket_id"`
	TechnicianID   int64  `json:"technician_id"`
	ClientCode     string `json:"client_code"`
	MachineID      int64  `json:"machine_id"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Mode           string `json:"mode"`
	Description    string `json:"description"`
	Courtesy       bool   `json:"courtesy"`
	CourtesyReason string `json:"courtesy_reason"`
	Warranty       bool   `json:"warranty"`
	ContractID     *int64 `json:"contract_id"`
}

type Response struct {
	Intervention *storage.InterventionRecord `json:"intervention,omitempty"`
	Status       string                      `json:"status,omitempty"`
	Error        string                      `json:"error,omitempty"`
}

func UpdateIntervention(log *slog.Logger, svc InterventionEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.interventions.update.UpdateIntervention"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		svcReq, err := toServiceRequest(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		rec, err := svc.Update(ctx, id, svcReq)
		if err != nil {
			writeError(w, r, log, op, err)
			return
		}

		render.JSON(w, r, Response{Intervention: rec})
	}
}

func DeleteIntervention(log *slog.Logger, svc InterventionEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.interventions.update.DeleteIntervention"

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := svc.Delete(ctx, id); err != nil {
			writeError(w, r, log, op, err)
			return
		}

		render.JSON(w, r, Response{Status: "deleted"})
	}
}

func toServiceRequest(req Request) (intervention.Request, error) {
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return intervention.Request{}, errors.New("date must be YYYY-MM-DD")
	}
	start, err := parseTimeOfDay(day, req.StartTime)
	if err != nil {
		return intervention.Request{}, errors.New("start_time must be HH:MM")
	}
	end, err := parseTimeOfDay(day, req.EndTime)
	if err != nil {
		return intervention.Request{}, errors.New("end_time must be HH:MM")
	}

	return intervention.Request{
		TicketID:       req.TicketID,
		TechnicianID:   req.TechnicianID,
		ClientCode:     req.ClientCode,
		MachineID:      req.MachineID,
		Date:           day,
		Start:          start,
		End:            end,
		Mode:           storage.ParseInterventionMode(req.Mode),
		Description:    req.Description,
		Courtesy:       req.Courtesy,
		CourtesyReason: req.CourtesyReason,
		Warranty:       req.Warranty,
		ContractID:     req.ContractID,
	}, nil
}

func parseTimeOfDay(day time.Time, s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrInterventionNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, Response{Error: err.Error()})
	case errors.Is(err, storage.ErrInterventionInvoiced):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, Response{Error: err.Error()})
	case errors.Is(err, storage.ErrInvalidInterval),
		errors.Is(err, storage.ErrMissingCourtesyReason),
		errors.Is(err, storage.ErrWarrantyNotValid):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, Response{Error: err.Error()})
	case errors.Is(err, storage.ErrContractNotActive):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, Response{Error: err.Error()})
	default:
		log.Error("failed to update intervention", slog.String("op", op), slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, Response{Error: "internal error"})
	}
}
