package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"canteen/internal/model"
	"canteen/internal/service"
	"canteen/internal/store"
)

func ListOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := orderSvc.ListToday(r.Context())
		if err != nil {
			slog.Error("list orders failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if orders == nil {
			orders = []model.Order{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(orders); err != nil {
			http.Error(w, "encode error", http.StatusInternalServerError)
		}
	}
}

type updateStatusRequest struct {
	Status model.Status `json:"status"`
}

func UpdateStatusHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		err = orderSvc.UpdateStatus(r.Context(), orderID, req.Status)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidStatus):
				http.Error(w, "unknown status value", http.StatusUnprocessableEntity)
			case errors.Is(err, service.ErrInvalidTransition):
				http.Error(w, "status transition not allowed", http.StatusConflict)
			case errors.Is(err, store.ErrNotFound):
				http.Error(w, "order not found", http.StatusNotFound)
			default:
				slog.Error("status update failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
