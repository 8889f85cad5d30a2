package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"canteen/internal/model"
	"canteen/internal/mw"
	"canteen/internal/service"
)

type submitRequest struct {
	Items []model.OrderItem `json:"items"`
	Notes string            `json:"notes"`
}

type orderResponse struct {
	QueueNumber    int               `json:"queue_number"`
	Status         model.Status      `json:"status"`
	Items          []model.OrderItem `json:"items"`
	Notes          string            `json:"notes,omitempty"`
	AlreadyOrdered bool              `json:"already_ordered"`
}

func orderToResponse(o *model.Order, alreadyOrdered bool) orderResponse {
	return orderResponse{
		QueueNumber:    o.QueueNumber,
		Status:         o.Status,
		Items:          o.Items,
		Notes:          o.Notes,
		AlreadyOrdered: alreadyOrdered,
	}
}

func clientAddr(r *http.Request) (string, bool) {
	addr, ok := r.Context().Value(mw.AddrCtxKey).(string)
	return addr, ok && addr != ""
}

func SubmitOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, ok := clientAddr(r)
		if !ok {
			http.Error(w, "client address unknown", http.StatusBadRequest)
			return
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		order, alreadyOrdered, err := orderSvc.Submit(r.Context(), addr, req.Items, req.Notes)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrBadItems):
				http.Error(w, "order must contain at least one item with a positive quantity", http.StatusBadRequest)
			default:
				slog.Error("order submit failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if alreadyOrdered {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusCreated)
		}
		if err := json.NewEncoder(w).Encode(orderToResponse(order, alreadyOrdered)); err != nil {
			slog.Error("encode order response failed", "error", err)
		}
	}
}

func OrderStatusHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, ok := clientAddr(r)
		if !ok {
			http.Error(w, "client address unknown", http.StatusBadRequest)
			return
		}

		order, err := orderSvc.Status(r.Context(), addr)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoActiveOrder):
				http.Error(w, "no active order", http.StatusNotFound)
			default:
				slog.Error("order status failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(orderToResponse(order, false)); err != nil {
			http.Error(w, "encode error", http.StatusInternalServerError)
		}
	}
}

func ClearOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, ok := clientAddr(r)
		if !ok {
			http.Error(w, "client address unknown", http.StatusBadRequest)
			return
		}

		if err := orderSvc.Clear(r.Context(), addr); err != nil {
			slog.Error("order clear failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type servingResponse struct {
	Serving *int `json:"serving"`
}

func CurrentlyServingHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, ok, err := orderSvc.CurrentlyServing(r.Context())
		if err != nil {
			slog.Error("currently serving failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := servingResponse{}
		if ok {
			resp.Serving = &number
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, "encode error", http.StatusInternalServerError)
		}
	}
}
