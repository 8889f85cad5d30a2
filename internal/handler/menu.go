package handler

import (
	"encoding/json"
	"net/http"

	"canteen/internal/service"
)

func ListMenuHandler(menuSvc *service.MenuService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := menuSvc.ListAvailable(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(items); err != nil {
			http.Error(w, "encode error", http.StatusInternalServerError)
		}
	}
}
