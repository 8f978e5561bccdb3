package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type failureBody struct {
	OK      bool    `json:"ok"`
	Error   string  `json:"error"`
	OrderID *string `json:"order_id"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// RespondFailure writes the webhook failure body with status 200.
func RespondFailure(w http.ResponseWriter, err error, orderID *string) {
	RespondJSON(w, http.StatusOK, failureBody{
		OK:      false,
		Error:   err.Error(),
		OrderID: orderID,
	})
}
