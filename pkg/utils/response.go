package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/zhouzirui/workcity-chat/backend/internal/model/chat"
	"github.com/zhouzirui/workcity-chat/backend/internal/model/commerce"
)

const maxBodyBytes = 1 << 20

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps the error taxonomy onto HTTP status codes.
// Persistence failures are logged and hidden behind a generic message.
func RespondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrNotFound),
		errors.Is(err, commerce.ErrOrderNotFound),
		errors.Is(err, commerce.ErrProductNotFound):
		RespondError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("[http] internal error: %v", err)
		RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

// DecodeJSON reads a bounded JSON body into v. An empty body is an error.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
