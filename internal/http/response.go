package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func respondJSON(w http.ResponseWriter, log logrus.FieldLogger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, log logrus.FieldLogger, status int, code, message string) {
	respondJSON(w, log, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps the domain error categories onto HTTP statuses. Gateway
// and unexpected errors are logged and answered with a generic message.
func handleError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, log, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrSignatureInvalid):
		respondError(w, log, http.StatusBadRequest, "invalid_signature", "webhook verification failed")
	case errors.Is(err, domain.ErrInvalidState):
		respondError(w, log, http.StatusBadRequest, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, log, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrConflict):
		respondError(w, log, http.StatusBadRequest, "already_exists", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, log, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrGateway):
		log.WithError(err).Error("payment gateway error")
		respondError(w, log, http.StatusInternalServerError, "gateway_error", "payment provider unavailable")
	default:
		log.WithError(err).Error("internal error")
		respondError(w, log, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", domain.ErrInvalidInput)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
