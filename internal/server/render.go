package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"homecare/internal/intake"
	"homecare/internal/lifecycle"
	"homecare/internal/storage"
	"homecare/pkg/types"
)

const validationMessage = "The given data was invalid."

type messageResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Message string                  `json:"message"`
	Errors  intake.ValidationErrors `json:"errors"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, messageResponse{Message: message})
}

func (s *Service) writeValidation(w http.ResponseWriter, errs intake.ValidationErrors) {
	s.writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
		Message: validationMessage,
		Errors:  errs,
	})
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a 500.
func (s *Service) writeError(w http.ResponseWriter, err error) {
	var unsupported *intake.UnsupportedCategoryError
	var validation intake.ValidationErrors

	switch {
	case errors.As(err, &unsupported):
		s.writeMessage(w, http.StatusBadRequest, unsupported.Error())
	case errors.As(err, &validation):
		s.writeValidation(w, validation)
	case errors.Is(err, types.ErrRequestNotFound),
		errors.Is(err, types.ErrAddressNotFound),
		errors.Is(err, types.ErrCategoryNotFound):
		s.writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrIllegalTransition),
		errors.Is(err, lifecycle.ErrFieldNotEditable):
		s.writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrNurseRequired),
		errors.Is(err, lifecycle.ErrInvalidDiscount):
		s.writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrUnsupportedType),
		errors.Is(err, storage.ErrFileTooLarge):
		s.writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.WithError(err).Error("request failed")
		s.internalServerError(w)
	}
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	s.writeMessage(w, http.StatusInternalServerError, "internal server error")
}
