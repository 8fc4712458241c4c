package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"homecare/internal/intake"
	"homecare/pkg/types"
)

type addressBody struct {
	types.RequestAddress
	IsPrimary bool `json:"isPrimary"`
}

func (s *Service) handleGetAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	addresses, err := s.addresses.AddressesByUserID(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to fetch addresses")
		s.internalServerError(w)
		return
	}

	if addresses == nil {
		addresses = make([]*types.UserAddress, 0)
	}

	s.writeJSON(w, http.StatusOK, addresses)
}

func (s *Service) handlePostAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	var body addressBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	errs := make(intake.ValidationErrors)
	for field, value := range map[string]*string{
		"location": body.Location,
		"city":     body.City,
		"street":   body.Street,
	} {
		if value == nil || strings.TrimSpace(*value) == "" {
			errs.Add(field, "The "+field+" field is required.")
		}
	}
	if len(errs) > 0 {
		s.writeValidation(w, errs)
		return
	}

	address := &types.UserAddress{
		UserID:         userID,
		IsPrimary:      body.IsPrimary,
		RequestAddress: body.RequestAddress,
	}

	if err := s.addresses.Create(ctx, address); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to save address")
		s.internalServerError(w)
		return
	}

	s.writeJSON(w, http.StatusCreated, address)
}

func (s *Service) handlePostAddressPrimary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	if err := s.addresses.SetPrimaryByID(ctx, userID, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
