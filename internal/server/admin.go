package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"homecare/internal/intake"
	"homecare/internal/store"
	"homecare/pkg/types"

	"github.com/sirupsen/logrus"
)

type adminListQuery struct {
	Status         string `form:"status"`
	CategoryID     int    `form:"category_id"`
	IncludeDeleted bool   `form:"include_deleted"`
	Limit          uint64 `form:"limit"`
	Offset         uint64 `form:"offset"`
}

type statusForm struct {
	Status string `form:"status"`
}

type assignForm struct {
	NurseID string `form:"nurse_id"`
}

type discountForm struct {
	DiscountPercentage *float64 `form:"discount_percentage"`
}

const maxAdminPageSize = 100

func (s *Service) handleAdminGetRequests(w http.ResponseWriter, r *http.Request) {
	var q adminListQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "invalid query parameters")
		return
	}

	if q.Limit == 0 || q.Limit > maxAdminPageSize {
		q.Limit = maxAdminPageSize
	}

	requests, err := s.requests.Requests(r.Context(), store.RequestFilter{
		Status:         types.RequestStatus(q.Status),
		CategoryID:     types.Category(q.CategoryID),
		IncludeDeleted: q.IncludeDeleted,
		Limit:          q.Limit,
		Offset:         q.Offset,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to list requests")
		s.internalServerError(w)
		return
	}

	if requests == nil {
		requests = make([]*types.ServiceRequest, 0)
	}

	s.writeJSON(w, http.StatusOK, requests)
}

func (s *Service) handleAdminPostStatus(w http.ResponseWriter, r *http.Request) {
	var f statusForm
	if !s.decodeForm(w, r, &f) {
		return
	}

	target := types.RequestStatus(strings.TrimSpace(f.Status))
	if !target.Valid() {
		s.writeValidation(w, intake.ValidationErrors{"status": {"The selected status is invalid."}})
		return
	}

	request, err := s.lifecycle.ChangeStatus(r.Context(), r.PathValue("id"), target)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

func (s *Service) handleAdminPostAssign(w http.ResponseWriter, r *http.Request) {
	var f assignForm
	if !s.decodeForm(w, r, &f) {
		return
	}

	nurseID := strings.TrimSpace(f.NurseID)
	if nurseID == "" {
		s.writeValidation(w, intake.ValidationErrors{"nurse_id": {"The nurse_id field is required."}})
		return
	}

	request, err := s.lifecycle.AssignNurse(r.Context(), r.PathValue("id"), nurseID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

func (s *Service) handleAdminPostDiscount(w http.ResponseWriter, r *http.Request) {
	var f discountForm
	if !s.decodeForm(w, r, &f) {
		return
	}

	if f.DiscountPercentage == nil {
		s.writeValidation(w, intake.ValidationErrors{"discount_percentage": {"The discount_percentage field is required."}})
		return
	}

	pct := *f.DiscountPercentage
	if pct < 0 || pct > 100 {
		s.writeValidation(w, intake.ValidationErrors{"discount_percentage": {"The discount_percentage must be between 0 and 100."}})
		return
	}

	request, err := s.lifecycle.ApplyDiscount(r.Context(), r.PathValue("id"), pct)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

func (s *Service) handleAdminPatchRequest(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	request, err := s.lifecycle.Update(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

func (s *Service) handleAdminDeleteRequest(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")

	if err := s.lifecycle.SoftDelete(r.Context(), requestID); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"admin_id":   r.Context().Value(contextKeyUserID),
	}).Info("request soft deleted")

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleAdminPostRestore(w http.ResponseWriter, r *http.Request) {
	request, err := s.lifecycle.Restore(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

// decodeForm parses a urlencoded body into dst, writing a 400 on failure.
func (s *Service) decodeForm(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := r.ParseForm(); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "invalid form payload")
		return false
	}

	if err := decoder.Decode(dst, r.PostForm); err != nil {
		s.logger.WithError(err).Info("failed to decode form")
		s.writeMessage(w, http.StatusBadRequest, "invalid form payload")
		return false
	}

	return true
}
