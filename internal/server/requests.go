package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"homecare/internal/intake"
	"homecare/internal/storage"
	"homecare/pkg/types"

	"github.com/sirupsen/logrus"
)

// fileListFields always carry a list of keys, even for a single upload.
var fileListFields = map[string]bool{
	"request_details_files": true,
}

// pdfOnlyCategories reject anything but PDF uploads.
var pdfOnlyCategories = map[types.Category]bool{
	types.CategoryRays:             true,
	types.CategoryPhysiotherapists: true,
}

func (s *Service) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	categoryID, err := strconv.Atoi(r.PathValue("categoryID"))
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, fmt.Sprintf("unsupported category %s", r.PathValue("categoryID")))
		return
	}

	// Unknown categories are rejected before any upload is stored.
	if _, err := intake.Resolve(categoryID); err != nil {
		s.writeError(w, err)
		return
	}

	payload, stored, err := s.decodePayload(w, r, types.Category(categoryID), userID)
	if err != nil {
		var validation intake.ValidationErrors
		if !errors.As(err, &validation) {
			s.logger.WithError(err).WithField("category_id", categoryID).Info("failed to decode request payload")
		}
		s.writeDecodeError(w, err)
		return
	}

	request, err := s.intake.Submit(ctx, categoryID, payload, userID)
	if err != nil {
		s.discardUploads(context.WithoutCancel(ctx), stored)
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, request)
}

func (s *Service) writeDecodeError(w http.ResponseWriter, err error) {
	var validation intake.ValidationErrors
	if errors.As(err, &validation) {
		s.writeValidation(w, validation)
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	if errors.Is(err, errUploadFailed) {
		s.internalServerError(w)
		return
	}

	s.writeMessage(w, http.StatusBadRequest, "invalid request payload")
}

var errUploadFailed = errors.New("upload failed")

// decodePayload reads a JSON, urlencoded or multipart body into a payload.
// Multipart file parts are stored and replaced by their object keys; the
// keys are returned so a failed submission can remove them again.
func (s *Service) decodePayload(w http.ResponseWriter, r *http.Request, category types.Category, userID string) (intake.Payload, []string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, nil, err
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		payload := valuesPayload(r.MultipartForm.Value)
		stored, err := s.storeUploads(r.Context(), category, userID, r.MultipartForm.File, payload)
		if err != nil {
			return nil, nil, err
		}

		return payload, stored, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, nil, err
		}

		return valuesPayload(r.PostForm), nil, nil
	default:
		payload := make(intake.Payload)

		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, nil, err
		}

		return payload, nil, nil
	}
}

func (s *Service) maxBodyBytes() int64 {
	// leave room for the non-file parts and multipart framing
	return s.config.UploadMaxBytes*4 + 1<<20
}

// valuesPayload turns form values into a payload. Keys sent as name[] or
// repeated become lists.
func valuesPayload(values url.Values) intake.Payload {
	payload := make(intake.Payload, len(values))
	for key, vals := range values {
		field, isList := strings.CutSuffix(key, "[]")
		if !isList && len(vals) == 1 {
			payload[field] = vals[0]
			continue
		}

		list := make([]any, 0, len(vals))
		for _, v := range vals {
			list = append(list, v)
		}
		payload[field] = list
	}

	return payload
}

func (s *Service) storeUploads(
	ctx context.Context,
	category types.Category,
	userID string,
	files map[string][]*multipart.FileHeader,
	payload intake.Payload,
) ([]string, error) {
	allowed := storage.ImagesAndPDF
	if pdfOnlyCategories[category] {
		allowed = storage.PDFOnly
	}

	prefix := path.Join("requests", category.String(), userID)

	var stored []string
	errs := make(intake.ValidationErrors)

	for key, headers := range files {
		field, isList := strings.CutSuffix(key, "[]")
		isList = isList || fileListFields[field] || len(headers) > 1

		keys := make([]any, 0, len(headers))
		for _, header := range headers {
			objectKey, err := s.files.Store(ctx, prefix, header, allowed)
			switch {
			case errors.Is(err, storage.ErrUnsupportedType):
				errs.Add(field, uploadTypeMessage(field, allowed))
				continue
			case errors.Is(err, storage.ErrFileTooLarge):
				errs.Add(field, fmt.Sprintf("The %s may not be greater than %d kilobytes.", field, s.config.UploadMaxBytes/1024))
				continue
			case err != nil:
				s.discardUploads(ctx, stored)
				s.logger.WithError(err).WithField("field", field).Error("failed to store upload")
				return nil, fmt.Errorf("%w: %w", errUploadFailed, err)
			}

			stored = append(stored, objectKey)
			keys = append(keys, objectKey)
		}

		if len(keys) == 0 {
			continue
		}

		if isList {
			payload[field] = keys
		} else {
			payload[field] = keys[0]
		}
	}

	if len(errs) > 0 {
		s.discardUploads(ctx, stored)
		return nil, errs
	}

	return stored, nil
}

func uploadTypeMessage(field string, allowed []string) string {
	if len(allowed) == 1 && allowed[0] == "application/pdf" {
		return fmt.Sprintf("The %s must be a file of type: pdf.", field)
	}

	return fmt.Sprintf("The %s must be an image or a pdf.", field)
}

func (s *Service) discardUploads(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.files.Delete(ctx, key); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("failed to discard upload")
		}
	}
}

func (s *Service) handleGetRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	requests, err := s.requests.RequestsByUser(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to fetch requests")
		s.internalServerError(w)
		return
	}

	if requests == nil {
		requests = make([]*types.ServiceRequest, 0)
	}

	s.writeJSON(w, http.StatusOK, requests)
}

// handleGetRequest shows a request to its owner or an admin. Everyone else,
// and non-admins asking for a deleted request, get a 404.
func (s *Service) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := s.userIDFromContext(ctx)
	if err != nil {
		s.logger.WithError(err).Error("user id not found in context")
		s.internalServerError(w)
		return
	}

	request, err := s.requests.Request(ctx, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !isAdminFromContext(ctx) && (request.UserID != userID || request.DeletedAt != nil) {
		s.logger.WithFields(logrus.Fields{
			"user_id":    userID,
			"request_id": request.ID,
		}).Info("request hidden from caller")
		s.writeError(w, types.ErrRequestNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, request)
}

func (s *Service) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.AllCategories(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to fetch categories")
		s.internalServerError(w)
		return
	}

	if categories == nil {
		categories = make([]*types.RequestCategory, 0)
	}

	s.writeJSON(w, http.StatusOK, categories)
}
