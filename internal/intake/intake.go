package intake

import (
	"context"
	"errors"
	"fmt"

	"homecare/pkg/types"

	"github.com/sirupsen/logrus"
)

var ErrMissingOwner = errors.New("owner user id is required")

// Store persists canonical records. CreateRequest assigns the identity.
type Store interface {
	CreateRequest(ctx context.Context, request *types.ServiceRequest) error
}

// Pricer quotes the base price of a referenced entity. A nil price with a
// nil error means the entity has no price configured.
type Pricer interface {
	BasePrice(ctx context.Context, ref types.PriceRef) (*float64, error)
}

// AddressBook returns the owner's primary saved address, or nil when none
// has been saved.
type AddressBook interface {
	PrimaryByUserID(ctx context.Context, userID string) (*types.UserAddress, error)
}

// Notifier hands persisted records to notification delivery.
type Notifier interface {
	Publish(ctx context.Context, request *types.ServiceRequest, event types.RequestEventType) error
}

type Service struct {
	logger    *logrus.Logger
	validator *Validator
	store     Store
	pricer    Pricer
	addresses AddressBook
	notifier  Notifier
}

func NewService(
	logger *logrus.Logger,
	validator *Validator,
	store Store,
	pricer Pricer,
	addresses AddressBook,
	notifier Notifier,
) *Service {
	return &Service{
		logger:    logger,
		validator: validator,
		store:     store,
		pricer:    pricer,
		addresses: addresses,
		notifier:  notifier,
	}
}

// Normalize resolves the category rule, validates p against it and maps it
// into a canonical record. It returns *UnsupportedCategoryError for unknown
// categories and ValidationErrors holding every violation.
func Normalize(ctx context.Context, v *Validator, categoryID int, p Payload) (*types.ServiceRequest, error) {
	rule, err := Resolve(categoryID)
	if err != nil {
		return nil, err
	}

	verrs, err := v.Validate(ctx, rule.Spec(), p)
	if err != nil {
		return nil, err
	}

	if len(verrs) > 0 {
		return nil, verrs
	}

	record := rule.Map(p)
	record.CategoryID = rule.Category
	record.Status = types.RequestStatusSubmitted
	record.NurseID = nil

	return record, nil
}

// Submit runs the intake pipeline for one submission and persists the
// resulting record on behalf of ownerUserID.
func (s *Service) Submit(ctx context.Context, categoryID int, p Payload, ownerUserID string) (*types.ServiceRequest, error) {
	if ownerUserID == "" {
		return nil, ErrMissingOwner
	}

	entry := s.logger.WithFields(logrus.Fields{
		"category_id": categoryID,
		"user_id":     ownerUserID,
	})

	record, err := Normalize(ctx, s.validator, categoryID, p)
	if err != nil {
		var unsupported *UnsupportedCategoryError
		var verrs ValidationErrors
		switch {
		case errors.As(err, &unsupported):
			entry.WithError(err).Warn("rejected submission for unsupported category")
		case errors.As(err, &verrs):
			entry.WithField("field_errors", map[string][]string(verrs)).Info("submission failed validation")
		default:
			entry.WithError(err).Error("failed to validate submission")
		}
		return nil, err
	}

	rule, _ := Resolve(categoryID)
	if rule.Unspecified {
		entry.Warn("submission filed under a category without defined business rules")
	}

	record.UserID = ownerUserID

	if record.UseSavedAddress {
		if err := s.applySavedAddress(ctx, record); err != nil {
			return nil, err
		}
	}

	if err := s.applyPrice(ctx, rule, record); err != nil {
		entry.WithError(err).Error("failed to price submission")
		return nil, err
	}

	if err := s.store.CreateRequest(ctx, record); err != nil {
		entry.WithError(err).Error("failed to persist submission")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	entry.WithField("request_id", record.ID).Info("request submitted")

	if err := s.notifier.Publish(ctx, record, types.RequestEventCreated); err != nil {
		entry.WithError(err).WithField("request_id", record.ID).Error("failed to publish request created event")
	}

	return record, nil
}

// applySavedAddress copies the owner's primary saved address onto record.
func (s *Service) applySavedAddress(ctx context.Context, record *types.ServiceRequest) error {
	if s.addresses == nil {
		return nil
	}

	address, err := s.addresses.PrimaryByUserID(ctx, record.UserID)
	if err != nil {
		return fmt.Errorf("failed to load saved address: %w", err)
	}

	if address == nil {
		return ValidationErrors{
			"use_saved_address": {"No saved address is available for this account."},
		}
	}

	record.RequestAddress = address.RequestAddress

	return nil
}

func (s *Service) applyPrice(ctx context.Context, rule CategoryRule, record *types.ServiceRequest) error {
	if s.pricer == nil || rule.Price == nil {
		return nil
	}

	ref := rule.Price(record)
	if ref == nil {
		return nil
	}

	price, err := s.pricer.BasePrice(ctx, *ref)
	if err != nil {
		return err
	}

	if price != nil {
		record.SetTotalPrice(*price)
	}

	return nil
}
