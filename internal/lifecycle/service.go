package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"homecare/internal/utils"
	"homecare/pkg/types"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidDiscount  = errors.New("discount percentage must be between 0 and 100")
	ErrFieldNotEditable = errors.New("field cannot be edited")
)

// lockedColumns change only through the dedicated admin actions.
var lockedColumns = []string{
	"id", "user_id", "category_id", "status", "nurse_id",
	"total_price", "discount_percentage", "discounted_price",
	"deleted_at", "created_at", "updated_at",
}

// Store is the persistence surface the admin actions need. Request returns
// soft-deleted rows too; UpdateRequest stamps updated_at itself.
type Store interface {
	Request(ctx context.Context, requestID string) (*types.ServiceRequest, error)
	UpdateRequest(ctx context.Context, requestID string, fields map[string]any) error
	SoftDeleteRequest(ctx context.Context, requestID string) error
	RestoreRequest(ctx context.Context, requestID string) error
}

type Notifier interface {
	Publish(ctx context.Context, request *types.ServiceRequest, event types.RequestEventType) error
}

// Checker validates a request as it would look after a partial edit. A
// violation comes back as the field error set the intake path produces.
type Checker interface {
	CheckUpdate(ctx context.Context, request *types.ServiceRequest, fields map[string]any) error
}

// Service applies admin mutations to persisted requests.
type Service struct {
	logger   *logrus.Logger
	store    Store
	notifier Notifier
	checker  Checker
}

func NewService(logger *logrus.Logger, store Store, notifier Notifier, checker Checker) *Service {
	return &Service{
		logger:   logger,
		store:    store,
		notifier: notifier,
		checker:  checker,
	}
}

// active loads a request that has not been soft-deleted.
func (s *Service) active(ctx context.Context, requestID string) (*types.ServiceRequest, error) {
	request, err := s.store.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.DeletedAt != nil {
		return nil, types.ErrRequestNotFound
	}

	return request, nil
}

func (s *Service) ChangeStatus(ctx context.Context, requestID string, target types.RequestStatus) (*types.ServiceRequest, error) {
	request, err := s.active(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if target == types.RequestStatusAssigned && request.NurseID == nil {
		return nil, ErrNurseRequired
	}

	next, err := Transition(ctx, request.Status, target)
	if err != nil {
		return nil, err
	}

	if next == request.Status {
		return request, nil
	}

	err = s.store.UpdateRequest(ctx, requestID, map[string]any{"status": next})
	if err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"from":       request.Status,
		"to":         next,
	}).Info("request status changed")

	request.Status = next
	s.publish(ctx, request, types.RequestEventStatusChanged)

	return request, nil
}

// AssignNurse attaches a nurse and moves the request into assigned.
// Assigning again while assigned replaces the nurse.
func (s *Service) AssignNurse(ctx context.Context, requestID, nurseID string) (*types.ServiceRequest, error) {
	if nurseID == "" {
		return nil, ErrNurseRequired
	}

	request, err := s.active(ctx, requestID)
	if err != nil {
		return nil, err
	}

	next, err := Transition(ctx, request.Status, types.RequestStatusAssigned)
	if err != nil {
		return nil, err
	}

	err = s.store.UpdateRequest(ctx, requestID, map[string]any{
		"nurse_id": nurseID,
		"status":   next,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assign nurse: %w", err)
	}

	request.NurseID = &nurseID
	request.Status = next
	s.publish(ctx, request, types.RequestEventNurseAssigned)

	return request, nil
}

// ApplyDiscount records a discount and recomputes the discounted price from
// the stored total.
func (s *Service) ApplyDiscount(ctx context.Context, requestID string, pct float64) (*types.ServiceRequest, error) {
	if pct < 0 || pct > 100 {
		return nil, ErrInvalidDiscount
	}

	request, err := s.active(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := request.ApplyDiscount(pct); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDiscount, err)
	}

	err = s.store.UpdateRequest(ctx, requestID, map[string]any{
		"discount_percentage": request.DiscountPercentage,
		"discounted_price":    request.DiscountedPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply discount: %w", err)
	}

	s.publish(ctx, request, types.RequestEventDiscountApplied)

	return request, nil
}

// Update applies a partial edit. Only shared columns and the columns owned
// by the request's own category may be edited, and the edited request must
// still satisfy its category's rules.
func (s *Service) Update(ctx context.Context, requestID string, fields map[string]any) (*types.ServiceRequest, error) {
	request, err := s.active(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return request, nil
	}

	editable := editableColumns(request.CategoryID)

	var rejected []string
	for field := range fields {
		if !editable[field] {
			rejected = append(rejected, field)
		}
	}

	if len(rejected) > 0 {
		sort.Strings(rejected)
		return nil, fmt.Errorf("%w: %s", ErrFieldNotEditable, strings.Join(rejected, ", "))
	}

	if err := s.checker.CheckUpdate(ctx, request, fields); err != nil {
		s.logger.WithError(err).WithField("request_id", requestID).Info("request update rejected")
		return nil, err
	}

	if err := s.store.UpdateRequest(ctx, requestID, fields); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	return s.store.Request(ctx, requestID)
}

func editableColumns(category types.Category) map[string]bool {
	columns := make(map[string]bool)
	for _, column := range utils.StructTagValues(types.ServiceRequest{}) {
		columns[column] = true
	}

	for _, column := range lockedColumns {
		delete(columns, column)
	}

	for _, column := range types.ForeignColumns(category) {
		delete(columns, column)
	}

	return columns
}

func (s *Service) SoftDelete(ctx context.Context, requestID string) error {
	request, err := s.active(ctx, requestID)
	if err != nil {
		return err
	}

	if err := s.store.SoftDeleteRequest(ctx, requestID); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	now := time.Now()
	request.DeletedAt = &now
	s.publish(ctx, request, types.RequestEventDeleted)

	return nil
}

// Restore undoes a soft delete. Restoring a live request is a no-op.
func (s *Service) Restore(ctx context.Context, requestID string) (*types.ServiceRequest, error) {
	request, err := s.store.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.DeletedAt == nil {
		return request, nil
	}

	if err := s.store.RestoreRequest(ctx, requestID); err != nil {
		return nil, fmt.Errorf("failed to restore request: %w", err)
	}

	request.DeletedAt = nil
	s.publish(ctx, request, types.RequestEventRestored)

	return request, nil
}

// publish is fire-and-forget; delivery failures are logged only.
func (s *Service) publish(ctx context.Context, request *types.ServiceRequest, event types.RequestEventType) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.Publish(ctx, request, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": request.ID,
			"event":      event,
		}).Error("failed to publish request event")
	}
}
