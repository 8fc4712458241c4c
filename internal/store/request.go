package store

import (
	"context"
	"fmt"
	"time"

	"homecare/internal/utils"
	"homecare/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const requestTableName = "homecare.service_requests"

var requestColumns = utils.StructTagValues(types.ServiceRequest{})

type RequestRepository struct {
	db DB
}

func NewRequestRepository(db DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Request returns a request by id, soft-deleted or not.
func (r *RequestRepository) Request(ctx context.Context, requestID string) (*types.ServiceRequest, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"id": requestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request query: %w", err)
	}

	var request = new(types.ServiceRequest)
	err = pgxscan.Get(ctx, r.db, request, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}

	return request, nil
}

// RequestsByUser lists a user's live requests, newest first.
func (r *RequestRepository) RequestsByUser(ctx context.Context, userID string) ([]*types.ServiceRequest, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"user_id": userID, "deleted_at": nil}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests by user query: %w", err)
	}

	var requests = make([]*types.ServiceRequest, 0)
	err = pgxscan.Select(ctx, r.db, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests by user: %w", err)
	}

	return requests, nil
}

// RequestFilter narrows the admin listing. Zero values match everything.
type RequestFilter struct {
	Status         types.RequestStatus
	CategoryID     types.Category
	IncludeDeleted bool
	Limit          uint64
	Offset         uint64
}

func (r *RequestRepository) Requests(ctx context.Context, filter RequestFilter) ([]*types.ServiceRequest, error) {
	builder := psql().
		Select(requestColumns...).
		From(requestTableName).
		OrderBy("created_at DESC")

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}

	if filter.CategoryID != 0 {
		builder = builder.Where(sq.Eq{"category_id": filter.CategoryID})
	}

	if !filter.IncludeDeleted {
		builder = builder.Where(sq.Eq{"deleted_at": nil})
	}

	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	if filter.Offset > 0 {
		builder = builder.Offset(filter.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests query: %w", err)
	}

	var requests = make([]*types.ServiceRequest, 0)
	err = pgxscan.Select(ctx, r.db, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}

	return requests, nil
}

// CreateRequest assigns the id and timestamps and inserts the record.
func (r *RequestRepository) CreateRequest(ctx context.Context, request *types.ServiceRequest) error {
	now := time.Now()
	request.ID = utils.NanoID()
	request.CreatedAt = now
	request.UpdatedAt = now

	requestMap := utils.StructToMap(request)

	query, args, err := psql().Insert(requestTableName).SetMap(requestMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert request query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create request")
}

// UpdateRequest writes a partial set of columns and stamps updated_at.
func (r *RequestRepository) UpdateRequest(ctx context.Context, requestID string, fields map[string]any) error {
	updateMap := utils.OmitKeys(fields, "id", "created_at")
	updateMap["updated_at"] = time.Now()

	query, args, err := psql().
		Update(requestTableName).
		SetMap(updateMap).
		Where(sq.Eq{"id": requestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update request query for request %s: %w", requestID, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrRequestNotFound
	}

	return nil
}

func (r *RequestRepository) SoftDeleteRequest(ctx context.Context, requestID string) error {
	now := time.Now()

	query, args, err := psql().
		Update(requestTableName).
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": requestID, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete request query for request %s: %w", requestID, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrRequestNotFound
	}

	return nil
}

func (r *RequestRepository) RestoreRequest(ctx context.Context, requestID string) error {
	query, args, err := psql().
		Update(requestTableName).
		Set("deleted_at", nil).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": requestID}).
		Where(sq.NotEq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate restore request query for request %s: %w", requestID, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to restore request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrRequestNotFound
	}

	return nil
}

// PurgeRequests hard deletes requests whose problem description starts with
// prefix. Only the demo data seeder uses it.
func (r *RequestRepository) PurgeRequests(ctx context.Context, prefix string) (int64, error) {
	query, args, err := psql().
		Delete(requestTableName).
		Where(sq.Like{"problem_description": prefix + "%"}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate purge requests query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge requests: %w", err)
	}

	return tag.RowsAffected(), nil
}
