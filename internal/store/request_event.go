package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"homecare/internal/utils"
	"homecare/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

const requestEventsTableName = "homecare.request_events"

var requestEventColumns = utils.StructTagValues(types.RequestEvent{})

// RequestEventRepository is the notification outbox. Rows are appended
// here and picked up by the delivery workers.
type RequestEventRepository struct {
	db DB
}

func NewRequestEventRepository(db DB) *RequestEventRepository {
	return &RequestEventRepository{db: db}
}

// Publish appends an event carrying a snapshot of the record.
func (r *RequestEventRepository) Publish(ctx context.Context, request *types.ServiceRequest, event types.RequestEventType) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to encode request %s for event: %w", request.ID, err)
	}

	query, args, err := psql().
		Insert(requestEventsTableName).
		Columns(requestEventColumns...).
		Values(
			utils.NanoID(),
			request.ID,
			request.UserID,
			event,
			request.Status,
			payload,
			time.Now(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert request event query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to record request event")
}

// EventsByRequest returns a request's events, oldest first.
func (r *RequestEventRepository) EventsByRequest(ctx context.Context, requestID string) ([]*types.RequestEvent, error) {
	query, args, err := psql().
		Select(requestEventColumns...).
		From(requestEventsTableName).
		Where(sq.Eq{"request_id": requestID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request events query: %w", err)
	}

	var events []*types.RequestEvent
	err = pgxscan.Select(ctx, r.db, &events, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to get request events")
	}

	return events, nil
}
