package store

import (
	"context"
	"errors"
	"fmt"

	"homecare/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const priceTableName = "homecare.prices"

type PriceRepository struct {
	db DB
}

func NewPriceRepository(db DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// BasePrice returns the configured price for ref. An area-specific row wins
// over the entity's default (area_id NULL) row. Returns nil when neither exists.
func (r *PriceRepository) BasePrice(ctx context.Context, ref types.PriceRef) (*float64, error) {
	builder := psql().
		Select("amount").
		From(priceTableName).
		Where(sq.Eq{"entity_type": ref.Entity, "entity_id": ref.EntityID})

	if ref.AreaID != nil {
		builder = builder.
			Where(sq.Or{sq.Eq{"area_id": *ref.AreaID}, sq.Eq{"area_id": nil}}).
			OrderBy("area_id NULLS LAST")
	} else {
		builder = builder.Where(sq.Eq{"area_id": nil})
	}

	query, args, err := builder.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate price query: %w", err)
	}

	var amount decimal.Decimal
	err = r.db.QueryRow(ctx, query, args...).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch price for %s %d: %w", ref.Entity, ref.EntityID, err)
	}

	price, _ := amount.Round(2).Float64()
	return &price, nil
}
