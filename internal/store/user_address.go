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

const userAddressTableName = "homecare.user_addresses"

var userAddressColumns = utils.StructTagValues(types.UserAddress{})

type UserAddressRepository struct {
	db DB
}

func NewUserAddressRepository(db DB) *UserAddressRepository {
	return &UserAddressRepository{db: db}
}

// PrimaryByUserID returns nil without error when the user saved no primary address.
func (r *UserAddressRepository) PrimaryByUserID(ctx context.Context, userID string) (*types.UserAddress, error) {
	query, args, err := psql().
		Select(userAddressColumns...).
		From(userAddressTableName).
		Where(sq.Eq{"user_id": userID, "is_primary": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate primary user address query: %w", err)
	}

	var address types.UserAddress
	err = pgxscan.Get(ctx, r.db, &address, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch primary user address: %w", err)
	}

	return &address, nil
}

func (r *UserAddressRepository) AddressesByUserID(ctx context.Context, userID string) ([]*types.UserAddress, error) {
	query, args, err := psql().
		Select(userAddressColumns...).
		From(userAddressTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("is_primary DESC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user addresses query: %w", err)
	}

	var addresses = make([]*types.UserAddress, 0)
	err = pgxscan.Select(ctx, r.db, &addresses, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user addresses: %w", err)
	}

	return addresses, nil
}

// Create saves an address. A primary address demotes the user's current one
// in the same transaction.
func (r *UserAddressRepository) Create(ctx context.Context, address *types.UserAddress) error {
	now := time.Now()
	address.ID = utils.NanoID()
	address.CreatedAt = now
	address.UpdatedAt = now

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx for user address create: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if address.IsPrimary {
		clearPrimaryQuery, clearPrimaryArgs, err := psql().
			Update(userAddressTableName).
			Set("is_primary", false).
			Set("updated_at", now).
			Where(sq.Eq{"user_id": address.UserID, "is_primary": true}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to generate clear primary query: %w", err)
		}

		_, err = tx.Exec(ctx, clearPrimaryQuery, clearPrimaryArgs...)
		if err != nil {
			return fmt.Errorf("failed to clear current primary address: %w", err)
		}
	}

	insertQuery, insertArgs, err := psql().
		Insert(userAddressTableName).
		SetMap(utils.StructToMap(address)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate user address insert: %w", err)
	}

	_, err = tx.Exec(ctx, insertQuery, insertArgs...)
	if err != nil {
		return fmt.Errorf("failed to insert user address: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user address create tx: %w", err)
	}

	return nil
}

func (r *UserAddressRepository) SetPrimaryByID(ctx context.Context, userID, addressID string) error {
	now := time.Now()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx for user address primary update: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	clearPrimaryQuery, clearPrimaryArgs, err := psql().
		Update(userAddressTableName).
		Set("is_primary", false).
		Set("updated_at", now).
		Where(sq.Eq{"user_id": userID, "is_primary": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate clear primary query: %w", err)
	}

	_, err = tx.Exec(ctx, clearPrimaryQuery, clearPrimaryArgs...)
	if err != nil {
		return fmt.Errorf("failed to clear current primary address: %w", err)
	}

	setPrimaryQuery, setPrimaryArgs, err := psql().
		Update(userAddressTableName).
		Set("is_primary", true).
		Set("updated_at", now).
		Where(sq.Eq{"id": addressID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate set primary query: %w", err)
	}

	tag, err := tx.Exec(ctx, setPrimaryQuery, setPrimaryArgs...)
	if err != nil {
		return fmt.Errorf("failed to set address as primary: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrAddressNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit user address primary update tx: %w", err)
	}

	return nil
}
