package seed

import (
	"context"
	"fmt"

	"homecare/internal/utils"
	"homecare/pkg/types"

	"github.com/sirupsen/logrus"
)

// CategoryStore is the catalog surface the sync needs.
type CategoryStore interface {
	AllCategoriesUnfiltered(ctx context.Context) ([]*types.RequestCategory, error)
	UpsertCategory(ctx context.Context, category *types.RequestCategory) error
	DeleteCategory(ctx context.Context, id types.Category) error
}

// Catalog is the source of truth for the request categories. Ids are fixed
// because clients route submissions by them.
func Catalog() []types.RequestCategory {
	return []types.RequestCategory{
		{
			ID:           types.CategoryServiceRequest,
			Name:         "Home Nursing Service",
			Slug:         "service-request",
			Description:  utils.StringPtr("Book a nursing service at home, now or at a scheduled time"),
			PricingBasis: types.PricingBasisArea,
			DisplayOrder: 1,
			IsActive:     true,
		},
		{
			ID:           types.CategoryTests,
			Name:         "Lab Tests",
			Slug:         "tests",
			Description:  utils.StringPtr("Single lab tests or test packages collected at home"),
			PricingBasis: types.PricingBasisArea,
			DisplayOrder: 2,
			IsActive:     true,
		},
		{
			ID:           types.CategoryRays,
			Name:         "Rays",
			Slug:         "rays",
			Description:  utils.StringPtr("Home x-ray and imaging with a referral document"),
			PricingBasis: types.PricingBasisArea,
			DisplayOrder: 3,
			IsActive:     true,
		},
		{
			ID:           types.CategoryMachines,
			Name:         "Medical Machines",
			Slug:         "machines",
			Description:  utils.StringPtr("Rent medical equipment for a date range"),
			PricingBasis: types.PricingBasisArea,
			DisplayOrder: 4,
			IsActive:     true,
		},
		{
			ID:           types.CategoryPhysiotherapists,
			Name:         "Physiotherapy",
			Slug:         "physiotherapists",
			Description:  utils.StringPtr("Monthly physiotherapy sessions with optional machines"),
			PricingBasis: types.PricingBasisEntity,
			DisplayOrder: 5,
			IsActive:     true,
		},
		{
			ID:           types.CategoryOffers,
			Name:         "Offers",
			Slug:         "offers",
			Description:  utils.StringPtr("Promotional bundles"),
			PricingBasis: types.PricingBasisNone,
			DisplayOrder: 6,
			IsActive:     true,
		},
		{
			ID:           types.CategoryDuties,
			Name:         "Duties",
			Slug:         "duties",
			Description:  utils.StringPtr("Nurse visits, nursing shifts and babysitting"),
			PricingBasis: types.PricingBasisEntity,
			DisplayOrder: 7,
			IsActive:     true,
		},
		{
			ID:           types.CategoryDoctors,
			Name:         "Doctors",
			Slug:         "doctors",
			Description:  utils.StringPtr("Doctor appointments at home, at the clinic or by video call"),
			PricingBasis: types.PricingBasisEntity,
			DisplayOrder: 8,
			IsActive:     true,
		},
	}
}

// SeedCategories syncs the database with Catalog:
// - Inserts categories that don't exist
// - Updates categories that have changed
// - Deletes categories from the DB that aren't in the catalog
func SeedCategories(ctx context.Context, logger *logrus.Logger, repo CategoryStore) error {
	categories := Catalog()

	seedIDs := make(map[types.Category]bool)
	for _, cat := range categories {
		seedIDs[cat.ID] = true
	}

	existing, err := repo.AllCategoriesUnfiltered(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch existing categories: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"catalog":  len(categories),
		"database": len(existing),
	}).Info("starting category sync")

	deletedCount := 0
	for _, existingCat := range existing {
		if seedIDs[existingCat.ID] {
			continue
		}

		logger.WithField("category_id", existingCat.ID).Info("deleting category")
		if err := repo.DeleteCategory(ctx, existingCat.ID); err != nil {
			return fmt.Errorf("failed to delete category %d: %w", existingCat.ID, err)
		}
		deletedCount++
	}

	for _, cat := range categories {
		if err := repo.UpsertCategory(ctx, &cat); err != nil {
			return fmt.Errorf("failed to upsert category %s: %w", cat.Slug, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"upserted": len(categories),
		"deleted":  deletedCount,
	}).Info("category sync complete")

	return nil
}
