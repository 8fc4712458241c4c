package seed

import (
	"context"
	"fmt"

	"homecare/internal/utils"
	"homecare/pkg/types"

	"github.com/sirupsen/logrus"
)

type fakeUserSeed struct {
	ID         string
	GivenName  string
	FamilyName string
	Phone      string
	Address    types.RequestAddress
}

var fakeUsers = []fakeUserSeed{
	{ID: "11111111-1111-1111-1111-111111111111", GivenName: "Ava", FamilyName: "Williams", Phone: "0790000001", Address: fakeAddress("Home", "Amman", "Abdoun", "Prince Hashem St", "12")},
	{ID: "22222222-2222-2222-2222-222222222222", GivenName: "Liam", FamilyName: "Johnson", Phone: "0790000002", Address: fakeAddress("Home", "Amman", "Sweifieh", "Wakalat St", "7")},
	{ID: "33333333-3333-3333-3333-333333333333", GivenName: "Noah", FamilyName: "Brown", Phone: "0790000003", Address: fakeAddress("Parents", "Zarqa", "New Zarqa", "36th St", "3")},
	{ID: "44444444-4444-4444-4444-444444444444", GivenName: "Mia", FamilyName: "Davis", Phone: "0790000004", Address: fakeAddress("Home", "Irbid", "Al Husn", "University St", "21")},
	{ID: "55555555-5555-5555-5555-555555555555", GivenName: "Elijah", FamilyName: "Garcia", Phone: "0790000005", Address: fakeAddress("Work", "Amman", "Shmeisani", "Abdul Hamid Sharaf St", "40")},
	{ID: "66666666-6666-6666-6666-666666666666", GivenName: "Olivia", FamilyName: "Miller", Phone: "0790000006", Address: fakeAddress("Home", "Aqaba", "Al Sha'ab", "King Hussein St", "9")},
}

func fakeAddress(location, city, district, street, building string) types.RequestAddress {
	return types.RequestAddress{
		Location:       utils.StringPtr(location),
		City:           utils.StringPtr(city),
		District:       utils.StringPtr(district),
		Street:         utils.StringPtr(street),
		BuildingNumber: utils.StringPtr(building),
	}
}

type AddressSeeder interface {
	PrimaryByUserID(ctx context.Context, userID string) (*types.UserAddress, error)
	Create(ctx context.Context, address *types.UserAddress) error
}

// SeedFakeAddresses gives every fake user a primary saved address. Users
// that already have one are left alone.
func SeedFakeAddresses(ctx context.Context, logger *logrus.Logger, repo AddressSeeder) error {
	seeded := 0
	for _, fakeUser := range fakeUsers {
		existing, err := repo.PrimaryByUserID(ctx, fakeUser.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch primary address for fake user %s: %w", fakeUser.ID, err)
		}

		if existing != nil {
			continue
		}

		address := &types.UserAddress{
			UserID:         fakeUser.ID,
			IsPrimary:      true,
			RequestAddress: fakeUser.Address,
		}

		if err := repo.Create(ctx, address); err != nil {
			return fmt.Errorf("failed to create address for fake user %s: %w", fakeUser.ID, err)
		}
		seeded++
	}

	logger.WithField("created", seeded).Info("fake addresses seeded")
	return nil
}
