package seed

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"homecare/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRequests struct {
	created []*types.ServiceRequest
	purged  []string
}

func (m *memoryRequests) CreateRequest(_ context.Context, request *types.ServiceRequest) error {
	m.created = append(m.created, request)
	return nil
}

func (m *memoryRequests) PurgeRequests(_ context.Context, prefix string) (int64, error) {
	m.purged = append(m.purged, prefix)
	return 0, nil
}

type memoryAddresses struct {
	primary map[string]*types.UserAddress
}

func (m *memoryAddresses) PrimaryByUserID(_ context.Context, userID string) (*types.UserAddress, error) {
	return m.primary[userID], nil
}

func (m *memoryAddresses) Create(_ context.Context, address *types.UserAddress) error {
	m.primary[address.UserID] = address
	return nil
}

func TestSeedFakeRequests(t *testing.T) {
	t.Run("Should create canonical demo records", func(t *testing.T) {
		repo := &memoryRequests{}

		err := SeedFakeRequests(context.Background(), quietLogger(), repo, rand.New(rand.NewSource(7)), 50, true)
		require.NoError(t, err)
		assert.Equal(t, []string{SeedMarker}, repo.purged)
		require.Len(t, repo.created, 50)

		for _, request := range repo.created {
			assert.True(t, strings.HasPrefix(*request.ProblemDescription, SeedMarker))
			assert.Equal(t, request.Status.HasNurse(), request.NurseID != nil)
			if request.DiscountedPrice != nil {
				assert.GreaterOrEqual(t, *request.DiscountedPrice, 0.0)
				assert.LessOrEqual(t, *request.DiscountedPrice, *request.TotalPrice)
			}
		}
	})
	t.Run("Should only reset when count is zero", func(t *testing.T) {
		repo := &memoryRequests{}

		require.NoError(t, SeedFakeRequests(context.Background(), quietLogger(), repo, rand.New(rand.NewSource(1)), 0, true))
		assert.Len(t, repo.purged, 1)
		assert.Empty(t, repo.created)
	})
}

func TestSeedFakeAddresses(t *testing.T) {
	existing := &types.UserAddress{ID: "kept", UserID: fakeUsers[0].ID}
	repo := &memoryAddresses{primary: map[string]*types.UserAddress{fakeUsers[0].ID: existing}}

	require.NoError(t, SeedFakeAddresses(context.Background(), quietLogger(), repo))
	assert.Len(t, repo.primary, len(fakeUsers))
	assert.Same(t, existing, repo.primary[fakeUsers[0].ID])
	assert.True(t, repo.primary[fakeUsers[1].ID].IsPrimary)
}
