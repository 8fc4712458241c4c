package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"homecare/internal/utils"
	"homecare/pkg/types"

	"github.com/sirupsen/logrus"
)

// SeedMarker prefixes the problem description of every demo request so a
// reset can find them again.
const SeedMarker = "[seed] "

var fakeProblemDescriptions = []string{
	"Post-surgery wound dressing needed twice a week.",
	"Elderly parent needs help with medication and mobility.",
	"Blood work requested by the family doctor.",
	"Follow-up x-ray after a fall last month.",
	"Needs an oxygen concentrator while recovering at home.",
	"Back pain after a car accident, physiotherapy recommended.",
	"Night shift care for a patient after a hospital discharge.",
	"Fever and cough in a child, home visit preferred.",
}

type weightedRequestStatus struct {
	Status types.RequestStatus
	Weight int
}

var weightedStatuses = []weightedRequestStatus{
	{Status: types.RequestStatusSubmitted, Weight: 40},
	{Status: types.RequestStatusAssigned, Weight: 20},
	{Status: types.RequestStatusInProgress, Weight: 15},
	{Status: types.RequestStatusCompleted, Weight: 15},
	{Status: types.RequestStatusCancelled, Weight: 10},
}

var fakeNurseIDs = []string{"nurse_seed_1", "nurse_seed_2", "nurse_seed_3"}

// RequestSeeder is the persistence surface for demo requests.
type RequestSeeder interface {
	CreateRequest(ctx context.Context, request *types.ServiceRequest) error
	PurgeRequests(ctx context.Context, prefix string) (int64, error)
}

// SeedFakeRequests creates count demo requests spread over the fake users.
// Records carry only the shared columns, so every category's foreign
// columns stay null.
func SeedFakeRequests(ctx context.Context, logger *logrus.Logger, repo RequestSeeder, rng *rand.Rand, count int, reset bool) error {
	if reset {
		purged, err := repo.PurgeRequests(ctx, SeedMarker)
		if err != nil {
			return fmt.Errorf("failed to reset seeded fake requests: %w", err)
		}
		logger.WithField("deleted", purged).Info("reset seeded fake requests")
	}

	if count <= 0 {
		logger.Info("skipping fake requests seed because count <= 0")
		return nil
	}

	categories := types.Categories()

	for i := 0; i < count; i++ {
		user := fakeUsers[rng.Intn(len(fakeUsers))]
		status := pickWeightedStatus(rng)

		request := &types.ServiceRequest{
			UserID:             user.ID,
			CategoryID:         categories[rng.Intn(len(categories))],
			Status:             status,
			FullName:           utils.StringPtr(user.GivenName + " " + user.FamilyName),
			PhoneNumber:        utils.StringPtr(user.Phone),
			ProblemDescription: utils.StringPtr(SeedMarker + fakeProblemDescriptions[rng.Intn(len(fakeProblemDescriptions))]),
			RequestAddress:     user.Address,
		}

		if status.HasNurse() {
			request.NurseID = utils.StringPtr(fakeNurseIDs[rng.Intn(len(fakeNurseIDs))])
		}

		if rng.Intn(100) < 70 {
			request.SetTotalPrice(float64(rng.Intn(90)+10) * 5)
			if rng.Intn(100) < 20 {
				_ = request.ApplyDiscount(float64(rng.Intn(4)+1) * 10)
			}
		}

		if err := repo.CreateRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to create fake request %d: %w", i+1, err)
		}
	}

	logger.WithField("created", count).Info("fake requests seeded")
	return nil
}

func pickWeightedStatus(rng *rand.Rand) types.RequestStatus {
	total := 0
	for _, item := range weightedStatuses {
		total += item.Weight
	}

	roll := rng.Intn(total)
	running := 0
	for _, item := range weightedStatuses {
		running += item.Weight
		if roll < running {
			return item.Status
		}
	}

	return types.RequestStatusSubmitted
}

// NewRand returns the generator the seed command uses.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
