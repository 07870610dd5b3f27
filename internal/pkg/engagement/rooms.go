package engagement

import (
	"context"

	"github.com/google/uuid"

	"github.com/foundersbridge/foundersbridge/app/models"
)

// LocalRoomProvisioner issues prep room ids locally. It stands in for the
// collaboration backend; downstream systems key their rooms off the id we
// hand out here.
type LocalRoomProvisioner struct{}

func (LocalRoomProvisioner) CreatePrepRoom(_ context.Context, _ *models.EngagementRequest) (string, error) {
	return "room-" + uuid.NewString(), nil
}
