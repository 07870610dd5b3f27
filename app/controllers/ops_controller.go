package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foundersbridge/foundersbridge/internal/pkg/statistics"
)

// HandleOpsStats returns the cached platform snapshot for operators.
// Guarded by the ops token middleware.
func HandleOpsStats(c *fiber.Ctx) error {
	data := statistics.GetStatisticsData()
	return c.JSON(fiber.Map{
		"total_users":         data.TotalUsers,
		"total_organizations": data.TotalOrgs,
		"today_requests":      data.TodayRequests,
	})
}
