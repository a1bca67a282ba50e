package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"coursepay/internal/repositories"
)

// HealthCheck reports whether the backing stores answer.
func HealthCheck(redisClient *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbStatus := "connected"
		if repositories.DB == nil {
			dbStatus = "unavailable"
		} else if sqlDB, err := repositories.DB.DB(); err != nil || sqlDB.Ping() != nil {
			dbStatus = "unavailable"
		}

		redisStatus := "connected"
		if redisClient == nil || redisClient.Ping(c.UserContext()).Err() != nil {
			redisStatus = "unavailable"
		}

		status := "ok"
		if dbStatus != "connected" {
			status = "degraded"
		}

		return c.JSON(fiber.Map{
			"status":  status,
			"version": "1.0.0",
			"services": fiber.Map{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	}
}
