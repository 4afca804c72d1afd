package controllers

import (
	"net/http"

	"lookbookapi/models"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type StatsController struct {
}

func (controller *StatsController) StatsRoutes(g *echo.Group) {
	g.GET("/graph", controller.GetGraphStats)
}

func (controller *StatsController) GetGraphStats(c echo.Context) error {
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var stats models.GraphStats
	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch graph stats"})
	}
	if err := db.Model(&models.CompatibilityEdge{}).Count(&stats.TotalEdges).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch graph stats"})
	}
	if err := db.Model(&models.CompatibilityEdge{}).Distinct("sku_1").Count(&stats.UniqueAnchors).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch graph stats"})
	}
	if stats.TotalEdges > 0 {
		row := db.Model(&models.CompatibilityEdge{}).Select("AVG(score)").Row()
		if err := row.Scan(&stats.AverageScore); err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch graph stats"})
		}
	}
	if err := db.Model(&models.PrecomputedLook{}).Count(&stats.PrecomputedFor).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch graph stats"})
	}

	return c.JSON(http.StatusOK, stats)
}
