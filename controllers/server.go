package controllers

import (
	"context"
	"log"
	"net/http"

	"lookbookapi/services"

	"github.com/go-playground/validator"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		// Optionally, you could return the error to give each route more control over the status code
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func SetupServer(
	db *gorm.DB,
	generator *services.LookGenerator,
	products services.ProductStore,
	edges services.EdgeStore,
	urlCache services.URLCacheServiceProvider,
	awsService services.AWSServiceProvider,
	asynqClient *asynq.Client,
	asynqInspector *asynq.Inspector,
) *echo.Echo {

	err := awsService.InitPresignClient(context.Background())
	if err != nil {
		log.Fatal("Failed to initialize AWS provider: S3")
	}

	e := echo.New()
	v := validator.New()
	e.Validator = &CustomValidator{validator: v}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			c.Set("__asynqclient", asynqClient)
			c.Set("__asynqinspector", asynqInspector)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	outfitsController := OutfitsController{
		Generator:  generator,
		Products:   products,
		Edges:      edges,
		URLCache:   urlCache,
		AWSService: awsService,
	}
	outfitsGroup := e.Group("/outfits")
	outfitsController.OutfitRoutes(outfitsGroup)

	statsController := StatsController{}
	statsGroup := e.Group("/stats")
	statsController.StatsRoutes(statsGroup)

	return e
}
