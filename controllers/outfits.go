package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	"lookbookapi/models"
	"lookbookapi/services"
	"lookbookapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const defaultNumLooks = 3

type PrecomputeAcceptedResponse struct {
	SkuID    string `json:"sku_id"`
	NumLooks int    `json:"num_looks"`
	TaskID   string `json:"task_id"`
}

type OutfitsController struct {
	Generator  *services.LookGenerator
	Products   services.ProductStore
	Edges      services.EdgeStore
	URLCache   services.URLCacheServiceProvider
	AWSService services.AWSServiceProvider
}

func (controller *OutfitsController) OutfitRoutes(g *echo.Group) {
	g.GET("/:sku/looks", controller.GetLooks)
	g.GET("/:sku/looks/precomputed", controller.GetPrecomputedLooks)
	g.POST("/:sku/looks/precompute", controller.EnqueuePrecompute)
	g.GET("/:sku/compatible", controller.GetCompatible)
	g.POST("/score", controller.ScoreOutfit)
}

// serviceErrorResponse maps service error kinds to HTTP statuses; anything
// unexpected goes to Sentry as a 500.
func serviceErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrAnchorNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrStoreUnavailable):
		sentry.CaptureException(err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Catalog is temporarily unavailable, please try again"})
	}
	sentry.CaptureException(err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal error"})
}

func (controller *OutfitsController) GetLooks(c echo.Context) error {
	skuID := c.Param("sku")
	numLooks := defaultNumLooks
	if raw := c.QueryParam("num_looks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "num_looks must be an integer"})
		}
		numLooks = parsed
	}

	response, err := controller.Generator.Generate(c.Request().Context(), skuID, numLooks)
	if err != nil {
		return serviceErrorResponse(c, err)
	}

	enriched := controller.populatePresignedLookImages(c.Request().Context(), response)
	return c.JSON(http.StatusOK, enriched)
}

// populatePresignedLookImages swaps stored object keys for presigned read
// URLs on a deep copy of the response. The input may come straight from the
// fingerprint cache and must never be mutated.
func (controller *OutfitsController) populatePresignedLookImages(ctx context.Context, response *models.LooksResponse) *models.LooksResponse {
	enriched := &models.LooksResponse{
		Anchor:     response.Anchor,
		Looks:      make([]models.Look, len(response.Looks)),
		TotalLooks: response.TotalLooks,
	}
	for i, look := range response.Looks {
		items := make(map[string]models.LookItem, len(look.Items))
		for slot, item := range look.Items {
			items[slot] = item
		}
		copied := look
		copied.Items = items
		copied.SlotsFilled = append([]string(nil), look.SlotsFilled...)
		enriched.Looks[i] = copied
	}

	// Goroutines only read the item maps and write into their own slice
	// index; the maps are updated after the wait.
	type presignTarget struct {
		lookIndex int
		slot      string
	}
	var targets []presignTarget
	for i := range enriched.Looks {
		for slot := range enriched.Looks[i].Items {
			targets = append(targets, presignTarget{lookIndex: i, slot: slot})
		}
	}
	urls := make([]string, len(targets))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		enriched.Anchor.ImageURL = controller.presignReadURL(ctx, enriched.Anchor.ImageURL)
	}()
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target presignTarget) {
			defer wg.Done()
			urls[i] = controller.presignReadURL(ctx, enriched.Looks[target.lookIndex].Items[target.slot].ImageURL)
		}(i, target)
	}
	wg.Wait()

	for i, target := range targets {
		item := enriched.Looks[target.lookIndex].Items[target.slot]
		item.ImageURL = urls[i]
		enriched.Looks[target.lookIndex].Items[target.slot] = item
	}
	return enriched
}

// presignReadURL resolves an object key through the URL cache, falling back
// to a direct presign when the cache system itself fails.
func (controller *OutfitsController) presignReadURL(ctx context.Context, objectKey string) string {
	if objectKey == "" {
		return ""
	}
	url, err := controller.URLCache.GetReadURL(ctx, objectKey)
	if err == nil {
		return url
	}

	log.Printf("CACHE WARNING: Cache system failed for key '%s': %v. Triggering manual R2 fallback.", objectKey, err)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("failure_type", "cache_system")
		scope.SetExtra("objectKey", objectKey)
		sentry.CaptureException(err)
	})

	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	fallbackUrl, fallbackErr := controller.AWSService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
	if fallbackErr != nil {
		log.Printf("CRITICAL: Manual R2 fallback also failed for key '%s': %v", objectKey, fallbackErr)
		sentry.CaptureException(fallbackErr)
		return ""
	}
	return fallbackUrl
}

func (controller *OutfitsController) GetCompatible(c echo.Context) error {
	skuID := c.Param("sku")
	slotFilter := models.NormalizeSlot(c.QueryParam("slot"))
	minScore := controller.Generator.Config().MinEdgeScore
	if raw := c.QueryParam("min_score"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "min_score must be between 0 and 1"})
		}
		minScore = parsed
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
		}
		limit = parsed
	}
	includeProducts := c.QueryParam("include_products") == "true"

	ctx := c.Request().Context()
	anchor, err := controller.Products.Get(ctx, skuID)
	if err != nil {
		return serviceErrorResponse(c, fmt.Errorf("%w: fetching anchor: %v", services.ErrStoreUnavailable, err))
	}
	if anchor == nil {
		return serviceErrorResponse(c, fmt.Errorf("%w: %v", services.ErrAnchorNotFound, skuID))
	}

	edges, err := controller.Edges.Neighbors(ctx, skuID, minScore)
	if err != nil {
		return serviceErrorResponse(c, fmt.Errorf("%w: fetching neighbors: %v", services.ErrStoreUnavailable, err))
	}

	var filtered []services.Edge
	for _, edge := range edges {
		if slotFilter != "" && models.NormalizeSlot(edge.TargetSlot) != slotFilter {
			continue
		}
		filtered = append(filtered, edge)
		if len(filtered) >= limit {
			break
		}
	}

	var bySku map[string]*models.Product
	if includeProducts && len(filtered) > 0 {
		skus := make([]string, 0, len(filtered))
		for _, edge := range filtered {
			skus = append(skus, edge.PeerSku)
		}
		peers, err := controller.Products.GetMany(ctx, skus)
		if err != nil {
			return serviceErrorResponse(c, fmt.Errorf("%w: fetching peers: %v", services.ErrStoreUnavailable, err))
		}
		bySku = make(map[string]*models.Product, len(peers))
		for i := range peers {
			bySku[peers[i].SkuID] = &peers[i]
		}
	}

	items := make([]models.CompatibleItem, 0, len(filtered))
	for _, edge := range filtered {
		item := models.CompatibleItem{
			SkuID: edge.PeerSku,
			Score: edge.Score,
			Slot:  models.NormalizeSlot(edge.TargetSlot),
		}
		if bySku != nil {
			item.Product = bySku[edge.PeerSku]
		}
		items = append(items, item)
	}

	return c.JSON(http.StatusOK, models.CompatibilityResponse{
		SourceSku:       skuID,
		Slot:            slotFilter,
		CompatibleItems: items,
		TotalCount:      len(items),
	})
}

func (controller *OutfitsController) ScoreOutfit(c echo.Context) error {
	var req models.OutfitScoreIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	response, err := services.ScoreOutfit(c.Request().Context(), controller.Products, controller.Edges, req.SkuIDs)
	if err != nil {
		return serviceErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (controller *OutfitsController) GetPrecomputedLooks(c echo.Context) error {
	skuID := c.Param("sku")
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database connection error"})
	}

	var rows []models.PrecomputedLook
	if err := db.Where("sku_id = ?", skuID).Limit(1).Find(&rows).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch precomputed looks"})
	}
	if len(rows) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No precomputed looks for this sku"})
	}
	return c.JSONBlob(http.StatusOK, rows[0].Payload)
}

func (controller *OutfitsController) EnqueuePrecompute(c echo.Context) error {
	skuID := c.Param("sku")
	numLooks := defaultNumLooks
	if raw := c.QueryParam("num_looks"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "num_looks must be an integer"})
		}
		numLooks = parsed
	}
	if numLooks < 1 || numLooks > controller.Generator.Config().MaxLooks {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "num_looks out of range"})
	}

	asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
	if !ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Service is not available, please try again a bit later"})
	}

	anchor, err := controller.Products.Get(c.Request().Context(), skuID)
	if err != nil {
		return serviceErrorResponse(c, fmt.Errorf("%w: fetching anchor: %v", services.ErrStoreUnavailable, err))
	}
	if anchor == nil {
		return serviceErrorResponse(c, fmt.Errorf("%w: %v", services.ErrAnchorNotFound, skuID))
	}

	task, err := tasks.NewLooksPrecomputeTask(skuID, numLooks)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not schedule precompute, please try again"})
	}
	info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("generate"))
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Sorry, could not schedule precompute, please try again"})
	}
	fmt.Println("[Queue] Looks precompute task submitted, Sku: ", skuID, " Task ID: ", info.ID)

	return c.JSON(http.StatusAccepted, PrecomputeAcceptedResponse{
		SkuID:    skuID,
		NumLooks: numLooks,
		TaskID:   info.ID,
	})
}
