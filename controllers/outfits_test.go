package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lookbookapi/models"
	"lookbookapi/services"
	"lookbookapi/test"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutfitsTestServer(t *testing.T, urlCache services.URLCacheServiceProvider) (*echo.Echo, *test.MemoryProductStore, *test.MemoryEdgeStore) {
	t.Helper()
	products, edges := test.SeedGymCatalog()
	cache, err := services.NewFingerprintCache(64, time.Minute)
	require.NoError(t, err)
	generator := services.NewLookGenerator(products, edges, cache, services.LoadLookGeneratorConfig())

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	controller := OutfitsController{
		Generator:  generator,
		Products:   products,
		Edges:      edges,
		URLCache:   urlCache,
		AWSService: test.AWSProviderMock{MockUrl: "https://fallback.example.com/signed"},
	}
	controller.OutfitRoutes(e.Group("/outfits"))
	return e, products, edges
}

func TestGetLooksEndpoint(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	req := httptest.NewRequest(http.MethodGet, "/outfits/GYM_TANK_001/looks?num_looks=2", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response models.LooksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "GYM_TANK_001", response.Anchor.SkuID)
	require.Equal(t, 2, response.TotalLooks)

	// Object keys are swapped for presigned URLs on the way out.
	assert.True(t, strings.HasPrefix(response.Anchor.ImageURL, "https://cdn.example.com/"), response.Anchor.ImageURL)
	for _, look := range response.Looks {
		for _, item := range look.Items {
			assert.True(t, strings.HasPrefix(item.ImageURL, "https://cdn.example.com/"), item.ImageURL)
		}
	}
}

func TestGetLooksDefaultsToThree(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	req := httptest.NewRequest(http.MethodGet, "/outfits/GYM_TANK_001/looks", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response models.LooksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 3, response.TotalLooks)
}

func TestGetLooksDoesNotMutateCachedResponse(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/outfits/GYM_TANK_001/looks", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var response models.LooksResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		// A presigned URL enriched in a previous request must never leak
		// into the cached copy and get re-signed.
		assert.Equal(t, 1, strings.Count(response.Anchor.ImageURL, "https://"), response.Anchor.ImageURL)
	}
}

func TestPresignEnrichmentFillsEveryItemOfDenseLooks(t *testing.T) {
	products, edges := test.SeedGymCatalog()
	cache, err := services.NewFingerprintCache(64, time.Minute)
	require.NoError(t, err)
	controller := OutfitsController{
		Generator:  services.NewLookGenerator(products, edges, cache, services.LoadLookGeneratorConfig()),
		Products:   products,
		Edges:      edges,
		URLCache:   test.URLCacheMock{},
		AWSService: test.AWSProviderMock{},
	}

	// A look occupying every wardrobe slot, repeated, so many item presigns
	// run concurrently within one call.
	items := map[string]models.LookItem{}
	for _, slot := range models.AllSlots {
		normalized := models.NormalizeSlot(slot)
		items[normalized] = models.LookItem{
			SkuID:    "SKU_" + normalized,
			ImageURL: "products/" + normalized + ".jpg",
			Slot:     normalized,
		}
	}
	response := &models.LooksResponse{
		Anchor: models.Product{SkuID: "ANCHOR", ImageURL: "products/anchor.jpg"},
	}
	for i := 0; i < 4; i++ {
		response.Looks = append(response.Looks, models.Look{ID: "look_1", Items: items})
	}
	response.TotalLooks = len(response.Looks)

	enriched := controller.populatePresignedLookImages(context.Background(), response)
	assert.True(t, strings.HasPrefix(enriched.Anchor.ImageURL, "https://cdn.example.com/"))
	for _, look := range enriched.Looks {
		require.Len(t, look.Items, len(models.AllSlots))
		for _, item := range look.Items {
			assert.True(t, strings.HasPrefix(item.ImageURL, "https://cdn.example.com/"), item.ImageURL)
		}
	}
	// The source response keeps its object keys.
	assert.Equal(t, "products/anchor.jpg", response.Anchor.ImageURL)
}

func TestGetLooksUnknownSku(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	req := httptest.NewRequest(http.MethodGet, "/outfits/NO_SUCH_SKU/looks", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLooksInvalidNumLooks(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	for _, target := range []string{
		"/outfits/GYM_TANK_001/looks?num_looks=abc",
		"/outfits/GYM_TANK_001/looks?num_looks=0",
		"/outfits/GYM_TANK_001/looks?num_looks=99",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetLooksStoreDown(t *testing.T) {
	e, products, _ := newOutfitsTestServer(t, test.URLCacheMock{})
	products.Err = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodGet, "/outfits/GYM_TANK_001/looks", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetLooksFallsBackWhenURLCacheFails(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{FailWith: errors.New("cache exploded")})

	req := httptest.NewRequest(http.MethodGet, "/outfits/GYM_TANK_001/looks?num_looks=1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response models.LooksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "https://fallback.example.com/signed", response.Anchor.ImageURL)
}

func TestGetCompatibleEndpoint(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	req := httptest.NewRequest(http.MethodGet, "/outfits/GYM_TANK_001/compatible", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response models.CompatibilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, 7, response.TotalCount)
	assert.Equal(t, "SHORTS_001", response.CompatibleItems[0].SkuID)
	assert.Equal(t, 0.90, response.CompatibleItems[0].Score)
	// Scores arrive in descending order.
	for i := 1; i < len(response.CompatibleItems); i++ {
		assert.LessOrEqual(t, response.CompatibleItems[i].Score, response.CompatibleItems[i-1].Score)
	}
	assert.Nil(t, response.CompatibleItems[0].Product)
}

func TestGetCompatibleSlotFilterAndProducts(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	req := httptest.NewRequest(http.MethodGet, "/outfits/GYM_TANK_001/compatible?slot=Footwear&include_products=true", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response models.CompatibilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, 2, response.TotalCount)
	for _, item := range response.CompatibleItems {
		assert.Equal(t, "footwear", item.Slot)
		require.NotNil(t, item.Product)
		assert.Equal(t, item.SkuID, item.Product.SkuID)
	}
}

func TestGetCompatibleMinScore(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	req := httptest.NewRequest(http.MethodGet, "/outfits/GYM_TANK_001/compatible?min_score=0.85", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response models.CompatibilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 3, response.TotalCount)
}

func TestGetCompatibleUnknownSku(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	req := httptest.NewRequest(http.MethodGet, "/outfits/NO_SUCH_SKU/compatible", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScoreOutfitEndpoint(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	req := test.NewJSONRequest(http.MethodPost, "/outfits/score", models.OutfitScoreIn{
		SkuIDs: []string{"GYM_TANK_001", "SHORTS_001", "SNEAKER_001"},
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var response models.OutfitScoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.InDelta(t, 2.58, response.TotalScore, 0.0005)
	assert.InDelta(t, 0.86, response.AverageScore, 0.0005)
	assert.Equal(t, 3, response.PairCount)
}

func TestScoreOutfitValidation(t *testing.T) {
	e, _, _ := newOutfitsTestServer(t, test.URLCacheMock{})

	req := test.NewJSONRequest(http.MethodPost, "/outfits/score", models.OutfitScoreIn{
		SkuIDs: []string{"GYM_TANK_001"},
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
